package approvalworkflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	httpadapter "creativehub/contexts/creative-review/approval-workflow/adapters/http"
	domainerrors "creativehub/contexts/creative-review/approval-workflow/domain/errors"
	httptransport "creativehub/contexts/creative-review/approval-workflow/transport/http"
)

func TestInMemoryModuleReviewFlow(t *testing.T) {
	module := NewInMemoryModule(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()
	module.Start(ctx)
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = module.Stop(stopCtx)
	})

	submitted, err := module.Handler.SubmitRequestHandler(ctx, httptransport.SubmitRequestRequest{
		RequestID:      "r-module-1",
		OfferID:        "offer-1",
		OfferName:      "Spring Sale",
		AdvertiserID:   "adv-1",
		AdvertiserName: "Acme",
		PublisherID:    "pub-1",
		Priority:       "high",
		CreativeType:   "banner",
		CreativeCount:  2,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if submitted.Request.Status != "new" || submitted.Request.ApprovalStage != "admin" {
		t.Fatalf("expected new/admin, got %+v", submitted.Request)
	}

	admin := httpadapter.Actor{UserID: "admin-1", Role: "admin"}
	advertiser := httpadapter.Actor{UserID: "adv-user-1", Role: "advertiser"}

	view, err := module.Handler.GetRequestHandler(ctx, admin, "r-module-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if view.Terminal || len(view.PermittedOperations) != 3 {
		t.Fatalf("expected approve/reject/forward for admin, got %+v", view.PermittedOperations)
	}

	if _, err := module.Handler.TransitionHandler(ctx, admin, "r-module-1", "approve", httptransport.TransitionRequest{}); err != nil {
		t.Fatalf("admin approve failed: %v", err)
	}
	resp, err := module.Handler.TransitionHandler(ctx, advertiser, "r-module-1", "approve", httptransport.TransitionRequest{Reason: "<b>looks</b> good"})
	if err != nil {
		t.Fatalf("advertiser approve failed: %v", err)
	}
	if resp.Request.Status != "approved" || resp.Request.ApprovalStage != "completed" {
		t.Fatalf("expected approved/completed, got %+v", resp.Request)
	}
	if resp.Entry.Reason != "looks good" {
		t.Fatalf("expected sanitized reason, got %q", resp.Entry.Reason)
	}

	_, err = module.Handler.TransitionHandler(ctx, admin, "r-module-1", "reject", httptransport.TransitionRequest{Reason: "late"})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid transition on terminal request, got %v", err)
	}

	history, err := module.Handler.GetHistoryHandler(ctx, "r-module-1")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history.Items) != 2 || history.Items[0].Operation != "approve" || history.Items[1].ActorRole != "advertiser" {
		t.Fatalf("unexpected history: %+v", history.Items)
	}

	list, err := module.Handler.ListRequestsHandler(ctx, httptransport.ListRequestsRequest{ReviewedBy: "adv-user-1"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if list.Total != 1 || list.Items[0].RequestID != "r-module-1" || list.Limit != 20 || list.Page != 1 {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestHandlerRejectsInvalidPayloads(t *testing.T) {
	module := NewInMemoryModule(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	_, err := module.Handler.SubmitRequestHandler(ctx, httptransport.SubmitRequestRequest{OfferID: "offer-1", Priority: "critical"})
	if !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = module.Handler.ListRequestsHandler(ctx, httptransport.ListRequestsRequest{SortBy: "offer_name"})
	if !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected validation error for unknown sort, got %v", err)
	}

	_, err = module.Handler.TransitionHandler(ctx, httpadapter.Actor{UserID: "u-1", Role: "publisher"}, "r-1", "approve", httptransport.TransitionRequest{})
	if !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected validation error for unknown role, got %v", err)
	}

	_, err = module.Handler.TransitionHandler(ctx, httpadapter.Actor{UserID: "u-1", Role: "admin"}, "r-1", "escalate", httptransport.TransitionRequest{})
	if !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected validation error for unknown operation, got %v", err)
	}

	_, err = module.Handler.GetRequestHandler(ctx, httpadapter.Actor{}, "missing")
	if !errors.Is(err, domainerrors.ErrRequestNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
