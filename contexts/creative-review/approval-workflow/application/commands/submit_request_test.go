package commands

import (
	"context"
	"errors"
	"testing"

	"creativehub/contexts/creative-review/approval-workflow/adapters/memory"
	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
	domainerrors "creativehub/contexts/creative-review/approval-workflow/domain/errors"
)

func TestSubmitRequestStartsInAdminReview(t *testing.T) {
	store := memory.NewStore(nil)
	uc := SubmitRequestUseCase{Requests: store, Clock: fixedClock{now: testNow}, IDGen: &sequenceIDs{}}

	created, err := uc.Execute(context.Background(), SubmitRequestCommand{
		OfferID:        " offer-9 ",
		OfferName:      "Winter Promo",
		AdvertiserID:   "adv-9",
		AdvertiserName: "Globex",
		PublisherID:    "pub-9",
		Priority:       "URGENT",
		CreativeType:   "video",
		CreativeCount:  1,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if created.RequestID != "id-001" || created.OfferID != "offer-9" {
		t.Fatalf("unexpected request identity: %+v", created)
	}
	if created.State() != (entities.State{Status: entities.RequestStatusNew, Stage: entities.ApprovalStageAdmin}) {
		t.Fatalf("expected new/admin, got %s", created.State())
	}
	if created.Priority != entities.PriorityUrgent || !created.SubmittedAt.Equal(testNow) {
		t.Fatalf("unexpected priority or timestamp: %+v", created)
	}

	stored, err := store.GetRequest(context.Background(), created.RequestID)
	if err != nil {
		t.Fatalf("stored request lookup failed: %v", err)
	}
	if stored.OfferName != "Winter Promo" {
		t.Fatalf("expected stored offer name, got %q", stored.OfferName)
	}
}

func TestSubmitRequestRefusesDuplicatesAndBadInput(t *testing.T) {
	store := memory.NewStore([]entities.CreativeRequest{seedRequest("r-dup", entities.RequestStatusNew, entities.ApprovalStageAdmin)})
	uc := SubmitRequestUseCase{Requests: store, Clock: fixedClock{now: testNow}, IDGen: &sequenceIDs{}}

	_, err := uc.Execute(context.Background(), SubmitRequestCommand{
		RequestID:    "r-dup",
		OfferID:      "offer-1",
		AdvertiserID: "adv-1",
		PublisherID:  "pub-1",
	})
	if !errors.Is(err, domainerrors.ErrDuplicateRequest) {
		t.Fatalf("expected duplicate request, got %v", err)
	}

	_, err = uc.Execute(context.Background(), SubmitRequestCommand{OfferID: "offer-1", PublisherID: "pub-1"})
	if !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected validation error for missing advertiser, got %v", err)
	}

	_, err = uc.Execute(context.Background(), SubmitRequestCommand{
		OfferID: "offer-1", AdvertiserID: "adv-1", PublisherID: "pub-1", Priority: "critical",
	})
	if !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected validation error for unknown priority, got %v", err)
	}
}
