package httpadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"creativehub/contexts/creative-review/approval-workflow/application/commands"
	"creativehub/contexts/creative-review/approval-workflow/application/queries"
	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
	domainerrors "creativehub/contexts/creative-review/approval-workflow/domain/errors"
	httptransport "creativehub/contexts/creative-review/approval-workflow/transport/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Handler struct {
	Submit  commands.SubmitRequestUseCase
	Review  commands.ReviewUseCase
	Queries queries.QueryUseCase
	Logger  *slog.Logger
}

// Actor is the caller identity taken from the request headers.
type Actor struct {
	UserID string
	Role   string
}

func (h Handler) SubmitRequestHandler(
	ctx context.Context,
	req httptransport.SubmitRequestRequest,
) (httptransport.SubmitRequestResponse, error) {
	if err := validateStruct(req); err != nil {
		return httptransport.SubmitRequestResponse{}, err
	}
	created, err := h.Submit.Execute(ctx, commands.SubmitRequestCommand{
		RequestID:      req.RequestID,
		OfferID:        req.OfferID,
		OfferName:      req.OfferName,
		AdvertiserID:   req.AdvertiserID,
		AdvertiserName: req.AdvertiserName,
		PublisherID:    req.PublisherID,
		Priority:       entities.Priority(req.Priority),
		CreativeType:   req.CreativeType,
		CreativeCount:  req.CreativeCount,
	})
	if err != nil {
		return httptransport.SubmitRequestResponse{}, err
	}
	return httptransport.SubmitRequestResponse{Request: mapRequest(created)}, nil
}

func (h Handler) ListRequestsHandler(
	ctx context.Context,
	req httptransport.ListRequestsRequest,
) (httptransport.ListRequestsResponse, error) {
	if err := validateStruct(req); err != nil {
		return httptransport.ListRequestsResponse{}, err
	}
	result, err := h.Queries.ListRequests(ctx, queries.ListRequestsQuery{
		Status:        req.Status,
		ApprovalStage: req.ApprovalStage,
		Search:        req.Search,
		AdvertiserID:  req.AdvertiserID,
		PublisherID:   req.PublisherID,
		ReviewedBy:    req.ReviewedBy,
		SortBy:        req.SortBy,
		Order:         req.Order,
		Page:          req.Page,
		Limit:         req.Limit,
	})
	if err != nil {
		return httptransport.ListRequestsResponse{}, err
	}
	items := make([]httptransport.CreativeRequestDTO, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, mapRequest(item))
	}
	return httptransport.ListRequestsResponse{
		Items: items,
		Total: result.Total,
		Page:  result.Page,
		Limit: result.Limit,
	}, nil
}

func (h Handler) GetRequestHandler(
	ctx context.Context,
	actor Actor,
	requestID string,
) (httptransport.GetRequestResponse, error) {
	view, err := h.Queries.GetRequest(ctx, requestID, entities.ActorRole(strings.ToLower(strings.TrimSpace(actor.Role))))
	if err != nil {
		return httptransport.GetRequestResponse{}, err
	}
	permitted := make([]string, 0, len(view.PermittedOperations))
	for _, op := range view.PermittedOperations {
		permitted = append(permitted, string(op))
	}
	return httptransport.GetRequestResponse{
		Request:             mapRequest(view.Request),
		Terminal:            view.Terminal,
		PermittedOperations: permitted,
	}, nil
}

func (h Handler) GetHistoryHandler(ctx context.Context, requestID string) (httptransport.GetHistoryResponse, error) {
	entries, err := h.Queries.GetHistory(ctx, requestID)
	if err != nil {
		return httptransport.GetHistoryResponse{}, err
	}
	items := make([]httptransport.HistoryEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, mapHistoryEntry(entry))
	}
	return httptransport.GetHistoryResponse{RequestID: strings.TrimSpace(requestID), Items: items}, nil
}

// TransitionHandler runs one review operation named by the route.
func (h Handler) TransitionHandler(
	ctx context.Context,
	actor Actor,
	requestID string,
	operation string,
	req httptransport.TransitionRequest,
) (httptransport.TransitionResponse, error) {
	role, ok := entities.ParseActorRole(strings.ToLower(strings.TrimSpace(actor.Role)))
	if !ok {
		return httptransport.TransitionResponse{}, fmt.Errorf("%w: unknown actor role %q", domainerrors.ErrValidation, actor.Role)
	}
	reviewer := commands.ReviewActor{ActorID: actor.UserID, Role: role}

	var (
		result commands.TransitionResult
		err    error
	)
	switch op, _ := entities.ParseOperation(strings.ToLower(strings.TrimSpace(operation))); op {
	case entities.OperationApprove:
		result, err = h.Review.Approve(ctx, requestID, reviewer, req.Reason)
	case entities.OperationReject:
		result, err = h.Review.Reject(ctx, requestID, reviewer, req.Reason)
	case entities.OperationForward:
		result, err = h.Review.Forward(ctx, requestID, reviewer, req.Reason)
	case entities.OperationReturn:
		result, err = h.Review.Return(ctx, requestID, reviewer, req.Reason)
	default:
		return httptransport.TransitionResponse{}, fmt.Errorf("%w: unknown operation %q", domainerrors.ErrValidation, operation)
	}
	if err != nil {
		return httptransport.TransitionResponse{}, err
	}
	return httptransport.TransitionResponse{
		Request: mapRequest(result.Request),
		Entry:   mapHistoryEntry(result.Entry),
	}, nil
}

func validateStruct(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domainerrors.ErrValidation, err)
	}
	details := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		details = append(details, fmt.Sprintf("%s failed %s", fieldErr.Field(), fieldErr.Tag()))
	}
	return fmt.Errorf("%w: %s", domainerrors.ErrValidation, strings.Join(details, "; "))
}

func mapRequest(item entities.CreativeRequest) httptransport.CreativeRequestDTO {
	return httptransport.CreativeRequestDTO{
		RequestID:             item.RequestID,
		Status:                string(item.Status),
		ApprovalStage:         string(item.ApprovalStage),
		OfferID:               item.OfferID,
		OfferName:             item.OfferName,
		AdvertiserID:          item.AdvertiserID,
		AdvertiserName:        item.AdvertiserName,
		PublisherID:           item.PublisherID,
		Priority:              string(item.Priority),
		CreativeType:          item.CreativeType,
		CreativeCount:         item.CreativeCount,
		AdminStatus:           item.AdminStatus,
		AdminApprovedAt:       formatOptionalTime(item.AdminApprovedAt),
		AdminComments:         item.AdminComments,
		AdvertiserStatus:      item.AdvertiserStatus,
		AdvertiserRespondedAt: formatOptionalTime(item.AdvertiserRespondedAt),
		AdvertiserComments:    item.AdvertiserComments,
		SubmittedAt:           item.SubmittedAt.UTC().Format(time.RFC3339),
		UpdatedAt:             item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapHistoryEntry(entry entities.HistoryEntry) httptransport.HistoryEntryDTO {
	return httptransport.HistoryEntryDTO{
		HistoryID:  entry.HistoryID,
		RequestID:  entry.RequestID,
		Operation:  string(entry.Operation),
		FromStatus: string(entry.FromStatus),
		FromStage:  string(entry.FromStage),
		ToStatus:   string(entry.ToStatus),
		ToStage:    string(entry.ToStage),
		ActorID:    entry.ActorID,
		ActorRole:  string(entry.ActorRole),
		Reason:     entry.Reason,
		CreatedAt:  entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func formatOptionalTime(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := value.UTC().Format(time.RFC3339)
	return &formatted
}
