package queries

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "creativehub/contexts/creative-review/approval-workflow/application"
	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
	domainerrors "creativehub/contexts/creative-review/approval-workflow/domain/errors"
	"creativehub/contexts/creative-review/approval-workflow/domain/services"
	"creativehub/contexts/creative-review/approval-workflow/ports"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*limit far from int overflow.
	MaxPage = 1_000_000
)

type ListRequestsQuery struct {
	Status        string
	ApprovalStage string
	Search        string
	AdvertiserID  string
	PublisherID   string
	ReviewedBy    string
	SortBy        string
	Order         string
	Page          int
	Limit         int
}

type ListRequestsResult struct {
	Items []entities.CreativeRequest
	Total int
	Page  int
	Limit int
}

// RequestView adds what the given role may do next to a stored request.
type RequestView struct {
	Request             entities.CreativeRequest
	Terminal            bool
	PermittedOperations []entities.Operation
}

// QueryUseCase is read-only; nothing here writes to the store.
type QueryUseCase struct {
	Requests ports.RequestReader
	History  ports.HistoryReader
	Logger   *slog.Logger
}

func (uc QueryUseCase) ListRequests(ctx context.Context, query ListRequestsQuery) (ListRequestsResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	filter, page, limit, err := buildFilter(query)
	if err != nil {
		return ListRequestsResult{}, err
	}
	items, total, err := uc.Requests.ListRequests(ctx, filter)
	if err != nil {
		return ListRequestsResult{}, err
	}
	logger.Debug("creative requests listed",
		"event", "creative_requests_listed",
		"module", application.ModuleName,
		"layer", "application",
		"total", total,
		"page", page,
		"limit", limit,
	)
	return ListRequestsResult{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func (uc QueryUseCase) GetRequest(ctx context.Context, requestID string, role entities.ActorRole) (RequestView, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return RequestView{}, fmt.Errorf("%w: request id is required", domainerrors.ErrValidation)
	}
	request, err := uc.Requests.GetRequest(ctx, requestID)
	if err != nil {
		return RequestView{}, err
	}
	view := RequestView{
		Request:  request,
		Terminal: services.IsTerminal(request.State()),
	}
	if _, ok := entities.ParseActorRole(string(role)); ok {
		view.PermittedOperations = services.PermittedOperations(request.State(), role)
	}
	return view, nil
}

func (uc QueryUseCase) GetHistory(ctx context.Context, requestID string) ([]entities.HistoryEntry, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, fmt.Errorf("%w: request id is required", domainerrors.ErrValidation)
	}
	return uc.History.ListHistory(ctx, requestID)
}

func buildFilter(query ListRequestsQuery) (ports.RequestFilter, int, int, error) {
	page := query.Page
	if page <= 0 {
		page = 1
	}
	if page > MaxPage {
		return ports.RequestFilter{}, 0, 0, fmt.Errorf("%w: page must not exceed %d", domainerrors.ErrValidation, MaxPage)
	}
	limit := query.Limit
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	filter := ports.RequestFilter{
		Search:       strings.TrimSpace(query.Search),
		AdvertiserID: strings.TrimSpace(query.AdvertiserID),
		PublisherID:  strings.TrimSpace(query.PublisherID),
		ReviewedBy:   strings.TrimSpace(query.ReviewedBy),
		Offset:       (page - 1) * limit,
		Limit:        limit,
	}

	if status := strings.ToLower(strings.TrimSpace(query.Status)); status != "" {
		switch s := entities.RequestStatus(status); s {
		case entities.RequestStatusNew, entities.RequestStatusPending, entities.RequestStatusApproved,
			entities.RequestStatusRejected, entities.RequestStatusSentBack, entities.RequestStatusRevised:
			filter.Status = s
		default:
			return ports.RequestFilter{}, 0, 0, fmt.Errorf("%w: unknown status %q", domainerrors.ErrValidation, query.Status)
		}
	}
	if stage := strings.ToLower(strings.TrimSpace(query.ApprovalStage)); stage != "" {
		switch s := entities.ApprovalStage(stage); s {
		case entities.ApprovalStageAdmin, entities.ApprovalStageAdvertiser, entities.ApprovalStageCompleted:
			filter.ApprovalStage = s
		default:
			return ports.RequestFilter{}, 0, 0, fmt.Errorf("%w: unknown approval stage %q", domainerrors.ErrValidation, query.ApprovalStage)
		}
	}

	switch by := ports.SortField(strings.ToLower(strings.TrimSpace(query.SortBy))); by {
	case "":
		filter.SortBy = ports.SortBySubmittedAt
	case ports.SortBySubmittedAt, ports.SortByPriority, ports.SortByAdvertiserName:
		filter.SortBy = by
	default:
		return ports.RequestFilter{}, 0, 0, fmt.Errorf("%w: unknown sort field %q", domainerrors.ErrValidation, query.SortBy)
	}
	switch order := ports.SortOrder(strings.ToLower(strings.TrimSpace(query.Order))); order {
	case "":
		filter.Order = ports.SortDesc
	case ports.SortAsc, ports.SortDesc:
		filter.Order = order
	default:
		return ports.RequestFilter{}, 0, 0, fmt.Errorf("%w: unknown sort order %q", domainerrors.ErrValidation, query.Order)
	}
	return filter, page, limit, nil
}
