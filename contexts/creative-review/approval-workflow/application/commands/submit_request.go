package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "creativehub/contexts/creative-review/approval-workflow/application"
	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
	domainerrors "creativehub/contexts/creative-review/approval-workflow/domain/errors"
	"creativehub/contexts/creative-review/approval-workflow/ports"
)

type SubmitRequestCommand struct {
	// RequestID is optional; one is generated when empty.
	RequestID      string
	OfferID        string
	OfferName      string
	AdvertiserID   string
	AdvertiserName string
	PublisherID    string
	Priority       entities.Priority
	CreativeType   string
	CreativeCount  int
}

// SubmitRequestUseCase is the intake path. Every request starts in new/admin
// regardless of what the caller sends.
type SubmitRequestUseCase struct {
	Requests ports.RequestCreator
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc SubmitRequestUseCase) Execute(ctx context.Context, cmd SubmitRequestCommand) (entities.CreativeRequest, error) {
	logger := application.ResolveLogger(uc.Logger)

	requestID := strings.TrimSpace(cmd.RequestID)
	if requestID == "" {
		generated, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.CreativeRequest{}, err
		}
		requestID = generated
	}
	priority := entities.Priority(strings.ToLower(strings.TrimSpace(string(cmd.Priority))))
	if priority == "" {
		priority = entities.PriorityMedium
	}

	now := uc.Clock.Now().UTC()
	request := entities.CreativeRequest{
		RequestID:      requestID,
		Status:         entities.RequestStatusNew,
		ApprovalStage:  entities.ApprovalStageAdmin,
		OfferID:        strings.TrimSpace(cmd.OfferID),
		OfferName:      strings.TrimSpace(cmd.OfferName),
		AdvertiserID:   strings.TrimSpace(cmd.AdvertiserID),
		AdvertiserName: strings.TrimSpace(cmd.AdvertiserName),
		PublisherID:    strings.TrimSpace(cmd.PublisherID),
		Priority:       priority,
		CreativeType:   strings.TrimSpace(cmd.CreativeType),
		CreativeCount:  cmd.CreativeCount,
		SubmittedAt:    now,
		UpdatedAt:      now,
	}
	if !request.ValidateCreate() {
		return entities.CreativeRequest{}, fmt.Errorf("%w: missing required request fields or unknown priority", domainerrors.ErrValidation)
	}
	if err := uc.Requests.CreateRequest(ctx, request); err != nil {
		return entities.CreativeRequest{}, err
	}

	logger.Info("creative request submitted",
		"event", "creative_request_submitted",
		"module", application.ModuleName,
		"layer", "application",
		"request_id", request.RequestID,
		"offer_id", request.OfferID,
		"advertiser_id", request.AdvertiserID,
		"publisher_id", request.PublisherID,
		"priority", string(request.Priority),
	)
	return request, nil
}
