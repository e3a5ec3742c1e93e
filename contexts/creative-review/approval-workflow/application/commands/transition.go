package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	application "creativehub/contexts/creative-review/approval-workflow/application"
	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
	domainerrors "creativehub/contexts/creative-review/approval-workflow/domain/errors"
	"creativehub/contexts/creative-review/approval-workflow/domain/services"
	"creativehub/contexts/creative-review/approval-workflow/ports"
)

const tracerName = "creativehub/approval-workflow"

type TransitionCommand struct {
	RequestID string
	ActorID   string
	ActorRole entities.ActorRole
	Operation entities.Operation
	Reason    string
}

type TransitionResult struct {
	Request entities.CreativeRequest
	Entry   entities.HistoryEntry
}

// TransitionUseCase is the only code that changes a request's workflow state.
type TransitionUseCase struct {
	Requests   ports.RequestReader
	Store      ports.TransitionStore
	Dispatcher ports.Dispatcher
	Sanitizer  ports.CommentSanitizer
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Metrics    ports.TransitionMetrics
	Tracer     trace.Tracer
	Logger     *slog.Logger
}

func (uc TransitionUseCase) Execute(ctx context.Context, cmd TransitionCommand) (TransitionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	started := time.Now()

	tracer := uc.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	ctx, span := tracer.Start(ctx, "approval_workflow.transition", trace.WithAttributes(
		attribute.String("creative_request.id", strings.TrimSpace(cmd.RequestID)),
		attribute.String("workflow.operation", string(cmd.Operation)),
		attribute.String("workflow.actor_role", string(cmd.ActorRole)),
	))
	defer span.End()

	result, err := uc.execute(ctx, cmd)
	uc.observe(cmd.Operation, err, time.Since(started))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		level := slog.LevelWarn
		if !errors.Is(err, domainerrors.ErrInvalidStateTransition) && !errors.Is(err, domainerrors.ErrValidation) &&
			!errors.Is(err, domainerrors.ErrRequestNotFound) {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "creative request transition failed",
			"event", "creative_request_transition_failed",
			"module", application.ModuleName,
			"layer", "application",
			"request_id", strings.TrimSpace(cmd.RequestID),
			"operation", string(cmd.Operation),
			"actor_id", strings.TrimSpace(cmd.ActorID),
			"actor_role", string(cmd.ActorRole),
			"retryable", domainerrors.IsRetryable(err),
			"error", err.Error(),
		)
		return TransitionResult{}, err
	}

	logger.Info("creative request transitioned",
		"event", "creative_request_transitioned",
		"module", application.ModuleName,
		"layer", "application",
		"request_id", result.Request.RequestID,
		"operation", string(result.Entry.Operation),
		"from_status", string(result.Entry.FromStatus),
		"from_stage", string(result.Entry.FromStage),
		"to_status", string(result.Entry.ToStatus),
		"to_stage", string(result.Entry.ToStage),
		"actor_id", result.Entry.ActorID,
		"actor_role", string(result.Entry.ActorRole),
	)

	uc.dispatch(ctx, logger, result)
	return result, nil
}

func (uc TransitionUseCase) execute(ctx context.Context, cmd TransitionCommand) (TransitionResult, error) {
	op, role, err := validateTransitionInput(cmd)
	if err != nil {
		return TransitionResult{}, err
	}
	reason, err := normalizeReason(uc.Sanitizer, cmd.Reason)
	if err != nil {
		return TransitionResult{}, err
	}
	requestID := strings.TrimSpace(cmd.RequestID)
	actorID := strings.TrimSpace(cmd.ActorID)

	// Cheap rejection before any lock is taken. The answer is re-checked under
	// the lock because the row may change between this read and the write.
	if uc.Requests != nil {
		snapshot, err := uc.Requests.GetRequest(ctx, requestID)
		if err != nil {
			return TransitionResult{}, err
		}
		if _, err := services.Resolve(snapshot.State(), op, role); err != nil {
			return TransitionResult{}, err
		}
	}

	historyID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return TransitionResult{}, err
	}

	var result TransitionResult
	err = uc.Store.WithLock(ctx, requestID, func(ctx context.Context, tx ports.LockedRequest) error {
		current := tx.Current()
		row, err := services.Resolve(current.State(), op, role)
		if err != nil {
			return err
		}

		now := uc.Clock.Now().UTC()
		next := services.Apply(current, row, reason, now)
		if !services.IsLegalState(next.State()) {
			return fmt.Errorf("%w: transition produced illegal state %s", domainerrors.ErrInvalidStateTransition, next.State())
		}
		if err := tx.Save(ctx, next); err != nil {
			return err
		}

		entry := entities.HistoryEntry{
			HistoryID:  historyID,
			RequestID:  current.RequestID,
			Operation:  op,
			FromStatus: current.Status,
			FromStage:  current.ApprovalStage,
			ToStatus:   next.Status,
			ToStage:    next.ApprovalStage,
			ActorID:    actorID,
			ActorRole:  role,
			Reason:     reason,
			CreatedAt:  now,
		}
		if err := tx.AppendHistory(ctx, entry); err != nil {
			return err
		}
		result = TransitionResult{Request: next, Entry: entry}
		return nil
	})
	if err != nil {
		return TransitionResult{}, err
	}
	return result, nil
}

// dispatch runs after commit. Failures here never reach the caller.
func (uc TransitionUseCase) dispatch(ctx context.Context, logger *slog.Logger, result TransitionResult) {
	if uc.Dispatcher == nil {
		return
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		logger.Error("workflow event id generation failed",
			"event", "workflow_event_id_failed",
			"module", application.ModuleName,
			"layer", "application",
			"request_id", result.Request.RequestID,
			"error", err.Error(),
		)
		return
	}
	event := entities.NewWorkflowEvent(eventID, result.Request, result.Entry)
	uc.Dispatcher.Dispatch(context.WithoutCancel(ctx), event)
}

func (uc TransitionUseCase) observe(op entities.Operation, err error, elapsed time.Duration) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.ObserveTransition(op, ResultLabel(err), elapsed)
}

// ResultLabel maps an outcome onto the taxonomy used in metrics and logs.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domainerrors.ErrInvalidStateTransition):
		return "invalid_transition"
	case errors.Is(err, domainerrors.ErrValidation):
		return "validation_error"
	case errors.Is(err, domainerrors.ErrRequestNotFound):
		return "not_found"
	case errors.Is(err, domainerrors.ErrTransientStore):
		return "transient_error"
	default:
		return "error"
	}
}
