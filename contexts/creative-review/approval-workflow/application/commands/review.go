package commands

import (
	"context"

	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
)

// ReviewActor identifies who is acting on a request.
type ReviewActor struct {
	ActorID string
	Role    entities.ActorRole
}

// ReviewUseCase exposes the four reviewer operations on top of the engine.
type ReviewUseCase struct {
	Transitions TransitionUseCase
}

func (uc ReviewUseCase) Approve(ctx context.Context, requestID string, actor ReviewActor, comment string) (TransitionResult, error) {
	return uc.run(ctx, requestID, actor, entities.OperationApprove, comment)
}

func (uc ReviewUseCase) Reject(ctx context.Context, requestID string, actor ReviewActor, reason string) (TransitionResult, error) {
	return uc.run(ctx, requestID, actor, entities.OperationReject, reason)
}

// Forward is accepted only from the admin review state and lands where Approve
// does.
func (uc ReviewUseCase) Forward(ctx context.Context, requestID string, actor ReviewActor, comment string) (TransitionResult, error) {
	return uc.run(ctx, requestID, actor, entities.OperationForward, comment)
}

func (uc ReviewUseCase) Return(ctx context.Context, requestID string, actor ReviewActor, reason string) (TransitionResult, error) {
	return uc.run(ctx, requestID, actor, entities.OperationReturn, reason)
}

func (uc ReviewUseCase) run(
	ctx context.Context,
	requestID string,
	actor ReviewActor,
	op entities.Operation,
	reason string,
) (TransitionResult, error) {
	return uc.Transitions.Execute(ctx, TransitionCommand{
		RequestID: requestID,
		ActorID:   actor.ActorID,
		ActorRole: actor.Role,
		Operation: op,
		Reason:    reason,
	})
}
