package services

import (
	"fmt"
	"strings"
	"time"

	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
	domainerrors "creativehub/contexts/creative-review/approval-workflow/domain/errors"
)

// Transition is one row of the workflow table.
type Transition struct {
	From      entities.State
	Operation entities.Operation
	Role      entities.ActorRole
	To        entities.State
	// Decision is the label recorded in the acting party's status column.
	Decision string
}

var (
	stateNewAdmin           = entities.State{Status: entities.RequestStatusNew, Stage: entities.ApprovalStageAdmin}
	stateRevisedAdmin       = entities.State{Status: entities.RequestStatusRevised, Stage: entities.ApprovalStageAdmin}
	statePendingAdvertiser  = entities.State{Status: entities.RequestStatusPending, Stage: entities.ApprovalStageAdvertiser}
	stateSentBackAdvertiser = entities.State{Status: entities.RequestStatusSentBack, Stage: entities.ApprovalStageAdvertiser}
	stateApprovedCompleted  = entities.State{Status: entities.RequestStatusApproved, Stage: entities.ApprovalStageCompleted}
	stateRejectedAdmin      = entities.State{Status: entities.RequestStatusRejected, Stage: entities.ApprovalStageAdmin}
	stateRejectedAdvertiser = entities.State{Status: entities.RequestStatusRejected, Stage: entities.ApprovalStageAdvertiser}
	stateRejectedCompleted  = entities.State{Status: entities.RequestStatusRejected, Stage: entities.ApprovalStageCompleted}
)

type transitionKey struct {
	from entities.State
	op   entities.Operation
	role entities.ActorRole
}

var transitionTable = buildTransitionTable()

func buildTransitionTable() map[transitionKey]Transition {
	const (
		admin      = entities.ActorRoleAdmin
		advertiser = entities.ActorRoleAdvertiser
	)
	rows := []Transition{
		{From: stateNewAdmin, Operation: entities.OperationApprove, Role: admin, To: statePendingAdvertiser, Decision: entities.DecisionApproved},
		{From: stateNewAdmin, Operation: entities.OperationReject, Role: admin, To: stateRejectedAdmin, Decision: entities.DecisionRejected},
		{From: stateNewAdmin, Operation: entities.OperationForward, Role: admin, To: statePendingAdvertiser, Decision: entities.DecisionApproved},
		{From: statePendingAdvertiser, Operation: entities.OperationApprove, Role: advertiser, To: stateApprovedCompleted, Decision: entities.DecisionApproved},
		{From: statePendingAdvertiser, Operation: entities.OperationReject, Role: advertiser, To: stateRejectedAdvertiser, Decision: entities.DecisionRejected},
		{From: statePendingAdvertiser, Operation: entities.OperationReturn, Role: advertiser, To: stateSentBackAdvertiser, Decision: entities.DecisionSentBack},
		{From: stateSentBackAdvertiser, Operation: entities.OperationReject, Role: admin, To: stateRejectedCompleted, Decision: entities.DecisionRejected},
		{From: stateSentBackAdvertiser, Operation: entities.OperationReturn, Role: admin, To: stateSentBackAdvertiser, Decision: entities.DecisionSentBack},
	}

	table := make(map[transitionKey]Transition, len(rows)+3)
	for _, row := range rows {
		table[transitionKey{from: row.From, op: row.Operation, role: row.Role}] = row
		// revised shares every (new, admin) row.
		if row.From == stateNewAdmin {
			alias := row
			alias.From = stateRevisedAdmin
			table[transitionKey{from: alias.From, op: alias.Operation, role: alias.Role}] = alias
		}
	}
	return table
}

// Resolve returns the single table row matching the current state, operation
// and actor role, or ErrInvalidStateTransition.
func Resolve(current entities.State, op entities.Operation, role entities.ActorRole) (Transition, error) {
	row, ok := transitionTable[transitionKey{from: current, op: op, role: role}]
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s cannot %s from %s",
			domainerrors.ErrInvalidStateTransition, role, op, current)
	}
	return row, nil
}

// IsLegalState reports whether the pair is one of the workflow's states.
func IsLegalState(state entities.State) bool {
	switch state {
	case stateNewAdmin, stateRevisedAdmin, statePendingAdvertiser, stateSentBackAdvertiser,
		stateApprovedCompleted, stateRejectedAdmin, stateRejectedAdvertiser, stateRejectedCompleted:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no transition is defined out of the state.
func IsTerminal(state entities.State) bool {
	return state == stateApprovedCompleted || state.Status == entities.RequestStatusRejected
}

// IsInitialState reports whether a request may be created in this state.
func IsInitialState(state entities.State) bool {
	return state == stateNewAdmin
}

// PermittedOperations lists what the role may do from the state, in table order.
func PermittedOperations(current entities.State, role entities.ActorRole) []entities.Operation {
	ops := make([]entities.Operation, 0, 3)
	for _, op := range []entities.Operation{
		entities.OperationApprove,
		entities.OperationReject,
		entities.OperationForward,
		entities.OperationReturn,
	} {
		if _, ok := transitionTable[transitionKey{from: current, op: op, role: role}]; ok {
			ops = append(ops, op)
		}
	}
	return ops
}

// Apply copies the transition's effects onto the request. The caller has
// already resolved the row against the request's current state.
func Apply(request entities.CreativeRequest, row Transition, reason string, now time.Time) entities.CreativeRequest {
	next := request
	next.Status = row.To.Status
	next.ApprovalStage = row.To.Stage
	next.UpdatedAt = now
	reason = strings.TrimSpace(reason)

	switch row.Role {
	case entities.ActorRoleAdmin:
		next.AdminStatus = row.Decision
		next.AdminComments = reason
		if row.Decision == entities.DecisionApproved {
			approvedAt := now
			next.AdminApprovedAt = &approvedAt
		}
	case entities.ActorRoleAdvertiser:
		respondedAt := now
		next.AdvertiserStatus = row.Decision
		next.AdvertiserComments = reason
		next.AdvertiserRespondedAt = &respondedAt
	}
	return next
}
