package entities

import "time"

type Operation string
type ActorRole string

const (
	OperationApprove Operation = "approve"
	OperationReject  Operation = "reject"
	OperationForward Operation = "forward"
	OperationReturn  Operation = "return"

	ActorRoleAdmin      ActorRole = "admin"
	ActorRoleAdvertiser ActorRole = "advertiser"
)

func ParseOperation(raw string) (Operation, bool) {
	switch op := Operation(raw); op {
	case OperationApprove, OperationReject, OperationForward, OperationReturn:
		return op, true
	default:
		return "", false
	}
}

func ParseActorRole(raw string) (ActorRole, bool) {
	switch role := ActorRole(raw); role {
	case ActorRoleAdmin, ActorRoleAdvertiser:
		return role, true
	default:
		return "", false
	}
}

// HistoryEntry is written once per accepted transition and never changed.
type HistoryEntry struct {
	HistoryID  string
	RequestID  string
	Operation  Operation
	FromStatus RequestStatus
	FromStage  ApprovalStage
	ToStatus   RequestStatus
	ToStage    ApprovalStage
	ActorID    string
	ActorRole  ActorRole
	Reason     string
	CreatedAt  time.Time
}
