package entities

import (
	"strings"
	"time"
)

type RequestStatus string
type ApprovalStage string
type Priority string

const (
	RequestStatusNew      RequestStatus = "new"
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
	RequestStatusSentBack RequestStatus = "sent-back"
	// RequestStatusRevised re-enters review the same way a new request does.
	RequestStatusRevised RequestStatus = "revised"

	ApprovalStageAdmin      ApprovalStage = "admin"
	ApprovalStageAdvertiser ApprovalStage = "advertiser"
	ApprovalStageCompleted  ApprovalStage = "completed"

	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Per-party decision labels stored in AdminStatus / AdvertiserStatus.
const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
	DecisionSentBack = "sent-back"
)

// State is the (status, stage) pair the workflow is keyed on.
type State struct {
	Status RequestStatus
	Stage  ApprovalStage
}

func (s State) String() string {
	return string(s.Status) + "/" + string(s.Stage)
}

type CreativeRequest struct {
	RequestID             string
	Status                RequestStatus
	ApprovalStage         ApprovalStage
	OfferID               string
	OfferName             string
	AdvertiserID          string
	AdvertiserName        string
	PublisherID           string
	Priority              Priority
	CreativeType          string
	CreativeCount         int
	AdminStatus           string
	AdminApprovedAt       *time.Time
	AdminComments         string
	AdvertiserStatus      string
	AdvertiserRespondedAt *time.Time
	AdvertiserComments    string
	SubmittedAt           time.Time
	UpdatedAt             time.Time
}

func (r CreativeRequest) State() State {
	return State{Status: r.Status, Stage: r.ApprovalStage}
}

func (r CreativeRequest) ValidateCreate() bool {
	return strings.TrimSpace(r.RequestID) != "" &&
		strings.TrimSpace(r.OfferID) != "" &&
		strings.TrimSpace(r.AdvertiserID) != "" &&
		strings.TrimSpace(r.PublisherID) != "" &&
		r.CreativeCount >= 0 &&
		IsKnownPriority(r.Priority)
}

func IsKnownPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// PriorityRank orders priorities for sorting; unknown values sort lowest.
func PriorityRank(p Priority) int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}
