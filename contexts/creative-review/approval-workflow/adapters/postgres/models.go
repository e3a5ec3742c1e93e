package postgresadapter

import (
	"strings"
	"time"

	"creativehub/contexts/creative-review/approval-workflow/domain/entities"
)

type creativeRequestModel struct {
	RequestID             string     `gorm:"column:request_id;primaryKey"`
	Status                string     `gorm:"column:status"`
	ApprovalStage         string     `gorm:"column:approval_stage"`
	OfferID               string     `gorm:"column:offer_id"`
	OfferName             string     `gorm:"column:offer_name"`
	AdvertiserID          string     `gorm:"column:advertiser_id"`
	AdvertiserName        string     `gorm:"column:advertiser_name"`
	PublisherID           string     `gorm:"column:publisher_id"`
	Priority              string     `gorm:"column:priority"`
	CreativeType          string     `gorm:"column:creative_type"`
	CreativeCount         int        `gorm:"column:creative_count"`
	AdminStatus           string     `gorm:"column:admin_status"`
	AdminApprovedAt       *time.Time `gorm:"column:admin_approved_at"`
	AdminComments         string     `gorm:"column:admin_comments"`
	AdvertiserStatus      string     `gorm:"column:advertiser_status"`
	AdvertiserRespondedAt *time.Time `gorm:"column:advertiser_responded_at"`
	AdvertiserComments    string     `gorm:"column:advertiser_comments"`
	SubmittedAt           time.Time  `gorm:"column:submitted_at"`
	UpdatedAt             time.Time  `gorm:"column:updated_at"`
}

func (creativeRequestModel) TableName() string {
	return "creative_requests"
}

func creativeRequestModelFromEntity(item entities.CreativeRequest) creativeRequestModel {
	return creativeRequestModel{
		RequestID:             strings.TrimSpace(item.RequestID),
		Status:                string(item.Status),
		ApprovalStage:         string(item.ApprovalStage),
		OfferID:               strings.TrimSpace(item.OfferID),
		OfferName:             strings.TrimSpace(item.OfferName),
		AdvertiserID:          strings.TrimSpace(item.AdvertiserID),
		AdvertiserName:        strings.TrimSpace(item.AdvertiserName),
		PublisherID:           strings.TrimSpace(item.PublisherID),
		Priority:              string(item.Priority),
		CreativeType:          strings.TrimSpace(item.CreativeType),
		CreativeCount:         item.CreativeCount,
		AdminStatus:           item.AdminStatus,
		AdminApprovedAt:       normalizeOptionalTime(item.AdminApprovedAt),
		AdminComments:         item.AdminComments,
		AdvertiserStatus:      item.AdvertiserStatus,
		AdvertiserRespondedAt: normalizeOptionalTime(item.AdvertiserRespondedAt),
		AdvertiserComments:    item.AdvertiserComments,
		SubmittedAt:           item.SubmittedAt.UTC(),
		UpdatedAt:             item.UpdatedAt.UTC(),
	}
}

// workflowUpdates is the column set a transition may change.
func workflowUpdates(item entities.CreativeRequest) map[string]any {
	row := creativeRequestModelFromEntity(item)
	return map[string]any{
		"status":                  row.Status,
		"approval_stage":          row.ApprovalStage,
		"admin_status":            row.AdminStatus,
		"admin_approved_at":       row.AdminApprovedAt,
		"admin_comments":          row.AdminComments,
		"advertiser_status":       row.AdvertiserStatus,
		"advertiser_responded_at": row.AdvertiserRespondedAt,
		"advertiser_comments":     row.AdvertiserComments,
		"updated_at":              row.UpdatedAt,
	}
}

func (m creativeRequestModel) toEntity() entities.CreativeRequest {
	return entities.CreativeRequest{
		RequestID:             m.RequestID,
		Status:                entities.RequestStatus(m.Status),
		ApprovalStage:         entities.ApprovalStage(m.ApprovalStage),
		OfferID:               m.OfferID,
		OfferName:             m.OfferName,
		AdvertiserID:          m.AdvertiserID,
		AdvertiserName:        m.AdvertiserName,
		PublisherID:           m.PublisherID,
		Priority:              entities.Priority(m.Priority),
		CreativeType:          m.CreativeType,
		CreativeCount:         m.CreativeCount,
		AdminStatus:           m.AdminStatus,
		AdminApprovedAt:       normalizeOptionalTime(m.AdminApprovedAt),
		AdminComments:         m.AdminComments,
		AdvertiserStatus:      m.AdvertiserStatus,
		AdvertiserRespondedAt: normalizeOptionalTime(m.AdvertiserRespondedAt),
		AdvertiserComments:    m.AdvertiserComments,
		SubmittedAt:           m.SubmittedAt.UTC(),
		UpdatedAt:             m.UpdatedAt.UTC(),
	}
}

type historyModel struct {
	HistoryID  string    `gorm:"column:history_id;primaryKey"`
	RequestID  string    `gorm:"column:request_id"`
	Operation  string    `gorm:"column:operation"`
	FromStatus string    `gorm:"column:from_status"`
	FromStage  string    `gorm:"column:from_stage"`
	ToStatus   string    `gorm:"column:to_status"`
	ToStage    string    `gorm:"column:to_stage"`
	ActorID    string    `gorm:"column:actor_id"`
	ActorRole  string    `gorm:"column:actor_role"`
	Reason     string    `gorm:"column:reason"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (historyModel) TableName() string {
	return "creative_request_history"
}

func historyModelFromEntity(item entities.HistoryEntry) historyModel {
	return historyModel{
		HistoryID:  strings.TrimSpace(item.HistoryID),
		RequestID:  strings.TrimSpace(item.RequestID),
		Operation:  string(item.Operation),
		FromStatus: string(item.FromStatus),
		FromStage:  string(item.FromStage),
		ToStatus:   string(item.ToStatus),
		ToStage:    string(item.ToStage),
		ActorID:    strings.TrimSpace(item.ActorID),
		ActorRole:  string(item.ActorRole),
		Reason:     item.Reason,
		CreatedAt:  item.CreatedAt.UTC(),
	}
}

func (m historyModel) toEntity() entities.HistoryEntry {
	return entities.HistoryEntry{
		HistoryID:  m.HistoryID,
		RequestID:  m.RequestID,
		Operation:  entities.Operation(m.Operation),
		FromStatus: entities.RequestStatus(m.FromStatus),
		FromStage:  entities.ApprovalStage(m.FromStage),
		ToStatus:   entities.RequestStatus(m.ToStatus),
		ToStage:    entities.ApprovalStage(m.ToStage),
		ActorID:    m.ActorID,
		ActorRole:  entities.ActorRole(m.ActorRole),
		Reason:     m.Reason,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
