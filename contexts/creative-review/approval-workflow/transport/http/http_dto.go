package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SubmitRequestRequest struct {
	RequestID      string `json:"request_id" validate:"omitempty,max=64"`
	OfferID        string `json:"offer_id" validate:"required,max=64"`
	OfferName      string `json:"offer_name" validate:"max=255"`
	AdvertiserID   string `json:"advertiser_id" validate:"required,max=64"`
	AdvertiserName string `json:"advertiser_name" validate:"max=255"`
	PublisherID    string `json:"publisher_id" validate:"required,max=64"`
	Priority       string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	CreativeType   string `json:"creative_type" validate:"max=64"`
	CreativeCount  int    `json:"creative_count" validate:"gte=0,lte=1000"`
}

type TransitionRequest struct {
	Reason string `json:"reason"`
}

type ListRequestsRequest struct {
	Status        string `validate:"omitempty,oneof=new pending approved rejected sent-back revised"`
	ApprovalStage string `validate:"omitempty,oneof=admin advertiser completed"`
	Search        string `validate:"max=200"`
	AdvertiserID  string
	PublisherID   string
	ReviewedBy    string
	SortBy        string `validate:"omitempty,oneof=submitted_at priority advertiser_name"`
	Order         string `validate:"omitempty,oneof=asc desc"`
	Page          int    `validate:"gte=0,lte=1000000"`
	Limit         int    `validate:"gte=0"`
}

type CreativeRequestDTO struct {
	RequestID             string  `json:"request_id"`
	Status                string  `json:"status"`
	ApprovalStage         string  `json:"approval_stage"`
	OfferID               string  `json:"offer_id"`
	OfferName             string  `json:"offer_name"`
	AdvertiserID          string  `json:"advertiser_id"`
	AdvertiserName        string  `json:"advertiser_name"`
	PublisherID           string  `json:"publisher_id"`
	Priority              string  `json:"priority"`
	CreativeType          string  `json:"creative_type"`
	CreativeCount         int     `json:"creative_count"`
	AdminStatus           string  `json:"admin_status,omitempty"`
	AdminApprovedAt       *string `json:"admin_approved_at,omitempty"`
	AdminComments         string  `json:"admin_comments,omitempty"`
	AdvertiserStatus      string  `json:"advertiser_status,omitempty"`
	AdvertiserRespondedAt *string `json:"advertiser_responded_at,omitempty"`
	AdvertiserComments    string  `json:"advertiser_comments,omitempty"`
	SubmittedAt           string  `json:"submitted_at"`
	UpdatedAt             string  `json:"updated_at"`
}

type HistoryEntryDTO struct {
	HistoryID  string `json:"history_id"`
	RequestID  string `json:"request_id"`
	Operation  string `json:"operation"`
	FromStatus string `json:"from_status"`
	FromStage  string `json:"from_stage"`
	ToStatus   string `json:"to_status"`
	ToStage    string `json:"to_stage"`
	ActorID    string `json:"actor_id"`
	ActorRole  string `json:"actor_role"`
	Reason     string `json:"reason,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type SubmitRequestResponse struct {
	Request CreativeRequestDTO `json:"request"`
}

type ListRequestsResponse struct {
	Items []CreativeRequestDTO `json:"items"`
	Total int                  `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

type GetRequestResponse struct {
	Request             CreativeRequestDTO `json:"request"`
	Terminal            bool               `json:"terminal"`
	PermittedOperations []string           `json:"permitted_operations"`
}

type GetHistoryResponse struct {
	RequestID string            `json:"request_id"`
	Items     []HistoryEntryDTO `json:"items"`
}

type TransitionResponse struct {
	Request CreativeRequestDTO `json:"request"`
	Entry   HistoryEntryDTO    `json:"history_entry"`
}
