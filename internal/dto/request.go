package dto

import (
	"tableline/internal/models"
	"tableline/internal/repositories"
)

// ===========================================================================
// Dashboard Request DTOs
// Bound with gin's ShouldBind*, validated through the binding tags.
// ===========================================================================

// PaginationRequest paging for list endpoints.
type PaginationRequest struct {
	// Page current page (from 1)
	Page int `form:"page" binding:"min=0"`

	// Limit rows per page (max 100)
	Limit int `form:"limit" binding:"min=0,max=100"`
}

// SetDefaults fills unset paging values.
func (p *PaginationRequest) SetDefaults() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
}

// Offset returns the row offset of the page.
func (p *PaginationRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ListRecordsRequest lists orders or reservations.
type ListRecordsRequest struct {
	PaginationRequest

	Status string `form:"status" binding:"omitempty,oneof=confirmed preparing ready completed cancelled"`
	Source string `form:"source" binding:"omitempty,oneof=phone dashboard"`
	Date   string `form:"date" binding:"omitempty,datetime=2006-01-02"`

	// Sort column; unknown columns fall back to created_at
	Sort  string `form:"sort"`
	Order string `form:"order" binding:"omitempty,oneof=asc desc"`
}

// FindOptions converts the query into repository options. dateColumn is
// the record's scheduling column (pickup_date or date).
func (r *ListRecordsRequest) FindOptions(dateColumn string) repositories.FindOptions {
	r.SetDefaults()
	filters := map[string]interface{}{}
	if r.Status != "" {
		filters["status"] = r.Status
	}
	if r.Source != "" {
		filters["source"] = r.Source
	}
	if r.Date != "" {
		filters[dateColumn] = r.Date
	}

	sort := r.Sort
	if sort == "date" {
		sort = dateColumn
	}

	return repositories.FindOptions{
		Offset:   r.Offset(),
		Limit:    r.Limit,
		OrderBy:  sort,
		OrderDir: r.Order,
		Filters:  filters,
	}
}

// ===========================================================================
// Orders
// ===========================================================================

// CreateOrderRequest is a dashboard-entered order.
type CreateOrderRequest struct {
	CustomerName        string             `json:"customerName" binding:"required,max=255"`
	CustomerPhone       string             `json:"customerPhone" binding:"required,max=50"`
	CustomerEmail       string             `json:"customerEmail" binding:"omitempty,email"`
	Items               []models.OrderItem `json:"items" binding:"required,min=1,dive"`
	PickupDate          string             `json:"pickupDate" binding:"required,datetime=2006-01-02"`
	PickupTime          string             `json:"pickupTime" binding:"required,datetime=15:04"`
	SpecialInstructions string             `json:"specialInstructions" binding:"max=2000"`
}

// UpdateOrderRequest edits an order; omitted fields stay unchanged.
type UpdateOrderRequest struct {
	CustomerName        *string            `json:"customerName" binding:"omitempty,min=1,max=255"`
	CustomerPhone       *string            `json:"customerPhone" binding:"omitempty,min=1,max=50"`
	CustomerEmail       *string            `json:"customerEmail" binding:"omitempty,email_or_empty"`
	Items               []models.OrderItem `json:"items" binding:"omitempty,min=1,dive"`
	PickupDate          *string            `json:"pickupDate" binding:"omitempty,datetime=2006-01-02"`
	PickupTime          *string            `json:"pickupTime" binding:"omitempty,datetime=15:04"`
	SpecialInstructions *string            `json:"specialInstructions" binding:"omitempty,max=2000"`
}

// ChangeOrderStatusRequest advances an order's kitchen status.
type ChangeOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required,oneof=preparing ready completed"`
}

// ===========================================================================
// Reservations
// ===========================================================================

// CreateReservationRequest is a dashboard-entered reservation.
type CreateReservationRequest struct {
	CustomerName    string `json:"customerName" binding:"required,max=255"`
	CustomerPhone   string `json:"customerPhone" binding:"required,max=50"`
	CustomerEmail   string `json:"customerEmail" binding:"omitempty,email"`
	Date            string `json:"date" binding:"required,datetime=2006-01-02"`
	Time            string `json:"time" binding:"required,datetime=15:04"`
	PartySize       int    `json:"partySize" binding:"required,min=1,max=100"`
	SpecialRequests string `json:"specialRequests" binding:"max=2000"`
}

// UpdateReservationRequest edits a reservation; omitted fields stay unchanged.
type UpdateReservationRequest struct {
	CustomerName    *string `json:"customerName" binding:"omitempty,min=1,max=255"`
	CustomerPhone   *string `json:"customerPhone" binding:"omitempty,min=1,max=50"`
	CustomerEmail   *string `json:"customerEmail" binding:"omitempty,email_or_empty"`
	Date            *string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Time            *string `json:"time" binding:"omitempty,datetime=15:04"`
	PartySize       *int    `json:"partySize" binding:"omitempty,min=1,max=100"`
	SpecialRequests *string `json:"specialRequests" binding:"omitempty,max=2000"`
}

// ===========================================================================
// Agents, integrations, hours
// ===========================================================================

// AgentRequest creates or updates an agent; on update omitted fields stay
// unchanged.
type AgentRequest struct {
	Name                    *string  `json:"name" binding:"omitempty,min=1,max=255"`
	VoiceID                 *string  `json:"voiceId" binding:"omitempty,max=100"`
	VoiceSpeed              *float64 `json:"voiceSpeed" binding:"omitempty,gte=0.5,lte=2"`
	VoiceTemperature        *float64 `json:"voiceTemperature" binding:"omitempty,gte=0,lte=2"`
	Volume                  *float64 `json:"volume" binding:"omitempty,gte=0,lte=2"`
	Language                *string  `json:"language" binding:"omitempty,max=20"`
	Responsiveness          *float64 `json:"responsiveness" binding:"omitempty,gte=0,lte=1"`
	InterruptionSensitivity *float64 `json:"interruptionSensitivity" binding:"omitempty,gte=0,lte=1"`
	EndCallAfterSilenceMs   *int     `json:"endCallAfterSilenceMs" binding:"omitempty,min=10000"`
	MaxCallDurationMs       *int     `json:"maxCallDurationMs" binding:"omitempty,min=60000"`
	BeginMessage            *string  `json:"beginMessage" binding:"omitempty,max=1000"`
	PhoneNumber             *string  `json:"phoneNumber" binding:"omitempty,max=50"`
	IsActive                *bool    `json:"isActive"`
	Prompt                  *string  `json:"prompt"`
}

// SaveIntegrationRequest stores a provider credential.
type SaveIntegrationRequest struct {
	APIKey     string `json:"apiKey" binding:"required,min=1"`
	TenantSlug string `json:"tenantSlug" binding:"max=255"`
}

// UpdateHoursRequest replaces the weekly schedule.
type UpdateHoursRequest struct {
	Hours []models.DayHours `json:"hours" binding:"required,max=7,dive"`
}
