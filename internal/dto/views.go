package dto

import (
	"time"

	"tableline/internal/models"

	"github.com/google/uuid"
)

// IntegrationResponse is an integration with its key masked.
type IntegrationResponse struct {
	ID         uuid.UUID                `json:"id"`
	Provider   string                   `json:"provider"`
	APIKey     string                   `json:"apiKey"`
	TenantSlug string                   `json:"tenantSlug,omitempty"`
	Status     models.IntegrationStatus `json:"status"`
	LastError  string                   `json:"lastError,omitempty"`
	UpdatedAt  time.Time                `json:"updatedAt"`
}

// NewIntegrationResponse masks the key of i.
func NewIntegrationResponse(i *models.Integration) IntegrationResponse {
	return IntegrationResponse{
		ID:         i.ID,
		Provider:   i.Provider,
		APIKey:     i.MaskedKey(),
		TenantSlug: i.TenantSlug,
		Status:     i.Status,
		LastError:  i.LastError,
		UpdatedAt:  i.UpdatedAt,
	}
}

// MeResponse is the signed-in user and what they can open.
type MeResponse struct {
	User        *models.User `json:"user"`
	Restaurants interface{}  `json:"restaurants"`
}

// HoursResponse reports an hours change.
type HoursResponse struct {
	Restaurant    *models.Restaurant `json:"restaurant"`
	AgentsUpdated int                `json:"agentsUpdated"`

	// Warning is set when some agent prompts could not be refreshed
	Warning string `json:"warning,omitempty"`
}
