package models

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ===========================================================================
// Integration
// A third-party credential stored for one restaurant. One row per
// (restaurant, provider). The API key never leaves the server in full.
// ===========================================================================

// IntegrationStatus is the connection state of an integration.
type IntegrationStatus string

const (
	IntegrationConnected    IntegrationStatus = "connected"
	IntegrationDisconnected IntegrationStatus = "disconnected"
	IntegrationError        IntegrationStatus = "error"
)

// Integration is a stored third-party credential.
type Integration struct {
	BaseModel

	RestaurantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_integrations_restaurant_provider,priority:1" json:"restaurantId"`
	Provider     string    `gorm:"size:50;not null;uniqueIndex:idx_integrations_restaurant_provider,priority:2" json:"provider"`

	// APIKey is never serialized; use MaskedKey
	APIKey string `gorm:"type:text;not null" json:"-"`

	TenantSlug string            `gorm:"size:255" json:"tenantSlug,omitempty"`
	Status     IntegrationStatus `gorm:"size:20;not null" json:"status"`
	LastError  string            `gorm:"type:text" json:"lastError,omitempty"`
}

// TableName returns the table name.
func (Integration) TableName() string {
	return "integrations"
}

// MaskedKey returns the API key with only its first and last four
// characters visible.
func (i *Integration) MaskedKey() string {
	return MaskSecret(i.APIKey)
}

// MaskSecret masks s as "abcd…wxyz". Secrets of 8 characters or fewer are
// masked entirely.
func MaskSecret(s string) string {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return ""
	}
	if n <= 8 {
		return strings.Repeat("•", n)
	}
	r := []rune(s)
	return string(r[:4]) + "…" + string(r[n-4:])
}
