package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ===========================================================================
// Restaurant
// The tenant. Every order, reservation, agent and integration belongs to
// exactly one restaurant. A restaurant is owned either by an organization or
// directly by a user.
// ===========================================================================

// DefaultTimezone is used when a restaurant has no valid IANA zone configured.
const DefaultTimezone = "America/New_York"

// DayHours is the schedule of a single weekday.
type DayHours struct {
	// Day lowercase English weekday name ("monday" ... "sunday")
	Day string `json:"day" binding:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`

	// Open opening time, 24h "HH:MM"
	Open string `json:"open,omitempty"`

	// Close closing time, 24h "HH:MM"
	Close string `json:"close,omitempty"`

	// Closed the restaurant does not open on this day
	Closed bool `json:"closed"`
}

// OperatingHours is the weekly schedule, stored as jsonb.
type OperatingHours []DayHours

// Value implements driver.Valuer.
func (h OperatingHours) Value() (driver.Value, error) {
	if h == nil {
		return jsonValue([]DayHours{})
	}
	return jsonValue([]DayHours(h))
}

// Scan implements sql.Scanner.
func (h *OperatingHours) Scan(value any) error {
	*h = OperatingHours{}
	return scanJSON(value, (*[]DayHours)(h))
}

// For returns the schedule of the given weekday, if configured.
func (h OperatingHours) For(day time.Weekday) (DayHours, bool) {
	name := strings.ToLower(day.String())
	for _, d := range h {
		if d.Day == name {
			return d, true
		}
	}
	return DayHours{}, false
}

// Describe renders the schedule as one line per day, e.g.
// "Monday: 11:00 - 22:00".
func (h OperatingHours) Describe() string {
	if len(h) == 0 {
		return "Hours not configured."
	}
	var b strings.Builder
	for i, d := range h {
		if i > 0 {
			b.WriteString("\n")
		}
		day := d.Day
		if day != "" {
			day = strings.ToUpper(day[:1]) + day[1:]
		}
		if d.Closed {
			fmt.Fprintf(&b, "%s: closed", day)
			continue
		}
		fmt.Fprintf(&b, "%s: %s - %s", day, d.Open, d.Close)
	}
	return b.String()
}

// Restaurant is a tenant.
type Restaurant struct {
	BaseModel

	// Name display name, read to callers by the voice agent
	Name string `gorm:"size:255;not null" json:"name"`

	Phone   string `gorm:"size:50" json:"phone,omitempty"`
	Address string `gorm:"size:500" json:"address,omitempty"`

	// Timezone IANA zone used for "today" and for rendering times
	Timezone string `gorm:"size:64;not null" json:"timezone"`

	// OrganizationID owning organization; nil for personally owned restaurants
	OrganizationID *uuid.UUID `gorm:"type:uuid;index" json:"organizationId,omitempty"`

	// OwnerID personal owner when the restaurant has no organization
	OwnerID *uuid.UUID `gorm:"type:uuid;index" json:"ownerId,omitempty"`

	// NotificationEmails extra admin recipients
	NotificationEmails StringList `gorm:"type:jsonb" json:"notificationEmails"`

	OperatingHours OperatingHours `gorm:"type:jsonb" json:"operatingHours"`
}

// TableName returns the table name.
func (Restaurant) TableName() string {
	return "restaurants"
}

// Location resolves the restaurant's timezone, falling back to
// DefaultTimezone and finally UTC.
func (r *Restaurant) Location() *time.Location {
	for _, name := range []string{r.Timezone, DefaultTimezone} {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}

// Today returns the current date in the restaurant's timezone as YYYY-MM-DD.
func (r *Restaurant) Today(now time.Time) string {
	return now.In(r.Location()).Format(DateLayout)
}

// ===========================================================================
// Organization
// ===========================================================================

// Organization groups restaurants under one owner.
type Organization struct {
	BaseModel

	Name string `gorm:"size:255;not null" json:"name"`

	// OwnerID user who owns the organization and receives admin notifications
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"ownerId"`
}

// TableName returns the table name.
func (Organization) TableName() string {
	return "organizations"
}
