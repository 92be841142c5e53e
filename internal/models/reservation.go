package models

import (
	"time"

	"github.com/google/uuid"
)

// ===========================================================================
// Reservation
// A table booking. Only confirmed and cancelled exist; edits keep the
// reservation confirmed.
// ===========================================================================

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation is a table booking.
type Reservation struct {
	BaseModel

	RestaurantID uuid.UUID `gorm:"type:uuid;not null;index:idx_reservations_restaurant_number,priority:1" json:"restaurantId"`

	// ReservationNumber 4-digit identifier, looked up by (restaurant, number)
	ReservationNumber string `gorm:"size:4;not null;index:idx_reservations_restaurant_number,priority:2" json:"reservationNumber"`

	CustomerName  string `gorm:"size:255;not null" json:"customerName"`
	CustomerPhone string `gorm:"size:50;not null" json:"customerPhone"`
	CustomerEmail string `gorm:"size:255" json:"customerEmail,omitempty"`

	Date      string `gorm:"size:10;not null" json:"date"`
	Time      string `gorm:"size:5;not null" json:"time"`
	PartySize int    `gorm:"not null" json:"partySize"`

	SpecialRequests string `gorm:"type:text" json:"specialRequests,omitempty"`

	Status ReservationStatus `gorm:"size:20;not null;index" json:"status"`
	Source Source            `gorm:"size:20;not null" json:"source"`

	CancelledAt *time.Time `json:"cancelledAt,omitempty"`

	History History `gorm:"type:jsonb" json:"history"`
}

// TableName returns the table name.
func (Reservation) TableName() string {
	return "reservations"
}

// IsCancelled reports whether the reservation was cancelled.
func (r *Reservation) IsCancelled() bool {
	return r.Status == ReservationCancelled
}
