package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"tableline/internal/models"

	"github.com/google/uuid"
)

// ===========================================================================
// Jobs
// A Job is the unit placed on the notification queue. The payload carries
// everything the worker needs (including the precomputed admin recipients) so
// the worker never reads the database.
// ===========================================================================

// Kind identifies what happened.
type Kind string

const (
	KindOrderCreated         Kind = "order_created"
	KindOrderUpdated         Kind = "order_updated"
	KindOrderCancelled       Kind = "order_cancelled"
	KindReservationCreated   Kind = "reservation_created"
	KindReservationUpdated   Kind = "reservation_updated"
	KindReservationCancelled Kind = "reservation_cancelled"
	KindCallAnalysis         Kind = "call_analysis"
)

// IsOrder reports whether the kind concerns an order.
func (k Kind) IsOrder() bool {
	return k == KindOrderCreated || k == KindOrderUpdated || k == KindOrderCancelled
}

// IsReservation reports whether the kind concerns a reservation.
func (k Kind) IsReservation() bool {
	return k == KindReservationCreated || k == KindReservationUpdated || k == KindReservationCancelled
}

// Job is the queued envelope.
type Job struct {
	ID           uuid.UUID       `json:"id"`
	Kind         Kind            `json:"kind"`
	RestaurantID uuid.UUID       `json:"restaurantId"`
	CreatedAt    time.Time       `json:"createdAt"`
	Payload      json.RawMessage `json:"payload"`
}

// NewJob wraps payload in an envelope.
func NewJob(kind Kind, restaurantID uuid.UUID, payload any) (Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return Job{
		ID:           uuid.New(),
		Kind:         kind,
		RestaurantID: restaurantID,
		CreatedAt:    time.Now().UTC(),
		Payload:      raw,
	}, nil
}

// Customer is the caller's contact details.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// RecordNotification is the payload of order_* and reservation_* jobs.
type RecordNotification struct {
	RestaurantName string   `json:"restaurantName"`
	Recipients     []string `json:"recipients"`
	Number         string   `json:"number"`
	Customer       Customer `json:"customer"`

	Order       *models.Order       `json:"order,omitempty"`
	Reservation *models.Reservation `json:"reservation,omitempty"`

	// Changes is set on *_updated jobs and holds only the changed fields
	Changes    models.Changes `json:"changes,omitempty"`
	ModifiedBy string         `json:"modifiedBy"`
}

// CallDetails is the provider's record of a finished call.
type CallDetails struct {
	CallID              string `json:"call_id"`
	AgentID             string `json:"agent_id"`
	CallStatus          string `json:"call_status,omitempty"`
	Direction           string `json:"direction,omitempty"`
	FromNumber          string `json:"from_number,omitempty"`
	ToNumber            string `json:"to_number,omitempty"`
	StartTimestamp      int64  `json:"start_timestamp,omitempty"`
	EndTimestamp        int64  `json:"end_timestamp,omitempty"`
	Transcript          string `json:"transcript,omitempty"`
	DisconnectionReason string `json:"disconnection_reason,omitempty"`
	RecordingURL        string `json:"recording_url,omitempty"`
}

// CallNotification is the payload of call_analysis jobs.
type CallNotification struct {
	RestaurantName string      `json:"restaurantName"`
	Timezone       string      `json:"timezone"`
	Recipients     []string    `json:"recipients"`
	AgentName      string      `json:"agentName"`
	Call           CallDetails `json:"call"`
}

// DecodeRecord unmarshals a record payload.
func (j Job) DecodeRecord() (*RecordNotification, error) {
	var n RecordNotification
	if err := json.Unmarshal(j.Payload, &n); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", j.Kind, err)
	}
	return &n, nil
}

// DecodeCall unmarshals a call_analysis payload.
func (j Job) DecodeCall() (*CallNotification, error) {
	var n CallNotification
	if err := json.Unmarshal(j.Payload, &n); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", j.Kind, err)
	}
	return &n, nil
}
