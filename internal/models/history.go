package models

import (
	"database/sql/driver"
	"time"
)

// ===========================================================================
// History
// Append-only audit log carried by orders and reservations. Each successful
// mutation adds exactly one entry.
// ===========================================================================

// DateLayout and TimeLayout are the wire formats of scheduling fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ModifiedByAgent marks mutations performed through voice-agent webhooks.
const ModifiedByAgent = "ai_agent"

// HistoryAction is the kind of mutation recorded.
type HistoryAction string

const (
	HistoryCreated       HistoryAction = "created"
	HistoryUpdated       HistoryAction = "updated"
	HistoryCancelled     HistoryAction = "cancelled"
	HistoryStatusChanged HistoryAction = "status_changed"
)

// FieldChange is the before/after value of one field.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Changes maps a field's JSON name to its change.
type Changes map[string]FieldChange

// Record sets the change for field when from and to differ and reports
// whether it did.
func (c Changes) Record(field string, from, to any) bool {
	if equalValues(from, to) {
		return false
	}
	c[field] = FieldChange{From: from, To: to}
	return true
}

// HistoryEntry is one audit record.
type HistoryEntry struct {
	Action     HistoryAction `json:"action"`
	Timestamp  time.Time     `json:"timestamp"`
	Changes    Changes       `json:"changes,omitempty"`
	ModifiedBy string        `json:"modifiedBy"`
}

// History is stored as a jsonb array.
type History []HistoryEntry

// Value implements driver.Valuer.
func (h History) Value() (driver.Value, error) {
	if h == nil {
		return jsonValue([]HistoryEntry{})
	}
	return jsonValue([]HistoryEntry(h))
}

// Scan implements sql.Scanner.
func (h *History) Scan(value any) error {
	*h = History{}
	return scanJSON(value, (*[]HistoryEntry)(h))
}

// Append adds an entry stamped with at.
func (h *History) Append(action HistoryAction, at time.Time, changes Changes, modifiedBy string) {
	*h = append(*h, HistoryEntry{
		Action:     action,
		Timestamp:  at.UTC(),
		Changes:    changes,
		ModifiedBy: modifiedBy,
	})
}

// Last returns the most recent entry.
func (h History) Last() (HistoryEntry, bool) {
	if len(h) == 0 {
		return HistoryEntry{}, false
	}
	return h[len(h)-1], true
}

func equalValues(a, b any) bool {
	switch av := a.(type) {
	case OrderItems:
		bv, ok := b.(OrderItems)
		return ok && av.Equal(bv)
	default:
		return a == b
	}
}
