package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ===========================================================================
// BaseModel is embedded by every persisted record.
// IDs are generated in Go so that inserts behave the same on Postgres and on
// the SQLite database used by the repository tests.
// ===========================================================================

// BaseModel holds the primary key and timestamps.
type BaseModel struct {
	// ID is the internal record key, never shown to callers on the phone.
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// GetID returns the record key.
func (b *BaseModel) GetID() uuid.UUID {
	return b.ID
}

// ===========================================================================
// JSON column helpers
// ===========================================================================

// jsonValue marshals v for a jsonb column.
func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// scanJSON decodes a jsonb column. Postgres hands back []byte, SQLite a string.
func scanJSON(value any, dest any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return errors.New("unsupported json column type")
	}
}

// StringList is a jsonb array of strings.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return jsonValue([]string{})
	}
	return jsonValue([]string(l))
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value any) error {
	*l = StringList{}
	return scanJSON(value, (*[]string)(l))
}
