package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EventDetails is the free-form payload stored as JSONB.
type EventDetails map[string]any

func (d EventDetails) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

func (d *EventDetails) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = EventDetails{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported event details type")
	}
	return json.Unmarshal(raw, d)
}

// Event is immutable once stored.
type Event struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	EventType string       `json:"event_type" db:"event_type"`
	Details   EventDetails `json:"details" db:"details"`
	Timestamp time.Time    `json:"timestamp" db:"timestamp"`
}
