package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// JSONB represents a JSONB database type
type JSONB map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONB) Scan(src interface{}) error {
	if src == nil {
		*j = nil
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		*j = make(JSONB)
		return nil
	}
}

// WebhookEventRecord is the durable log of processor webhook deliveries.
// The unique event id makes duplicate deliveries (at-least-once semantics)
// visible as conflict no-ops.
type WebhookEventRecord struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProviderEventID string     `gorm:"unique;not null;size:255;index" json:"provider_event_id"`
	EventType       string     `gorm:"not null;size:100;index" json:"event_type"`
	Data            JSONB      `gorm:"type:jsonb" json:"data"`
	ReceivedAt      time.Time  `gorm:"default:now()" json:"received_at"`
	ProviderCreated *time.Time `json:"provider_created,omitempty"`
}

// TableName specifies the table name for GORM
func (WebhookEventRecord) TableName() string {
	return "webhook_events"
}
