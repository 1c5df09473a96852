package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the processing status of a cancellation task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Scan implements sql.Scanner interface
func (s *TaskStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = TaskStatus(v)
	case []byte:
		*s = TaskStatus(v)
	default:
		*s = TaskStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s TaskStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// CancellationTask is a durable obligation to cap an installment subscription:
// "schedule cancellation of subscription X at instant T". It is written before
// the webhook is acknowledged and processed by a retrying background worker,
// so a crash or provider failure after the ack cannot lose the cap.
type CancellationTask struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SubscriptionID string     `gorm:"unique;not null;size:100;index" json:"subscription_id"`
	OfferID        string     `gorm:"size:100" json:"offer_id"`
	Cycles         int        `gorm:"not null" json:"cycles"`
	CancelAt       time.Time  `gorm:"not null" json:"cancel_at"`
	SourceEventID  string     `gorm:"size:255" json:"source_event_id"`
	Status         TaskStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Attempts       int        `gorm:"default:0" json:"attempts"`
	LastError      *string    `json:"last_error,omitempty"`
	NextRetryAt    *time.Time `json:"next_retry_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `gorm:"default:now()" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (CancellationTask) TableName() string {
	return "cancellation_tasks"
}
