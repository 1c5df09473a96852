package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/getdryv/checkout-service/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WebhookEventRepository logs processor webhook deliveries.
type WebhookEventRepository interface {
	// Record stores the event unless its provider event id was seen before.
	// Returns true when the event is new (first delivery).
	Record(ctx context.Context, eventID, eventType string, data json.RawMessage) (bool, error)
}

type webhookEventRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookEventRepository creates a new webhook event repository
func NewWebhookEventRepository(db *gorm.DB, logger *zap.Logger) WebhookEventRepository {
	return &webhookEventRepository{
		db:     db,
		logger: logger,
	}
}

func (r *webhookEventRepository) Record(ctx context.Context, eventID, eventType string, data json.RawMessage) (bool, error) {
	var eventData map[string]interface{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &eventData); err != nil {
			r.logger.Warn("Failed to parse event data for logging",
				zap.String("event_id", eventID),
				zap.Error(err))
		}
	}

	var providerCreated *time.Time
	if created, ok := eventData["created"].(float64); ok {
		t := time.Unix(int64(created), 0)
		providerCreated = &t
	}

	record := &model.WebhookEventRecord{
		ProviderEventID: eventID,
		EventType:       eventType,
		Data:            model.JSONB(eventData),
		ProviderCreated: providerCreated,
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_event_id"}},
			DoNothing: true,
		}).
		Create(record)

	if result.Error != nil {
		r.logger.Error("Failed to record webhook event",
			zap.String("event_id", eventID),
			zap.String("event_type", eventType),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to record webhook event: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}
