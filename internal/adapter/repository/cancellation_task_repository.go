package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getdryv/checkout-service/internal/domain/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CancellationTaskRepository stores durable cancellation obligations.
type CancellationTaskRepository interface {
	// Enqueue inserts the task unless one already exists for the same
	// subscription. Returns true when a new row was created.
	Enqueue(ctx context.Context, task *model.CancellationTask) (bool, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*model.CancellationTask, error)
	// GetDue returns pending and retryable failed tasks whose retry time has passed.
	GetDue(ctx context.Context, limit int) ([]*model.CancellationTask, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause error) error
}

type cancellationTaskRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCancellationTaskRepository creates a new cancellation task repository
func NewCancellationTaskRepository(db *gorm.DB, logger *zap.Logger) CancellationTaskRepository {
	return &cancellationTaskRepository{
		db:     db,
		logger: logger,
	}
}

func (r *cancellationTaskRepository) Enqueue(ctx context.Context, task *model.CancellationTask) (bool, error) {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}

	// Duplicate webhook deliveries race here; the unique subscription_id
	// plus ON CONFLICT DO NOTHING makes the second insert a harmless no-op.
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subscription_id"}},
			DoNothing: true,
		}).
		Create(task)

	if result.Error != nil {
		r.logger.Error("Failed to enqueue cancellation task",
			zap.String("subscription_id", task.SubscriptionID),
			zap.Error(result.Error))
		return false, fmt.Errorf("failed to enqueue cancellation task: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *cancellationTaskRepository) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*model.CancellationTask, error) {
	var task model.CancellationTask

	err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		First(&task).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cancellation task: %w", err)
	}

	return &task, nil
}

func (r *cancellationTaskRepository) GetDue(ctx context.Context, limit int) ([]*model.CancellationTask, error) {
	var tasks []*model.CancellationTask

	query := r.db.WithContext(ctx).
		Where("status IN (?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)",
			model.TaskStatusPending,
			model.TaskStatusFailed,
			time.Now()).
		Order("created_at ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&tasks).Error; err != nil {
		r.logger.Error("Failed to get due cancellation tasks", zap.Error(err))
		return nil, fmt.Errorf("failed to get due cancellation tasks: %w", err)
	}

	return tasks, nil
}

func (r *cancellationTaskRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	now := time.Now()

	result := r.db.WithContext(ctx).
		Model(&model.CancellationTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       model.TaskStatusCompleted,
			"completed_at": &now,
			"updated_at":   now,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to mark task completed: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("cancellation task not found: %s", id)
	}

	return nil
}

// retryBackoff doubles from 5 minutes with each failed attempt
// (5, 10, 20, 40, ...), capped at 24 hours.
func retryBackoff(attempts int) time.Duration {
	minutes := 5 * (1 << (attempts - 1))
	if minutes > 1440 {
		minutes = 1440
	}
	return time.Duration(minutes) * time.Minute
}

func (r *cancellationTaskRepository) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	var task model.CancellationTask
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&task).Error; err != nil {
		return fmt.Errorf("failed to get cancellation task for failure update: %w", err)
	}

	attempts := task.Attempts + 1
	nextRetry := time.Now().Add(retryBackoff(attempts))

	errorMsg := cause.Error()

	result := r.db.WithContext(ctx).
		Model(&model.CancellationTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        model.TaskStatusFailed,
			"attempts":      attempts,
			"last_error":    &errorMsg,
			"next_retry_at": &nextRetry,
			"updated_at":    time.Now(),
		})

	if result.Error != nil {
		r.logger.Error("Failed to mark cancellation task as failed",
			zap.String("task_id", id.String()),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark cancellation task as failed: %w", result.Error)
	}

	return nil
}
