package database

import (
	"github.com/getdryv/checkout-service/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}

	err := db.AutoMigrate(
		&model.CancellationTask{},
		&model.WebhookEventRecord{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	// Partial index for the worker's due-task scan
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_cancellation_tasks_due ON cancellation_tasks (created_at) WHERE status IN ('pending', 'failed')`).Error; err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}
