package database

import (
	"github.com/getdryv/checkout-service/internal/adapter/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	CancellationTask repository.CancellationTaskRepository
	WebhookEvent     repository.WebhookEventRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		CancellationTask: repository.NewCancellationTaskRepository(db, logger),
		WebhookEvent:     repository.NewWebhookEventRepository(db, logger),
	}
}
