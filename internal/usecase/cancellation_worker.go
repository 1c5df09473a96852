package usecase

import (
	"context"
	"time"

	"github.com/getdryv/checkout-service/internal/adapter/repository"
	"github.com/getdryv/checkout-service/internal/domain/provider"
	"go.uber.org/zap"
)

// CancellationWorker drains the durable cancellation outbox: it polls for
// due tasks and issues the cancel-at mutation against the processor with a
// bounded per-attempt timeout. Failed attempts are rescheduled with
// exponential backoff by the repository.
type CancellationWorker struct {
	tasks       repository.CancellationTaskRepository
	provider    provider.CheckoutProvider
	logger      *zap.Logger
	interval    time.Duration
	batchSize   int
	callTimeout time.Duration
}

// NewCancellationWorker creates a new cancellation worker instance
func NewCancellationWorker(
	tasks repository.CancellationTaskRepository,
	checkoutProvider provider.CheckoutProvider,
	logger *zap.Logger,
	interval time.Duration,
	batchSize int,
	callTimeout time.Duration,
) *CancellationWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	return &CancellationWorker{
		tasks:       tasks,
		provider:    checkoutProvider,
		logger:      logger,
		interval:    interval,
		batchSize:   batchSize,
		callTimeout: callTimeout,
	}
}

// Run processes the outbox until ctx is cancelled.
func (w *CancellationWorker) Run(ctx context.Context) {
	w.logger.Info("Cancellation worker started",
		zap.Duration("interval", w.interval),
		zap.Int("batch_size", w.batchSize),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Cancellation worker stopped")
			return
		case <-ticker.C:
			w.ProcessDue(ctx)
		}
	}
}

// ProcessDue handles one batch of due tasks and returns how many succeeded.
func (w *CancellationWorker) ProcessDue(ctx context.Context) int {
	due, err := w.tasks.GetDue(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("Failed to fetch due cancellation tasks", zap.Error(err))
		return 0
	}

	completed := 0
	for _, task := range due {
		callCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
		err := w.provider.ScheduleCancellation(callCtx, task.SubscriptionID, task.CancelAt)
		cancel()

		if err != nil {
			w.logger.Error("Cancellation mutation failed, will retry",
				zap.String("subscription_id", task.SubscriptionID),
				zap.Int("attempts", task.Attempts+1),
				zap.Error(err))
			if markErr := w.tasks.MarkFailed(ctx, task.ID, err); markErr != nil {
				w.logger.Error("Failed to record task failure",
					zap.String("task_id", task.ID.String()),
					zap.Error(markErr))
			}
			continue
		}

		if err := w.tasks.MarkCompleted(ctx, task.ID); err != nil {
			// The mutation succeeded; re-running it later is a no-op, so a
			// bookkeeping failure here is safe to leave for the next pass.
			w.logger.Error("Failed to mark task completed",
				zap.String("task_id", task.ID.String()),
				zap.Error(err))
			continue
		}

		completed++
		w.logger.Info("Subscription capped at installment count",
			zap.String("subscription_id", task.SubscriptionID),
			zap.Int("cycles", task.Cycles),
			zap.Time("cancel_at", task.CancelAt),
		)
	}

	return completed
}
