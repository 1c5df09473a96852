package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"

	"github.com/getdryv/checkout-service/internal/adapter/repository"
	"github.com/getdryv/checkout-service/internal/domain/model"
	"github.com/getdryv/checkout-service/internal/domain/plan"
	"go.uber.org/zap"
)

// PlanController consumes authenticated payment-completion events and caps
// installment subscriptions at their cycle count. It never calls the
// processor directly: it writes a durable cancellation obligation before the
// webhook is acknowledged, and the CancellationWorker performs the mutation
// out-of-band.
type PlanController struct {
	tasks  repository.CancellationTaskRepository
	events repository.WebhookEventRepository
	logger *zap.Logger
}

// NewPlanController creates a new plan controller instance
func NewPlanController(
	tasks repository.CancellationTaskRepository,
	events repository.WebhookEventRepository,
	logger *zap.Logger,
) *PlanController {
	return &PlanController{
		tasks:  tasks,
		events: events,
		logger: logger,
	}
}

// HandleEvent processes one decoded webhook event. A returned error means
// the durable obligation could not be persisted and the webhook must NOT be
// acknowledged, so the processor redelivers. Everything else, including
// ineligible sessions and unknown event kinds, is acknowledged and ignored.
func (c *PlanController) HandleEvent(ctx context.Context, event *stripe.Event) error {
	// A parseable event may still carry no data block; Data stays nil then.
	var raw json.RawMessage
	if event.Data != nil {
		raw = event.Data.Raw
	}

	if firstDelivery, err := c.events.Record(ctx, event.ID, string(event.Type), raw); err != nil {
		return fmt.Errorf("failed to log webhook event: %w", err)
	} else if !firstDelivery {
		c.logger.Info("Duplicate webhook delivery",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
		)
		// fall through: reprocessing is idempotent by construction
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted || event.Data == nil {
		c.logger.Debug("Ignoring event", zap.String("type", string(event.Type)))
		return nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		c.logger.Error("Failed to parse checkout session from event",
			zap.String("event_id", event.ID),
			zap.Error(err))
		// malformed payload: redelivery cannot fix it, ack and move on
		return nil
	}

	meta, err := plan.ParseMetadata(session.Metadata)
	if err != nil {
		c.logger.Warn("Skipping session with malformed plan metadata",
			zap.String("session_id", session.ID),
			zap.Error(err))
		return nil
	}

	if session.Mode != stripe.CheckoutSessionModeSubscription || session.Subscription == nil {
		return nil
	}
	if !plan.ValidCycles(meta.Cycles) {
		// cycles 0 means "not an installment plan"; anything else outside
		// the range stays uncapped on purpose
		c.logger.Debug("Subscription session without capped installment plan",
			zap.String("session_id", session.ID),
			zap.Int("cycles", meta.Cycles),
		)
		return nil
	}

	// The event's own creation instant is the completion instant and is
	// identical across redeliveries, so the computed cancel_at never drifts.
	completedAt := time.Unix(event.Created, 0)
	cancelAt := plan.CancelAt(completedAt, meta.Cycles)

	created, err := c.tasks.Enqueue(ctx, &model.CancellationTask{
		SubscriptionID: session.Subscription.ID,
		OfferID:        meta.OfferID,
		Cycles:         meta.Cycles,
		CancelAt:       cancelAt,
		SourceEventID:  event.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to persist cancellation obligation: %w", err)
	}

	if created {
		c.logger.Info("Installment cancellation scheduled",
			zap.String("subscription_id", session.Subscription.ID),
			zap.String("offer_id", meta.OfferID),
			zap.Int("cycles", meta.Cycles),
			zap.Time("cancel_at", cancelAt),
		)
	}

	return nil
}
