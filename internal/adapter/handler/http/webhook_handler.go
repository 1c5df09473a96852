package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	domainErrors "github.com/getdryv/checkout-service/internal/domain/errors"
	"github.com/getdryv/checkout-service/internal/usecase"
)

// WebhookHandler authenticates and decodes inbound processor events. It must
// see the raw request bytes: signature verification covers the exact payload
// as sent, so no body-parsing middleware may run ahead of it.
type WebhookHandler struct {
	logger        *zap.Logger
	webhookSecret string
	controller    *usecase.PlanController
}

func NewWebhookHandler(logger *zap.Logger, webhookSecret string, controller *usecase.PlanController) *WebhookHandler {
	return &WebhookHandler{
		logger:        logger,
		webhookSecret: webhookSecret,
		controller:    controller,
	}
}

func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		h.logger.Error("Error reading webhook body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error reading request body"})
	}

	var event stripe.Event
	if h.webhookSecret != "" {
		sig := c.Request().Header.Get("Stripe-Signature")
		event, err = webhook.ConstructEventWithOptions(
			body,
			sig,
			h.webhookSecret,
			webhook.ConstructEventOptions{
				IgnoreAPIVersionMismatch: true,
			},
		)
		if err != nil {
			h.logger.Error("Webhook signature verification failed",
				zap.Error(err),
			)
			// 400 makes the processor retry the delivery later
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": domainErrors.ErrInvalidSignature.Error(),
			})
		}
	} else {
		// unsigned development posture: trust the payload as-is
		if err := json.Unmarshal(body, &event); err != nil {
			h.logger.Error("Error parsing unsigned webhook payload", zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Error parsing webhook"})
		}
	}

	h.logger.Info("Webhook event received",
		zap.String("type", string(event.Type)),
		zap.String("id", event.ID),
		zap.Time("created", time.Unix(event.Created, 0)),
	)

	// The controller only persists the obligation; the processor mutation
	// happens out-of-band, so the ack is never blocked on a provider call.
	if err := h.controller.HandleEvent(c.Request().Context(), &event); err != nil {
		h.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.Error(err))
		// not acknowledged: the processor will redeliver
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to process event",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
