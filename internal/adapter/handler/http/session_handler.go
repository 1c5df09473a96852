package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/getdryv/checkout-service/internal/usecase"
)

type SessionHandler struct {
	logger   *zap.Logger
	checkout *usecase.CheckoutService
}

func NewSessionHandler(logger *zap.Logger, checkout *usecase.CheckoutService) *SessionHandler {
	return &SessionHandler{
		logger:   logger,
		checkout: checkout,
	}
}

type SessionViewResponse struct {
	ID             string            `json:"id"`
	Mode           string            `json:"mode"`
	Status         string            `json:"status"`
	PaymentStatus  string            `json:"payment_status"`
	AmountTotal    int64             `json:"amount_total"`
	AmountDisplay  string            `json:"amount_display"`
	Currency       string            `json:"currency"`
	CustomerEmail  string            `json:"customer_email,omitempty"`
	PaymentIntent  string            `json:"payment_intent,omitempty"`
	SubscriptionID string            `json:"subscription_id,omitempty"`
	CancelAt       *time.Time        `json:"cancel_at,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// GetSession returns the expanded session view for receipt display. Any
// retrieval failure (bad id, provider error) surfaces as 400 with the
// provider's message, matching the receipt page's error handling.
func (h *SessionHandler) GetSession(c echo.Context) error {
	sessionID := c.Param("id")

	view, err := h.checkout.GetSession(c.Request().Context(), sessionID)
	if err != nil {
		h.logger.Warn("Session retrieval failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, SessionViewResponse{
		ID:             view.ID,
		Mode:           string(view.Mode),
		Status:         view.Status,
		PaymentStatus:  view.PaymentStatus,
		AmountTotal:    view.AmountTotal,
		AmountDisplay:  displayAmount(view.AmountTotal),
		Currency:       view.Currency,
		CustomerEmail:  view.CustomerEmail,
		PaymentIntent:  view.PaymentIntent,
		SubscriptionID: view.SubscriptionID,
		CancelAt:       view.CancelAt,
		Metadata:       view.Metadata,
	})
}

// displayAmount renders a minor-unit integer as a fixed-point major-unit string
func displayAmount(minorUnits int64) string {
	return decimal.NewFromInt(minorUnits).Div(decimal.NewFromInt(100)).StringFixed(2)
}
