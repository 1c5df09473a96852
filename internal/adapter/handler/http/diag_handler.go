package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/getdryv/checkout-service/internal/domain/provider"
)

// DiagHandler reports the processor account posture. Wired only outside
// production.
type DiagHandler struct {
	logger    *zap.Logger
	inspector provider.AccountInspector
	keyPrefix string
	clientURL string
}

func NewDiagHandler(logger *zap.Logger, inspector provider.AccountInspector, secretKey, clientURL string) *DiagHandler {
	prefix := secretKey
	if len(prefix) > 7 {
		prefix = prefix[:7]
	}
	return &DiagHandler{
		logger:    logger,
		inspector: inspector,
		keyPrefix: prefix,
		clientURL: clientURL,
	}
}

func (h *DiagHandler) Diag(c echo.Context) error {
	diag, err := h.inspector.InspectAccount(c.Request().Context())
	if err != nil {
		h.logger.Error("Account diagnostics failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"client_url":        h.clientURL,
		"stripe_key_prefix": h.keyPrefix,
		"stripe_live_mode":  strings.HasPrefix(h.keyPrefix, "sk_live"),
		"charges_enabled":   diag.ChargesEnabled,
		"payouts_enabled":   diag.PayoutsEnabled,
	})
}
