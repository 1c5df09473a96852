package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/getdryv/checkout-service/internal/domain/errors"
	"github.com/getdryv/checkout-service/internal/usecase"
)

type CheckoutHandler struct {
	logger         *zap.Logger
	checkout       *usecase.CheckoutService
	fallbackOrigin string
}

func NewCheckoutHandler(logger *zap.Logger, checkout *usecase.CheckoutService, fallbackOrigin string) *CheckoutHandler {
	return &CheckoutHandler{
		logger:         logger,
		checkout:       checkout,
		fallbackOrigin: fallbackOrigin,
	}
}

type OneShotCheckoutRequest struct {
	OfferID   string `json:"offerId" validate:"required"`
	Mode      string `json:"mode" validate:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	PromoCode string `json:"promoCode"`
}

type InstallmentCheckoutRequest struct {
	OfferID   string `json:"offerId" validate:"required"`
	Cycles    int    `json:"cycles"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
}

func (h *CheckoutHandler) CreateOneShotSession(c echo.Context) error {
	var req OneShotCheckoutRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}
	if req.Mode != "1x" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": domainErrors.ErrWrongMode.Error(),
		})
	}

	handle, err := h.checkout.CreateOneShotSession(
		c.Request().Context(),
		req.OfferID,
		usecase.LeadFields{FirstName: req.FirstName, LastName: req.LastName, Phone: req.Phone},
		req.PromoCode,
		h.requestOrigin(c),
	)
	if err != nil {
		return h.checkoutError(c, err)
	}

	return c.JSON(http.StatusOK, CheckoutResponse{SessionID: handle.ID})
}

func (h *CheckoutHandler) CreateInstallmentSession(c echo.Context) error {
	var req InstallmentCheckoutRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	handle, err := h.checkout.CreateInstallmentSession(
		c.Request().Context(),
		req.OfferID,
		req.Cycles,
		usecase.LeadFields{FirstName: req.FirstName, LastName: req.LastName, Phone: req.Phone},
		h.requestOrigin(c),
	)
	if err != nil {
		return h.checkoutError(c, err)
	}

	return c.JSON(http.StatusOK, CheckoutResponse{SessionID: handle.ID})
}

// requestOrigin derives the redirect base from the caller: the Origin header
// when the browser sends one, else the request's effective scheme and host,
// else the configured client URL.
func (h *CheckoutHandler) requestOrigin(c echo.Context) string {
	if origin := c.Request().Header.Get(echo.HeaderOrigin); origin != "" {
		return origin
	}
	if host := c.Request().Host; host != "" {
		return c.Scheme() + "://" + host
	}
	return h.fallbackOrigin
}

// checkoutError maps domain errors onto the API error surface: client input
// errors are 400 with a plain message, provider failures are 500 carrying
// the processor's code and type for diagnostics.
func (h *CheckoutHandler) checkoutError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domainErrors.ErrUnknownOffer),
		errors.Is(err, domainErrors.ErrInvalidCycleCount):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	var provErr *domainErrors.ProviderError
	if errors.As(err, &provErr) {
		h.logger.Error("Payment provider error",
			zap.String("code", provErr.Code),
			zap.String("type", provErr.Type),
			zap.String("message", provErr.Message),
		)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": provErr.Message,
			"code":  provErr.Code,
			"type":  provErr.Type,
		})
	}

	h.logger.Error("Checkout failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"error": "internal server error",
	})
}
