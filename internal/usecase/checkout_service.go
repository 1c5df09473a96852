package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/getdryv/checkout-service/internal/domain/errors"
	"github.com/getdryv/checkout-service/internal/domain/offer"
	"github.com/getdryv/checkout-service/internal/domain/plan"
	"github.com/getdryv/checkout-service/internal/domain/provider"
	"go.uber.org/zap"
)

// LeadFields are the contact fields collected by the enrollment form and
// propagated verbatim (trimmed) into session metadata.
type LeadFields struct {
	FirstName string
	LastName  string
	Phone     string
}

func (l LeadFields) trimmed() LeadFields {
	return LeadFields{
		FirstName: strings.TrimSpace(l.FirstName),
		LastName:  strings.TrimSpace(l.LastName),
		Phone:     strings.TrimSpace(l.Phone),
	}
}

// CheckoutService builds payment-processor checkout sessions from catalog
// offers. It holds no session state of its own; the processor owns every
// session for its lifetime.
type CheckoutService struct {
	catalog  *offer.Catalog
	provider provider.CheckoutProvider
	currency string
	logger   *zap.Logger
}

// NewCheckoutService creates a new checkout service instance
func NewCheckoutService(
	catalog *offer.Catalog,
	checkoutProvider provider.CheckoutProvider,
	currency string,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		catalog:  catalog,
		provider: checkoutProvider,
		currency: currency,
		logger:   logger,
	}
}

// CreateOneShotSession creates a single-charge checkout session for the
// offer's one-shot price. origin is the caller's effective scheme+host,
// used to derive the redirect targets.
func (s *CheckoutService) CreateOneShotSession(ctx context.Context, offerID string, lead LeadFields, promoCode, origin string) (*provider.SessionHandle, error) {
	o, err := s.catalog.OneShot(offerID)
	if err != nil {
		return nil, err
	}

	lead = lead.trimmed()
	meta := plan.Metadata{
		OfferID:   offerID,
		Mode:      plan.ModeLabel(1),
		FirstName: lead.FirstName,
		LastName:  lead.LastName,
		Phone:     lead.Phone,
		PromoCode: strings.TrimSpace(promoCode),
	}

	s.logger.Info("Creating one-shot checkout session",
		zap.String("offer_id", offerID),
		zap.Int64("amount", o.Amount),
	)

	handle, err := s.provider.CreateSession(ctx, &provider.CreateSessionRequest{
		Mode:                provider.SessionModePayment,
		Currency:            s.currency,
		UnitAmount:          o.Amount,
		ProductName:         o.Label,
		Quantity:            1,
		SuccessURL:          successURL(origin),
		CancelURL:           cancelURL(origin),
		CollectPhoneNumber:  true,
		AllowPromotionCodes: true,
		SessionMetadata:     meta.Encode(),
	})
	if err != nil {
		s.logger.Error("Failed to create one-shot session",
			zap.String("offer_id", offerID),
			zap.Error(err))
		return nil, err
	}

	return handle, nil
}

// CreateInstallmentSession creates a subscription-mode checkout session that
// emulates paying in cycles monthly installments. The per-cycle amount is the
// floor of total/cycles; the plan envelope is written to both the session and
// the subscription metadata so the webhook can reconstruct the plan without a
// second processor round trip.
func (s *CheckoutService) CreateInstallmentSession(ctx context.Context, offerID string, cycles int, lead LeadFields, origin string) (*provider.SessionHandle, error) {
	o, err := s.catalog.Installment(offerID)
	if err != nil {
		return nil, err
	}
	if !plan.ValidCycles(cycles) {
		return nil, errors.ErrInvalidCycleCount
	}

	perCycle := plan.PerCycleAmount(o.Amount, cycles)

	lead = lead.trimmed()
	meta := plan.Metadata{
		OfferID:   offerID,
		Mode:      plan.ModeLabel(cycles),
		Cycles:    cycles,
		FirstName: lead.FirstName,
		LastName:  lead.LastName,
		Phone:     lead.Phone,
	}

	s.logger.Info("Creating installment checkout session",
		zap.String("offer_id", offerID),
		zap.Int("cycles", cycles),
		zap.Int64("per_cycle", perCycle),
		zap.Int64("total", o.Amount),
	)

	handle, err := s.provider.CreateSession(ctx, &provider.CreateSessionRequest{
		Mode:                 provider.SessionModeSubscription,
		Currency:             s.currency,
		UnitAmount:           perCycle,
		ProductName:          fmt.Sprintf("%s — %dx", o.Label, cycles),
		Quantity:             1,
		RecurringMonthly:     true,
		SuccessURL:           successURL(origin),
		CancelURL:            cancelURL(origin),
		CollectPhoneNumber:   true,
		SessionMetadata:      meta.Encode(),
		SubscriptionMetadata: meta.Encode(),
	})
	if err != nil {
		s.logger.Error("Failed to create installment session",
			zap.String("offer_id", offerID),
			zap.Int("cycles", cycles),
			zap.Error(err))
		return nil, err
	}

	return handle, nil
}

// GetSession retrieves the expanded session view for receipt display.
func (s *CheckoutService) GetSession(ctx context.Context, sessionID string) (*provider.SessionView, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.ErrSessionNotFound
	}
	return s.provider.GetSession(ctx, sessionID)
}

// The {CHECKOUT_SESSION_ID} placeholder is substituted by the processor on redirect.
func successURL(origin string) string {
	return origin + "/payment-success?session_id={CHECKOUT_SESSION_ID}"
}

func cancelURL(origin string) string {
	return origin + "/?resume=checkout"
}
