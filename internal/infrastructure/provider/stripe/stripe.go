package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/subscription"

	domainErrors "github.com/getdryv/checkout-service/internal/domain/errors"
	"github.com/getdryv/checkout-service/internal/domain/provider"
	"go.uber.org/zap"
)

// Provider implements provider.CheckoutProvider against the Stripe API.
// The API key is installed globally (stripe.Key) at server construction.
type Provider struct {
	logger *zap.Logger
}

// NewProvider creates a new Stripe provider
func NewProvider(logger *zap.Logger) *Provider {
	return &Provider{logger: logger}
}

// GetProviderName returns the provider name
func (p *Provider) GetProviderName() string {
	return "stripe"
}

// CreateSession creates a hosted checkout session
func (p *Provider) CreateSession(ctx context.Context, req *provider.CreateSessionRequest) (*provider.SessionHandle, error) {
	priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency:   stripe.String(req.Currency),
		UnitAmount: stripe.Int64(req.UnitAmount),
		ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(req.ProductName),
		},
	}
	if req.RecurringMonthly {
		priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(req.Mode)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: priceData,
				Quantity:  stripe.Int64(req.Quantity),
			},
		},
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	params.Context = ctx

	if req.CollectPhoneNumber {
		params.PhoneNumberCollection = &stripe.CheckoutSessionPhoneNumberCollectionParams{
			Enabled: stripe.Bool(true),
		}
	}
	if req.AllowPromotionCodes {
		params.AllowPromotionCodes = stripe.Bool(true)
	}
	for k, v := range req.SessionMetadata {
		params.AddMetadata(k, v)
	}
	if len(req.SubscriptionMetadata) > 0 {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: req.SubscriptionMetadata,
		}
	}

	s, err := checkoutsession.New(params)
	if err != nil {
		return nil, mapError(err)
	}

	return &provider.SessionHandle{ID: s.ID, URL: s.URL}, nil
}

// GetSession retrieves a session with payment_intent and subscription expanded
func (p *Provider) GetSession(ctx context.Context, sessionID string) (*provider.SessionView, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")
	params.AddExpand("subscription")

	s, err := checkoutsession.Get(sessionID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return nil, fmt.Errorf("%w: %s", domainErrors.ErrSessionNotFound, sessionID)
		}
		return nil, mapError(err)
	}

	view := &provider.SessionView{
		ID:            s.ID,
		Mode:          provider.SessionMode(s.Mode),
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		CustomerEmail: s.CustomerEmail,
		Metadata:      s.Metadata,
		Created:       time.Unix(s.Created, 0),
	}
	if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
		view.CustomerEmail = s.CustomerDetails.Email
	}
	if s.PaymentIntent != nil {
		view.PaymentIntent = s.PaymentIntent.ID
	}
	if s.Subscription != nil {
		view.SubscriptionID = s.Subscription.ID
		if s.Subscription.CancelAt > 0 {
			t := time.Unix(s.Subscription.CancelAt, 0)
			view.CancelAt = &t
		}
	}

	return view, nil
}

// ScheduleCancellation sets the subscription's cancel_at timestamp. Stripe
// treats setting the same cancel_at twice as a no-op, which keeps duplicate
// webhook deliveries harmless.
func (p *Provider) ScheduleCancellation(ctx context.Context, subscriptionID string, cancelAt time.Time) error {
	params := &stripe.SubscriptionParams{
		CancelAt: stripe.Int64(cancelAt.Unix()),
	}
	params.Context = ctx

	sub, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return mapError(err)
	}

	p.logger.Info("Subscription cancellation scheduled",
		zap.String("subscription_id", sub.ID),
		zap.Time("cancel_at", cancelAt),
	)

	return nil
}

// InspectAccount reports the account posture for the diagnostics endpoint.
// account.Get takes no params, so the backend is called directly the way its
// client does, with the request context attached.
func (p *Provider) InspectAccount(ctx context.Context) (*provider.AccountDiag, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	acct := &stripe.Account{}
	if err := stripe.GetBackend(stripe.APIBackend).
		Call(http.MethodGet, "/v1/account", stripe.Key, params, acct); err != nil {
		return nil, mapError(err)
	}

	return &provider.AccountDiag{
		ChargesEnabled: acct.ChargesEnabled,
		PayoutsEnabled: acct.PayoutsEnabled,
	}, nil
}

// mapError re-signals a Stripe failure as a domain ProviderError carrying
// the processor's own code/type/message.
func mapError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return domainErrors.NewProviderError(
			string(stripeErr.Code),
			string(stripeErr.Type),
			stripeErr.Msg,
			err,
		)
	}
	return domainErrors.NewProviderError("", "", err.Error(), err)
}
