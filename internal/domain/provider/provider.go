package provider

import (
	"context"
	"time"
)

// CheckoutProvider defines the payment-processor operations this service
// depends on. The processor owns all session and subscription state; this
// service is a stateless front over it.
type CheckoutProvider interface {
	// CreateSession creates a hosted checkout session and returns its handle
	CreateSession(ctx context.Context, req *CreateSessionRequest) (*SessionHandle, error)

	// GetSession retrieves a session with its payment-intent and subscription
	// sub-resources expanded, for receipt display
	GetSession(ctx context.Context, sessionID string) (*SessionView, error)

	// ScheduleCancellation sets a subscription's hard cancellation instant.
	// Re-issuing the same instant for an already-scheduled subscription is a no-op.
	ScheduleCancellation(ctx context.Context, subscriptionID string, cancelAt time.Time) error

	// GetProviderName returns the provider name
	GetProviderName() string
}

// SessionMode mirrors the processor's checkout modes.
type SessionMode string

const (
	SessionModePayment      SessionMode = "payment"
	SessionModeSubscription SessionMode = "subscription"
)

// CreateSessionRequest describes a checkout session in provider-agnostic terms.
type CreateSessionRequest struct {
	Mode        SessionMode
	Currency    string
	UnitAmount  int64 // minor currency units per charge
	ProductName string
	Quantity    int64

	// Monthly recurrence; only meaningful in subscription mode
	RecurringMonthly bool

	SuccessURL string
	CancelURL  string

	CollectPhoneNumber  bool
	AllowPromotionCodes bool

	// SessionMetadata is attached to the session itself; SubscriptionMetadata
	// is propagated by the processor onto the subscription it creates
	SessionMetadata      map[string]string
	SubscriptionMetadata map[string]string
}

// SessionHandle is the opaque identifier the processor assigns to a session.
type SessionHandle struct {
	ID  string
	URL string
}

// SessionView is the expanded read model of a session, for receipt display.
type SessionView struct {
	ID             string
	Mode           SessionMode
	Status         string
	PaymentStatus  string
	AmountTotal    int64
	Currency       string
	CustomerEmail  string
	SubscriptionID string
	PaymentIntent  string
	CancelAt       *time.Time
	Metadata       map[string]string
	Created        time.Time
}

// AccountDiag reports the processor account posture for the diagnostics endpoint.
type AccountDiag struct {
	ChargesEnabled bool
	PayoutsEnabled bool
}

// AccountInspector is implemented by providers that can report their account
// posture. Kept separate from CheckoutProvider so test mocks do not need it.
type AccountInspector interface {
	InspectAccount(ctx context.Context) (*AccountDiag, error)
}
