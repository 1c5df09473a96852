package errors

import "errors"

var (
	// ErrUnknownOffer indicates the offer id is absent from the relevant catalog
	ErrUnknownOffer = errors.New("unknown offer")

	// ErrInvalidCycleCount indicates a cycle count outside the supported installment range
	ErrInvalidCycleCount = errors.New("cycles must be 2, 3 or 4")

	// ErrWrongMode indicates the request targeted the wrong checkout endpoint for its mode
	ErrWrongMode = errors.New("use the installments endpoint for multi-cycle payment")

	// ErrInvalidSignature indicates the webhook signature did not verify
	ErrInvalidSignature = errors.New("webhook signature verification failed")

	// ErrSessionNotFound indicates the checkout session could not be retrieved
	ErrSessionNotFound = errors.New("checkout session not found")
)
