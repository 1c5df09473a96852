package errors

import "fmt"

// ProviderError wraps a failure reported by the payment processor's API,
// preserving the processor's own code/type/message for diagnostics.
type ProviderError struct {
	Code    string
	Type    string
	Message string
	Cause   error
}

func (e *ProviderError) Error() string {
	if e.Code != "" || e.Type != "" {
		return fmt.Sprintf("payment provider error [%s/%s]: %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("payment provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a provider error with the processor-supplied diagnostics
func NewProviderError(code, errType, message string, cause error) *ProviderError {
	return &ProviderError{
		Code:    code,
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}
