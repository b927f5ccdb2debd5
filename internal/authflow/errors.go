package authflow

import (
	"errors"
	"fmt"
)

var (
	ErrClosed                 = errors.New("authflow: controller is closed")
	ErrRequestPending         = errors.New("authflow: a request is already in flight")
	ErrWrongView              = errors.New("authflow: action not available in the current view")
	ErrForgotPasswordInSignUp = errors.New("authflow: password reset is only available in sign in mode")
	ErrRequestTimeout         = errors.New("request timed out")
)

const genericFailureMessage = "Something went wrong. Please try again."

// ProviderError wraps any failure returned by the AuthProvider. The controller does not classify
// failures; Error returns the provider's message unchanged.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	if e.Err == nil || e.Err.Error() == "" {
		return genericFailureMessage
	}
	return e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// FieldError rejects a submit before any remote call is made.
type FieldError struct {
	Field string
	Err   error
}

var errFieldRequired = errors.New("is required")

func (e *FieldError) Error() string {
	return fmt.Sprintf("authflow: %s %s", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
