// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrGroupNotFound      = errors.New("strategy group not found")
	ErrLegNotFound        = errors.New("leg not found")
	ErrStrikeNotFound     = errors.New("strike not found in option chain")
	ErrInstrumentNotFound = errors.New("instrument not found")
	ErrNoExpiry           = errors.New("no matching expiry")

	ErrLegClosed   = errors.New("leg is already closed")
	ErrGroupClosed = errors.New("strategy group is closed")

	ErrStaleInstruments = errors.New("instrument master is stale")
	ErrNoClosedGroups   = errors.New("no closed strategy groups")
)

// ValidationError represents bad user input. Validation failures abort only
// the requested operation and leave registry state untouched.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// UpstreamError represents a failure of the brokerage API. Upstream failures
// during a price refresh are non-fatal: previously cached prices stand.
type UpstreamError struct {
	Operation string
	Message   string
	Err       error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream error [%s]: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("upstream error [%s]: %s", e.Operation, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError creates a new UpstreamError.
func NewUpstreamError(operation, message string, err error) *UpstreamError {
	return &UpstreamError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// BrokerError represents an error response from the broker API, carrying
// the broker's own error code.
type BrokerError struct {
	Code    string
	Message string
	Err     error
}

func (e *BrokerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("broker error [%s]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("broker error [%s]: %s", e.Code, e.Message)
}

func (e *BrokerError) Unwrap() error {
	return e.Err
}

// NewBrokerError creates a new BrokerError.
func NewBrokerError(code, message string, err error) *BrokerError {
	return &BrokerError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
