// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	// ErrTransientBroker marks a broker failure worth retrying (connection
	// refused, timeout, rate limit). The governor applies backoff to these.
	ErrTransientBroker = errors.New("transient broker error")
	// ErrPermanentBroker marks a broker failure that retrying cannot fix
	// (rejected order, invalid symbol). Terminal for the order.
	ErrPermanentBroker = errors.New("permanent broker error")

	// ErrDataNotFound is returned by stores and brokers for lookups that
	// matched nothing. Callers treat it as "absent", not as a failure.
	ErrDataNotFound = errors.New("data not found")
)

// BrokerError represents an error from the broker API. It wraps either
// ErrTransientBroker or ErrPermanentBroker so callers can classify it with
// errors.Is.
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

// NewTransientBrokerError creates a retryable BrokerError.
func NewTransientBrokerError(code, message string) *BrokerError {
	return &BrokerError{Code: code, Message: message, Err: ErrTransientBroker}
}

// NewPermanentBrokerError creates a terminal BrokerError.
func NewPermanentBrokerError(code, message string) *BrokerError {
	return &BrokerError{Code: code, Message: message, Err: ErrPermanentBroker}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientBroker)
}

// OrderError represents an error related to order operations.
type OrderError struct {
	SignalID string
	Symbol   string
	Action   string
	Reason   string
	Err      error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order error [%s] %s %s: %s: %v", e.SignalID, e.Action, e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("order error [%s] %s %s: %s", e.SignalID, e.Action, e.Symbol, e.Reason)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError.
func NewOrderError(signalID, symbol, action, reason string, err error) *OrderError {
	return &OrderError{
		SignalID: signalID,
		Symbol:   symbol,
		Action:   action,
		Reason:   reason,
		Err:      err,
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
