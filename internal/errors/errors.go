// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Standard sentinel errors
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionFinished   = errors.New("session already finished")
	ErrSessionRunning    = errors.New("session is still running")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrPositionExists    = errors.New("position already open for symbol")
	ErrPositionNotFound  = errors.New("position not found")
	ErrMaxPositions      = errors.New("maximum open positions reached")
	ErrNoData            = errors.New("no data returned for range")
	ErrTimeout           = errors.New("operation timed out")
	ErrConfigInvalid     = errors.New("invalid configuration")
	ErrUnknownStrategy   = errors.New("unknown strategy")
	ErrDatabaseError     = errors.New("database error")
)

// ConfigError represents a configuration validation failure. It is always
// returned synchronously, before any session state exists.
type ConfigError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfigInvalid
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field string, value interface{}, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a market-data failure. Retryable indicates whether a
// later attempt with the same parameters could succeed.
type DataError struct {
	Symbol    string
	From      time.Time
	To        time.Time
	Message   string
	Retryable bool
	Err       error
}

func (e *DataError) Error() string {
	hint := "not retryable"
	if e.Retryable {
		hint = "retryable"
	}
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s (%s): %v", e.Symbol, e.Message, hint, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s (%s)", e.Symbol, e.Message, hint)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(symbol, message string, retryable bool, err error) *DataError {
	return &DataError{
		Symbol:    symbol,
		Message:   message,
		Retryable: retryable,
		Err:       err,
	}
}

// OrderError represents a rejected simulated order.
type OrderError struct {
	Symbol string
	Action string
	Reason string
	Err    error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order rejected %s %s: %s: %v", e.Action, e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("order rejected %s %s: %s", e.Action, e.Symbol, e.Reason)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError.
func NewOrderError(symbol, action, reason string, err error) *OrderError {
	return &OrderError{
		Symbol: symbol,
		Action: action,
		Reason: reason,
		Err:    err,
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
