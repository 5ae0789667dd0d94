package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed submission (non-positive quantity,
// negative price or fee). The ledger is untouched when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// InsufficientFundsError reports a buy whose total plus fee exceeds the
// holder's cash balance.
type InsufficientFundsError struct {
	Required  float64
	Available float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %.2f, available %.2f", e.Required, e.Available)
}

// InsufficientPositionError reports a sell of more than the held quantity.
// Over-sells are rejected outright, never clamped.
type InsufficientPositionError struct {
	Symbol    string
	Requested float64
	Held      float64
}

func (e *InsufficientPositionError) Error() string {
	return fmt.Sprintf("insufficient position in %s: requested %.8f, held %.8f", e.Symbol, e.Requested, e.Held)
}

// SymbolNotFoundError reports an operation against a symbol outside the
// registered universe.
type SymbolNotFoundError struct {
	Symbol string
}

func (e *SymbolNotFoundError) Error() string {
	return fmt.Sprintf("symbol not found: %s", e.Symbol)
}

// PersistenceError wraps a failure of the ledger store. On startup load it
// is non-fatal: the ledger is treated as empty and the session continues.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsInsufficientFunds reports whether err is an InsufficientFundsError
func IsInsufficientFunds(err error) bool {
	var target *InsufficientFundsError
	return errors.As(err, &target)
}

// IsInsufficientPosition reports whether err is an InsufficientPositionError
func IsInsufficientPosition(err error) bool {
	var target *InsufficientPositionError
	return errors.As(err, &target)
}

// IsSymbolNotFound reports whether err is a SymbolNotFoundError
func IsSymbolNotFound(err error) bool {
	var target *SymbolNotFoundError
	return errors.As(err, &target)
}

// IsPersistence reports whether err is a PersistenceError
func IsPersistence(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}
