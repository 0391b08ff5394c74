package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPortfolioNotFound is returned when a referenced portfolio does not exist
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrTransactionNotFound is returned when a transaction does not exist or belongs to another portfolio
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrTradingItemNotFound is returned when no trading item matches an exchange and ticker
	ErrTradingItemNotFound = errors.New("trading item not found")

	// ErrValidation is the category of every *ValidationError
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes rejected input
// Details maps a field path (e.g. "transactions[0].quantity") to the reason it was rejected
type ValidationError struct {
	Message string
	Details map[string]string
}

// NewValidationError creates a validation error with optional field details
func NewValidationError(message string, details map[string]string) *ValidationError {
	return &ValidationError{Message: message, Details: details}
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%d invalid fields)", e.Message, len(e.Details))
}

// Unwrap lets errors.Is(err, ErrValidation) match any validation error
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
