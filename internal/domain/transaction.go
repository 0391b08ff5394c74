package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the side of a transaction
type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "buy"
	TransactionTypeSell TransactionType = "sell"
)

// DefaultCurrency is applied when a transaction is recorded without a currency code
const DefaultCurrency = "AUD"

// Valid reports whether the type is buy or sell
func (t TransactionType) Valid() bool {
	return t == TransactionTypeBuy || t == TransactionTypeSell
}

// Transaction represents a buy or sell of a trading item inside a portfolio
// Price and Cost are informational: valuation only uses Date, Type and Quantity
type Transaction struct {
	ID            uuid.UUID
	PortfolioID   uuid.UUID
	TradingItemID int64
	Date          time.Time
	Type          TransactionType
	Quantity      decimal.Decimal // Always positive, the side is carried by Type
	Price         decimal.Decimal
	Currency      string
	Cost          decimal.Decimal
}

// SignedQuantity returns the quantity with the sign of its effect on holdings
// Buy adds units, sell removes them
func (t *Transaction) SignedQuantity() decimal.Decimal {
	if t.Type == TransactionTypeSell {
		return t.Quantity.Neg()
	}
	return t.Quantity
}

// Validate ensures the transaction adheres to domain rules
// Returns an error if validation fails
func (t *Transaction) Validate() error {
	if t.PortfolioID == uuid.Nil {
		return errors.New("transaction must reference a portfolio")
	}

	if t.TradingItemID <= 0 {
		return errors.New("transaction must reference a trading item")
	}

	if t.Date.IsZero() {
		return errors.New("transaction date is required")
	}

	if !t.Type.Valid() {
		return errors.New("transaction type must be buy or sell")
	}

	if t.Quantity.LessThanOrEqual(decimal.Zero) {
		return errors.New("quantity must be positive")
	}

	if t.Price.LessThanOrEqual(decimal.Zero) {
		return errors.New("price must be positive")
	}

	if !ValidCurrency(t.Currency) {
		return errors.New("currency must be a 3-letter ISO 4217 code")
	}

	if t.Cost.LessThan(decimal.Zero) {
		return errors.New("transaction cost must not be negative")
	}

	return nil
}

// ValidCurrency reports whether code is a known ISO 4217 currency code, in any case
func ValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	return money.GetCurrency(strings.ToUpper(code)) != nil
}

// TransactionUpdate carries the optional fields of a transaction update
// A nil field is left unchanged
type TransactionUpdate struct {
	Date     *time.Time
	Type     *TransactionType
	Quantity *decimal.Decimal
	Price    *decimal.Decimal
	Currency *string
	Cost     *decimal.Decimal
}

// Apply copies every non-nil field of the update onto the transaction
func (u TransactionUpdate) Apply(t *Transaction) {
	if u.Date != nil {
		t.Date = *u.Date
	}
	if u.Type != nil {
		t.Type = *u.Type
	}
	if u.Quantity != nil {
		t.Quantity = *u.Quantity
	}
	if u.Price != nil {
		t.Price = *u.Price
	}
	if u.Currency != nil {
		t.Currency = *u.Currency
	}
	if u.Cost != nil {
		t.Cost = *u.Cost
	}
}

// HoldingRecord is the stored net quantity of one trading item at a point in time
type HoldingRecord struct {
	TradingItemID int64
	NetQuantity   decimal.Decimal
}
