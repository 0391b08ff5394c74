package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PortfolioRepository defines the interface for portfolio persistence operations
type PortfolioRepository interface {
	// GetByID retrieves a portfolio by its ID
	// Returns an error wrapping ErrPortfolioNotFound if it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*Portfolio, error)

	// Create creates a new portfolio
	Create(ctx context.Context, portfolio *Portfolio) error
}

// TransactionRepository defines the interface for transaction persistence operations
type TransactionRepository interface {
	// GetByID retrieves a transaction by its ID
	// Returns an error wrapping ErrTransactionNotFound if it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// ListByPortfolio retrieves every transaction of a portfolio ordered by date ascending
	ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*Transaction, error)

	// BulkCreate inserts all transactions atomically
	BulkCreate(ctx context.Context, txs []*Transaction) error

	// Update overwrites the stored transaction with the same ID
	Update(ctx context.Context, tx *Transaction) error

	// Delete removes a transaction by its ID
	Delete(ctx context.Context, id uuid.UUID) error

	// HoldingsAt aggregates signed quantities of every transaction dated on or before date
	HoldingsAt(ctx context.Context, portfolioID uuid.UUID, date time.Time) ([]HoldingRecord, error)
}

// TradingItemRepository defines the interface for instrument reference data
type TradingItemRepository interface {
	// GetByExchangeAndTicker resolves a ticker to its trading item
	// Returns an error wrapping ErrTradingItemNotFound if no item matches
	GetByExchangeAndTicker(ctx context.Context, exchangeSymbol, tickerSymbol string) (*TradingItem, error)

	// UpsertCompanies inserts or updates companies by ID
	UpsertCompanies(ctx context.Context, companies []Company) error

	// UpsertTradingItems inserts or updates trading items by ID
	UpsertTradingItems(ctx context.Context, items []TradingItem) error
}

// HistoricalPriceRepository defines the interface for daily price history
type HistoricalPriceRepository interface {
	// GetPriceAt retrieves the observation for an item on exactly that day
	// Returns nil without error if there is none
	GetPriceAt(ctx context.Context, tradingItemID int64, date time.Time) (*HistoricalPrice, error)

	// GetLastPriceBefore retrieves the latest observation on or before date
	// Returns nil without error if there is none
	GetLastPriceBefore(ctx context.Context, tradingItemID int64, date time.Time) (*HistoricalPrice, error)

	// ListInRange retrieves observations for the given items within [from, to], both inclusive,
	// ordered by trading item then date
	ListInRange(ctx context.Context, tradingItemIDs []int64, from, to time.Time) ([]HistoricalPrice, error)

	// BulkUpsert inserts observations, skipping (trading item, date) pairs that already exist
	BulkUpsert(ctx context.Context, prices []HistoricalPrice) error
}
