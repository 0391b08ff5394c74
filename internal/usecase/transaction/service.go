package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-backend/internal/domain"
	"github.com/simaogato/portfolio-backend/internal/valuation"
)

// MaxBatchSize is the largest number of transactions accepted by one upload
const MaxBatchSize = 1000

// TransactionInput is one transaction of a bulk upload as submitted by a client
type TransactionInput struct {
	TickerSymbol string
	Date         time.Time
	Type         domain.TransactionType
	Quantity     decimal.Decimal
	Price        decimal.Decimal
	Currency     string // Defaults to AUD when empty
	Cost         decimal.Decimal
}

// AcceptedTransaction is a stored transaction of a bulk upload
type AcceptedTransaction struct {
	TransactionID uuid.UUID
	TickerSymbol  string
	Type          domain.TransactionType
	Date          time.Time
	Warnings      []string
}

// RejectedTransaction is an input that could not be stored, with the reason
type RejectedTransaction struct {
	Input  TransactionInput
	Reason string
}

// UploadResult reports the outcome of every input of a bulk upload
type UploadResult struct {
	Accepted []AcceptedTransaction
	Rejected []RejectedTransaction
}

// UpdateResult is the stored transaction after an update and any holdings warnings
type UpdateResult struct {
	Transaction *domain.Transaction
	Warnings    []string
}

// TransactionService handles transaction recording operations
type TransactionService struct {
	PortfolioRepo   domain.PortfolioRepository
	TransactionRepo domain.TransactionRepository
	TradingItemRepo domain.TradingItemRepository

	// Clock returns the current time, used for the holdings a bulk upload starts from
	Clock func() time.Time

	log zerolog.Logger
}

// NewTransactionService creates a new TransactionService instance
func NewTransactionService(
	portfolioRepo domain.PortfolioRepository,
	transactionRepo domain.TransactionRepository,
	tradingItemRepo domain.TradingItemRepository,
	log zerolog.Logger,
) *TransactionService {
	return &TransactionService{
		PortfolioRepo:   portfolioRepo,
		TransactionRepo: transactionRepo,
		TradingItemRepo: tradingItemRepo,
		Clock:           time.Now,
		log:             log.With().Str("component", "transaction").Logger(),
	}
}

// BulkUpload records a batch of transactions in a portfolio
//
// Logic:
//  1. Validate every input, any invalid field fails the whole request
//  2. Verify the portfolio exists
//  3. Resolve each distinct ticker once, inputs with unknown tickers are rejected
//  4. Replay accepted inputs in request order on top of the current holdings,
//     flagging sells that exceed the running holding
//  5. Insert all accepted transactions atomically
func (s *TransactionService) BulkUpload(ctx context.Context, portfolioID uuid.UUID, inputs []TransactionInput) (*UploadResult, error) {
	if err := validateInputs(inputs); err != nil {
		return nil, err
	}

	if _, err := s.PortfolioRepo.GetByID(ctx, portfolioID); err != nil {
		return nil, err
	}

	items, err := s.resolveTickers(ctx, inputs)
	if err != nil {
		return nil, err
	}

	records, err := s.TransactionRepo.HoldingsAt(ctx, portfolioID, s.Clock())
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}
	holdings := valuation.NewHoldings(records)

	result := &UploadResult{
		Accepted: make([]AcceptedTransaction, 0, len(inputs)),
		Rejected: make([]RejectedTransaction, 0),
	}
	toCreate := make([]*domain.Transaction, 0, len(inputs))

	for _, in := range inputs {
		item, ok := items[normalizeTicker(in.TickerSymbol)]
		if !ok {
			result.Rejected = append(result.Rejected, RejectedTransaction{
				Input:  in,
				Reason: fmt.Sprintf("Unknown ticker symbol: %s", in.TickerSymbol),
			})
			continue
		}

		tx := &domain.Transaction{
			ID:            uuid.New(),
			PortfolioID:   portfolioID,
			TradingItemID: item.ID,
			Date:          in.Date.UTC(),
			Type:          in.Type,
			Quantity:      in.Quantity,
			Price:         in.Price,
			Currency:      currencyOrDefault(in.Currency),
			Cost:          in.Cost,
		}

		var warnings []string
		held := holdings.Quantity(item.ID)
		if tx.Type == domain.TransactionTypeSell && tx.Quantity.GreaterThan(held) {
			warning := fmt.Sprintf("Sell quantity (%s) exceeds current holdings (%s) for %s",
				tx.Quantity.String(), held.String(), item.Ticker().String())
			warnings = append(warnings, warning)
			s.log.Warn().
				Str("portfolio_id", portfolioID.String()).
				Int64("trading_item_id", item.ID).
				Msg(warning)
		}
		holdings.Apply(tx)

		toCreate = append(toCreate, tx)
		result.Accepted = append(result.Accepted, AcceptedTransaction{
			TransactionID: tx.ID,
			TickerSymbol:  in.TickerSymbol,
			Type:          tx.Type,
			Date:          tx.Date,
			Warnings:      warnings,
		})
	}

	if len(toCreate) > 0 {
		if err := s.TransactionRepo.BulkCreate(ctx, toCreate); err != nil {
			return nil, fmt.Errorf("failed to create transactions: %w", err)
		}
	}

	s.log.Debug().
		Str("portfolio_id", portfolioID.String()).
		Int("accepted", len(result.Accepted)).
		Int("rejected", len(result.Rejected)).
		Msg("bulk upload processed")

	return result, nil
}

// resolveTickers looks up every distinct ticker of the inputs
// The returned map is keyed by normalised ticker text and only holds resolved items
func (s *TransactionService) resolveTickers(ctx context.Context, inputs []TransactionInput) (map[string]*domain.TradingItem, error) {
	items := make(map[string]*domain.TradingItem)
	seen := make(map[string]bool)

	for _, in := range inputs {
		key := normalizeTicker(in.TickerSymbol)
		if seen[key] {
			continue
		}
		seen[key] = true

		ticker, err := domain.ParseTicker(in.TickerSymbol)
		if err != nil {
			continue
		}

		item, err := s.TradingItemRepo.GetByExchangeAndTicker(ctx, ticker.Exchange, ticker.Symbol)
		if err != nil {
			if errors.Is(err, domain.ErrTradingItemNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to resolve ticker %s: %w", ticker, err)
		}
		items[key] = item
	}

	return items, nil
}

// UpdateTransaction changes fields of a stored transaction
// A sell whose trading item is not net long as of its date after the update is flagged
func (s *TransactionService) UpdateTransaction(ctx context.Context, portfolioID, transactionID uuid.UUID, update domain.TransactionUpdate) (*UpdateResult, error) {
	if err := validateUpdate(update); err != nil {
		return nil, err
	}

	tx, err := s.findTransaction(ctx, portfolioID, transactionID)
	if err != nil {
		return nil, err
	}

	update.Apply(tx)
	tx.Date = tx.Date.UTC()
	tx.Currency = currencyOrDefault(tx.Currency)
	if err := tx.Validate(); err != nil {
		return nil, domain.NewValidationError(err.Error(), nil)
	}

	if err := s.TransactionRepo.Update(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	result := &UpdateResult{Transaction: tx}
	if tx.Type != domain.TransactionTypeSell {
		return result, nil
	}

	records, err := s.TransactionRepo.HoldingsAt(ctx, portfolioID, tx.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}

	held, ok := valuation.NewHoldings(records)[tx.TradingItemID]
	if !ok || held.IsNegative() {
		warning := fmt.Sprintf("Sell quantity may exceed holdings for trading item %d", tx.TradingItemID)
		result.Warnings = append(result.Warnings, warning)
		s.log.Warn().
			Str("portfolio_id", portfolioID.String()).
			Str("transaction_id", tx.ID.String()).
			Msg(warning)
	}

	return result, nil
}

// DeleteTransaction removes a transaction from a portfolio
func (s *TransactionService) DeleteTransaction(ctx context.Context, portfolioID, transactionID uuid.UUID) error {
	if _, err := s.findTransaction(ctx, portfolioID, transactionID); err != nil {
		return err
	}

	if err := s.TransactionRepo.Delete(ctx, transactionID); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	return nil
}

// findTransaction loads a transaction, treating one from another portfolio as missing
func (s *TransactionService) findTransaction(ctx context.Context, portfolioID, transactionID uuid.UUID) (*domain.Transaction, error) {
	if _, err := s.PortfolioRepo.GetByID(ctx, portfolioID); err != nil {
		return nil, err
	}

	tx, err := s.TransactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if tx.PortfolioID != portfolioID {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, transactionID)
	}

	return tx, nil
}

func validateInputs(inputs []TransactionInput) error {
	if len(inputs) == 0 {
		return domain.NewValidationError("at least one transaction is required",
			map[string]string{"transactions": "must contain at least 1 item"})
	}
	if len(inputs) > MaxBatchSize {
		return domain.NewValidationError(
			fmt.Sprintf("at most %d transactions can be uploaded at once", MaxBatchSize),
			map[string]string{"transactions": fmt.Sprintf("must contain at most %d items", MaxBatchSize)})
	}

	details := make(map[string]string)
	for i, in := range inputs {
		field := func(name string) string {
			return fmt.Sprintf("transactions[%d].%s", i, name)
		}

		if strings.TrimSpace(in.TickerSymbol) == "" {
			details[field("tickerSymbol")] = "is required"
		}
		if in.Date.IsZero() {
			details[field("transactionDate")] = "is required"
		}
		if !in.Type.Valid() {
			details[field("transactionType")] = "must be buy or sell"
		}
		if !in.Quantity.IsPositive() {
			details[field("quantity")] = "must be positive"
		}
		if !in.Price.IsPositive() {
			details[field("price")] = "must be positive"
		}
		if in.Currency != "" && !domain.ValidCurrency(in.Currency) {
			details[field("currency")] = "must be a 3-letter ISO 4217 code"
		}
		if in.Cost.IsNegative() {
			details[field("transactionCost")] = "must not be negative"
		}
	}

	if len(details) > 0 {
		return domain.NewValidationError("invalid transactions", details)
	}
	return nil
}

func validateUpdate(u domain.TransactionUpdate) error {
	if u.Date == nil && u.Type == nil && u.Quantity == nil && u.Price == nil && u.Currency == nil && u.Cost == nil {
		return domain.NewValidationError("at least one field must be provided", nil)
	}

	details := make(map[string]string)
	if u.Date != nil && u.Date.IsZero() {
		details["transactionDate"] = "is required"
	}
	if u.Type != nil && !u.Type.Valid() {
		details["transactionType"] = "must be buy or sell"
	}
	if u.Quantity != nil && !u.Quantity.IsPositive() {
		details["quantity"] = "must be positive"
	}
	if u.Price != nil && !u.Price.IsPositive() {
		details["price"] = "must be positive"
	}
	if u.Currency != nil && !domain.ValidCurrency(*u.Currency) {
		details["currency"] = "must be a 3-letter ISO 4217 code"
	}
	if u.Cost != nil && u.Cost.IsNegative() {
		details["transactionCost"] = "must not be negative"
	}

	if len(details) > 0 {
		return domain.NewValidationError("invalid transaction update", details)
	}
	return nil
}

func normalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func currencyOrDefault(code string) string {
	if code == "" {
		return domain.DefaultCurrency
	}
	return strings.ToUpper(code)
}
