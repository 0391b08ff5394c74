package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/simaogato/portfolio-backend/internal/domain"
)

// tradingItemRepository implements domain.TradingItemRepository
type tradingItemRepository struct {
	db *DB
}

// NewTradingItemRepository creates a new trading item repository
func NewTradingItemRepository(db *DB) domain.TradingItemRepository {
	return &tradingItemRepository{db: db}
}

// GetByExchangeAndTicker resolves an exchange and ticker pair, ignoring case
func (r *tradingItemRepository) GetByExchangeAndTicker(ctx context.Context, exchangeSymbol, tickerSymbol string) (*domain.TradingItem, error) {
	query := `
		SELECT id, company_id, exchange_symbol, ticker_symbol, exchange_country_iso
		FROM trading_items
		WHERE UPPER(exchange_symbol) = $1 AND UPPER(ticker_symbol) = $2
		ORDER BY id
		LIMIT 1
	`

	var item domain.TradingItem
	err := r.db.QueryRowContext(ctx, query, strings.ToUpper(exchangeSymbol), strings.ToUpper(tickerSymbol)).Scan(
		&item.ID,
		&item.CompanyID,
		&item.ExchangeSymbol,
		&item.TickerSymbol,
		&item.ExchangeCountryISO,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s:%s", domain.ErrTradingItemNotFound, exchangeSymbol, tickerSymbol)
		}
		return nil, fmt.Errorf("failed to get trading item: %w", err)
	}

	return &item, nil
}

// UpsertCompanies inserts companies, overwriting name and industry of existing IDs
func (r *tradingItemRepository) UpsertCompanies(ctx context.Context, companies []domain.Company) error {
	if len(companies) == 0 {
		return nil
	}

	return inChunks(len(companies), 3, func(start, end int) error {
		query := newInsertBuilder(`INSERT INTO companies (id, name, primary_industry_id) VALUES `)
		for _, c := range companies[start:end] {
			query.row(c.ID, c.Name, c.PrimaryIndustryID)
		}
		query.suffix(`
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name,
			    primary_industry_id = EXCLUDED.primary_industry_id
		`)

		if _, err := r.db.ExecContext(ctx, query.String(), query.args...); err != nil {
			return fmt.Errorf("failed to upsert companies: %w", err)
		}
		return nil
	})
}

// UpsertTradingItems inserts trading items, overwriting the listing of existing IDs
func (r *tradingItemRepository) UpsertTradingItems(ctx context.Context, items []domain.TradingItem) error {
	if len(items) == 0 {
		return nil
	}

	return inChunks(len(items), 5, func(start, end int) error {
		query := newInsertBuilder(`
			INSERT INTO trading_items (id, company_id, exchange_symbol, ticker_symbol, exchange_country_iso)
			VALUES `)
		for _, item := range items[start:end] {
			query.row(item.ID, item.CompanyID, item.ExchangeSymbol, item.TickerSymbol, item.ExchangeCountryISO)
		}
		query.suffix(`
			ON CONFLICT (id) DO UPDATE
			SET company_id = EXCLUDED.company_id,
			    exchange_symbol = EXCLUDED.exchange_symbol,
			    ticker_symbol = EXCLUDED.ticker_symbol,
			    exchange_country_iso = EXCLUDED.exchange_country_iso
		`)

		if _, err := r.db.ExecContext(ctx, query.String(), query.args...); err != nil {
			return fmt.Errorf("failed to upsert trading items: %w", err)
		}
		return nil
	})
}
