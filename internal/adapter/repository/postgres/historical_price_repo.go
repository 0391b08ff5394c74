package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-backend/internal/domain"
)

// historicalPriceRepository implements domain.HistoricalPriceRepository
type historicalPriceRepository struct {
	db *DB
}

// NewHistoricalPriceRepository creates a new historical price repository
func NewHistoricalPriceRepository(db *DB) domain.HistoricalPriceRepository {
	return &historicalPriceRepository{db: db}
}

const priceColumns = `
	id, trading_item_id, pricing_date, price_close_aud, price_close_usd,
	shares_outstanding, market_cap
`

func scanPrice(row rowScanner) (*domain.HistoricalPrice, error) {
	var p domain.HistoricalPrice
	var audStr, usdStr string
	var shares sql.NullInt64
	var marketCap sql.NullString

	err := row.Scan(
		&p.ID,
		&p.TradingItemID,
		&p.PricingDate,
		&audStr,
		&usdStr,
		&shares,
		&marketCap,
	)
	if err != nil {
		return nil, err
	}

	if p.PriceCloseAUD, err = decimal.NewFromString(audStr); err != nil {
		return nil, fmt.Errorf("failed to parse price_close_aud: %w", err)
	}
	if p.PriceCloseUSD, err = decimal.NewFromString(usdStr); err != nil {
		return nil, fmt.Errorf("failed to parse price_close_usd: %w", err)
	}

	// Parse nullable columns
	if shares.Valid {
		p.SharesOutstanding = &shares.Int64
	}
	if marketCap.Valid {
		mc, err := decimal.NewFromString(marketCap.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse market_cap: %w", err)
		}
		p.MarketCap = &mc
	}

	// DATE columns come back as midnight in the session zone, keep the calendar day
	y, m, d := p.PricingDate.Date()
	p.PricingDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	return &p, nil
}

// GetPriceAt retrieves the observation of a trading item on exactly date
func (r *historicalPriceRepository) GetPriceAt(ctx context.Context, tradingItemID int64, date time.Time) (*domain.HistoricalPrice, error) {
	query := `SELECT ` + priceColumns + `
		FROM historical_prices
		WHERE trading_item_id = $1 AND pricing_date = $2::date
	`

	return r.getOne(ctx, query, tradingItemID, dateParam(date))
}

// GetLastPriceBefore retrieves the latest observation on or before date
func (r *historicalPriceRepository) GetLastPriceBefore(ctx context.Context, tradingItemID int64, date time.Time) (*domain.HistoricalPrice, error) {
	query := `SELECT ` + priceColumns + `
		FROM historical_prices
		WHERE trading_item_id = $1 AND pricing_date <= $2::date
		ORDER BY pricing_date DESC
		LIMIT 1
	`

	return r.getOne(ctx, query, tradingItemID, dateParam(date))
}

func (r *historicalPriceRepository) getOne(ctx context.Context, query string, args ...any) (*domain.HistoricalPrice, error) {
	p, err := scanPrice(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get price: %w", err)
	}
	return p, nil
}

// ListInRange retrieves observations of the given trading items between from and to, both inclusive
func (r *historicalPriceRepository) ListInRange(ctx context.Context, tradingItemIDs []int64, from, to time.Time) ([]domain.HistoricalPrice, error) {
	if len(tradingItemIDs) == 0 {
		return []domain.HistoricalPrice{}, nil
	}

	query := `SELECT ` + priceColumns + `
		FROM historical_prices
		WHERE trading_item_id = ANY($1)
		  AND pricing_date BETWEEN $2::date AND $3::date
		ORDER BY trading_item_id ASC, pricing_date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(tradingItemIDs), dateParam(from), dateParam(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list prices: %w", err)
	}
	defer rows.Close()

	prices := make([]domain.HistoricalPrice, 0)
	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices = append(prices, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}

	return prices, nil
}

// BulkUpsert inserts observations, leaving existing (trading item, date) rows untouched
func (r *historicalPriceRepository) BulkUpsert(ctx context.Context, prices []domain.HistoricalPrice) error {
	if len(prices) == 0 {
		return nil
	}

	return inChunks(len(prices), 7, func(start, end int) error {
		query := newInsertBuilder(`INSERT INTO historical_prices (` + priceColumns + `) VALUES `)
		for _, p := range prices[start:end] {
			var marketCap any
			if p.MarketCap != nil {
				marketCap = p.MarketCap.String()
			}
			query.row(
				p.ID,
				p.TradingItemID,
				dateParam(p.PricingDate),
				p.PriceCloseAUD.String(),
				p.PriceCloseUSD.String(),
				p.SharesOutstanding,
				marketCap,
			)
		}
		query.suffix(` ON CONFLICT (trading_item_id, pricing_date) DO NOTHING`)

		if _, err := r.db.ExecContext(ctx, query.String(), query.args...); err != nil {
			return fmt.Errorf("failed to insert prices: %w", err)
		}
		return nil
	})
}
