package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-backend/internal/domain"
)

// PriceRow is one line of a market data dump: a daily close of a trading item
// together with the reference data of its company and listing
type PriceRow struct {
	CompanyID          string
	CompanyName        string
	PrimaryIndustryID  int
	TradingItemID      int64
	TickerSymbol       string
	ExchangeSymbol     string
	ExchangeCountryISO string
	PricingDate        time.Time
	PriceClose         decimal.Decimal
	PriceCloseUSD      decimal.Decimal
	SharesOutstanding  *int64
	MarketCap          *decimal.Decimal
}

// BatchHandler receives consecutive batches of rows
type BatchHandler func(ctx context.Context, rows []PriceRow) error

// BatchSource streams rows in batches to a handler until exhausted
type BatchSource interface {
	Batches(ctx context.Context, handle BatchHandler) error
}

// SeedStats summarises a completed seed run
type SeedStats struct {
	Batches int
	Rows    int
}

// MarketDataSeeder loads companies, trading items and daily prices
type MarketDataSeeder struct {
	tradingItemRepo domain.TradingItemRepository
	priceRepo       domain.HistoricalPriceRepository
	log             zerolog.Logger
}

// NewMarketDataSeeder creates a new MarketDataSeeder instance
func NewMarketDataSeeder(tradingItemRepo domain.TradingItemRepository, priceRepo domain.HistoricalPriceRepository, log zerolog.Logger) *MarketDataSeeder {
	return &MarketDataSeeder{
		tradingItemRepo: tradingItemRepo,
		priceRepo:       priceRepo,
		log:             log.With().Str("component", "seeder").Logger(),
	}
}

// Seed loads every batch of the source, logging progress after each one
// Loading is idempotent: reference data is upserted and existing prices are skipped
func (s *MarketDataSeeder) Seed(ctx context.Context, source BatchSource) (*SeedStats, error) {
	stats := &SeedStats{}
	start := time.Now()

	err := source.Batches(ctx, func(ctx context.Context, rows []PriceRow) error {
		if err := s.LoadBatch(ctx, rows); err != nil {
			return fmt.Errorf("batch %d: %w", stats.Batches+1, err)
		}
		stats.Batches++
		stats.Rows += len(rows)

		s.log.Info().
			Int("batch", stats.Batches).
			Int("rows", len(rows)).
			Int("total_rows", stats.Rows).
			Msg("batch loaded")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int("batches", stats.Batches).
		Int("rows", stats.Rows).
		Dur("elapsed", time.Since(start)).
		Msg("market data seeded")

	return stats, nil
}

// LoadBatch writes one batch of rows
//
// Logic:
//  1. Collect distinct companies and trading items, the first row for an ID wins
//  2. Upsert companies, then trading items
//  3. Insert the prices, skipping (trading item, date) pairs already stored
func (s *MarketDataSeeder) LoadBatch(ctx context.Context, rows []PriceRow) error {
	if len(rows) == 0 {
		return nil
	}

	companies := make([]domain.Company, 0)
	items := make([]domain.TradingItem, 0)
	prices := make([]domain.HistoricalPrice, 0, len(rows))
	seenCompanies := make(map[string]bool)
	seenItems := make(map[int64]bool)

	for _, row := range rows {
		if !seenCompanies[row.CompanyID] {
			seenCompanies[row.CompanyID] = true
			companies = append(companies, domain.Company{
				ID:                row.CompanyID,
				Name:              row.CompanyName,
				PrimaryIndustryID: row.PrimaryIndustryID,
			})
		}

		if !seenItems[row.TradingItemID] {
			seenItems[row.TradingItemID] = true
			items = append(items, domain.TradingItem{
				ID:                 row.TradingItemID,
				CompanyID:          row.CompanyID,
				ExchangeSymbol:     row.ExchangeSymbol,
				TickerSymbol:       row.TickerSymbol,
				ExchangeCountryISO: row.ExchangeCountryISO,
			})
		}

		prices = append(prices, domain.HistoricalPrice{
			ID:                uuid.New(),
			TradingItemID:     row.TradingItemID,
			PricingDate:       row.PricingDate,
			PriceCloseAUD:     row.PriceClose,
			PriceCloseUSD:     row.PriceCloseUSD,
			SharesOutstanding: row.SharesOutstanding,
			MarketCap:         row.MarketCap,
		})
	}

	if err := s.tradingItemRepo.UpsertCompanies(ctx, companies); err != nil {
		return fmt.Errorf("failed to upsert companies: %w", err)
	}

	if err := s.tradingItemRepo.UpsertTradingItems(ctx, items); err != nil {
		return fmt.Errorf("failed to upsert trading items: %w", err)
	}

	if err := s.priceRepo.BulkUpsert(ctx, prices); err != nil {
		return fmt.Errorf("failed to insert prices: %w", err)
	}

	s.log.Debug().
		Int("companies", len(companies)).
		Int("trading_items", len(items)).
		Int("prices", len(prices)).
		Msg("batch written")

	return nil
}
