// Package csvloader streams market data dumps into batches of seeder rows.
package csvloader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-backend/internal/usecase/seeder"
)

// DefaultBatchSize is the number of rows handed to the seeder at once
const DefaultBatchSize = 100000

// Column names of the market data dump
const (
	ColCompanyID          = "COMPANY_ID"
	ColUniqueSymbol       = "UNIQUE_SYMBOL"
	ColTickerSymbol       = "TICKER_SYMBOL"
	ColCompanyName        = "COMPANY_NAME"
	ColExchangeSymbol     = "EXCHANGE_SYMBOL"
	ColExchangeCountryISO = "EXCHANGE_COUNTRY_ISO"
	ColPrimaryIndustryID  = "PRIMARY_INDUSTRY_ID"
	ColTradingItemID      = "TRADING_ITEM_ID"
	ColPricingDate        = "PRICING_DATE"
	ColPriceClose         = "PRICE_CLOSE"
	ColPriceCloseUSD      = "PRICE_CLOSE_USD"
	ColSharesOutstanding  = "SHARES_OUTSTANDING"
	ColMarketCap          = "MARKET_CAP"
)

var requiredColumns = []string{
	ColCompanyID,
	ColTickerSymbol,
	ColCompanyName,
	ColExchangeSymbol,
	ColExchangeCountryISO,
	ColPrimaryIndustryID,
	ColTradingItemID,
	ColPricingDate,
	ColPriceClose,
	ColPriceCloseUSD,
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	time.RFC3339,
}

// Loader reads a CSV dump with a header line and yields its rows in batches
type Loader struct {
	r         io.Reader
	batchSize int
}

// NewLoader creates a loader over r, a non-positive batchSize uses DefaultBatchSize
func NewLoader(r io.Reader, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{r: r, batchSize: batchSize}
}

// Batches parses the input and calls handle for every full batch and the final partial one
// Parsing stops at the first malformed line or handler error
func (l *Loader) Batches(ctx context.Context, handle seeder.BatchHandler) error {
	reader := csv.NewReader(l.r)
	reader.ReuseRecord = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty CSV: missing header")
		}
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols, err := indexColumns(header)
	if err != nil {
		return err
	}

	batch := make([]seeder.PriceRow, 0, l.batchSize)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV: %w", err)
		}

		row, err := cols.parse(record)
		if err != nil {
			line, _ := reader.FieldPos(0)
			return fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, row)

		if len(batch) == l.batchSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := handle(ctx, batch); err != nil {
				return err
			}
			batch = make([]seeder.PriceRow, 0, l.batchSize)
		}
	}

	if len(batch) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return handle(ctx, batch)
	}
	return nil
}

// columns maps column names to their position in a record
type columns map[string]int

func indexColumns(header []string) (columns, error) {
	cols := make(columns, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		cols[strings.ToUpper(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("CSV header is missing columns: %s", strings.Join(missing, ", "))
	}

	return cols, nil
}

// get returns the trimmed value of a column, empty when the column is absent
func (c columns) get(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (c columns) parse(record []string) (seeder.PriceRow, error) {
	row := seeder.PriceRow{
		CompanyID:          c.get(record, ColCompanyID),
		CompanyName:        c.get(record, ColCompanyName),
		TickerSymbol:       c.get(record, ColTickerSymbol),
		ExchangeSymbol:     c.get(record, ColExchangeSymbol),
		ExchangeCountryISO: c.get(record, ColExchangeCountryISO),
	}
	if row.CompanyID == "" {
		return row, fmt.Errorf("%s is empty", ColCompanyID)
	}

	var err error
	if v := c.get(record, ColPrimaryIndustryID); v != "" {
		if row.PrimaryIndustryID, err = strconv.Atoi(v); err != nil {
			return row, fmt.Errorf("invalid %s %q", ColPrimaryIndustryID, v)
		}
	}

	v := c.get(record, ColTradingItemID)
	if row.TradingItemID, err = strconv.ParseInt(v, 10, 64); err != nil || row.TradingItemID <= 0 {
		return row, fmt.Errorf("invalid %s %q", ColTradingItemID, v)
	}

	if row.PricingDate, err = parseDate(c.get(record, ColPricingDate)); err != nil {
		return row, err
	}

	if row.PriceClose, err = parseDecimal(record, c, ColPriceClose); err != nil {
		return row, err
	}
	if row.PriceCloseUSD, err = parseDecimal(record, c, ColPriceCloseUSD); err != nil {
		return row, err
	}

	// Optional columns
	if v := c.get(record, ColSharesOutstanding); v != "" {
		shares, err := decimal.NewFromString(v)
		if err != nil {
			return row, fmt.Errorf("invalid %s %q", ColSharesOutstanding, v)
		}
		n := shares.IntPart()
		row.SharesOutstanding = &n
	}
	if v := c.get(record, ColMarketCap); v != "" {
		marketCap, err := decimal.NewFromString(v)
		if err != nil {
			return row, fmt.Errorf("invalid %s %q", ColMarketCap, v)
		}
		row.MarketCap = &marketCap
	}

	return row, nil
}

func parseDecimal(record []string, c columns, name string) (decimal.Decimal, error) {
	v := c.get(record, name)
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q", name, v)
	}
	return d, nil
}

// parseDate accepts the calendar day in any of dateLayouts and drops the time of day
func parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s %q", ColPricingDate, v)
}
