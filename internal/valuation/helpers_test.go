package valuation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

const (
	itemA int64 = 1
	itemB int64 = 2
)

var (
	testPortfolioID = uuid.MustParse("6f1c1f4e-8d5e-4c55-9a77-1d2f3a4b5c6d")
	baseDay         = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
)

// day returns baseDay shifted by n days
func day(n int) time.Time {
	return baseDay.AddDate(0, 0, n)
}

func buy(item int64, on time.Time, qty int64) domain.Transaction {
	return domain.Transaction{
		ID:            uuid.New(),
		PortfolioID:   testPortfolioID,
		TradingItemID: item,
		Date:          on,
		Type:          domain.TransactionTypeBuy,
		Quantity:      decimal.NewFromInt(qty),
		Price:         decimal.NewFromInt(10),
		Currency:      domain.DefaultCurrency,
		Cost:          decimal.Zero,
	}
}

func sell(item int64, on time.Time, qty int64) domain.Transaction {
	tx := buy(item, on, qty)
	tx.Type = domain.TransactionTypeSell
	return tx
}

func price(item int64, on time.Time, close string) domain.HistoricalPrice {
	aud := decimal.RequireFromString(close)
	return domain.HistoricalPrice{
		ID:            uuid.New(),
		TradingItemID: item,
		PricingDate:   on,
		PriceCloseAUD: aud,
		PriceCloseUSD: aud.Mul(decimal.RequireFromString("0.65")),
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got),
		append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}
