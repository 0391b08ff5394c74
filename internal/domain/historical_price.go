package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HistoricalPrice represents one daily close observation for a trading item
// PriceCloseAUD is the valuation currency; PriceCloseUSD is carried but never used for valuation
type HistoricalPrice struct {
	ID                uuid.UUID
	TradingItemID     int64
	PricingDate       time.Time
	PriceCloseAUD     decimal.Decimal
	PriceCloseUSD     decimal.Decimal
	SharesOutstanding *int64           // NULL when the source row has no value
	MarketCap         *decimal.Decimal // NULL when the source row has no value
}
