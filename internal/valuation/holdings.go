package valuation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-backend/internal/domain"
)

// Holdings maps trading item IDs to signed net quantities
// A missing entry means zero. Quantities may go negative when sells exceed recorded buys.
type Holdings map[int64]decimal.Decimal

// NewHoldings creates holdings from stored holding records
func NewHoldings(records []domain.HoldingRecord) Holdings {
	h := make(Holdings, len(records))
	for _, r := range records {
		h[r.TradingItemID] = h.Quantity(r.TradingItemID).Add(r.NetQuantity)
	}
	return h
}

// NetQuantityBefore folds every transaction dated strictly before the day of cutoff
func NetQuantityBefore(txs []domain.Transaction, cutoff time.Time) Holdings {
	cutoff = TruncateToDay(cutoff)

	h := make(Holdings)
	for i := range txs {
		if TruncateToDay(txs[i].Date).Before(cutoff) {
			h.Apply(&txs[i])
		}
	}
	return h
}

// Apply adds a buy to, or subtracts a sell from, the holding of its trading item
func (h Holdings) Apply(tx *domain.Transaction) {
	h[tx.TradingItemID] = h.Quantity(tx.TradingItemID).Add(tx.SignedQuantity())
}

// Quantity returns the net quantity of a trading item, zero if it was never traded
func (h Holdings) Quantity(tradingItemID int64) decimal.Decimal {
	if q, ok := h[tradingItemID]; ok {
		return q
	}
	return decimal.Zero
}

// Held returns the trading items with a positive net quantity in ascending ID order
// Items at or below zero stay tracked in the map but are not considered held
func (h Holdings) Held() []int64 {
	ids := make([]int64, 0, len(h))
	for id, q := range h {
		if q.IsPositive() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// sortByDay returns a copy of txs ordered by UTC day, keeping input order within a day
func sortByDay(txs []domain.Transaction) []domain.Transaction {
	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return TruncateToDay(sorted[i].Date).Before(TruncateToDay(sorted[j].Date))
	})
	return sorted
}
