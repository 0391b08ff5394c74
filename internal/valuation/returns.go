// Package valuation reconstructs the daily market value and day-over-day return of a
// portfolio from its transaction log and a sparse daily price history.
//
// Everything in this package is request scoped and free of I/O: callers load the
// transactions and price observations, then call ComputeReturns.
package valuation

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-backend/internal/domain"
)

// DefaultLookbackDays is how far before the window start prices are loaded so the
// first window day can carry forward a close across short market closures
const DefaultLookbackDays = 7

// ErrInvalidWindow is returned when a window ends before it starts
var ErrInvalidWindow = errors.New("invalid valuation window")

// ReturnPoint is the valuation of a portfolio at the end of one day
type ReturnPoint struct {
	Date           time.Time
	PortfolioValue decimal.Decimal
	DailyReturn    decimal.Decimal // 0 on the first day and whenever the previous value is 0
}

// ComputeReturns values the portfolio on every day of [windowStart, windowEnd]
//
// Logic:
//  1. Truncate both bounds to UTC days and generate the inclusive day sequence
//  2. Build the price index over the observations
//  3. Seed holdings with every transaction dated before the first day
//  4. For each day: apply that day's transactions, value the positive holdings at
//     their carry-forward price, derive the return from the previous day's value
//
// The result always has one point per day, even with no transactions or prices.
func ComputeReturns(txs []domain.Transaction, prices []domain.HistoricalPrice, windowStart, windowEnd time.Time) ([]ReturnPoint, error) {
	start, end := TruncateToDay(windowStart), TruncateToDay(windowEnd)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s is before start %s",
			ErrInvalidWindow, end.Format(DateFormat), start.Format(DateFormat))
	}

	days := DayRange(start, end)
	index := BuildPriceIndex(prices)

	sorted := sortByDay(txs)
	holdings := NetQuantityBefore(sorted, start)

	// sorted is ordered by day, so in-window transactions start right after the seeded ones
	next := sort.Search(len(sorted), func(i int) bool {
		return !TruncateToDay(sorted[i].Date).Before(start)
	})

	points := make([]ReturnPoint, 0, len(days))
	previous := decimal.Zero
	for i, day := range days {
		for next < len(sorted) && !TruncateToDay(sorted[next].Date).After(day) {
			holdings.Apply(&sorted[next])
			next++
		}

		value := Value(holdings, index, day)

		dailyReturn := decimal.Zero
		if i > 0 && !previous.IsZero() {
			dailyReturn = value.Sub(previous).Div(previous)
		}

		points = append(points, ReturnPoint{
			Date:           day,
			PortfolioValue: value,
			DailyReturn:    dailyReturn,
		})
		previous = value
	}

	return points, nil
}

// Value sums quantity × carry-forward price over every held trading item on day
// Items without a price at or before day contribute nothing
func Value(h Holdings, index PriceIndex, day time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, id := range h.Held() {
		price, ok := index.LastPriceAtOrBefore(id, day)
		if !ok {
			continue
		}
		total = total.Add(h[id].Mul(price))
	}
	return total
}

// TradingItemIDs returns every trading item referenced by txs, once, in ascending order
func TradingItemIDs(txs []domain.Transaction) []int64 {
	seen := make(map[int64]struct{}, len(txs))
	ids := make([]int64, 0)
	for _, tx := range txs {
		if _, ok := seen[tx.TradingItemID]; ok {
			continue
		}
		seen[tx.TradingItemID] = struct{}{}
		ids = append(ids, tx.TradingItemID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// LookbackStart returns the first day of the price range needed to value a window starting on start
func LookbackStart(start time.Time, lookbackDays int) time.Time {
	return TruncateToDay(start).AddDate(0, 0, -lookbackDays)
}
