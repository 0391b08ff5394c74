package valuation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-backend/internal/domain"
)

// PriceSeries is the date-ordered close history of one trading item
// Dates are strictly increasing
type PriceSeries struct {
	days   []time.Time
	prices []decimal.Decimal
}

// Len returns the number of observations in the series
func (s *PriceSeries) Len() int { return len(s.days) }

// AsOf returns the price on day, or the most recent price before it
// Returns false if the series is empty or starts after day
func (s *PriceSeries) AsOf(day time.Time) (decimal.Decimal, bool) {
	day = TruncateToDay(day)

	// First index strictly after day; the entry just before it is the rightmost one <= day
	i := sort.Search(len(s.days), func(i int) bool {
		return s.days[i].After(day)
	})
	if i == 0 {
		return decimal.Zero, false
	}
	return s.prices[i-1], true
}

// PriceIndex maps trading item IDs to their price series
type PriceIndex map[int64]*PriceSeries

// BuildPriceIndex groups observations per trading item and sorts each group by day
// When several observations share an item and a day, the first one seen wins
func BuildPriceIndex(observations []domain.HistoricalPrice) PriceIndex {
	type point struct {
		day   time.Time
		price decimal.Decimal
	}

	grouped := make(map[int64][]point)
	for _, obs := range observations {
		grouped[obs.TradingItemID] = append(grouped[obs.TradingItemID], point{
			day:   TruncateToDay(obs.PricingDate),
			price: obs.PriceCloseAUD,
		})
	}

	index := make(PriceIndex, len(grouped))
	for id, points := range grouped {
		// Stable keeps input order among equal days, which the dedup below relies on
		sort.SliceStable(points, func(i, j int) bool {
			return points[i].day.Before(points[j].day)
		})

		series := &PriceSeries{
			days:   make([]time.Time, 0, len(points)),
			prices: make([]decimal.Decimal, 0, len(points)),
		}
		for _, p := range points {
			if n := len(series.days); n > 0 && series.days[n-1].Equal(p.day) {
				continue
			}
			series.days = append(series.days, p.day)
			series.prices = append(series.prices, p.price)
		}
		index[id] = series
	}

	return index
}

// LastPriceAtOrBefore returns the carry-forward price of a trading item on day
// Returns false when the item has no observation at or before day
func (idx PriceIndex) LastPriceAtOrBefore(tradingItemID int64, day time.Time) (decimal.Decimal, bool) {
	series, ok := idx[tradingItemID]
	if !ok {
		return decimal.Zero, false
	}
	return series.AsOf(day)
}
