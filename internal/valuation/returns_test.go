package valuation

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(points []ReturnPoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.PortfolioValue.String()
	}
	return out
}

func TestComputeReturns_EmptyPortfolio(t *testing.T) {
	for _, n := range []int{1, 7, 30} {
		start, end := Window(day(40), n)

		points, err := ComputeReturns(nil, nil, start, end)

		require.NoError(t, err)
		assert.Len(t, points, n)
		for _, p := range points {
			assert.True(t, p.PortfolioValue.IsZero())
			assert.True(t, p.DailyReturn.IsZero())
		}
	}
}

func TestComputeReturns_OnePointPerDayRegardlessOfDensity(t *testing.T) {
	txs := []domain.Transaction{buy(itemA, day(-20), 10), buy(itemA, day(2), 5), sell(itemA, day(2), 1)}
	prices := []domain.HistoricalPrice{price(itemA, day(-3), "1"), price(itemA, day(2), "2")}

	points, err := ComputeReturns(txs, prices, day(0), day(9))

	require.NoError(t, err)
	require.Len(t, points, 10)
	for i, p := range points {
		assert.True(t, day(i).Equal(p.Date))
	}
}

func TestComputeReturns_FirstReturnIsZero(t *testing.T) {
	txs := []domain.Transaction{buy(itemA, day(-30), 100)}
	prices := []domain.HistoricalPrice{price(itemA, day(-1), "50"), price(itemA, day(0), "55")}

	points, err := ComputeReturns(txs, prices, day(0), day(4))

	require.NoError(t, err)
	assertDecimal(t, "5500", points[0].PortfolioValue)
	assert.True(t, points[0].DailyReturn.IsZero())
}

func TestComputeReturns_FourDayScenario(t *testing.T) {
	txs := []domain.Transaction{buy(itemA, day(-30), 150)}
	prices := []domain.HistoricalPrice{
		price(itemA, day(0), "11.00"),
		price(itemA, day(1), "11.50"),
		price(itemA, day(2), "12.00"),
		price(itemA, day(3), "11.50"),
	}

	points, err := ComputeReturns(txs, prices, day(0), day(3))
	require.NoError(t, err)
	require.Len(t, points, 4)

	wantValues := []string{"1650", "1725", "1800", "1725"}
	wantReturns := []float64{
		0,
		(1725.0 - 1650.0) / 1650.0,
		(1800.0 - 1725.0) / 1725.0,
		(1725.0 - 1800.0) / 1800.0,
	}
	for i := range points {
		assertDecimal(t, wantValues[i], points[i].PortfolioValue, "day %d", i)
		assert.InDelta(t, wantReturns[i], points[i].DailyReturn.InexactFloat64(), 1e-12, "day %d", i)
	}
	assert.True(t, points[0].DailyReturn.IsZero())
}

func TestComputeReturns_CarryForward(t *testing.T) {
	// No observation on day 1: it must reuse day 0's close
	txs := []domain.Transaction{buy(itemA, day(-30), 100)}
	prices := []domain.HistoricalPrice{price(itemA, day(0), "10"), price(itemA, day(2), "20")}

	points, err := ComputeReturns(txs, prices, day(0), day(2))

	require.NoError(t, err)
	assert.Equal(t, []string{"1000", "1000", "2000"}, values(points))
	assert.True(t, points[1].DailyReturn.IsZero())
	assertDecimal(t, "1", points[2].DailyReturn)
}

func TestComputeReturns_LookbackSeedsFirstDay(t *testing.T) {
	// The only close before the window is three days earlier (a long weekend)
	txs := []domain.Transaction{buy(itemA, day(-30), 100)}
	prices := []domain.HistoricalPrice{price(itemA, day(-3), "7.5")}

	points, err := ComputeReturns(txs, prices, day(0), day(1))

	require.NoError(t, err)
	assert.Equal(t, []string{"750", "750"}, values(points))
}

func TestComputeReturns_MultiInstrumentSum(t *testing.T) {
	txs := []domain.Transaction{buy(itemA, day(-30), 100), buy(itemB, day(-30), 50)}
	prices := []domain.HistoricalPrice{price(itemA, day(0), "20"), price(itemB, day(0), "10")}

	points, err := ComputeReturns(txs, prices, day(0), day(0))

	require.NoError(t, err)
	require.Len(t, points, 1)
	assertDecimal(t, "2500", points[0].PortfolioValue)
}

func TestComputeReturns_MidWindowSell(t *testing.T) {
	txs := []domain.Transaction{
		buy(itemA, day(-30), 100),
		sell(itemA, day(2).Add(14*time.Hour), 30),
	}
	prices := []domain.HistoricalPrice{price(itemA, day(-1), "10")}

	points, err := ComputeReturns(txs, prices, day(0), day(4))

	require.NoError(t, err)
	assert.Equal(t, []string{"1000", "1000", "700", "700", "700"}, values(points))
	assertDecimal(t, "-0.3", points[2].DailyReturn)
}

func TestComputeReturns_BuyInsideWindow(t *testing.T) {
	txs := []domain.Transaction{buy(itemA, day(1), 100)}
	prices := []domain.HistoricalPrice{
		price(itemA, day(0), "10"),
		price(itemA, day(1), "10"),
		price(itemA, day(2), "10"),
	}

	points, err := ComputeReturns(txs, prices, day(0), day(2))

	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1000", "1000"}, values(points))
	// The previous value was zero, so no infinite return
	assert.True(t, points[1].DailyReturn.IsZero())
	assert.True(t, points[2].DailyReturn.IsZero())
}

func TestComputeReturns_SellBeforeBuyOnSameInstrument(t *testing.T) {
	// Oversold position is tracked but not valued, then a later buy restores it
	txs := []domain.Transaction{
		buy(itemA, day(-5), 10),
		sell(itemA, day(-4), 30),
		buy(itemA, day(1), 25),
	}
	prices := []domain.HistoricalPrice{price(itemA, day(-5), "4")}

	points, err := ComputeReturns(txs, prices, day(0), day(1))

	require.NoError(t, err)
	assert.Equal(t, []string{"0", "20"}, values(points)) // -20 + 25 = 5 units × 4
}

func TestComputeReturns_MissingPriceContributesZero(t *testing.T) {
	txs := []domain.Transaction{buy(itemA, day(-30), 100), buy(itemB, day(-30), 10)}
	prices := []domain.HistoricalPrice{price(itemB, day(0), "3")}

	points, err := ComputeReturns(txs, prices, day(0), day(2))

	require.NoError(t, err)
	assert.Equal(t, []string{"30", "30", "30"}, values(points))
}

func TestComputeReturns_PriceAfterDayIsNotUsed(t *testing.T) {
	txs := []domain.Transaction{buy(itemA, day(-30), 100)}
	prices := []domain.HistoricalPrice{price(itemA, day(1), "10")}

	points, err := ComputeReturns(txs, prices, day(0), day(1))

	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1000"}, values(points))
	assert.True(t, points[1].DailyReturn.IsZero())
}

func TestComputeReturns_TransactionsAfterWindowIgnored(t *testing.T) {
	txs := []domain.Transaction{buy(itemA, day(-30), 100), buy(itemA, day(5), 900)}
	prices := []domain.HistoricalPrice{price(itemA, day(0), "1")}

	points, err := ComputeReturns(txs, prices, day(0), day(2))

	require.NoError(t, err)
	assert.Equal(t, []string{"100", "100", "100"}, values(points))
}

func TestComputeReturns_UnorderedTransactions(t *testing.T) {
	ordered := []domain.Transaction{
		buy(itemA, day(-3), 100),
		sell(itemA, day(1), 50),
		buy(itemB, day(2), 10),
	}
	shuffled := []domain.Transaction{ordered[2], ordered[0], ordered[1]}
	prices := []domain.HistoricalPrice{price(itemA, day(0), "2"), price(itemB, day(0), "3")}

	want, err := ComputeReturns(ordered, prices, day(0), day(3))
	require.NoError(t, err)
	got, err := ComputeReturns(shuffled, prices, day(0), day(3))
	require.NoError(t, err)

	assert.Equal(t, values(want), values(got))
	assert.Equal(t, []string{"200", "100", "130", "130"}, values(got))
}

func TestComputeReturns_Idempotent(t *testing.T) {
	txs := []domain.Transaction{buy(itemA, day(-3), 7), buy(itemB, day(1), 3), sell(itemA, day(2), 2)}
	prices := []domain.HistoricalPrice{
		price(itemA, day(-1), "1.23"),
		price(itemB, day(1), "45.6"),
		price(itemA, day(2), "1.5"),
	}

	first, err := ComputeReturns(txs, prices, day(0), day(4))
	require.NoError(t, err)
	second, err := ComputeReturns(txs, prices, day(0), day(4))
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.True(t, first[i].Date.Equal(second[i].Date))
		assert.True(t, first[i].PortfolioValue.Equal(second[i].PortfolioValue))
		assert.True(t, first[i].DailyReturn.Equal(second[i].DailyReturn))
	}
}

func TestComputeReturns_DoesNotMutateInput(t *testing.T) {
	txs := []domain.Transaction{buy(itemA, day(3), 1), buy(itemA, day(-3), 2)}
	firstID := txs[0].ID

	_, err := ComputeReturns(txs, nil, day(0), day(4))

	require.NoError(t, err)
	assert.Equal(t, firstID, txs[0].ID)
}

func TestComputeReturns_InvalidWindow(t *testing.T) {
	points, err := ComputeReturns(nil, nil, day(2), day(1))

	assert.Nil(t, points)
	assert.True(t, errors.Is(err, ErrInvalidWindow))
}

func TestValue_SkipsNonPositiveHoldings(t *testing.T) {
	h := Holdings{itemA: decimal.NewFromInt(-10), itemB: decimal.NewFromInt(2)}
	index := BuildPriceIndex([]domain.HistoricalPrice{price(itemA, day(0), "100"), price(itemB, day(0), "4")})

	assertDecimal(t, "8", Value(h, index, day(0)))
}

func TestTradingItemIDs(t *testing.T) {
	txs := []domain.Transaction{buy(itemB, day(0), 1), buy(itemA, day(0), 1), sell(itemB, day(1), 1)}

	assert.Equal(t, []int64{itemA, itemB}, TradingItemIDs(txs))
	assert.Empty(t, TradingItemIDs(nil))
}

func TestLookbackStart(t *testing.T) {
	assert.True(t, day(-7).Equal(LookbackStart(day(0).Add(9*time.Hour), DefaultLookbackDays)))
}
