package returns

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/simaogato/portfolio-backend/internal/domain"
	"github.com/simaogato/portfolio-backend/internal/valuation"
)

const (
	// DefaultDays is the window length used when the caller does not ask for one
	DefaultDays = 30

	// DefaultMaxDays is the longest window a caller may request
	DefaultMaxDays = 30
)

// PortfolioReturns is the daily valuation of a portfolio over a trailing window
type PortfolioReturns struct {
	PortfolioID uuid.UUID
	Returns     []valuation.ReturnPoint
}

// ReturnsService computes daily portfolio values and returns
type ReturnsService struct {
	PortfolioRepo   domain.PortfolioRepository
	TransactionRepo domain.TransactionRepository
	PriceRepo       domain.HistoricalPriceRepository

	// LookbackDays widens the price query before the window start
	LookbackDays int
	// MaxDays caps the requested window length
	MaxDays int
	// Clock returns the current time, the window always ends on its UTC day
	Clock func() time.Time

	log zerolog.Logger
}

// NewReturnsService creates a new ReturnsService instance
func NewReturnsService(
	portfolioRepo domain.PortfolioRepository,
	transactionRepo domain.TransactionRepository,
	priceRepo domain.HistoricalPriceRepository,
	log zerolog.Logger,
) *ReturnsService {
	return &ReturnsService{
		PortfolioRepo:   portfolioRepo,
		TransactionRepo: transactionRepo,
		PriceRepo:       priceRepo,
		LookbackDays:    valuation.DefaultLookbackDays,
		MaxDays:         DefaultMaxDays,
		Clock:           time.Now,
		log:             log.With().Str("component", "returns").Logger(),
	}
}

// GetPortfolioReturns values a portfolio on each of the last days days, today included
//
// Logic:
//  1. Validate days against [1, MaxDays]
//  2. Verify the portfolio exists
//  3. Load its transactions and derive the set of trading items ever traded
//  4. Load prices for those items from LookbackDays before the window start up to today
//  5. Run the valuation loop
func (s *ReturnsService) GetPortfolioReturns(ctx context.Context, portfolioID uuid.UUID, days int) (*PortfolioReturns, error) {
	if days < 1 || days > s.MaxDays {
		msg := fmt.Sprintf("days must be an integer between 1 and %d", s.MaxDays)
		return nil, domain.NewValidationError(msg, map[string]string{"days": msg})
	}

	if _, err := s.PortfolioRepo.GetByID(ctx, portfolioID); err != nil {
		return nil, err
	}

	stored, err := s.TransactionRepo.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(stored))
	for _, tx := range stored {
		txs = append(txs, *tx)
	}

	start, end := valuation.Window(s.Clock(), days)
	itemIDs := valuation.TradingItemIDs(txs)

	var prices []domain.HistoricalPrice
	if len(itemIDs) > 0 {
		from := valuation.LookbackStart(start, s.LookbackDays)
		prices, err = s.PriceRepo.ListInRange(ctx, itemIDs, from, end)
		if err != nil {
			return nil, fmt.Errorf("failed to load prices: %w", err)
		}
		s.logUnpricedItems(itemIDs, prices, start)
	}

	s.log.Debug().
		Str("portfolio_id", portfolioID.String()).
		Int("days", days).
		Int("transactions", len(txs)).
		Int("trading_items", len(itemIDs)).
		Int("prices", len(prices)).
		Msg("computing portfolio returns")

	points, err := valuation.ComputeReturns(txs, prices, start, end)
	if err != nil {
		return nil, err
	}

	return &PortfolioReturns{
		PortfolioID: portfolioID,
		Returns:     points,
	}, nil
}

// logUnpricedItems reports items that have no close on or before the first window day
// Such items are valued at zero until their first observation inside the window
func (s *ReturnsService) logUnpricedItems(itemIDs []int64, prices []domain.HistoricalPrice, start time.Time) {
	if s.log.GetLevel() > zerolog.DebugLevel {
		return
	}

	priced := make(map[int64]bool, len(itemIDs))
	for _, p := range prices {
		if !valuation.TruncateToDay(p.PricingDate).After(start) {
			priced[p.TradingItemID] = true
		}
	}

	for _, id := range itemIDs {
		if !priced[id] {
			s.log.Debug().
				Int64("trading_item_id", id).
				Str("window_start", start.Format(valuation.DateFormat)).
				Int("lookback_days", s.LookbackDays).
				Msg("no price within lookback before window start")
		}
	}
}
