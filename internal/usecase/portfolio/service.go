package portfolio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/portfolio-backend/internal/domain"
)

// PortfolioService handles portfolio-related operations
type PortfolioService struct {
	PortfolioRepo domain.PortfolioRepository
}

// NewPortfolioService creates a new PortfolioService instance
func NewPortfolioService(portfolioRepo domain.PortfolioRepository) *PortfolioService {
	return &PortfolioService{
		PortfolioRepo: portfolioRepo,
	}
}

// CreatePortfolio creates an empty portfolio with the given name
// The name is trimmed before validation and storage
func (s *PortfolioService) CreatePortfolio(ctx context.Context, name string) (*domain.Portfolio, error) {
	portfolio := &domain.Portfolio{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC(),
	}

	if err := portfolio.Validate(); err != nil {
		return nil, domain.NewValidationError(err.Error(), map[string]string{"name": err.Error()})
	}

	if err := s.PortfolioRepo.Create(ctx, portfolio); err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}

	return portfolio, nil
}

// GetPortfolio retrieves a portfolio by ID
func (s *PortfolioService) GetPortfolio(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	return s.PortfolioRepo.GetByID(ctx, id)
}
