package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxPortfolioNameLength is the longest accepted portfolio name
const MaxPortfolioNameLength = 255

// Portfolio represents a portfolio entity in the domain layer
// A portfolio owns an append-mostly log of buy/sell transactions
type Portfolio struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Validate ensures the portfolio adheres to domain rules
// Returns an error if validation fails
func (p *Portfolio) Validate() error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return errors.New("portfolio name is required")
	}

	if len(name) > MaxPortfolioNameLength {
		return errors.New("portfolio name must be at most 255 characters")
	}

	return nil
}
