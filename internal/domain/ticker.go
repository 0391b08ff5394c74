package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var tickerPattern = regexp.MustCompile(`^([A-Za-z]+)[:\s.]([A-Za-z0-9]+)$`)

// Ticker is an exchange-qualified ticker symbol such as ASX:BHP
type Ticker struct {
	Exchange string
	Symbol   string
}

// String formats the ticker as EXCHANGE:SYMBOL
func (t Ticker) String() string {
	return t.Exchange + ":" + t.Symbol
}

// ParseTicker parses ticker strings in the formats "ASX:BHP", "ASX BHP" and "ASX.BHP"
// Both parts are normalised to upper case
func ParseTicker(s string) (Ticker, error) {
	m := tickerPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Ticker{}, NewValidationError(
			fmt.Sprintf("invalid ticker format: %q, expected EXCHANGE:TICKER (e.g. ASX:BHP)", s), nil)
	}

	return Ticker{
		Exchange: strings.ToUpper(m[1]),
		Symbol:   strings.ToUpper(m[2]),
	}, nil
}
