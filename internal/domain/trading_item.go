package domain

// Company represents the issuer of one or more trading items
type Company struct {
	ID                string
	Name              string
	PrimaryIndustryID int
}

// TradingItem represents a tradable security listed on an exchange
// ID is the stable internal identifier used by transactions and prices,
// distinct from the exchange ticker string
type TradingItem struct {
	ID                 int64
	CompanyID          string
	ExchangeSymbol     string
	TickerSymbol       string
	ExchangeCountryISO string
}

// Ticker returns the canonical EXCHANGE:TICKER form of the trading item
func (ti *TradingItem) Ticker() Ticker {
	return Ticker{Exchange: ti.ExchangeSymbol, Symbol: ti.TickerSymbol}
}
