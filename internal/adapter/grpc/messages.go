package grpc

// Decimal quantities travel as strings so no precision is lost on the wire.

type CreatePortfolioRequest struct {
	Name string `json:"name"`
}

type CreatePortfolioResponse struct {
	PortfolioID string `json:"portfolioId"`
	Name        string `json:"name"`
}

type GetPortfolioReturnsRequest struct {
	PortfolioID string `json:"portfolioId"`
	// Days defaults to the server's window length when zero
	Days int32 `json:"days,omitempty"`
}

type ReturnPoint struct {
	Date           string `json:"date"`
	PortfolioValue string `json:"portfolioValue"`
	DailyReturn    string `json:"dailyReturn"`
}

type GetPortfolioReturnsResponse struct {
	PortfolioID string         `json:"portfolioId"`
	Returns     []*ReturnPoint `json:"returns"`
}

type TransactionInput struct {
	TickerSymbol    string `json:"tickerSymbol"`
	TransactionDate string `json:"transactionDate"`
	TransactionType string `json:"transactionType"`
	Quantity        string `json:"quantity"`
	Price           string `json:"price"`
	Currency        string `json:"currency,omitempty"`
	TransactionCost string `json:"transactionCost,omitempty"`
}

type UploadTransactionsRequest struct {
	PortfolioID  string              `json:"portfolioId"`
	Transactions []*TransactionInput `json:"transactions"`
}

type AcceptedTransaction struct {
	TransactionID   string   `json:"transactionId"`
	TickerSymbol    string   `json:"tickerSymbol"`
	TransactionType string   `json:"transactionType"`
	TransactionDate string   `json:"transactionDate"`
	Warnings        []string `json:"warnings,omitempty"`
}

type RejectedTransaction struct {
	Transaction *TransactionInput `json:"transaction"`
	Reason      string            `json:"reason"`
}

type UploadTransactionsResponse struct {
	Accepted []*AcceptedTransaction `json:"accepted"`
	Rejected []*RejectedTransaction `json:"rejected"`
}

// UpdateTransactionRequest leaves a field unchanged when it is nil
type UpdateTransactionRequest struct {
	PortfolioID     string  `json:"portfolioId"`
	TransactionID   string  `json:"transactionId"`
	TransactionDate *string `json:"transactionDate,omitempty"`
	TransactionType *string `json:"transactionType,omitempty"`
	Quantity        *string `json:"quantity,omitempty"`
	Price           *string `json:"price,omitempty"`
	Currency        *string `json:"currency,omitempty"`
	TransactionCost *string `json:"transactionCost,omitempty"`
}

type Transaction struct {
	ID              string `json:"id"`
	PortfolioID     string `json:"portfolioId"`
	TradingItemID   int64  `json:"tradingItemId"`
	TransactionDate string `json:"transactionDate"`
	TransactionType string `json:"transactionType"`
	Quantity        string `json:"quantity"`
	Price           string `json:"price"`
	Currency        string `json:"currency"`
	TransactionCost string `json:"transactionCost"`
}

type UpdateTransactionResponse struct {
	Transaction *Transaction `json:"transaction"`
	Warnings    []string     `json:"warnings,omitempty"`
}

type DeleteTransactionRequest struct {
	PortfolioID   string `json:"portfolioId"`
	TransactionID string `json:"transactionId"`
}

type DeleteTransactionResponse struct {
	Message string `json:"message"`
}
