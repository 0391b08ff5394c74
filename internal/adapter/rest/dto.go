package rest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-backend/internal/domain"
	"github.com/simaogato/portfolio-backend/internal/usecase/returns"
	"github.com/simaogato/portfolio-backend/internal/usecase/transaction"
	"github.com/simaogato/portfolio-backend/internal/valuation"
)

type createPortfolioRequest struct {
	Name string `json:"name"`
}

type createPortfolioResponse struct {
	PortfolioID string `json:"portfolioId"`
	Name        string `json:"name"`
}

type returnPointResponse struct {
	Date           string      `json:"date"`
	PortfolioValue json.Number `json:"portfolioValue"`
	DailyReturn    json.Number `json:"dailyReturn"`
}

type returnsResponse struct {
	PortfolioID string                `json:"portfolioId"`
	Returns     []returnPointResponse `json:"returns"`
}

func toReturnsResponse(r *returns.PortfolioReturns) returnsResponse {
	points := make([]returnPointResponse, 0, len(r.Returns))
	for _, p := range r.Returns {
		points = append(points, returnPointResponse{
			Date:           p.Date.Format(valuation.DateFormat),
			PortfolioValue: number(p.PortfolioValue),
			DailyReturn:    number(p.DailyReturn),
		})
	}
	return returnsResponse{
		PortfolioID: r.PortfolioID.String(),
		Returns:     points,
	}
}

// number renders a decimal as a bare JSON number
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

type transactionItemRequest struct {
	TickerSymbol    string          `json:"tickerSymbol"`
	TransactionDate string          `json:"transactionDate"`
	TransactionType string          `json:"transactionType"`
	Quantity        decimal.Decimal `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency,omitempty"`
	TransactionCost decimal.Decimal `json:"transactionCost"`
}

type bulkUploadRequest struct {
	Transactions []transactionItemRequest `json:"transactions"`
}

type acceptedTransactionResponse struct {
	TransactionID   string   `json:"transactionId"`
	TickerSymbol    string   `json:"tickerSymbol"`
	TransactionType string   `json:"transactionType"`
	TransactionDate string   `json:"transactionDate"`
	Warnings        []string `json:"warnings,omitempty"`
}

type rejectedTransactionResponse struct {
	Transaction transactionItemRequest `json:"transaction"`
	Reason      string                 `json:"reason"`
}

type bulkUploadResponse struct {
	AcceptedTransactions []acceptedTransactionResponse `json:"acceptedTransactions"`
	RejectedTransactions []rejectedTransactionResponse `json:"rejectedTransactions"`
}

// toInputs converts request items, collecting unparseable dates as field details
func (req bulkUploadRequest) toInputs() ([]transaction.TransactionInput, map[string]string) {
	inputs := make([]transaction.TransactionInput, 0, len(req.Transactions))
	details := make(map[string]string)

	for i, item := range req.Transactions {
		date, err := parseTimestamp(item.TransactionDate)
		if err != nil {
			details[fmt.Sprintf("transactions[%d].transactionDate", i)] = err.Error()
		}

		inputs = append(inputs, transaction.TransactionInput{
			TickerSymbol: item.TickerSymbol,
			Date:         date,
			Type:         domain.TransactionType(item.TransactionType),
			Quantity:     item.Quantity,
			Price:        item.Price,
			Currency:     item.Currency,
			Cost:         item.TransactionCost,
		})
	}

	return inputs, details
}

func toBulkUploadResponse(result *transaction.UploadResult) bulkUploadResponse {
	resp := bulkUploadResponse{
		AcceptedTransactions: make([]acceptedTransactionResponse, 0, len(result.Accepted)),
		RejectedTransactions: make([]rejectedTransactionResponse, 0, len(result.Rejected)),
	}

	for _, a := range result.Accepted {
		resp.AcceptedTransactions = append(resp.AcceptedTransactions, acceptedTransactionResponse{
			TransactionID:   a.TransactionID.String(),
			TickerSymbol:    a.TickerSymbol,
			TransactionType: string(a.Type),
			TransactionDate: a.Date.UTC().Format(time.RFC3339),
			Warnings:        a.Warnings,
		})
	}

	for _, r := range result.Rejected {
		resp.RejectedTransactions = append(resp.RejectedTransactions, rejectedTransactionResponse{
			Transaction: transactionItemRequest{
				TickerSymbol:    r.Input.TickerSymbol,
				TransactionDate: r.Input.Date.UTC().Format(time.RFC3339),
				TransactionType: string(r.Input.Type),
				Quantity:        r.Input.Quantity,
				Price:           r.Input.Price,
				Currency:        r.Input.Currency,
				TransactionCost: r.Input.Cost,
			},
			Reason: r.Reason,
		})
	}

	return resp
}

type updateTransactionRequest struct {
	TransactionDate *string          `json:"transactionDate"`
	TransactionType *string          `json:"transactionType"`
	Quantity        *decimal.Decimal `json:"quantity"`
	Price           *decimal.Decimal `json:"price"`
	Currency        *string          `json:"currency"`
	TransactionCost *decimal.Decimal `json:"transactionCost"`
}

func (req updateTransactionRequest) toUpdate() (domain.TransactionUpdate, map[string]string) {
	update := domain.TransactionUpdate{
		Quantity: req.Quantity,
		Price:    req.Price,
		Currency: req.Currency,
		Cost:     req.TransactionCost,
	}
	details := make(map[string]string)

	if req.TransactionDate != nil {
		date, err := parseTimestamp(*req.TransactionDate)
		if err != nil {
			details["transactionDate"] = err.Error()
		} else {
			update.Date = &date
		}
	}
	if req.TransactionType != nil {
		t := domain.TransactionType(*req.TransactionType)
		update.Type = &t
	}

	return update, details
}

type transactionResponse struct {
	ID              string      `json:"id"`
	PortfolioID     string      `json:"portfolioId"`
	TradingItemID   string      `json:"tradingItemId"`
	TransactionDate string      `json:"transactionDate"`
	TransactionType string      `json:"transactionType"`
	Quantity        json.Number `json:"quantity"`
	Price           json.Number `json:"price"`
	Currency        string      `json:"currency"`
	TransactionCost json.Number `json:"transactionCost"`
}

type updateTransactionResponse struct {
	Transaction transactionResponse `json:"transaction"`
	Warnings    []string            `json:"warnings,omitempty"`
}

func toTransactionResponse(tx *domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:              tx.ID.String(),
		PortfolioID:     tx.PortfolioID.String(),
		TradingItemID:   fmt.Sprintf("%d", tx.TradingItemID),
		TransactionDate: tx.Date.UTC().Format(time.RFC3339),
		TransactionType: string(tx.Type),
		Quantity:        number(tx.Quantity),
		Price:           number(tx.Price),
		Currency:        tx.Currency,
		TransactionCost: number(tx.Cost),
	}
}

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// parseTimestamp accepts RFC 3339 timestamps with or without fractional seconds
func parseTimestamp(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("must be an ISO 8601 timestamp")
	}
	return t.UTC(), nil
}
