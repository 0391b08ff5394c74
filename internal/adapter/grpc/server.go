package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/simaogato/portfolio-backend/internal/domain"
	"github.com/simaogato/portfolio-backend/internal/usecase/returns"
	"github.com/simaogato/portfolio-backend/internal/usecase/transaction"
	"github.com/simaogato/portfolio-backend/internal/valuation"
)

// PortfolioCreator creates portfolios
type PortfolioCreator interface {
	CreatePortfolio(ctx context.Context, name string) (*domain.Portfolio, error)
}

// ReturnsProvider computes daily portfolio returns
type ReturnsProvider interface {
	GetPortfolioReturns(ctx context.Context, portfolioID uuid.UUID, days int) (*returns.PortfolioReturns, error)
}

// TransactionRecorder records, updates and deletes transactions
type TransactionRecorder interface {
	BulkUpload(ctx context.Context, portfolioID uuid.UUID, inputs []transaction.TransactionInput) (*transaction.UploadResult, error)
	UpdateTransaction(ctx context.Context, portfolioID, transactionID uuid.UUID, update domain.TransactionUpdate) (*transaction.UpdateResult, error)
	DeleteTransaction(ctx context.Context, portfolioID, transactionID uuid.UUID) error
}

// Server implements PortfolioServiceServer on top of the use case services
type Server struct {
	Portfolios   PortfolioCreator
	Returns      ReturnsProvider
	Transactions TransactionRecorder
	DefaultDays  int

	log zerolog.Logger
}

var _ PortfolioServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(
	portfolios PortfolioCreator,
	returnsProvider ReturnsProvider,
	transactions TransactionRecorder,
	log zerolog.Logger,
) *Server {
	return &Server{
		Portfolios:   portfolios,
		Returns:      returnsProvider,
		Transactions: transactions,
		DefaultDays:  returns.DefaultDays,
		log:          log.With().Str("component", "grpc").Logger(),
	}
}

// CreatePortfolio handles the CreatePortfolio RPC
func (s *Server) CreatePortfolio(ctx context.Context, req *CreatePortfolioRequest) (*CreatePortfolioResponse, error) {
	portfolio, err := s.Portfolios.CreatePortfolio(ctx, req.Name)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &CreatePortfolioResponse{
		PortfolioID: portfolio.ID.String(),
		Name:        portfolio.Name,
	}, nil
}

// GetPortfolioReturns handles the GetPortfolioReturns RPC
func (s *Server) GetPortfolioReturns(ctx context.Context, req *GetPortfolioReturnsRequest) (*GetPortfolioReturnsResponse, error) {
	portfolioID, err := parseUUID("portfolio_id", req.PortfolioID)
	if err != nil {
		return nil, err
	}

	days := int(req.Days)
	if days == 0 {
		days = s.DefaultDays
	}

	result, err := s.Returns.GetPortfolioReturns(ctx, portfolioID, days)
	if err != nil {
		return nil, s.mapError(err)
	}

	points := make([]*ReturnPoint, 0, len(result.Returns))
	for _, p := range result.Returns {
		points = append(points, &ReturnPoint{
			Date:           p.Date.Format(valuation.DateFormat),
			PortfolioValue: p.PortfolioValue.String(),
			DailyReturn:    p.DailyReturn.String(),
		})
	}

	return &GetPortfolioReturnsResponse{
		PortfolioID: result.PortfolioID.String(),
		Returns:     points,
	}, nil
}

// UploadTransactions handles the UploadTransactions RPC
func (s *Server) UploadTransactions(ctx context.Context, req *UploadTransactionsRequest) (*UploadTransactionsResponse, error) {
	portfolioID, err := parseUUID("portfolio_id", req.PortfolioID)
	if err != nil {
		return nil, err
	}

	inputs := make([]transaction.TransactionInput, 0, len(req.Transactions))
	for i, item := range req.Transactions {
		if item == nil {
			return nil, status.Errorf(codes.InvalidArgument, "transactions[%d] is empty", i)
		}
		input, err := toTransactionInput(item)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "transactions[%d]: %v", i, err)
		}
		inputs = append(inputs, input)
	}

	result, err := s.Transactions.BulkUpload(ctx, portfolioID, inputs)
	if err != nil {
		return nil, s.mapError(err)
	}

	resp := &UploadTransactionsResponse{
		Accepted: make([]*AcceptedTransaction, 0, len(result.Accepted)),
		Rejected: make([]*RejectedTransaction, 0, len(result.Rejected)),
	}
	for _, a := range result.Accepted {
		resp.Accepted = append(resp.Accepted, &AcceptedTransaction{
			TransactionID:   a.TransactionID.String(),
			TickerSymbol:    a.TickerSymbol,
			TransactionType: string(a.Type),
			TransactionDate: formatTimestamp(a.Date),
			Warnings:        a.Warnings,
		})
	}
	for _, r := range result.Rejected {
		resp.Rejected = append(resp.Rejected, &RejectedTransaction{
			Transaction: &TransactionInput{
				TickerSymbol:    r.Input.TickerSymbol,
				TransactionDate: formatTimestamp(r.Input.Date),
				TransactionType: string(r.Input.Type),
				Quantity:        r.Input.Quantity.String(),
				Price:           r.Input.Price.String(),
				Currency:        r.Input.Currency,
				TransactionCost: r.Input.Cost.String(),
			},
			Reason: r.Reason,
		})
	}

	return resp, nil
}

// UpdateTransaction handles the UpdateTransaction RPC
func (s *Server) UpdateTransaction(ctx context.Context, req *UpdateTransactionRequest) (*UpdateTransactionResponse, error) {
	portfolioID, err := parseUUID("portfolio_id", req.PortfolioID)
	if err != nil {
		return nil, err
	}
	transactionID, err := parseUUID("transaction_id", req.TransactionID)
	if err != nil {
		return nil, err
	}

	update, err := toTransactionUpdate(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%v", err)
	}

	result, err := s.Transactions.UpdateTransaction(ctx, portfolioID, transactionID, update)
	if err != nil {
		return nil, s.mapError(err)
	}

	tx := result.Transaction
	return &UpdateTransactionResponse{
		Transaction: &Transaction{
			ID:              tx.ID.String(),
			PortfolioID:     tx.PortfolioID.String(),
			TradingItemID:   tx.TradingItemID,
			TransactionDate: formatTimestamp(tx.Date),
			TransactionType: string(tx.Type),
			Quantity:        tx.Quantity.String(),
			Price:           tx.Price.String(),
			Currency:        tx.Currency,
			TransactionCost: tx.Cost.String(),
		},
		Warnings: result.Warnings,
	}, nil
}

// DeleteTransaction handles the DeleteTransaction RPC
func (s *Server) DeleteTransaction(ctx context.Context, req *DeleteTransactionRequest) (*DeleteTransactionResponse, error) {
	portfolioID, err := parseUUID("portfolio_id", req.PortfolioID)
	if err != nil {
		return nil, err
	}
	transactionID, err := parseUUID("transaction_id", req.TransactionID)
	if err != nil {
		return nil, err
	}

	if err := s.Transactions.DeleteTransaction(ctx, portfolioID, transactionID); err != nil {
		return nil, s.mapError(err)
	}

	return &DeleteTransactionResponse{Message: "Transaction deleted successfully"}, nil
}

// Helper functions

func toTransactionInput(item *TransactionInput) (transaction.TransactionInput, error) {
	date, err := parseTimestamp(item.TransactionDate)
	if err != nil {
		return transaction.TransactionInput{}, err
	}
	quantity, err := parseDecimal("quantity", item.Quantity)
	if err != nil {
		return transaction.TransactionInput{}, err
	}
	price, err := parseDecimal("price", item.Price)
	if err != nil {
		return transaction.TransactionInput{}, err
	}
	cost := decimal.Zero
	if item.TransactionCost != "" {
		if cost, err = parseDecimal("transaction_cost", item.TransactionCost); err != nil {
			return transaction.TransactionInput{}, err
		}
	}

	return transaction.TransactionInput{
		TickerSymbol: item.TickerSymbol,
		Date:         date,
		Type:         domain.TransactionType(item.TransactionType),
		Quantity:     quantity,
		Price:        price,
		Currency:     item.Currency,
		Cost:         cost,
	}, nil
}

func toTransactionUpdate(req *UpdateTransactionRequest) (domain.TransactionUpdate, error) {
	update := domain.TransactionUpdate{Currency: req.Currency}

	if req.TransactionDate != nil {
		date, err := parseTimestamp(*req.TransactionDate)
		if err != nil {
			return update, err
		}
		update.Date = &date
	}
	if req.TransactionType != nil {
		t := domain.TransactionType(*req.TransactionType)
		update.Type = &t
	}

	fields := []struct {
		name string
		raw  *string
		dst  **decimal.Decimal
	}{
		{"quantity", req.Quantity, &update.Quantity},
		{"price", req.Price, &update.Price},
		{"transaction_cost", req.TransactionCost, &update.Cost},
	}
	for _, f := range fields {
		if f.raw == nil {
			continue
		}
		d, err := parseDecimal(f.name, *f.raw)
		if err != nil {
			return update, err
		}
		*f.dst = &d
	}

	return update, nil
}

func parseUUID(field, v string) (uuid.UUID, error) {
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", field, err)
	}
	return id, nil
}

func parseDecimal(field, v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s format: %w", field, err)
	}
	return d, nil
}

func parseTimestamp(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid transaction_date format: %w", err)
	}
	return t.UTC(), nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// mapError converts domain errors to gRPC status errors
func (s *Server) mapError(err error) error {
	if err == nil {
		return nil
	}

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case errors.Is(err, domain.ErrPortfolioNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrTradingItemNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		s.log.Error().Err(err).Msg("rpc failed")
		return status.Error(codes.Internal, "an unexpected error occurred")
	}
}
