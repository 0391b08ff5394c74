package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-backend/internal/domain"
)

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `
	id, portfolio_id, trading_item_id, transaction_date, transaction_type,
	quantity, price, currency, transaction_cost
`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var quantityStr, priceStr, costStr string

	err := row.Scan(
		&tx.ID,
		&tx.PortfolioID,
		&tx.TradingItemID,
		&tx.Date,
		&tx.Type,
		&quantityStr,
		&priceStr,
		&tx.Currency,
		&costStr,
	)
	if err != nil {
		return nil, err
	}

	// Parse NUMERIC columns
	if tx.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
		return nil, fmt.Errorf("failed to parse quantity: %w", err)
	}
	if tx.Price, err = decimal.NewFromString(priceStr); err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}
	if tx.Cost, err = decimal.NewFromString(costStr); err != nil {
		return nil, fmt.Errorf("failed to parse transaction_cost: %w", err)
	}
	tx.Date = tx.Date.UTC()

	return &tx, nil
}

// GetByID retrieves a transaction by its ID
func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, id)
		}
		return nil, fmt.Errorf("failed to get transaction by ID: %w", err)
	}

	return tx, nil
}

// ListByPortfolio retrieves every transaction of a portfolio ordered by date
func (r *transactionRepository) ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE portfolio_id = $1
		ORDER BY transaction_date ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]*domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}

// BulkCreate inserts all transactions in a single database transaction
func (r *transactionRepository) BulkCreate(ctx context.Context, txs []*domain.Transaction) error {
	// Start a database transaction
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, tx := range txs {
		_, err = stmt.ExecContext(ctx,
			tx.ID,
			tx.PortfolioID,
			tx.TradingItemID,
			tx.Date.UTC(),
			string(tx.Type),
			tx.Quantity.String(),
			tx.Price.String(),
			tx.Currency,
			tx.Cost.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", tx.ID, err)
		}
	}

	// Commit the transaction
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Update overwrites every mutable column of a transaction
func (r *transactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET transaction_date = $2,
		    transaction_type = $3,
		    quantity = $4,
		    price = $5,
		    currency = $6,
		    transaction_cost = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		tx.ID,
		tx.Date.UTC(),
		string(tx.Type),
		tx.Quantity.String(),
		tx.Price.String(),
		tx.Currency,
		tx.Cost.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	return requireAffected(result, domain.ErrTransactionNotFound, tx.ID)
}

// Delete removes a transaction by its ID
func (r *transactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	return requireAffected(result, domain.ErrTransactionNotFound, id)
}

// HoldingsAt sums buys minus sells per trading item for transactions dated on or before date
func (r *transactionRepository) HoldingsAt(ctx context.Context, portfolioID uuid.UUID, date time.Time) ([]domain.HoldingRecord, error) {
	query := `
		SELECT trading_item_id,
		       SUM(CASE WHEN transaction_type = 'buy' THEN quantity ELSE -quantity END) AS net_quantity
		FROM transactions
		WHERE portfolio_id = $1
		  AND transaction_date <= $2
		GROUP BY trading_item_id
		ORDER BY trading_item_id
	`

	rows, err := r.db.QueryContext(ctx, query, portfolioID, date.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	records := make([]domain.HoldingRecord, 0)
	for rows.Next() {
		var record domain.HoldingRecord
		var netStr string
		if err := rows.Scan(&record.TradingItemID, &netStr); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}

		record.NetQuantity, err = decimal.NewFromString(netStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse net_quantity: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return records, nil
}

// requireAffected maps a write that touched no rows to notFound
func requireAffected(result sql.Result, notFound error, id uuid.UUID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}
