// internal/repository/postgres/wallet_repo.go
package postgres

import (
	"context"
	"fmt"

	"hellofixo-service/internal/domain/wallet"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type WalletRepository struct {
	db *pgxpool.Pool
}

func NewWalletRepository(db *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{db: db}
}

const balanceQuery = `
	SELECT COALESCE(SUM(CASE WHEN type = 'credit' THEN amount ELSE -amount END), 0)
	FROM wallet_transactions
	WHERE user_id = $1
`

const transactionColumns = `id, user_id, type, source, note, amount, booking_id, created_at`

func (r *WalletRepository) Balance(ctx context.Context, userID string) (float64, error) {
	return walletBalance(ctx, r.db, userID)
}

func walletBalance(ctx context.Context, q queryRower, userID string) (float64, error) {
	var balance float64
	if err := q.QueryRow(ctx, balanceQuery, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to compute wallet balance: %w", err)
	}
	return balance, nil
}

func (r *WalletRepository) Latest(ctx context.Context, userID string) (*wallet.Transaction, error) {
	var t wallet.Transaction
	err := r.db.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, userID).Scan(&t.ID, &t.UserID, &t.Type, &t.Source, &t.Note, &t.Amount, &t.BookingID, &t.CreatedAt)
	if err != nil {
		return nil, notFound(err, "wallet transaction")
	}
	return &t, nil
}

func (r *WalletRepository) List(ctx context.Context, userID string, filters *wallet.TransactionFilters) ([]*wallet.Transaction, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM wallet_transactions WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+` FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, filters.PageSize, offset(filters.Page, filters.PageSize))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	out := []*wallet.Transaction{}
	for rows.Next() {
		var t wallet.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Source, &t.Note, &t.Amount, &t.BookingID, &t.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, &t)
	}
	return out, total, rows.Err()
}

func (r *WalletRepository) Create(ctx context.Context, t *wallet.Transaction) error {
	return insertTransaction(ctx, r.db, t)
}

func insertTransaction(ctx context.Context, db execer, t *wallet.Transaction) error {
	_, err := db.Exec(ctx, `
		INSERT INTO wallet_transactions (id, user_id, type, source, note, amount, booking_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.ID, t.UserID, t.Type, t.Source, t.Note, t.Amount, t.BookingID, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record wallet transaction: %w", err)
	}
	return nil
}

// lockWallet serialises balance checks for one user until the transaction ends.
func lockWallet(ctx context.Context, tx pgx.Tx, userID string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
		return fmt.Errorf("failed to lock wallet: %w", err)
	}
	return nil
}
