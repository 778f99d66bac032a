package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/hisabapp/hisab/internal/errs"
	"github.com/hisabapp/hisab/internal/models"
)

// LedgerReadRepository answers the query side straight from PostgreSQL.
// Totals are always computed at read time.
type LedgerReadRepository struct {
	db DBTX
}

func NewLedgerReadRepository(db DBTX) *LedgerReadRepository {
	return &LedgerReadRepository{db: db}
}

func (r *LedgerReadRepository) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.Storage("get account", err)
	}
	return account, nil
}

func (r *LedgerReadRepository) ListAccountsByUser(ctx context.Context, userID string) ([]models.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE user_id = $1
		ORDER BY updated_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, errs.Storage("list accounts", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, errs.Storage("list accounts", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Storage("list accounts", err)
	}
	return accounts, nil
}

func (r *LedgerReadRepository) ListTransactions(ctx context.Context, accountID int64, limit int) ([]models.Transaction, error) {
	// LIMIT NULL means no limit in PostgreSQL.
	lim := sql.NullInt64{Int64: int64(limit), Valid: limit > 0}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE account_id = $1
		ORDER BY date DESC, id ASC
		LIMIT $2
	`, accountID, lim)
	if err != nil {
		return nil, errs.Storage("list transactions", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, errs.Storage("list transactions", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Storage("list transactions", err)
	}
	return txs, nil
}

func (r *LedgerReadRepository) SumByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	return sumByAccount(ctx, r.db, accountID)
}

func (r *LedgerReadRepository) SumByUser(ctx context.Context, userID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(t.amount), 0)
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.user_id = $1
	`, userID).Scan(&total)
	if err != nil {
		return decimal.Zero, errs.Storage("sum user", err)
	}
	return total, nil
}

var _ LedgerReader = (*LedgerReadRepository)(nil)
