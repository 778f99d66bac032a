package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/hisabapp/hisab/internal/database"
	"github.com/hisabapp/hisab/internal/errs"
	"github.com/hisabapp/hisab/internal/models"
)

const uniqueViolation = "23505"

// PostgresStore is the production Store.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(Tx) error) error {
	return database.WithinTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(NewLedgerWriteRepository(tx))
	})
}

// LedgerWriteRepository handles all state-mutating operations for accounts and
// their transactions. It is normally bound to a *sql.Tx by PostgresStore.
type LedgerWriteRepository struct {
	q DBTX
}

func NewLedgerWriteRepository(q DBTX) *LedgerWriteRepository {
	return &LedgerWriteRepository{q: q}
}

const accountColumns = `id, user_id, name, email, mobile, reminder_interval, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Email, &a.Mobile,
		&a.ReminderInterval, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAccount locks the account row for the rest of the transaction.
func (r *LedgerWriteRepository) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.Storage("get account", err)
	}
	return account, nil
}

func (r *LedgerWriteRepository) InsertAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (user_id, name, email, mobile, reminder_interval, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.q.QueryRowContext(ctx, query,
		account.UserID, account.Name, account.Email, account.Mobile,
		account.ReminderInterval, account.CreatedAt, account.UpdatedAt,
	).Scan(&account.ID)
	if err != nil {
		return mapAccountError("create account", err)
	}
	return nil
}

func (r *LedgerWriteRepository) UpdateAccount(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, email = $3, mobile = $4, reminder_interval = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query,
		account.ID, account.Name, account.Email, account.Mobile,
		account.ReminderInterval, account.UpdatedAt,
	)
	if err != nil {
		return mapAccountError("update account", err)
	}
	return expectRow(result, "update account")
}

func (r *LedgerWriteRepository) TouchAccount(ctx context.Context, id int64, at time.Time) error {
	result, err := r.q.ExecContext(ctx, `UPDATE accounts SET updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return errs.Storage("touch account", err)
	}
	return expectRow(result, "touch account")
}

// DeleteAccount removes the account and, through the foreign key cascade, its
// transactions. It returns how many transactions went with it.
func (r *LedgerWriteRepository) DeleteAccount(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE account_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, errs.Storage("count transactions", err)
	}
	result, err := r.q.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return 0, errs.Storage("delete account", err)
	}
	if err := expectRow(result, "delete account"); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *LedgerWriteRepository) SumByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	return sumByAccount(ctx, r.q, accountID)
}

func mapAccountError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return errs.Integrity("email", "An account with this email already exists.")
	}
	return errs.Storage(op, err)
}

func expectRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return errs.Storage(op, fmt.Errorf("failed to check rows affected: %w", err))
	}
	if rows == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func sumByAccount(ctx context.Context, q DBTX, accountID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, errs.Storage("sum account", err)
	}
	return total, nil
}
