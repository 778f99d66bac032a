// Package repository holds the ledger's persistence: the PostgreSQL write and
// read repositories and an in-memory store with the same contract.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisabapp/hisab/internal/models"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx is the set of ledger writes available inside one storage transaction.
// GetAccount and DeleteAccount return errs.ErrNotFound for a missing row.
type Tx interface {
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	InsertAccount(ctx context.Context, account *models.Account) error
	UpdateAccount(ctx context.Context, account *models.Account) error
	TouchAccount(ctx context.Context, id int64, at time.Time) error
	DeleteAccount(ctx context.Context, id int64) (int64, error)

	// LoadTransactions returns the rows among ids that exist, whatever
	// account they belong to.
	LoadTransactions(ctx context.Context, ids []int64) (map[int64]models.Transaction, error)
	InsertTransaction(ctx context.Context, txn *models.Transaction) error
	UpdateTransaction(ctx context.Context, txn *models.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error

	SumByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error)
}

// Store runs fn inside a storage transaction. Everything fn wrote is
// committed when it returns nil and discarded otherwise.
type Store interface {
	WithinTx(ctx context.Context, fn func(Tx) error) error
}

// LedgerReader serves the query side.
type LedgerReader interface {
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	// ListAccountsByUser orders by updated_at descending.
	ListAccountsByUser(ctx context.Context, userID string) ([]models.Account, error)
	// ListTransactions orders by date descending then id ascending. A limit
	// of zero or less returns every row.
	ListTransactions(ctx context.Context, accountID int64, limit int) ([]models.Transaction, error)
	SumByAccount(ctx context.Context, accountID int64) (decimal.Decimal, error)
	SumByUser(ctx context.Context, userID string) (decimal.Decimal, error)
}
