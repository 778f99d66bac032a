package repository

import (
	"context"

	"github.com/lib/pq"

	"github.com/hisabapp/hisab/internal/errs"
	"github.com/hisabapp/hisab/internal/models"
)

const transactionColumns = `id, account_id, description, amount, date`

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.AccountID, &t.Description, &t.Amount, &t.Date)
	return t, err
}

func (r *LedgerWriteRepository) LoadTransactions(ctx context.Context, ids []int64) (map[int64]models.Transaction, error) {
	found := make(map[int64]models.Transaction, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ANY($1) FOR UPDATE`, pq.Array(ids))
	if err != nil {
		return nil, errs.Storage("load transactions", err)
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, errs.Storage("load transactions", err)
		}
		found[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Storage("load transactions", err)
	}
	return found, nil
}

func (r *LedgerWriteRepository) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO transactions (account_id, description, amount, date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.q.QueryRowContext(ctx, query, txn.AccountID, txn.Description, txn.Amount, txn.Date).Scan(&txn.ID)
	if err != nil {
		return errs.Storage("create transaction", err)
	}
	return nil
}

func (r *LedgerWriteRepository) UpdateTransaction(ctx context.Context, txn *models.Transaction) error {
	query := `
		UPDATE transactions
		SET description = $2, amount = $3, date = $4
		WHERE id = $1 AND account_id = $5
	`
	result, err := r.q.ExecContext(ctx, query, txn.ID, txn.Description, txn.Amount, txn.Date, txn.AccountID)
	if err != nil {
		return errs.Storage("update transaction", err)
	}
	return expectRow(result, "update transaction")
}

func (r *LedgerWriteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return errs.Storage("delete transaction", err)
	}
	return expectRow(result, "delete transaction")
}

var _ Tx = (*LedgerWriteRepository)(nil)
