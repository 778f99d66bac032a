package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisabapp/hisab/internal/errs"
	"github.com/hisabapp/hisab/internal/models"
)

func newAccount(userID, email string, at time.Time) *models.Account {
	return &models.Account{
		UserID: userID, Name: "Ravi", Email: email,
		ReminderInterval: models.DefaultReminderInterval,
		CreatedAt:        at, UpdatedAt: at,
	}
}

func seed(t *testing.T, s *MemoryStore, a *models.Account, txs ...models.Transaction) {
	t.Helper()
	err := s.WithinTx(context.Background(), func(tx Tx) error {
		if err := tx.InsertAccount(context.Background(), a); err != nil {
			return err
		}
		for i := range txs {
			txs[i].AccountID = a.ID
			if err := tx.InsertTransaction(context.Background(), &txs[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func txn(desc, amount string, d models.Date) models.Transaction {
	return models.Transaction{Description: desc, Amount: decimal.RequireFromString(amount), Date: d}
}

func TestMemoryStoreRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := newAccount("usr-1", "ravi@example.com", time.Now())
	seed(t, s, a, txn("rent", "-500.00", models.NewDate(2024, 1, 1)))

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx Tx) error {
		n := txn("refund", "150.50", models.NewDate(2024, 1, 5))
		n.AccountID = a.ID
		if err := tx.InsertTransaction(ctx, &n); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	total, _ := s.SumByAccount(ctx, a.ID)
	if !total.Equal(decimal.RequireFromString("-500.00")) {
		t.Errorf("total after rollback = %s", total)
	}
	list, _ := s.ListTransactions(ctx, a.ID, 0)
	if len(list) != 1 {
		t.Errorf("expected 1 transaction after rollback, got %d", len(list))
	}
}

func TestMemoryStoreInjectedFailure(t *testing.T) {
	s := NewMemoryStore()
	s.Fail = func(op string) error {
		if op == "InsertAccount" {
			return errors.New("disk full")
		}
		return nil
	}
	err := s.WithinTx(context.Background(), func(tx Tx) error {
		return tx.InsertAccount(context.Background(), newAccount("usr-1", "a@example.com", time.Now()))
	})
	var se *errs.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
}

func TestMemoryStoreUniqueEmail(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s, newAccount("usr-1", "dup@example.com", time.Now()))

	err := s.WithinTx(context.Background(), func(tx Tx) error {
		return tx.InsertAccount(context.Background(), newAccount("usr-2", "dup@example.com", time.Now()))
	})
	if !errors.Is(err, errs.ErrIntegrity) {
		t.Fatalf("expected ErrIntegrity across users, got %v", err)
	}
	accounts1, _ := s.ListAccountsByUser(context.Background(), "usr-1")
	accounts2, _ := s.ListAccountsByUser(context.Background(), "usr-2")
	if len(accounts1)+len(accounts2) != 1 {
		t.Errorf("expected exactly one account, got %d", len(accounts1)+len(accounts2))
	}

	// The column is a plain case-sensitive UNIQUE, so a case variant is a
	// different address.
	err = s.WithinTx(context.Background(), func(tx Tx) error {
		return tx.InsertAccount(context.Background(), newAccount("usr-2", "Dup@example.com", time.Now()))
	})
	if err != nil {
		t.Fatalf("case variant rejected: %v", err)
	}
}

func TestMemoryStoreDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := newAccount("usr-1", "a@example.com", time.Now())
	seed(t, s, a,
		txn("one", "1.00", models.NewDate(2024, 1, 1)),
		txn("two", "2.00", models.NewDate(2024, 1, 2)),
	)

	var deleted int64
	err := s.WithinTx(ctx, func(tx Tx) error {
		var err error
		deleted, err = tx.DeleteAccount(ctx, a.ID)
		return err
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	if _, err := s.GetAccount(ctx, a.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if total, _ := s.SumByUser(ctx, "usr-1"); !total.IsZero() {
		t.Errorf("user total = %s, want 0", total)
	}
}

func TestMemoryStoreOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	older := newAccount("usr-1", "old@example.com", base)
	newer := newAccount("usr-1", "new@example.com", base.Add(time.Hour))
	seed(t, s, older,
		txn("b", "1.00", models.NewDate(2024, 1, 2)),
		txn("a", "1.00", models.NewDate(2024, 1, 5)),
		txn("c", "1.00", models.NewDate(2024, 1, 2)),
	)
	seed(t, s, newer)

	accounts, _ := s.ListAccountsByUser(ctx, "usr-1")
	if len(accounts) != 2 || accounts[0].ID != newer.ID {
		t.Fatalf("expected newest account first, got %+v", accounts)
	}

	list, _ := s.ListTransactions(ctx, older.ID, 0)
	got := []string{list[0].Description, list[1].Description, list[2].Description}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	limited, _ := s.ListTransactions(ctx, older.ID, 2)
	if len(limited) != 2 {
		t.Errorf("limit 2 returned %d rows", len(limited))
	}
}

func TestMemoryStoreSumByUserIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed(t, s, newAccount("usr-1", "x@example.com", time.Now()), txn("x", "10.25", models.NewDate(2024, 1, 1)))
	seed(t, s, newAccount("usr-1", "y@example.com", time.Now()), txn("y", "-0.25", models.NewDate(2024, 1, 1)))
	seed(t, s, newAccount("usr-2", "z@example.com", time.Now()), txn("z", "99.00", models.NewDate(2024, 1, 1)))

	total, err := s.SumByUser(ctx, "usr-1")
	if err != nil {
		t.Fatalf("SumByUser: %v", err)
	}
	if !total.Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("total = %s, want 10.00", total)
	}
	if total, _ := s.SumByUser(ctx, "usr-3"); !total.IsZero() {
		t.Errorf("user without accounts total = %s", total)
	}
}
