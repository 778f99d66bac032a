package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisabapp/hisab/internal/errs"
	"github.com/hisabapp/hisab/internal/models"
)

// MemoryStore is an in-process Store and LedgerReader with the same
// semantics as the PostgreSQL repositories: unique account email, cascading
// deletes and all-or-nothing transactions. It backs the service tests.
type MemoryStore struct {
	mu           sync.Mutex
	accounts     map[int64]models.Account
	transactions map[int64]models.Transaction
	nextAccount  int64
	nextTxn      int64

	// Fail, when set, is consulted before every write with the operation
	// name; a non-nil result is returned as a StorageError.
	Fail func(op string) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:     make(map[int64]models.Account),
		transactions: make(map[int64]models.Transaction),
	}
}

type memorySnapshot struct {
	accounts     map[int64]models.Account
	transactions map[int64]models.Transaction
	nextAccount  int64
	nextTxn      int64
}

func (s *MemoryStore) snapshot() memorySnapshot {
	snap := memorySnapshot{
		accounts:     make(map[int64]models.Account, len(s.accounts)),
		transactions: make(map[int64]models.Transaction, len(s.transactions)),
		nextAccount:  s.nextAccount,
		nextTxn:      s.nextTxn,
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.transactions {
		snap.transactions[k] = v
	}
	return snap
}

func (s *MemoryStore) restore(snap memorySnapshot) {
	s.accounts = snap.accounts
	s.transactions = snap.transactions
	s.nextAccount = snap.nextAccount
	s.nextTxn = snap.nextTxn
}

// WithinTx serialises transactions and restores the previous state when fn
// fails or panics.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(Tx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&memoryTx{s: s})
}

type memoryTx struct {
	s *MemoryStore
}

func (t *memoryTx) fail(op string) error {
	if t.s.Fail == nil {
		return nil
	}
	return errs.Storage(op, t.s.Fail(op))
}

func (t *memoryTx) GetAccount(_ context.Context, id int64) (*models.Account, error) {
	a, ok := t.s.accounts[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &a, nil
}

func (t *memoryTx) emailTaken(email string, except int64) bool {
	for id, a := range t.s.accounts {
		if id != except && a.Email == email {
			return true
		}
	}
	return false
}

func (t *memoryTx) InsertAccount(_ context.Context, account *models.Account) error {
	if err := t.fail("InsertAccount"); err != nil {
		return err
	}
	if t.emailTaken(account.Email, 0) {
		return errs.Integrity("email", "An account with this email already exists.")
	}
	t.s.nextAccount++
	account.ID = t.s.nextAccount
	t.s.accounts[account.ID] = *account
	return nil
}

func (t *memoryTx) UpdateAccount(_ context.Context, account *models.Account) error {
	if err := t.fail("UpdateAccount"); err != nil {
		return err
	}
	if _, ok := t.s.accounts[account.ID]; !ok {
		return errs.ErrNotFound
	}
	if t.emailTaken(account.Email, account.ID) {
		return errs.Integrity("email", "An account with this email already exists.")
	}
	t.s.accounts[account.ID] = *account
	return nil
}

func (t *memoryTx) TouchAccount(_ context.Context, id int64, at time.Time) error {
	if err := t.fail("TouchAccount"); err != nil {
		return err
	}
	a, ok := t.s.accounts[id]
	if !ok {
		return errs.ErrNotFound
	}
	a.UpdatedAt = at
	t.s.accounts[id] = a
	return nil
}

func (t *memoryTx) DeleteAccount(_ context.Context, id int64) (int64, error) {
	if err := t.fail("DeleteAccount"); err != nil {
		return 0, err
	}
	if _, ok := t.s.accounts[id]; !ok {
		return 0, errs.ErrNotFound
	}
	var n int64
	for tid, txn := range t.s.transactions {
		if txn.AccountID == id {
			delete(t.s.transactions, tid)
			n++
		}
	}
	delete(t.s.accounts, id)
	return n, nil
}

func (t *memoryTx) LoadTransactions(_ context.Context, ids []int64) (map[int64]models.Transaction, error) {
	found := make(map[int64]models.Transaction, len(ids))
	for _, id := range ids {
		if txn, ok := t.s.transactions[id]; ok {
			found[id] = txn
		}
	}
	return found, nil
}

func (t *memoryTx) InsertTransaction(_ context.Context, txn *models.Transaction) error {
	if err := t.fail("InsertTransaction"); err != nil {
		return err
	}
	if _, ok := t.s.accounts[txn.AccountID]; !ok {
		return errs.Storage("create transaction", errs.ErrNotFound)
	}
	t.s.nextTxn++
	txn.ID = t.s.nextTxn
	t.s.transactions[txn.ID] = *txn
	return nil
}

func (t *memoryTx) UpdateTransaction(_ context.Context, txn *models.Transaction) error {
	if err := t.fail("UpdateTransaction"); err != nil {
		return err
	}
	existing, ok := t.s.transactions[txn.ID]
	if !ok || existing.AccountID != txn.AccountID {
		return errs.ErrNotFound
	}
	t.s.transactions[txn.ID] = *txn
	return nil
}

func (t *memoryTx) DeleteTransaction(_ context.Context, id int64) error {
	if err := t.fail("DeleteTransaction"); err != nil {
		return err
	}
	if _, ok := t.s.transactions[id]; !ok {
		return errs.ErrNotFound
	}
	delete(t.s.transactions, id)
	return nil
}

func (t *memoryTx) SumByAccount(_ context.Context, accountID int64) (decimal.Decimal, error) {
	return t.s.sumByAccount(accountID), nil
}

func (s *MemoryStore) sumByAccount(accountID int64) decimal.Decimal {
	total := decimal.Zero
	for _, txn := range s.transactions {
		if txn.AccountID == accountID {
			total = total.Add(txn.Amount)
		}
	}
	return total
}

// ---- LedgerReader ----

func (s *MemoryStore) GetAccount(_ context.Context, id int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &a, nil
}

func (s *MemoryStore) ListAccountsByUser(_ context.Context, userID string) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, accountID int64, limit int) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Transaction
	for _, txn := range s.transactions {
		if txn.AccountID == accountID {
			out = append(out, txn)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) SumByAccount(_ context.Context, accountID int64) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sumByAccount(accountID), nil
}

func (s *MemoryStore) SumByUser(_ context.Context, userID string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, txn := range s.transactions {
		if a, ok := s.accounts[txn.AccountID]; ok && a.UserID == userID {
			total = total.Add(txn.Amount)
		}
	}
	return total, nil
}

var (
	_ Store        = (*MemoryStore)(nil)
	_ LedgerReader = (*MemoryStore)(nil)
	_ Tx           = (*memoryTx)(nil)
	_ Store        = (*PostgresStore)(nil)
)
