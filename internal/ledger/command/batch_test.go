package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisabapp/hisab/internal/cqrs"
	"github.com/hisabapp/hisab/internal/errs"
	"github.com/hisabapp/hisab/internal/ledger/repository"
	"github.com/hisabapp/hisab/internal/models"
)

func strPtr(s string) *string { return &s }

func create(desc, amount, date string) cqrs.TransactionIntent {
	in := cqrs.TransactionIntent{Op: cqrs.IntentCreate, Description: strPtr(desc), Amount: strPtr(amount)}
	if date != "" {
		in.Date = strPtr(date)
	}
	return in
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw      string
		want     string
		wantType string
	}{
		{raw: "-500.00", want: "-500"},
		{raw: "150.5", want: "150.5"},
		{raw: " 42 ", want: "42"},
		{raw: "99999999.99", want: "99999999.99"},
		{raw: "0.00", want: "0"},
		{raw: "", wantType: "required"},
		{raw: "abc", wantType: "invalid"},
		{raw: "1.500", wantType: "max_decimal_places"},
		{raw: "1.005", wantType: "max_decimal_places"},
		{raw: "123456789", wantType: "max_whole_digits"},
		{raw: "12345678901", wantType: "max_digits"},
		{raw: "1e10", wantType: "max_digits"},
		{raw: "1e9", wantType: "max_whole_digits"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, fe := ParseAmount(tt.raw)
			if tt.wantType != "" {
				if fe == nil {
					t.Fatalf("ParseAmount(%q) accepted %s, want %s", tt.raw, got, tt.wantType)
				}
				if fe.Type != tt.wantType {
					t.Errorf("ParseAmount(%q) error type = %s, want %s", tt.raw, fe.Type, tt.wantType)
				}
				return
			}
			if fe != nil {
				t.Fatalf("ParseAmount(%q) rejected: %s", tt.raw, fe.Message)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func newEditorFixture(t *testing.T) (*repository.MemoryStore, *Editor, int64, int64) {
	t.Helper()
	store := repository.NewMemoryStore()
	var mine, other int64
	err := store.WithinTx(context.Background(), func(tx repository.Tx) error {
		a := &models.Account{UserID: "usr-1", Name: "A", Email: "a@example.com", ReminderInterval: models.ReminderMonthly}
		b := &models.Account{UserID: "usr-2", Name: "B", Email: "b@example.com", ReminderInterval: models.ReminderMonthly}
		if err := tx.InsertAccount(context.Background(), a); err != nil {
			return err
		}
		if err := tx.InsertAccount(context.Background(), b); err != nil {
			return err
		}
		mine, other = a.ID, b.ID
		return nil
	})
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	clock := func() time.Time { return time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC) }
	return store, NewEditor(clock), mine, other
}

func apply(t *testing.T, store *repository.MemoryStore, e *Editor, accountID int64, intents ...cqrs.TransactionIntent) (BatchResult, error) {
	t.Helper()
	var res BatchResult
	err := store.WithinTx(context.Background(), func(tx repository.Tx) error {
		var err error
		res, err = e.ApplyStrict(context.Background(), tx, accountID, intents)
		return err
	})
	return res, err
}

func TestApplyStrictRunningTotal(t *testing.T) {
	store, e, acct, _ := newEditorFixture(t)
	ctx := context.Background()

	res, err := apply(t, store, e, acct,
		create("rent", "-500.00", "2024-01-01"),
		create("refund", "150.50", "2024-01-05"),
	)
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if res.Affected != 2 || res.Total.StringFixed(2) != "-349.50" {
		t.Fatalf("after create: affected=%d total=%s", res.Affected, res.Total.StringFixed(2))
	}

	txs, _ := store.ListTransactions(ctx, acct, 0)
	var rentID, refundID int64
	for _, tx := range txs {
		switch tx.Description {
		case "rent":
			rentID = tx.ID
		case "refund":
			refundID = tx.ID
		}
	}

	res, err = apply(t, store, e, acct, cqrs.TransactionIntent{Op: cqrs.IntentUpdate, ID: rentID, Amount: strPtr("-450.00")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Total.StringFixed(2) != "-299.50" {
		t.Errorf("after update total = %s, want -299.50", res.Total.StringFixed(2))
	}

	res, err = apply(t, store, e, acct, cqrs.TransactionIntent{Op: cqrs.IntentDelete, ID: refundID})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res.Total.StringFixed(2) != "-450.00" {
		t.Errorf("after delete total = %s, want -450.00", res.Total.StringFixed(2))
	}

	txs, _ = store.ListTransactions(ctx, acct, 0)
	if len(txs) != 1 || txs[0].Description != "rent" || txs[0].Date != models.NewDate(2024, 1, 1) {
		t.Errorf("update must keep omitted fields, got %+v", txs)
	}
}

func TestApplyStrictDefaultsDateToToday(t *testing.T) {
	store, e, acct, _ := newEditorFixture(t)
	if _, err := apply(t, store, e, acct, create("tea", "-20", "")); err != nil {
		t.Fatalf("apply: %v", err)
	}
	txs, _ := store.ListTransactions(context.Background(), acct, 0)
	if len(txs) != 1 || txs[0].Date != models.NewDate(2024, 2, 10) {
		t.Errorf("expected date to default to today, got %+v", txs)
	}
}

func TestApplyStrictRejectsWholeBatch(t *testing.T) {
	store, e, acct, other := newEditorFixture(t)
	ctx := context.Background()

	if _, err := apply(t, store, e, other, create("theirs", "10.00", "2024-01-01")); err != nil {
		t.Fatalf("seed other account: %v", err)
	}
	theirs, _ := store.ListTransactions(ctx, other, 0)
	if _, err := apply(t, store, e, acct, create("mine", "5.00", "2024-01-01")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	mine, _ := store.ListTransactions(ctx, acct, 0)

	tests := []struct {
		name     string
		intents  []cqrs.TransactionIntent
		index    int
		wantType string
	}{
		{
			name:     "missing description",
			intents:  []cqrs.TransactionIntent{create("ok", "1.00", ""), {Op: cqrs.IntentCreate, Amount: strPtr("2.00")}},
			index:    1,
			wantType: "required",
		},
		{
			name:     "blank description",
			intents:  []cqrs.TransactionIntent{create("   ", "1.00", "")},
			index:    0,
			wantType: "required",
		},
		{
			name:     "bad date",
			intents:  []cqrs.TransactionIntent{create("ok", "1.00", ""), create("x", "1.00", "2024-13-01")},
			index:    1,
			wantType: "invalid",
		},
		{
			name:     "too many decimals",
			intents:  []cqrs.TransactionIntent{create("x", "1.500", "")},
			index:    0,
			wantType: "max_decimal_places",
		},
		{
			name:     "unknown id",
			intents:  []cqrs.TransactionIntent{create("ok", "1.00", ""), {Op: cqrs.IntentDelete, ID: 9999}},
			index:    1,
			wantType: "does_not_exist",
		},
		{
			name:     "id of another account",
			intents:  []cqrs.TransactionIntent{{Op: cqrs.IntentUpdate, ID: theirs[0].ID, Amount: strPtr("1.00")}},
			index:    0,
			wantType: "wrong_account",
		},
		{
			name: "touch after delete",
			intents: []cqrs.TransactionIntent{
				{Op: cqrs.IntentDelete, ID: mine[0].ID},
				{Op: cqrs.IntentUpdate, ID: mine[0].ID, Amount: strPtr("1.00")},
			},
			index:    1,
			wantType: "deleted",
		},
		{
			name:     "unknown op",
			intents:  []cqrs.TransactionIntent{{Op: "archive", ID: mine[0].ID}},
			index:    0,
			wantType: "invalid_choice",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := store.SumByAccount(ctx, acct)
			beforeList, _ := store.ListTransactions(ctx, acct, 0)

			_, err := apply(t, store, e, acct, tt.intents...)
			var be *errs.BatchError
			if !errors.As(err, &be) {
				t.Fatalf("expected BatchError, got %v", err)
			}
			fes := be.Intents[tt.index]
			if len(fes) == 0 || fes[0].Type != tt.wantType {
				t.Errorf("intent %d errors = %+v, want type %s", tt.index, fes, tt.wantType)
			}

			after, _ := store.SumByAccount(ctx, acct)
			afterList, _ := store.ListTransactions(ctx, acct, 0)
			if !after.Equal(before) || len(afterList) != len(beforeList) {
				t.Errorf("store changed by a rejected batch: %s -> %s", before, after)
			}
		})
	}
}

func TestApplyStrictEmptyBatch(t *testing.T) {
	store, e, acct, _ := newEditorFixture(t)
	res, err := apply(t, store, e, acct)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Affected != 0 || !res.Total.IsZero() {
		t.Errorf("empty batch result = %+v", res)
	}
}

func TestApplyLenientReportsWithoutWriting(t *testing.T) {
	store, e, acct, _ := newEditorFixture(t)
	var (
		res BatchResult
		be  *errs.BatchError
	)
	err := store.WithinTx(context.Background(), func(tx repository.Tx) error {
		var err error
		res, be, err = e.ApplyLenient(context.Background(), tx, acct, []cqrs.TransactionIntent{
			create("ok", "1.00", ""),
			create("bad", "oops", ""),
		})
		return err
	})
	if err != nil {
		t.Fatalf("lenient apply returned error: %v", err)
	}
	if be == nil || len(be.Intents[1]) == 0 {
		t.Fatalf("expected batch errors for intent 1, got %+v", be)
	}
	if res.Affected != 0 {
		t.Errorf("affected = %d, want 0", res.Affected)
	}
	if total, _ := store.SumByAccount(context.Background(), acct); !total.IsZero() {
		t.Errorf("total = %s, want 0", total)
	}
}
