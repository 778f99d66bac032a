package command

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/hisabapp/hisab/internal/cqrs"
	"github.com/hisabapp/hisab/internal/errs"
	"github.com/hisabapp/hisab/internal/ledger/repository"
	"github.com/hisabapp/hisab/internal/models"
)

// Limits of the transactions table: NUMERIC(10,2) and VARCHAR(255).
const (
	MaxAmountDigits      = 10
	MaxAmountDecimals    = 2
	MaxDescriptionLength = 255
)

// BatchResult is the outcome of an applied batch.
type BatchResult struct {
	Affected int
	Total    decimal.Decimal
}

// Editor validates and applies transaction batches against one account.
type Editor struct {
	now func() time.Time
}

func NewEditor(now func() time.Time) *Editor {
	if now == nil {
		now = time.Now
	}
	return &Editor{now: now}
}

type plannedOp struct {
	op  cqrs.IntentOp
	txn models.Transaction
}

// ApplyStrict validates every intent first. If any is invalid it returns a
// *errs.BatchError and writes nothing; otherwise the intents are applied in
// order and the account total is re-read from tx.
func (e *Editor) ApplyStrict(ctx context.Context, tx repository.Tx, accountID int64, intents []cqrs.TransactionIntent) (BatchResult, error) {
	plan, err := e.prepare(ctx, tx, accountID, intents)
	if err != nil {
		return BatchResult{}, err
	}
	return e.apply(ctx, tx, accountID, plan)
}

// ApplyLenient is ApplyStrict for callers that proceed when the batch is
// invalid: validation failures come back as the second result with nothing
// written, and only storage failures are returned as an error.
func (e *Editor) ApplyLenient(ctx context.Context, tx repository.Tx, accountID int64, intents []cqrs.TransactionIntent) (BatchResult, *errs.BatchError, error) {
	plan, err := e.prepare(ctx, tx, accountID, intents)
	if err != nil {
		var be *errs.BatchError
		if errors.As(err, &be) {
			return BatchResult{}, be, nil
		}
		return BatchResult{}, nil, err
	}
	res, err := e.apply(ctx, tx, accountID, plan)
	return res, nil, err
}

// prepare validates intents against the stored state without writing.
func (e *Editor) prepare(ctx context.Context, tx repository.Tx, accountID int64, intents []cqrs.TransactionIntent) ([]plannedOp, error) {
	var ids []int64
	for _, in := range intents {
		if in.Op == cqrs.IntentUpdate || in.Op == cqrs.IntentDelete {
			ids = append(ids, in.ID)
		}
	}
	stored, err := tx.LoadTransactions(ctx, ids)
	if err != nil {
		return nil, err
	}

	today := models.DateOf(e.now())
	current := make(map[int64]models.Transaction, len(stored))
	for id, t := range stored {
		current[id] = t
	}
	deleted := make(map[int64]bool)
	batchErr := &errs.BatchError{}
	plan := make([]plannedOp, 0, len(intents))

	for i, in := range intents {
		switch in.Op {
		case cqrs.IntentCreate:
			txn, fieldErrs := buildCreate(in, accountID, today)
			if len(fieldErrs) > 0 {
				addAll(batchErr, i, fieldErrs)
				continue
			}
			plan = append(plan, plannedOp{op: in.Op, txn: txn})

		case cqrs.IntentUpdate, cqrs.IntentDelete:
			base, fe := resolveTarget(in.ID, accountID, current, deleted)
			if fe != nil {
				batchErr.Add(i, *fe)
				continue
			}
			if in.Op == cqrs.IntentDelete {
				deleted[in.ID] = true
				plan = append(plan, plannedOp{op: in.Op, txn: base})
				continue
			}
			txn, fieldErrs := buildUpdate(in, base)
			if len(fieldErrs) > 0 {
				addAll(batchErr, i, fieldErrs)
				continue
			}
			current[in.ID] = txn
			plan = append(plan, plannedOp{op: in.Op, txn: txn})

		default:
			batchErr.Add(i, errs.FieldError{
				Field:   "op",
				Message: fmt.Sprintf("Unknown operation %q; expected create, update or delete.", string(in.Op)),
				Type:    "invalid_choice",
			})
		}
	}

	if !batchErr.Empty() {
		return nil, batchErr
	}
	return plan, nil
}

func (e *Editor) apply(ctx context.Context, tx repository.Tx, accountID int64, plan []plannedOp) (BatchResult, error) {
	for _, p := range plan {
		txn := p.txn
		var err error
		switch p.op {
		case cqrs.IntentCreate:
			err = tx.InsertTransaction(ctx, &txn)
		case cqrs.IntentUpdate:
			err = tx.UpdateTransaction(ctx, &txn)
		case cqrs.IntentDelete:
			err = tx.DeleteTransaction(ctx, txn.ID)
		}
		if err != nil {
			return BatchResult{}, errs.Storage("apply "+string(p.op), err)
		}
	}
	total, err := tx.SumByAccount(ctx, accountID)
	if err != nil {
		return BatchResult{}, err
	}
	return BatchResult{Affected: len(plan), Total: total}, nil
}

func addAll(be *errs.BatchError, i int, fes []errs.FieldError) {
	for _, fe := range fes {
		be.Add(i, fe)
	}
}

func resolveTarget(id, accountID int64, current map[int64]models.Transaction, deleted map[int64]bool) (models.Transaction, *errs.FieldError) {
	if deleted[id] {
		return models.Transaction{}, &errs.FieldError{
			Field:   "id",
			Message: fmt.Sprintf("Transaction %d is already deleted earlier in this batch.", id),
			Type:    "deleted",
		}
	}
	t, ok := current[id]
	if !ok {
		return models.Transaction{}, &errs.FieldError{
			Field:   "id",
			Message: fmt.Sprintf("Transaction %d does not exist.", id),
			Type:    "does_not_exist",
		}
	}
	if t.AccountID != accountID {
		return models.Transaction{}, &errs.FieldError{
			Field:   "id",
			Message: fmt.Sprintf("Transaction %d belongs to a different account.", id),
			Type:    "wrong_account",
		}
	}
	return t, nil
}

func buildCreate(in cqrs.TransactionIntent, accountID int64, today models.Date) (models.Transaction, []errs.FieldError) {
	txn := models.Transaction{AccountID: accountID, Date: today}
	var fes []errs.FieldError

	if in.Description == nil {
		fes = append(fes, required("description"))
	} else if desc, fe := cleanDescription(*in.Description); fe != nil {
		fes = append(fes, *fe)
	} else {
		txn.Description = desc
	}

	if in.Amount == nil {
		fes = append(fes, required("amount"))
	} else if amount, fe := ParseAmount(*in.Amount); fe != nil {
		fes = append(fes, *fe)
	} else {
		txn.Amount = amount
	}

	if in.Date != nil && strings.TrimSpace(*in.Date) != "" {
		if d, fe := cleanDate(*in.Date); fe != nil {
			fes = append(fes, *fe)
		} else {
			txn.Date = d
		}
	}
	return txn, fes
}

// buildUpdate overlays the supplied fields on base. A nil field, or an empty
// date, keeps the stored value.
func buildUpdate(in cqrs.TransactionIntent, base models.Transaction) (models.Transaction, []errs.FieldError) {
	txn := base
	var fes []errs.FieldError

	if in.Description != nil {
		if desc, fe := cleanDescription(*in.Description); fe != nil {
			fes = append(fes, *fe)
		} else {
			txn.Description = desc
		}
	}
	if in.Amount != nil {
		if amount, fe := ParseAmount(*in.Amount); fe != nil {
			fes = append(fes, *fe)
		} else {
			txn.Amount = amount
		}
	}
	if in.Date != nil && strings.TrimSpace(*in.Date) != "" {
		if d, fe := cleanDate(*in.Date); fe != nil {
			fes = append(fes, *fe)
		} else {
			txn.Date = d
		}
	}
	return txn, fes
}

func required(field string) errs.FieldError {
	return errs.FieldError{Field: field, Message: "This field is required.", Type: "required"}
}

func cleanDescription(raw string) (string, *errs.FieldError) {
	desc := strings.TrimSpace(raw)
	if desc == "" {
		fe := required("description")
		return "", &fe
	}
	if n := utf8.RuneCountInString(desc); n > MaxDescriptionLength {
		return "", &errs.FieldError{
			Field:   "description",
			Message: fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", MaxDescriptionLength, n),
			Type:    "max_length",
		}
	}
	return desc, nil
}

func cleanDate(raw string) (models.Date, *errs.FieldError) {
	d, err := models.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return models.Date{}, &errs.FieldError{Field: "date", Message: "Enter a valid date.", Type: "invalid"}
	}
	return d, nil
}

// ParseAmount parses a signed decimal amount and enforces the column's
// precision: at most 10 digits, 2 of them after the decimal point. The digit
// count is taken from the literal as written, so "1.500" has 3 decimal places.
func ParseAmount(raw string) (decimal.Decimal, *errs.FieldError) {
	s := strings.TrimSpace(raw)
	if s == "" {
		fe := required("amount")
		return decimal.Zero, &fe
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &errs.FieldError{Field: "amount", Message: "Enter a number.", Type: "invalid"}
	}

	digits, decimals := amountDigits(d)
	wholeDigits := digits - decimals
	switch {
	case digits > MaxAmountDigits:
		return decimal.Zero, &errs.FieldError{
			Field:   "amount",
			Message: fmt.Sprintf("Ensure that there are no more than %d digits in total.", MaxAmountDigits),
			Type:    "max_digits",
		}
	case decimals > MaxAmountDecimals:
		return decimal.Zero, &errs.FieldError{
			Field:   "amount",
			Message: fmt.Sprintf("Ensure that there are no more than %d decimal places.", MaxAmountDecimals),
			Type:    "max_decimal_places",
		}
	case wholeDigits > MaxAmountDigits-MaxAmountDecimals:
		return decimal.Zero, &errs.FieldError{
			Field:   "amount",
			Message: fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", MaxAmountDigits-MaxAmountDecimals),
			Type:    "max_whole_digits",
		}
	}
	return d, nil
}

// amountDigits returns the total and fractional digit counts of d's
// coefficient/exponent form.
func amountDigits(d decimal.Decimal) (digits, decimals int) {
	coef := new(big.Int).Abs(d.Coefficient())
	n := len(coef.String())
	exp := int(d.Exponent())
	if exp >= 0 {
		if coef.Sign() == 0 {
			return 1, 0
		}
		return n + exp, 0
	}
	decimals = -exp
	if decimals > n {
		return decimals, decimals
	}
	return n, decimals
}
