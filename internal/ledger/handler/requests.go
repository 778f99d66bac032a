package handler

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hisabapp/hisab/internal/cqrs"
)

// RawAmount accepts an amount written either as a JSON string or a JSON
// number and keeps its literal text, so precision checks see what the client
// sent.
type RawAmount string

func (a *RawAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = RawAmount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a string or a number")
	}
	*a = RawAmount(n.String())
	return nil
}

type TransactionIntentRequest struct {
	Op          string     `json:"op"`
	ID          int64      `json:"id"`
	Description *string    `json:"description"`
	Amount      *RawAmount `json:"amount"`
	Date        *string    `json:"date"`
}

type CreateAccountRequest struct {
	Name             string                     `json:"name" validate:"required,max=100"`
	Email            string                     `json:"email" validate:"required,email"`
	Mobile           string                     `json:"mobile" validate:"omitempty,max=11,phone"`
	ReminderInterval string                     `json:"reminderInterval"`
	Transactions     []TransactionIntentRequest `json:"transactions" validate:"max=500"`
}

type UpdateAccountRequest struct {
	Name             *string                    `json:"name" validate:"omitempty,max=100"`
	Email            *string                    `json:"email" validate:"omitempty,email"`
	Mobile           *string                    `json:"mobile"`
	ReminderInterval *string                    `json:"reminderInterval"`
	Transactions     []TransactionIntentRequest `json:"transactions" validate:"max=500"`
}

type ApplyTransactionsRequest struct {
	Transactions []TransactionIntentRequest `json:"transactions" validate:"max=500"`
}

func toIntents(reqs []TransactionIntentRequest) []cqrs.TransactionIntent {
	if len(reqs) == 0 {
		return nil
	}
	intents := make([]cqrs.TransactionIntent, len(reqs))
	for i, r := range reqs {
		intents[i] = cqrs.TransactionIntent{
			Op:          cqrs.IntentOp(r.Op),
			ID:          r.ID,
			Description: r.Description,
			Date:        r.Date,
		}
		if r.Amount != nil {
			s := string(*r.Amount)
			intents[i].Amount = &s
		}
	}
	return intents
}

func (r UpdateAccountRequest) patch() *cqrs.AccountPatch {
	if r.Name == nil && r.Email == nil && r.Mobile == nil && r.ReminderInterval == nil {
		return nil
	}
	return &cqrs.AccountPatch{
		Name:             r.Name,
		Email:            r.Email,
		Mobile:           r.Mobile,
		ReminderInterval: r.ReminderInterval,
	}
}
