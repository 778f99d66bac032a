package models

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// UserView is the read-optimised projection of a user. It never exposes
// PasswordHash; AccountCount is maintained from ledger events.
type UserView struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FullName        string    `json:"fullName"`
	Mobile          string    `json:"mobile"`
	ProfileComplete bool      `json:"profileComplete"`
	AccountCount    int64     `json:"accountCount"`
	CreatedAt       time.Time `json:"createdTimestamp"`
	UpdatedAt       time.Time `json:"updatedTimestamp"`
}

// NewUserView projects u.
func NewUserView(u *User) *UserView {
	return &UserView{
		ID:              u.ID,
		Email:           u.Email,
		FullName:        u.FullName,
		Mobile:          u.Mobile,
		ProfileComplete: u.ProfileComplete,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

type AccountView struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Mobile           string    `json:"mobile,omitempty"`
	ReminderInterval string    `json:"reminderInterval"`
	CreatedAt        time.Time `json:"createdTimestamp"`
	UpdatedAt        time.Time `json:"updatedTimestamp"`
}

func NewAccountView(a *Account) AccountView {
	return AccountView{
		ID:               a.ID,
		Name:             a.Name,
		Email:            a.Email,
		Mobile:           a.Mobile,
		ReminderInterval: string(a.ReminderInterval),
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

type TransactionView struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        Date   `json:"date"`
}

func NewTransactionViews(txs []Transaction) []TransactionView {
	views := make([]TransactionView, len(txs))
	for i, t := range txs {
		views[i] = TransactionView{
			ID:          t.ID,
			Description: t.Description,
			Amount:      FormatAmount(t.Amount),
			Date:        t.Date,
		}
	}
	return views
}

// TotalView is a balance as exact text plus its signed display form.
type TotalView struct {
	Amount  string `json:"amount"`
	Display string `json:"display"`
}

func NewTotalView(total decimal.Decimal, currency string) TotalView {
	return TotalView{Amount: FormatAmount(total), Display: SignedDisplay(total, currency)}
}

// FormatAmount renders d with exactly two fractional digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// SignedDisplay formats d in currency with an explicit sign, e.g. "+₹150.50"
// or "-₹349.50". Zero has no sign.
func SignedDisplay(d decimal.Decimal, currency string) string {
	m := money.New(d.Shift(2).Round(0).IntPart(), currency)
	s := m.Display()
	if d.IsPositive() {
		return "+" + s
	}
	return s
}
