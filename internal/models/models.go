package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	FullName        string    `json:"fullName"`
	Mobile          string    `json:"mobile"`
	ProfileComplete bool      `json:"profileComplete"`
	CreatedAt       time.Time `json:"createdTimestamp"`
	UpdatedAt       time.Time `json:"updatedTimestamp"`
}

// IsProfileComplete is the single definition of profile completeness.
func IsProfileComplete(fullName, mobile string) bool {
	return fullName != "" && mobile != ""
}

// RecomputeProfileComplete derives ProfileComplete from the current field
// values, discarding whatever was there before.
func (u *User) RecomputeProfileComplete() {
	u.ProfileComplete = IsProfileComplete(u.FullName, u.Mobile)
}

// DisplayName is the full name, or the email when none is set.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// ShortName is the first word of the full name, or the email local part.
func (u *User) ShortName() string {
	if u.FullName != "" {
		return strings.Split(u.FullName, " ")[0]
	}
	return strings.Split(u.Email, "@")[0]
}

type Account struct {
	ID               int64            `json:"id"`
	UserID           string           `json:"-"`
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	Mobile           string           `json:"mobile,omitempty"`
	ReminderInterval ReminderInterval `json:"reminderInterval"`
	CreatedAt        time.Time        `json:"createdTimestamp"`
	UpdatedAt        time.Time        `json:"updatedTimestamp"`
}

type Transaction struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"-"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        Date            `json:"date"`
}

// Sum adds up the amounts of txs exactly.
func Sum(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}
