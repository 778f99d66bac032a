package cqrs

// ---------- Identity commands ----------

type RegisterUserCommand struct {
	Email    string
	Password string
}

type UpdateProfileCommand struct {
	UserID   string
	FullName string
	Mobile   string
}

type LoginCommand struct {
	Email    string
	Password string
}

type RefreshTokenCommand struct {
	Token string
}

type LogoutCommand struct {
	TokenID   string
	ExpiresAt int64
}

// ---------- Ledger commands ----------

// IntentOp names what a TransactionIntent does.
type IntentOp string

const (
	IntentCreate IntentOp = "create"
	IntentUpdate IntentOp = "update"
	IntentDelete IntentOp = "delete"
)

// TransactionIntent is one entry of a transaction batch. Field values are
// kept as raw text so every intent can be validated and reported on
// individually; a nil field on an update keeps the stored value.
type TransactionIntent struct {
	Op          IntentOp
	ID          int64
	Description *string
	Amount      *string
	Date        *string
}

// AccountFields are the user-editable attributes of an account.
type AccountFields struct {
	Name             string
	Email            string
	Mobile           string
	ReminderInterval string
}

// AccountPatch lists the account fields to change; a nil field keeps the
// stored value.
type AccountPatch struct {
	Name             *string
	Email            *string
	Mobile           *string
	ReminderInterval *string
}

type CreateAccountCommand struct {
	UserID       string
	Fields       AccountFields
	Transactions []TransactionIntent
}

// UpdateAccountCommand edits an account. Fields is optional; when nil only
// the transaction batch is applied.
type UpdateAccountCommand struct {
	AccountID        int64
	RequestingUserID string
	Fields           *AccountPatch
	Transactions     []TransactionIntent
}

type ApplyTransactionsCommand struct {
	AccountID        int64
	RequestingUserID string
	Transactions     []TransactionIntent
}

type DeleteAccountCommand struct {
	AccountID        int64
	RequestingUserID string
}
