package events

import "time"

// Event types
const (
	UserRegistered = "user.registered"
	ProfileUpdated = "user.profile_updated"

	AccountCreated      = "account.created"
	AccountUpdated      = "account.updated"
	AccountDeleted      = "account.deleted"
	TransactionsApplied = "transactions.applied"
)

// Stream names
const (
	IdentityEventsStream = "identity.events"
	LedgerEventsStream   = "ledger.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Identity events
type UserRegisteredEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type ProfileUpdatedEvent struct {
	UserID          string `json:"userId"`
	ProfileComplete bool   `json:"profileComplete"`
}

// Ledger events
type AccountCreatedEvent struct {
	AccountID int64  `json:"accountId"`
	UserID    string `json:"userId"`
	Name      string `json:"name"`
}

type AccountUpdatedEvent struct {
	AccountID int64  `json:"accountId"`
	UserID    string `json:"userId"`
	Name      string `json:"name"`
}

type AccountDeletedEvent struct {
	AccountID           int64  `json:"accountId"`
	UserID              string `json:"userId"`
	DeletedTransactions int64  `json:"deletedTransactions"`
}

type TransactionsAppliedEvent struct {
	AccountID int64  `json:"accountId"`
	UserID    string `json:"userId"`
	Affected  int    `json:"affected"`
	Total     string `json:"total"`
}
