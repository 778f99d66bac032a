package command

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/hisabapp/hisab/internal/cqrs"
	"github.com/hisabapp/hisab/internal/errs"
	"github.com/hisabapp/hisab/internal/events"
	"github.com/hisabapp/hisab/internal/ledger/repository"
	"github.com/hisabapp/hisab/internal/models"
	"github.com/hisabapp/hisab/internal/validation"
)

// EventPublisher is satisfied by *events.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// AccountCommandService writes account state and the account's transactions,
// one storage transaction per operation.
type AccountCommandService struct {
	store     repository.Store
	publisher EventPublisher
	editor    *Editor
	now       func() time.Time
}

type Option func(*AccountCommandService)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *AccountCommandService) { s.now = now }
}

func NewAccountCommandService(store repository.Store, publisher EventPublisher, opts ...Option) *AccountCommandService {
	s := &AccountCommandService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.editor = NewEditor(s.now)
	return s
}

// InitialBatch reports what happened to the transactions supplied with a new
// account. Errors is nil when Applied is true.
type InitialBatch struct {
	Applied  bool
	Affected int
	Errors   *errs.BatchError
}

type CreateAccountResult struct {
	Account      *models.Account
	Total        decimal.Decimal
	InitialBatch InitialBatch
}

type UpdateAccountResult struct {
	Account  *models.Account
	Affected int
	Total    decimal.Decimal
}

type DeleteAccountResult struct {
	AccountID           int64
	DeletedTransactions int64
}

// accountFields mirrors cqrs.AccountFields with validation tags.
type accountFields struct {
	Name   string `json:"name" validate:"required,max=100"`
	Email  string `json:"email" validate:"required,email,max=254"`
	Mobile string `json:"mobile" validate:"omitempty,max=11,phone"`
}

func cleanAccountFields(f cqrs.AccountFields) (accountFields, models.ReminderInterval, error) {
	clean := accountFields{
		Name:   strings.TrimSpace(f.Name),
		Email:  strings.TrimSpace(f.Email),
		Mobile: strings.TrimSpace(f.Mobile),
	}
	details := validation.Struct(clean)
	interval, err := models.ParseReminderInterval(f.ReminderInterval)
	if err != nil {
		details = append(details, errs.FieldError{
			Field:   "reminderInterval",
			Message: "Select a valid choice. " + f.ReminderInterval + " is not one of the available choices.",
			Type:    "invalid_choice",
		})
	}
	if err := errs.NewValidationError(details); err != nil {
		return accountFields{}, "", err
	}
	return clean, interval, nil
}

// CreateAccount stores a new account for cmd.UserID. Supplied transactions are
// applied leniently: an invalid batch does not stop the account from being
// created and is reported in InitialBatch. Storage failures roll back both.
func (s *AccountCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*CreateAccountResult, error) {
	fields, interval, err := cleanAccountFields(cmd.Fields)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	account := &models.Account{
		UserID:           cmd.UserID,
		Name:             fields.Name,
		Email:            fields.Email,
		Mobile:           fields.Mobile,
		ReminderInterval: interval,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	result := &CreateAccountResult{Account: account, Total: decimal.Zero}

	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.InsertAccount(ctx, account); err != nil {
			return err
		}
		if len(cmd.Transactions) == 0 {
			result.InitialBatch.Applied = true
			return nil
		}
		res, batchErr, err := s.editor.ApplyLenient(ctx, tx, account.ID, cmd.Transactions)
		if err != nil {
			return err
		}
		if batchErr != nil {
			result.InitialBatch.Errors = batchErr
			return nil
		}
		result.InitialBatch = InitialBatch{Applied: true, Affected: res.Affected}
		result.Total = res.Total
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.InitialBatch.Errors != nil {
		log.Info().Int64("accountId", account.ID).Int("rejected", len(result.InitialBatch.Errors.Intents)).
			Msg("account created without its initial transactions")
	}
	s.publish(ctx, events.AccountCreated, events.AccountCreatedEvent{
		AccountID: account.ID,
		UserID:    account.UserID,
		Name:      account.Name,
	})
	if result.InitialBatch.Affected > 0 {
		s.publishApplied(ctx, account, result.InitialBatch.Affected, result.Total)
	}
	return result, nil
}

// UpdateAccount edits the account fields and/or applies a strict batch in one
// storage transaction. An invalid batch rejects the field edit as well.
func (s *AccountCommandService) UpdateAccount(ctx context.Context, cmd cqrs.UpdateAccountCommand) (*UpdateAccountResult, error) {
	result := &UpdateAccountResult{}
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		account, err := s.ownedAccount(ctx, tx, cmd.AccountID, cmd.RequestingUserID)
		if err != nil {
			return err
		}

		var (
			fields   accountFields
			interval models.ReminderInterval
		)
		if cmd.Fields != nil {
			if fields, interval, err = cleanAccountFields(mergePatch(account, *cmd.Fields)); err != nil {
				return err
			}
		}
		plan, err := s.editor.prepare(ctx, tx, account.ID, cmd.Transactions)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		if cmd.Fields != nil {
			account.Name = fields.Name
			account.Email = fields.Email
			account.Mobile = fields.Mobile
			account.ReminderInterval = interval
			account.UpdatedAt = now
			if err := tx.UpdateAccount(ctx, account); err != nil {
				return err
			}
		}

		res, err := s.editor.apply(ctx, tx, account.ID, plan)
		if err != nil {
			return err
		}
		if res.Affected > 0 && cmd.Fields == nil {
			account.UpdatedAt = now
			if err := tx.TouchAccount(ctx, account.ID, now); err != nil {
				return err
			}
		}
		result.Account = account
		result.Affected = res.Affected
		result.Total = res.Total
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cmd.Fields != nil {
		s.publish(ctx, events.AccountUpdated, events.AccountUpdatedEvent{
			AccountID: result.Account.ID,
			UserID:    result.Account.UserID,
			Name:      result.Account.Name,
		})
	}
	if result.Affected > 0 {
		s.publishApplied(ctx, result.Account, result.Affected, result.Total)
	}
	return result, nil
}

func mergePatch(a *models.Account, p cqrs.AccountPatch) cqrs.AccountFields {
	f := cqrs.AccountFields{
		Name:             a.Name,
		Email:            a.Email,
		Mobile:           a.Mobile,
		ReminderInterval: string(a.ReminderInterval),
	}
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Email != nil {
		f.Email = *p.Email
	}
	if p.Mobile != nil {
		f.Mobile = *p.Mobile
	}
	if p.ReminderInterval != nil {
		f.ReminderInterval = *p.ReminderInterval
	}
	return f
}

// ApplyTransactions applies a strict batch to an owned account. An empty batch
// changes nothing, including updated_at.
func (s *AccountCommandService) ApplyTransactions(ctx context.Context, cmd cqrs.ApplyTransactionsCommand) (*BatchResult, error) {
	var (
		result  BatchResult
		account *models.Account
	)
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		account, err = s.ownedAccount(ctx, tx, cmd.AccountID, cmd.RequestingUserID)
		if err != nil {
			return err
		}
		result, err = s.editor.ApplyStrict(ctx, tx, account.ID, cmd.Transactions)
		if err != nil {
			return err
		}
		if result.Affected > 0 {
			return tx.TouchAccount(ctx, account.ID, s.now().UTC())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Affected > 0 {
		s.publishApplied(ctx, account, result.Affected, result.Total)
	}
	return &result, nil
}

// DeleteAccount removes an owned account together with its transactions.
func (s *AccountCommandService) DeleteAccount(ctx context.Context, cmd cqrs.DeleteAccountCommand) (*DeleteAccountResult, error) {
	var (
		account *models.Account
		deleted int64
	)
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		var err error
		account, err = s.ownedAccount(ctx, tx, cmd.AccountID, cmd.RequestingUserID)
		if err != nil {
			return err
		}
		deleted, err = tx.DeleteAccount(ctx, account.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.AccountDeleted, events.AccountDeletedEvent{
		AccountID:           account.ID,
		UserID:              account.UserID,
		DeletedTransactions: deleted,
	})
	return &DeleteAccountResult{AccountID: account.ID, DeletedTransactions: deleted}, nil
}

// ownedAccount loads the account and hides accounts of other users behind
// errs.ErrNotFound.
func (s *AccountCommandService) ownedAccount(ctx context.Context, tx repository.Tx, accountID int64, userID string) (*models.Account, error) {
	account, err := tx.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		log.Warn().Int64("accountId", accountID).Str("userId", userID).Msg("access to another user's account refused")
		return nil, errs.ErrNotFound
	}
	return account, nil
}

func (s *AccountCommandService) publishApplied(ctx context.Context, account *models.Account, affected int, total decimal.Decimal) {
	s.publish(ctx, events.TransactionsApplied, events.TransactionsAppliedEvent{
		AccountID: account.ID,
		UserID:    account.UserID,
		Affected:  affected,
		Total:     total.StringFixed(2),
	})
}

func (s *AccountCommandService) publish(ctx context.Context, eventType string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.LedgerEventsStream, eventType, data); err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}

