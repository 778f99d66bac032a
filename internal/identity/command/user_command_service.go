package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hisabapp/hisab/internal/cqrs"
	"github.com/hisabapp/hisab/internal/errs"
	"github.com/hisabapp/hisab/internal/events"
	"github.com/hisabapp/hisab/internal/models"
	"github.com/hisabapp/hisab/internal/utils"
	"github.com/hisabapp/hisab/internal/validation"
)

// MinPasswordLength applies to registration and the createuser command.
const MinPasswordLength = 8

// UserWriter is the PostgreSQL write store for users.
type UserWriter interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
}

// ViewStore is the Redis read model for users.
type ViewStore interface {
	GetByID(ctx context.Context, id string) (*models.UserView, error)
	CacheUserView(ctx context.Context, view *models.UserView) error
	InvalidateUserView(ctx context.Context, userID string) error
	IncrAccountCount(ctx context.Context, userID string, delta int64)
}

// TokenRevoker records logged-out token ids.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// UserCommandService writes user state to PostgreSQL and keeps the Redis
// read model up to date.
type UserCommandService struct {
	writeRepo UserWriter
	readRepo  ViewStore
	tokens    TokenRevoker
	publisher EventPublisher
}

func NewUserCommandService(writeRepo UserWriter, readRepo ViewStore, tokens TokenRevoker, publisher EventPublisher) *UserCommandService {
	return &UserCommandService{
		writeRepo: writeRepo,
		readRepo:  readRepo,
		tokens:    tokens,
		publisher: publisher,
	}
}

type registration struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8"`
}

type profile struct {
	FullName string `json:"fullName" validate:"max=150"`
	Mobile   string `json:"mobile" validate:"omitempty,max=17,phone"`
}

// Register creates a user with an empty, and therefore incomplete, profile.
func (s *UserCommandService) Register(ctx context.Context, cmd cqrs.RegisterUserCommand) (*models.User, error) {
	reg := registration{Email: utils.NormalizeEmail(cmd.Email), Password: cmd.Password}
	if err := errs.NewValidationError(validation.Struct(reg)); err != nil {
		return nil, err
	}

	passwordHash, err := utils.HashPassword(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := time.Now().UTC()
	user := &models.User{
		ID:           utils.GenerateID("usr"),
		Email:        reg.Email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.writeRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.writeView(ctx, models.NewUserView(user))
	if err := s.publisher.Publish(ctx, events.IdentityEventsStream, events.UserRegistered, events.UserRegisteredEvent{
		UserID: user.ID,
		Email:  user.Email,
	}); err != nil {
		log.Error().Err(err).Str("event", events.UserRegistered).Msg("failed to publish event")
	}
	return user, nil
}

// UpdateProfile saves full name and mobile and re-derives profile
// completeness. The cached view is written through so the profile gate sees
// the change on the next request.
func (s *UserCommandService) UpdateProfile(ctx context.Context, cmd cqrs.UpdateProfileCommand) (*models.UserView, error) {
	p := profile{FullName: strings.TrimSpace(cmd.FullName), Mobile: strings.TrimSpace(cmd.Mobile)}
	if err := errs.NewValidationError(validation.Struct(p)); err != nil {
		return nil, err
	}

	user, err := s.writeRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	wasComplete := user.ProfileComplete
	user.FullName = p.FullName
	user.Mobile = p.Mobile
	user.UpdatedAt = time.Now().UTC()
	if err := s.writeRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	view := models.NewUserView(user)
	if prev, err := s.readRepo.GetByID(ctx, user.ID); err == nil {
		view.AccountCount = prev.AccountCount
	}
	s.writeView(ctx, view)
	if wasComplete != user.ProfileComplete {
		log.Info().Str("userId", user.ID).Bool("profileComplete", user.ProfileComplete).Msg("profile completeness changed")
	}
	if err := s.publisher.Publish(ctx, events.IdentityEventsStream, events.ProfileUpdated, events.ProfileUpdatedEvent{
		UserID:          user.ID,
		ProfileComplete: user.ProfileComplete,
	}); err != nil {
		log.Error().Err(err).Str("event", events.ProfileUpdated).Msg("failed to publish event")
	}
	return view, nil
}

// writeView writes the view through to Redis. When that fails the old view is
// dropped instead, so the profile gate reads PostgreSQL rather than a stale
// completeness flag.
func (s *UserCommandService) writeView(ctx context.Context, view *models.UserView) {
	err := s.readRepo.CacheUserView(ctx, view)
	if err == nil {
		return
	}
	log.Warn().Err(err).Str("userId", view.ID).Msg("failed to cache user view")
	if err := s.readRepo.InvalidateUserView(ctx, view.ID); err != nil {
		log.Error().Err(err).Str("userId", view.ID).Msg("failed to drop stale user view")
	}
}

// Logout revokes the token id until the token's own expiry.
func (s *UserCommandService) Logout(ctx context.Context, cmd cqrs.LogoutCommand) error {
	if cmd.TokenID == "" {
		return errs.ErrInvalidToken
	}
	ttl := time.Until(time.Unix(cmd.ExpiresAt, 0))
	if ttl <= 0 {
		return nil
	}
	if err := s.tokens.Revoke(ctx, cmd.TokenID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// HandleLedgerEvent is the Redis stream subscriber handler. It keeps the
// account count on the cached user view in step with account.created and
// account.deleted.
func (s *UserCommandService) HandleLedgerEvent(ctx context.Context, event events.Event) error {
	log.Debug().Str("event", event.Type).Msg("received ledger event")
	switch event.Type {
	case events.AccountCreated:
		var data events.AccountCreatedEvent
		if err := events.Decode(event, &data); err != nil {
			return err
		}
		s.readRepo.IncrAccountCount(ctx, data.UserID, 1)
	case events.AccountDeleted:
		var data events.AccountDeletedEvent
		if err := events.Decode(event, &data); err != nil {
			return err
		}
		log.Info().Str("userId", data.UserID).Int64("accountId", data.AccountID).
			Int64("deletedTransactions", data.DeletedTransactions).Msg("account deleted")
		s.readRepo.IncrAccountCount(ctx, data.UserID, -1)
	}
	return nil
}
