package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hisabapp/hisab/internal/cqrs"
	"github.com/hisabapp/hisab/internal/errs"
	"github.com/hisabapp/hisab/internal/middleware"
	"github.com/hisabapp/hisab/internal/models"
	"github.com/hisabapp/hisab/internal/utils"
)

// DefaultTokenTTL is used when no TTL is configured.
const DefaultTokenTTL = 24 * time.Hour

// CredentialStore looks users up for authentication.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// UserReader serves the cached user view.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*models.UserView, error)
}

// AuthQueryService handles login, token refresh and profile reads. None of
// these mutate application state.
type AuthQueryService struct {
	credentials CredentialStore
	users       UserReader
	denylist    middleware.TokenDenylist
	tokenTTL    time.Duration
}

func NewAuthQueryService(credentials CredentialStore, users UserReader, denylist middleware.TokenDenylist, tokenTTL time.Duration) *AuthQueryService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &AuthQueryService{
		credentials: credentials,
		users:       users,
		denylist:    denylist,
		tokenTTL:    tokenTTL,
	}
}

// Login returns errs.ErrInvalidCredentials for an unknown email and for a
// wrong password alike.
func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (string, error) {
	user, err := s.credentials.GetByEmail(ctx, utils.NormalizeEmail(cmd.Email))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", errs.ErrInvalidCredentials
		}
		return "", err
	}
	if !utils.CheckPassword(cmd.Password, user.PasswordHash) {
		log.Info().Str("userId", user.ID).Msg("failed login")
		return "", errs.ErrInvalidCredentials
	}
	return s.generateToken(user.ID, user.Email)
}

// RefreshToken issues a new token for a valid, unrevoked one whose user still
// exists.
func (s *AuthQueryService) RefreshToken(ctx context.Context, cmd cqrs.RefreshTokenCommand) (string, error) {
	claims, err := middleware.ParseToken(cmd.Token)
	if err != nil {
		return "", errs.ErrInvalidToken
	}
	if s.denylist != nil && claims.ID != "" && s.denylist.IsRevoked(ctx, claims.ID) {
		return "", errs.ErrInvalidToken
	}
	if _, err := s.users.GetByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return "", errs.ErrInvalidToken
		}
		return "", err
	}
	return s.generateToken(claims.UserID, claims.Email)
}

// GetProfile returns the read model of the authenticated user. It also
// serves as the profile gate's lookup.
func (s *AuthQueryService) GetProfile(ctx context.Context, q cqrs.GetProfileQuery) (*models.UserView, error) {
	return s.users.GetByID(ctx, q.UserID)
}

func (s *AuthQueryService) generateToken(userID, email string) (string, error) {
	now := time.Now()
	claims := middleware.Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(middleware.JWTSecret())
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}
