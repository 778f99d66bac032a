package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hisabapp/hisab/internal/cqrs"
	"github.com/hisabapp/hisab/internal/errs"
	"github.com/hisabapp/hisab/internal/middleware"
	"github.com/hisabapp/hisab/internal/models"
	"github.com/hisabapp/hisab/internal/utils"
)

func init() {
	middleware.MustInitJWTSecret("test-secret")
}

// ---- mock implementations ----

type stubCredentials map[string]*models.User

func (s stubCredentials) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := s[email]; ok {
		return u, nil
	}
	return nil, errs.ErrNotFound
}

type stubUsers map[string]*models.UserView

func (s stubUsers) GetByID(_ context.Context, id string) (*models.UserView, error) {
	if v, ok := s[id]; ok {
		return v, nil
	}
	return nil, errs.ErrNotFound
}

type stubDenylist map[string]bool

func (d stubDenylist) IsRevoked(_ context.Context, id string) bool { return d[id] }

func newAuthService(t *testing.T) (*AuthQueryService, stubDenylist, stubUsers) {
	t.Helper()
	hash, err := utils.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	creds := stubCredentials{
		"Asha@example.com": {ID: "usr-001", Email: "Asha@example.com", PasswordHash: hash},
	}
	users := stubUsers{"usr-001": {ID: "usr-001", Email: "Asha@example.com"}}
	deny := stubDenylist{}
	return NewAuthQueryService(creds, users, deny, time.Hour), deny, users
}

// ---- tests ----

func TestLogin(t *testing.T) {
	svc, _, _ := newAuthService(t)
	tests := []struct {
		name    string
		cmd     cqrs.LoginCommand
		wantErr error
	}{
		{"success", cqrs.LoginCommand{Email: "Asha@example.com", Password: "correct-horse"}, nil},
		{"success - domain case ignored", cqrs.LoginCommand{Email: "Asha@EXAMPLE.com", Password: "correct-horse"}, nil},
		{"wrong password", cqrs.LoginCommand{Email: "Asha@example.com", Password: "nope"}, errs.ErrInvalidCredentials},
		{"unknown email", cqrs.LoginCommand{Email: "who@example.com", Password: "correct-horse"}, errs.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := svc.Login(context.Background(), tt.cmd)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			claims, err := middleware.ParseToken(token)
			if err != nil {
				t.Fatalf("issued token does not parse: %v", err)
			}
			if claims.UserID != "usr-001" || claims.ID == "" {
				t.Errorf("claims = %+v", claims)
			}
			if ttl := time.Until(claims.ExpiresAt.Time); ttl <= 0 || ttl > time.Hour {
				t.Errorf("expiry in %v, want within an hour", ttl)
			}
		})
	}
}

func TestRefreshToken(t *testing.T) {
	svc, deny, users := newAuthService(t)
	ctx := context.Background()
	token, err := svc.Login(ctx, cqrs.LoginCommand{Email: "Asha@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	refreshed, err := svc.RefreshToken(ctx, cqrs.RefreshTokenCommand{Token: token})
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	oldClaims, _ := middleware.ParseToken(token)
	newClaims, _ := middleware.ParseToken(refreshed)
	if oldClaims.ID == newClaims.ID {
		t.Error("refreshed token must carry a new id")
	}

	if _, err := svc.RefreshToken(ctx, cqrs.RefreshTokenCommand{Token: "garbage"}); !errors.Is(err, errs.ErrInvalidToken) {
		t.Errorf("garbage token: expected ErrInvalidToken, got %v", err)
	}

	deny[oldClaims.ID] = true
	if _, err := svc.RefreshToken(ctx, cqrs.RefreshTokenCommand{Token: token}); !errors.Is(err, errs.ErrInvalidToken) {
		t.Errorf("revoked token: expected ErrInvalidToken, got %v", err)
	}

	delete(users, "usr-001")
	if _, err := svc.RefreshToken(ctx, cqrs.RefreshTokenCommand{Token: refreshed}); !errors.Is(err, errs.ErrInvalidToken) {
		t.Errorf("deleted user: expected ErrInvalidToken, got %v", err)
	}
}

func TestGetProfile(t *testing.T) {
	svc, _, _ := newAuthService(t)
	view, err := svc.GetProfile(context.Background(), cqrs.GetProfileQuery{UserID: "usr-001"})
	if err != nil || view.ID != "usr-001" {
		t.Fatalf("GetProfile = %+v, %v", view, err)
	}
	if _, err := svc.GetProfile(context.Background(), cqrs.GetProfileQuery{UserID: "usr-404"}); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
