package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/hisabapp/hisab/internal/errs"
	"github.com/hisabapp/hisab/internal/models"
)

const uniqueViolation = "23505"

// UserWriteRepository handles all state-mutating operations for users.
// It operates exclusively against the PostgreSQL write store (source of truth).
// profile_complete is derived here on every write; callers cannot set it.
type UserWriteRepository struct {
	db *sql.DB
}

func NewUserWriteRepository(db *sql.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

const userColumns = `id, email, password_hash, full_name, mobile, profile_complete, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Mobile,
		&u.ProfileComplete, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.Storage("get user", err)
	}
	return &u, nil
}

func (r *UserWriteRepository) Create(ctx context.Context, user *models.User) error {
	user.RecomputeProfileComplete()
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FullName, user.Mobile,
		user.ProfileComplete, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return errs.Integrity("email", "A user with that email already exists.")
		}
		return errs.Storage("create user", err)
	}
	return nil
}

// GetByID fetches the full write model (including PasswordHash) for internal operations.
func (r *UserWriteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserWriteRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// UpdateProfile writes the editable profile fields. The email is not editable.
func (r *UserWriteRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	user.RecomputeProfileComplete()
	query := `
		UPDATE users
		SET full_name = $2, mobile = $3, profile_complete = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		user.ID, user.FullName, user.Mobile, user.ProfileComplete, user.UpdatedAt,
	)
	if err != nil {
		return errs.Storage("update user", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errs.Storage("update user", err)
	}
	if rows == 0 {
		return errs.ErrNotFound
	}
	return nil
}
