package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/hisabapp/hisab/internal/errs"
	"github.com/hisabapp/hisab/internal/models"
	sharedredis "github.com/hisabapp/hisab/internal/redis"
)

const (
	userViewKeyPrefix = "user:view:"
	userViewTTL       = time.Hour
)

// UserReadRepository handles all read operations for users.
// It uses Redis as the primary read store, falling back to PostgreSQL on a miss.
type UserReadRepository struct {
	db    *sql.DB
	cache *sharedredis.ViewCache[models.UserView]
}

func NewUserReadRepository(db *sql.DB, redisClient *goredis.Client) *UserReadRepository {
	return &UserReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.UserView](redisClient, userViewTTL),
	}
}

// GetByID returns a UserView from Redis first, then PostgreSQL.
func (r *UserReadRepository) GetByID(ctx context.Context, id string) (*models.UserView, error) {
	cacheKey := userViewKeyPrefix + id

	if view, ok := r.cache.Get(ctx, cacheKey); ok {
		return view, nil
	}

	query := `
		SELECT u.id, u.email, u.full_name, u.mobile, u.profile_complete, u.created_at, u.updated_at,
		       (SELECT COUNT(*) FROM accounts a WHERE a.user_id = u.id)
		FROM users u
		WHERE u.id = $1
	`
	var view models.UserView
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&view.ID, &view.Email, &view.FullName, &view.Mobile, &view.ProfileComplete,
		&view.CreatedAt, &view.UpdatedAt, &view.AccountCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.Storage("get user view", err)
	}

	if err := r.CacheUserView(ctx, &view); err != nil {
		log.Warn().Err(err).Str("userId", id).Msg("failed to warm user view")
	}
	return &view, nil
}

// CacheUserView stores or refreshes the Redis read model for a user.
// Called by the command service after every mutation.
func (r *UserReadRepository) CacheUserView(ctx context.Context, view *models.UserView) error {
	return r.cache.Set(ctx, userViewKeyPrefix+view.ID, view)
}

// InvalidateUserView drops the cached view so the next read recomputes it from
// PostgreSQL.
func (r *UserReadRepository) InvalidateUserView(ctx context.Context, userID string) error {
	return r.cache.Delete(ctx, userViewKeyPrefix+userID)
}

// IncrAccountCount adjusts the account count of a cached view. Without a
// cached view there is nothing to do; the next miss recounts in PostgreSQL.
// A count that would go negative has drifted, so the view is dropped.
func (r *UserReadRepository) IncrAccountCount(ctx context.Context, userID string, delta int64) {
	key := userViewKeyPrefix + userID
	view, ok := r.cache.Get(ctx, key)
	if !ok {
		return
	}
	view.AccountCount += delta
	if view.AccountCount >= 0 {
		err := r.cache.Set(ctx, key, view)
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("userId", userID).Msg("failed to update account count")
	}
	if err := r.cache.Delete(ctx, key); err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("failed to drop stale user view")
	}
}
