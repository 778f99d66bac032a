package repository

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const revokedTokenKeyPrefix = "auth:revoked:"

// TokenDenylist records logged-out token ids in Redis until the token would
// have expired anyway.
type TokenDenylist struct {
	client *goredis.Client
}

func NewTokenDenylist(client *goredis.Client) *TokenDenylist {
	return &TokenDenylist{client: client}
}

func (d *TokenDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return d.client.Set(ctx, revokedTokenKeyPrefix+tokenID, 1, ttl).Err()
}

// IsRevoked fails open: if Redis cannot be reached the token is accepted and
// the error is logged.
func (d *TokenDenylist) IsRevoked(ctx context.Context, tokenID string) bool {
	n, err := d.client.Exists(ctx, revokedTokenKeyPrefix+tokenID).Result()
	if err != nil {
		log.Warn().Err(err).Str("tokenId", tokenID).Msg("token denylist lookup failed")
		return false
	}
	return n > 0
}
