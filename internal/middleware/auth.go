package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/hisabapp/hisab/internal/utils"
)

var (
	jwtSecretOnce sync.Once
	jwtSecretVal  []byte
)

// MustInitJWTSecret sets the HMAC key used to sign and verify tokens. Only
// the first call takes effect.
func MustInitJWTSecret(secret string) {
	if secret == "" {
		panic("JWT secret is empty")
	}
	jwtSecretOnce.Do(func() {
		jwtSecretVal = []byte(secret)
	})
}

// JWTSecret returns the key set by MustInitJWTSecret.
func JWTSecret() []byte {
	if jwtSecretVal == nil {
		panic("JWT secret is not initialised")
	}
	return jwtSecretVal
}

// Claims is the JWT payload. RegisteredClaims.ID carries the token id used
// for revocation.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenDenylist reports whether a token id has been revoked (logout).
type TokenDenylist interface {
	IsRevoked(ctx context.Context, tokenID string) bool
}

// ParseToken verifies signature, algorithm and expiry.
func ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return JWTSecret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if !utils.ValidateUserID(claims.UserID) {
		return nil, errors.New("invalid token subject")
	}
	return claims, nil
}

// AuthMiddleware requires a valid, unrevoked bearer token. denylist may be nil.
func AuthMiddleware(denylist TokenDenylist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			RespondWithError(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			RespondWithError(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := ParseToken(parts[1])
		if err != nil {
			RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}
		if denylist != nil && claims.ID != "" && denylist.IsRevoked(c.Request.Context(), claims.ID) {
			RespondWithError(c, http.StatusUnauthorized, "Token has been revoked")
			c.Abort()
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("claims", claims)
		c.Next()
	}
}

func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("userId")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok && id != ""
}

func GetClaims(c *gin.Context) (*Claims, bool) {
	v, exists := c.Get("claims")
	if !exists {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}
