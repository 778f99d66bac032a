package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hisabapp/hisab/internal/cqrs"
	"github.com/hisabapp/hisab/internal/errs"
	"github.com/hisabapp/hisab/internal/models"
)

// ProfileLocation is where clients are sent to complete their profile.
const ProfileLocation = "/v1/profile"

// ProfileLookup resolves the authenticated user's current profile.
type ProfileLookup interface {
	GetProfile(ctx context.Context, q cqrs.GetProfileQuery) (*models.UserView, error)
}

// RedirectRequired is returned instead of the requested resource when the
// caller must first visit Location.
type RedirectRequired struct {
	Message  string `json:"message"`
	Reason   string `json:"reason"`
	Location string `json:"location"`
}

// EvaluateProfileGate returns nil when view may proceed.
func EvaluateProfileGate(view *models.UserView) *RedirectRequired {
	if view != nil && view.ProfileComplete {
		return nil
	}
	return &RedirectRequired{
		Message:  "Please complete your profile to access all features.",
		Reason:   "profile_incomplete",
		Location: ProfileLocation,
	}
}

// ProfileGate blocks users with an incomplete profile with 428 and a
// RedirectRequired body. It must run after AuthMiddleware.
func ProfileGate(lookup ProfileLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			RespondWithError(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}

		view, err := lookup.GetProfile(c.Request.Context(), cqrs.GetProfileQuery{UserID: userID})
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				RespondWithError(c, http.StatusUnauthorized, "User not found")
			} else {
				RespondWithError(c, http.StatusInternalServerError, "Failed to load profile")
			}
			c.Abort()
			return
		}

		if redirect := EvaluateProfileGate(view); redirect != nil {
			c.Header("Location", redirect.Location)
			c.AbortWithStatusJSON(http.StatusPreconditionRequired, redirect)
			return
		}

		c.Set("profile", view)
		c.Next()
	}
}
