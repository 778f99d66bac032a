package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hisabapp/hisab/internal/cqrs"
	"github.com/hisabapp/hisab/internal/middleware"
	"github.com/hisabapp/hisab/internal/models"
)

// ProfileCommander defines the write-side operations used by UserHandler.
type ProfileCommander interface {
	UpdateProfile(context.Context, cqrs.UpdateProfileCommand) (*models.UserView, error)
}

// ProfileQuerier defines the read-side operations used by UserHandler.
type ProfileQuerier interface {
	GetProfile(context.Context, cqrs.GetProfileQuery) (*models.UserView, error)
}

// UserHandler serves the authenticated user's own profile. It is not behind
// the profile gate, since it is where the gate sends incomplete profiles.
type UserHandler struct {
	commands ProfileCommander
	queries  ProfileQuerier
}

// UpdateProfileRequest leaves field rules to the command service so that
// request and stored values are checked by the same validator.
type UpdateProfileRequest struct {
	FullName string `json:"fullName"`
	Mobile   string `json:"mobile"`
}

const userNotFound = "User not found"

func NewUserHandler(commands ProfileCommander, queries ProfileQuerier) *UserHandler {
	return &UserHandler{commands: commands, queries: queries}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	view, err := h.queries.GetProfile(c.Request.Context(), cqrs.GetProfileQuery{UserID: userID})
	if err != nil {
		middleware.RespondWithDomainError(c, err, userNotFound, "Failed to load profile")
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.commands.UpdateProfile(c.Request.Context(), cqrs.UpdateProfileCommand{
		UserID:   userID,
		FullName: req.FullName,
		Mobile:   req.Mobile,
	})
	if err != nil {
		middleware.RespondWithDomainError(c, err, userNotFound, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, view)
}

// RegisterRoutes mounts GET and PUT on the profile location.
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	g := rg.Group("/profile", auth)
	g.GET("", h.GetProfile)
	g.PUT("", h.UpdateProfile)
}
