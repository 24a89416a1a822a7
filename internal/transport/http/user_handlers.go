package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/parleychat/parley-server/internal/core"
	"github.com/parleychat/parley-server/internal/store"
)

// UserHandlers provides HTTP handlers for profile and presence lookups.
type UserHandlers struct {
	hub   *core.Hub
	store store.Store
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(hub *core.Hub, st store.Store, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		hub:   hub,
		store: st,
		log:   logger,
	}
}

// ProfileResponse represents a user profile in API responses.
type ProfileResponse struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// UpdateProfileRequest represents the profile update request body.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" binding:"max=64"`
	AvatarURL   string `json:"avatar_url" binding:"max=512"`
}

// OnlineUsersResponse represents the presence snapshot.
type OnlineUsersResponse struct {
	Users []string `json:"users"`
}

// Profile returns a user's public profile.
// GET /api/profile/:username
func (h *UserHandlers) Profile(c *gin.Context) {
	username := c.Param("username")

	user, err := h.store.GetUserByUsername(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Str("username", username).Msg("failed to load profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		Username:    user.Username,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
	})
}

// UpdateProfile updates the caller's own profile.
// PUT /api/profile/:username
func (h *UserHandlers) UpdateProfile(c *gin.Context) {
	username := c.Param("username")

	caller, exists := c.Get(ContextKeyUsername)
	if !exists || caller.(string) != username {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "can only update your own profile"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid profile update request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.store.UpdateProfile(c.Request.Context(), username, req.DisplayName, req.AvatarURL); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Str("username", username).Msg("failed to update profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// OnlineUsers returns the current presence snapshot.
// GET /api/users/online
func (h *UserHandlers) OnlineUsers(c *gin.Context) {
	c.JSON(http.StatusOK, OnlineUsersResponse{Users: h.hub.OnlineUsers()})
}
