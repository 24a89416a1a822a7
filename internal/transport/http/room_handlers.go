package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/parleychat/parley-server/internal/auth"
	"github.com/parleychat/parley-server/internal/core"
	"github.com/parleychat/parley-server/internal/store"
)

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	hub   *core.Hub
	store store.Store
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, st store.Store, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub:   hub,
		store: st,
		log:   logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Name          string `json:"name" binding:"required,min=1,max=64"`
	IsPrivate     bool   `json:"is_private"`
	Password      string `json:"password"`
	Theme         string `json:"theme"`
	BackgroundURL string `json:"background_url"`
}

// UpdateRoomRequest represents the room meta update request body.
type UpdateRoomRequest struct {
	Theme         string `json:"theme" binding:"max=64"`
	BackgroundURL string `json:"background_url" binding:"max=512"`
}

// RoomResponse represents a room in API responses. The password hash never
// appears here.
type RoomResponse struct {
	Name          string `json:"name"`
	IsPrivate     bool   `json:"is_private"`
	Theme         string `json:"theme,omitempty"`
	BackgroundURL string `json:"background_url,omitempty"`
}

// CreateRoom handles room creation.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	passwordHash := ""
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			h.log.Error().Err(err).Msg("failed to hash room password")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		passwordHash = hash
	}

	view, err := h.hub.CreateRoom(c.Request.Context(), req.Name, req.IsPrivate, passwordHash, req.Theme, req.BackgroundURL)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateRoom) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "room with this name already exists"})
			return
		}
		if errors.Is(err, core.ErrBadRequest) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room name"})
			return
		}
		h.log.Error().Err(err).Str("room_name", req.Name).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("room_name", view.Name).Bool("is_private", view.IsPrivate).Msg("room created")
	c.JSON(http.StatusCreated, roomResponse(view))
}

// ListRooms returns the discoverable rooms. Private rooms are joinable with
// the password but never listed.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	records, err := h.store.ListRooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	rooms := make([]RoomResponse, 0, len(records))
	for _, rec := range records {
		if rec.IsPrivate {
			continue
		}
		rooms = append(rooms, RoomResponse{
			Name:          rec.Name,
			Theme:         rec.Theme,
			BackgroundURL: rec.BackgroundURL,
		})
	}

	c.JSON(http.StatusOK, rooms)
}

// RoomMeta returns display metadata for a room.
// GET /api/rooms/:name
func (h *RoomHandlers) RoomMeta(c *gin.Context) {
	name := c.Param("name")

	view, err := h.hub.RoomMeta(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, core.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Str("room_name", name).Msg("failed to load room meta")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, roomResponse(view))
}

// UpdateRoomMeta updates a room's display theming.
// PUT /api/rooms/:name
func (h *RoomHandlers) UpdateRoomMeta(c *gin.Context) {
	name := c.Param("name")

	var req UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid room update request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.hub.UpdateRoomMeta(c.Request.Context(), name, req.Theme, req.BackgroundURL); err != nil {
		if errors.Is(err, core.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Str("room_name", name).Msg("failed to update room meta")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func roomResponse(view *core.RoomView) RoomResponse {
	return RoomResponse{
		Name:          view.Name,
		IsPrivate:     view.IsPrivate,
		Theme:         view.Theme,
		BackgroundURL: view.BackgroundURL,
	}
}
