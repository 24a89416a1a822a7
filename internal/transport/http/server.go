package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/parleychat/parley-server/internal/auth"
	"github.com/parleychat/parley-server/internal/config"
	"github.com/parleychat/parley-server/internal/core"
	"github.com/parleychat/parley-server/internal/store"
)

// NewServer builds the HTTP server: REST credential/room endpoints plus the
// WebSocket event surface.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	apiHandlers := NewAPIHandlers(authService, logger)
	userHandlers := NewUserHandlers(hub, st, logger)
	roomHandlers := NewRoomHandlers(hub, st, logger)

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	api := router.Group("/api")
	api.POST("/register", apiHandlers.Register)
	api.POST("/login", apiHandlers.Login)
	api.POST("/guest", apiHandlers.GuestLogin)
	api.POST("/forget", apiHandlers.Forget)
	api.POST("/reset", apiHandlers.Reset)
	api.GET("/profile/:username", userHandlers.Profile)
	api.GET("/users/online", userHandlers.OnlineUsers)
	api.GET("/rooms", roomHandlers.ListRooms)
	api.GET("/rooms/:name", roomHandlers.RoomMeta)

	authed := api.Group("", AuthMiddleware(authService, logger))
	authed.PUT("/profile/:username", userHandlers.UpdateProfile)
	authed.POST("/rooms", roomHandlers.CreateRoom)
	authed.PUT("/rooms/:name", roomHandlers.UpdateRoomMeta)

	router.GET("/ws", gin.WrapH(NewWSHandler(hub, authService, cfg, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
