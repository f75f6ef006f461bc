package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gamerhubx/chat-platform/internal/auth"
	"github.com/gamerhubx/chat-platform/internal/chat"
	"github.com/gamerhubx/chat-platform/internal/common"
	"github.com/gamerhubx/chat-platform/internal/config"
	"github.com/gamerhubx/chat-platform/internal/httpapi/handlers"
	"github.com/gamerhubx/chat-platform/internal/httpapi/middleware"
	"github.com/gamerhubx/chat-platform/internal/user"
)

func NewRouter(cfg config.Config, users *user.Store, tokens *auth.TokenService, engine *chat.Engine) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(cfg, users, tokens, engine)

	r.GET("/ping", h.Ping)

	r.POST("/register", h.Register)
	r.POST("/login", h.Login)

	// WebSocket handshake carries the token itself (query string or a
	// first auth frame), so the route stays outside the auth group.
	r.GET("/ws", h.Connect)

	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(tokens))
	authGroup.GET("/rooms/:room/messages", h.History)

	return r
}
