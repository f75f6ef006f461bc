package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/gamerhubx/chat-platform/internal/auth"
	"github.com/gamerhubx/chat-platform/internal/chat"
	"github.com/gamerhubx/chat-platform/internal/common"
	"github.com/gamerhubx/chat-platform/internal/config"
	"github.com/gamerhubx/chat-platform/internal/user"
)

type Handler struct {
	Cfg    config.Config
	Users  *user.Store
	Tokens *auth.TokenService
	Engine *chat.Engine
}

func NewHandler(cfg config.Config, users *user.Store, tokens *auth.TokenService, engine *chat.Engine) *Handler {
	return &Handler{
		Cfg:    cfg,
		Users:  users,
		Tokens: tokens,
		Engine: engine,
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"status": "ok"})
}
