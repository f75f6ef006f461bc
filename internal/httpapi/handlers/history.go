package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gamerhubx/chat-platform/internal/chat"
	"github.com/gamerhubx/chat-platform/internal/common"
)

// History returns the most recent messages in a room, oldest first.
func (h *Handler) History(c *gin.Context) {
	room := c.Param("room")
	if room == "" {
		common.Fail(c, http.StatusBadRequest, 10010, "room required")
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	msgs, err := h.Engine.History(c.Request.Context(), room, limit)
	if err != nil {
		if errors.Is(err, chat.ErrStoreUnavailable) {
			common.Fail(c, http.StatusServiceUnavailable, 20010, "history unavailable")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20011, "failed to load history")
		return
	}

	common.OK(c, gin.H{
		"room":     room,
		"messages": msgs,
	})
}
