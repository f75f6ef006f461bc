package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gamerhubx/chat-platform/internal/common"
	"github.com/gamerhubx/chat-platform/internal/user"
)

type credentialsReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates an account and signs the user in immediately.
func (h *Handler) Register(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "username and password required")
		return
	}
	if len(req.Username) > 50 {
		common.Fail(c, http.StatusBadRequest, 10002, "username too long")
		return
	}

	u, err := h.Users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateUsername) {
			common.Fail(c, http.StatusConflict, 10003, "username already taken")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20001, "failed to create user")
		return
	}

	token, err := h.Tokens.Issue(u.ID, u.Username)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20002, "failed to sign token")
		return
	}

	common.OK(c, gin.H{
		"id":       u.ID,
		"username": u.Username,
		"token":    token,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "username and password required")
		return
	}

	u, err := h.Users.Verify(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			common.Fail(c, http.StatusNotFound, 10004, "user not found")
		case errors.Is(err, user.ErrWrongPassword):
			common.Fail(c, http.StatusUnauthorized, 10005, "wrong password")
		default:
			common.Fail(c, http.StatusInternalServerError, 20001, "login failed")
		}
		return
	}

	token, err := h.Tokens.Issue(u.ID, u.Username)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20002, "failed to sign token")
		return
	}

	common.OK(c, gin.H{
		"username": u.Username,
		"token":    token,
	})
}
