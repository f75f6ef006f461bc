package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gamerhubx/chat-platform/internal/auth"
	"github.com/gamerhubx/chat-platform/internal/common"
)

const (
	UserIDKey    = "user_id"
	UsernameKey  = "username"
	RequestIDKey = "request_id"
)

// AuthRequired verifies the Bearer token and stores the identity in the
// gin context. Verification uses only the public key.
func AuthRequired(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			common.Fail(c, http.StatusUnauthorized, 40101, "missing bearer token")
			c.Abort()
			return
		}

		id, err := tokens.Verify(strings.TrimPrefix(header, prefix))
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				common.Fail(c, http.StatusUnauthorized, 40102, "token expired")
			case errors.Is(err, auth.ErrTokenMalformed):
				common.Fail(c, http.StatusUnauthorized, 40103, "token malformed")
			default:
				common.Fail(c, http.StatusUnauthorized, 40104, "token signature invalid")
			}
			c.Abort()
			return
		}

		c.Set(UserIDKey, id.UserID)
		c.Set(UsernameKey, id.Username)
		c.Next()
	}
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(RequestIDKey, rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("panic recovered path=%s err=%v", c.FullPath(), r)
				common.Fail(c, http.StatusInternalServerError, 50000, "internal error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
