package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/gamerhubx/chat-platform/internal/auth"
	"github.com/gamerhubx/chat-platform/internal/chat"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// clientFrame is a command from the client. Type is one of auth, join,
// leave, message.
type clientFrame struct {
	Type    string `json:"type"`
	Token   string `json:"token,omitempty"`
	Room    string `json:"room,omitempty"`
	Content string `json:"content,omitempty"`
}

// Connect upgrades the request and runs the session until the client
// goes away. The token may arrive in the query string at handshake time
// or in a first auth frame; every other operation requires it.
func (h *Handler) Connect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	sess := h.Engine.Connect()

	if token := handshakeToken(c); token != "" {
		id, err := h.Tokens.Verify(token)
		if err != nil {
			_ = conn.WriteJSON(chat.Event{Type: chat.EventError, Error: tokenErrMsg(err)})
			_ = conn.Close()
			h.Engine.Disconnect(sess)
			return
		}
		h.Engine.Authenticate(sess, id)
	}

	go h.writePump(conn, sess)
	h.readPump(conn, sess)
}

func handshakeToken(c *gin.Context) string {
	if t := c.Query("token"); t != "" {
		return t
	}
	const prefix = "Bearer "
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, prefix) {
		return strings.TrimPrefix(header, prefix)
	}
	return ""
}

// readPump owns the connection's inbound side. It exits on any read
// error and releases the session's memberships exactly once.
func (h *Handler) readPump(conn *websocket.Conn, sess *chat.Session) {
	defer func() {
		h.Engine.Disconnect(sess)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame clientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				log.Printf("ws read error session=%s err=%v", sess.ID, err)
			}
			return
		}
		h.handleFrame(sess, frame)
	}
}

func (h *Handler) handleFrame(sess *chat.Session, frame clientFrame) {
	switch frame.Type {
	case "auth":
		id, err := h.Tokens.Verify(frame.Token)
		if err != nil {
			h.notifyError(sess, tokenErrMsg(err))
			return
		}
		h.Engine.Authenticate(sess, id)

	case "join":
		if frame.Room == "" {
			h.notifyError(sess, "room required")
			return
		}
		if err := h.Engine.Join(sess, frame.Room); err != nil {
			h.notifyError(sess, engineErrMsg(err))
		}

	case "leave":
		if frame.Room == "" {
			h.notifyError(sess, "room required")
			return
		}
		if err := h.Engine.Leave(sess, frame.Room); err != nil {
			h.notifyError(sess, engineErrMsg(err))
		}

	case "message":
		if frame.Room == "" || frame.Content == "" {
			h.notifyError(sess, "room and content required")
			return
		}
		if _, err := h.Engine.SendMessage(context.Background(), sess, frame.Room, frame.Content); err != nil {
			h.notifyError(sess, engineErrMsg(err))
		}

	default:
		h.notifyError(sess, "unknown frame type")
	}
}

// writePump is the sole writer on the connection. It drains the
// session's event queue and keeps the connection alive with pings; a
// closed queue means the session was removed and the connection should
// close.
func (h *Handler) writePump(conn *websocket.Conn, sess *chat.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case ev, ok := <-sess.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) notifyError(sess *chat.Session, msg string) {
	h.Engine.Notify(sess, chat.Event{Type: chat.EventError, Error: msg})
}

func tokenErrMsg(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, auth.ErrTokenMalformed):
		return "token malformed"
	default:
		return "token signature invalid"
	}
}

func engineErrMsg(err error) string {
	switch {
	case errors.Is(err, chat.ErrUnauthorized):
		return "authentication required"
	case errors.Is(err, chat.ErrNotInRoom):
		return "join the room before sending"
	case errors.Is(err, chat.ErrStoreUnavailable):
		return "message store unavailable"
	default:
		return "operation failed"
	}
}
