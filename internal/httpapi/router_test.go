package httpapi

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/gamerhubx/chat-platform/internal/auth"
	"github.com/gamerhubx/chat-platform/internal/chat"
	"github.com/gamerhubx/chat-platform/internal/config"
	"github.com/gamerhubx/chat-platform/internal/user"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testEnv struct {
	server   *httptest.Server
	registry *chat.Registry
	tokens   *auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(gormsqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&user.User{}, &chat.Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	priv, err := auth.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tokens := auth.NewTokenService(priv, time.Hour)
	users := user.NewStore(db, 5*time.Second)

	registry := chat.NewRegistry()
	engine := chat.NewEngine(registry, chat.NewGormHistory(db, 5*time.Second), nil)

	router := NewRouter(config.Load(), users, tokens, engine)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, registry: registry, tokens: tokens}
}

func (e *testEnv) post(t *testing.T, path string, body any) (*http.Response, envelope) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return resp, env
}

func (e *testEnv) register(t *testing.T, username, password string) string {
	t.Helper()
	resp, env := e.post(t, "/register", gin.H{"username": username, "password": password})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register %s: status %d (%s)", username, resp.StatusCode, env.Message)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("register %s: no token in response", username)
	}
	return data.Token
}

func (e *testEnv) dialWS(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForMembers(t *testing.T, reg *chat.Registry, room string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(reg.MembersOf(room)) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room %s never reached %d members", room, want)
}

func readEvent(t *testing.T, conn *websocket.Conn) chat.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev chat.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func TestRegisterLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	env.register(t, "flow_alice", "pw12345")

	resp, _ := env.post(t, "/register", gin.H{"username": "flow_alice", "password": "other"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register: status %d", resp.StatusCode)
	}

	resp, env2 := env.post(t, "/login", gin.H{"username": "flow_alice", "password": "pw12345"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", resp.StatusCode)
	}
	var data struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(env2.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("login: no token")
	}
	if data.Username != "flow_alice" {
		t.Fatalf("login: unexpected username %q", data.Username)
	}

	resp, _ = env.post(t, "/login", gin.H{"username": "flow_alice", "password": "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password: status %d", resp.StatusCode)
	}

	resp, _ = env.post(t, "/login", gin.H{"username": "flow_ghost", "password": "pw"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown user: status %d", resp.StatusCode)
	}
}

func TestHistoryRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/rooms/lobby/messages")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestChatScenario(t *testing.T) {
	env := newTestEnv(t)

	aliceToken := env.register(t, "scen_alice", "pw12345")
	bobToken := env.register(t, "scen_bob", "pw12345")

	bob := env.dialWS(t, bobToken)
	if err := bob.WriteJSON(gin.H{"type": "join", "room": "lobby"}); err != nil {
		t.Fatalf("bob join: %v", err)
	}
	waitForMembers(t, env.registry, "lobby", 1)

	alice := env.dialWS(t, aliceToken)
	if err := alice.WriteJSON(gin.H{"type": "join", "room": "lobby"}); err != nil {
		t.Fatalf("alice join: %v", err)
	}
	waitForMembers(t, env.registry, "lobby", 2)

	if err := alice.WriteJSON(gin.H{"type": "message", "room": "lobby", "content": "hi"}); err != nil {
		t.Fatalf("alice send: %v", err)
	}

	for name, conn := range map[string]*websocket.Conn{"bob": bob, "alice": alice} {
		ev := readEvent(t, conn)
		if ev.Type != chat.EventMessage || ev.Room != "lobby" || ev.Author != "scen_alice" || ev.Content != "hi" {
			t.Fatalf("%s got unexpected event: %+v", name, ev)
		}
	}

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/rooms/lobby/messages", nil)
	req.Header.Set("Authorization", "Bearer "+bobToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history: status %d", resp.StatusCode)
	}
	var env2 envelope
	if err := json.NewDecoder(resp.Body).Decode(&env2); err != nil {
		t.Fatalf("history decode: %v", err)
	}
	var data struct {
		Messages []chat.Message `json:"messages"`
	}
	if err := json.Unmarshal(env2.Data, &data); err != nil {
		t.Fatalf("history data: %v", err)
	}
	found := false
	for _, m := range data.Messages {
		if m.Author == "scen_alice" && m.Content == "hi" {
			found = true
		}
	}
	if !found {
		t.Fatalf("history missing the broadcast message: %+v", data.Messages)
	}
}

func TestUnauthenticatedSocketIsRejected(t *testing.T) {
	env := newTestEnv(t)

	conn := env.dialWS(t, "")
	if err := conn.WriteJSON(gin.H{"type": "message", "room": "lobby", "content": "hi"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	ev := readEvent(t, conn)
	if ev.Type != chat.EventError || ev.Error == "" {
		t.Fatalf("expected error event, got %+v", ev)
	}
}

func TestAuthFrameUpgradesSession(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "late_auth", "pw12345")

	conn := env.dialWS(t, "")
	if err := conn.WriteJSON(gin.H{"type": "auth", "token": token}); err != nil {
		t.Fatalf("auth frame: %v", err)
	}
	if err := conn.WriteJSON(gin.H{"type": "join", "room": fmt.Sprintf("late-%d", time.Now().UnixNano())}); err != nil {
		t.Fatalf("join: %v", err)
	}

	// No error event should arrive; give the server a moment and probe.
	_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var ev chat.Event
	if err := conn.ReadJSON(&ev); err == nil && ev.Type == chat.EventError {
		t.Fatalf("join after auth frame rejected: %+v", ev)
	}
}

func TestExpiredHandshakeTokenClosesConnection(t *testing.T) {
	env := newTestEnv(t)

	expired := auth.NewTokenService(mustKey(t), -time.Minute)
	// Token signed by a different key: handshake must fail either way.
	token, err := expired.Issue(1, "stale")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	conn := env.dialWS(t, token)
	ev := readEvent(t, conn)
	if ev.Type != chat.EventError {
		t.Fatalf("expected error event, got %+v", ev)
	}
}

func mustKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	k, err := auth.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return k
}
