package chat

import (
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/gamerhubx/chat-platform/internal/auth"
)

// sendBuffer is the outbound queue depth per session. A receiver that
// falls this far behind starts losing broadcasts rather than stalling
// the senders.
const sendBuffer = 256

// Session is the server-side state of one live client connection. It is
// created unauthenticated; identity is set once, after a verified token
// or a successful login, and never changes again. Room membership and
// the closed flag are owned by the Registry and guarded by its lock.
type Session struct {
	ID string

	mu       sync.Mutex
	identity auth.Identity
	authed   bool

	send chan Event

	// guarded by Registry.mu
	rooms  map[string]struct{}
	closed bool
}

func NewSession() *Session {
	return &Session{
		ID:    ulid.Make().String(),
		send:  make(chan Event, sendBuffer),
		rooms: make(map[string]struct{}),
	}
}

// Events is the session's outbound queue. A writer loop per connection
// drains it to the transport; the channel is closed when the session is
// removed from the registry.
func (s *Session) Events() <-chan Event {
	return s.send
}

func (s *Session) Identity() (auth.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.authed
}

// authenticate records the identity. The transition is one-way; repeat
// calls keep the first identity.
func (s *Session) authenticate(id auth.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.authed {
		return
	}
	s.identity = id
	s.authed = true
}
