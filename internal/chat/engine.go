package chat

import (
	"context"
	"errors"
	"log"

	"github.com/gamerhubx/chat-platform/internal/auth"
)

var (
	ErrUnauthorized = errors.New("session not authenticated")
	ErrNotInRoom    = errors.New("session not in room")
)

// EventPublisher receives every persisted message, best-effort, for
// out-of-process consumers. Implemented by the rabbitmq store.
type EventPublisher interface {
	PublishMessage(ctx context.Context, m *Message) error
}

// Engine orchestrates joins, leaves, message sends, and disconnects.
// It is the sole mutator of the registry, which keeps session room sets
// and room member sets in lockstep.
type Engine struct {
	registry *Registry
	history  HistoryStore
	events   EventPublisher
}

// NewEngine wires the engine. events may be nil to disable the feed.
func NewEngine(registry *Registry, history HistoryStore, events EventPublisher) *Engine {
	return &Engine{registry: registry, history: history, events: events}
}

// Connect creates a session for a new connection. The session starts
// unauthenticated and may only attempt authentication until then.
func (e *Engine) Connect() *Session {
	return NewSession()
}

// Authenticate moves the session to its authenticated state. One-way;
// a second call is a no-op.
func (e *Engine) Authenticate(s *Session, id auth.Identity) {
	s.authenticate(id)
}

// Join registers the session in the room. No persisted side effect.
func (e *Engine) Join(s *Session, room string) error {
	if _, ok := s.Identity(); !ok {
		return ErrUnauthorized
	}
	e.registry.Join(room, s)
	return nil
}

// Leave removes the session from the room.
func (e *Engine) Leave(s *Session, room string) error {
	if _, ok := s.Identity(); !ok {
		return ErrUnauthorized
	}
	e.registry.Leave(room, s)
	return nil
}

// SendMessage persists the message and fans it out to every session in
// the room, sender included. The sender must have joined the room
// first. A persistence failure surfaces to the sender only and nothing
// is broadcast; a delivery failure to one member never aborts delivery
// to the rest and never rolls back the append.
func (e *Engine) SendMessage(ctx context.Context, s *Session, room, content string) (*Message, error) {
	id, ok := s.Identity()
	if !ok {
		return nil, ErrUnauthorized
	}
	if !e.registry.InRoom(room, s) {
		return nil, ErrNotInRoom
	}

	// Persist first, without holding the registry lock.
	msg, err := e.history.Append(ctx, room, id.Username, content)
	if err != nil {
		return nil, err
	}

	if e.events != nil {
		if err := e.events.PublishMessage(ctx, msg); err != nil {
			log.Printf("event publish failed room=%s err=%v", room, err)
		}
	}

	ev := eventFromMessage(msg)
	for _, member := range e.registry.MembersOf(room) {
		if !e.registry.deliver(member, ev) {
			log.Printf("dropped delivery room=%s session=%s", room, member.ID)
		}
	}
	return msg, nil
}

// History returns the most recent messages in the room, oldest first.
func (e *Engine) History(ctx context.Context, room string, limit int) ([]Message, error) {
	return e.history.Recent(ctx, room, limit)
}

// Notify queues a per-session event (an error notice, typically)
// outside any room. Best-effort like a broadcast delivery.
func (e *Engine) Notify(s *Session, ev Event) bool {
	return e.registry.deliver(s, ev)
}

// Disconnect releases all of the session's memberships and closes its
// outbound channel. Idempotent; must be called exactly once per
// connection teardown but tolerates more.
func (e *Engine) Disconnect(s *Session) {
	e.registry.RemoveSession(s)
}
