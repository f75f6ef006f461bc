package chat

import "sync"

// Registry is the process-local map of room name to member sessions.
// Rooms exist implicitly: joining an unknown name creates it, and the
// entry is pruned when the last member leaves. A session's own room set
// is mutated under the same lock, so registry and session state can
// never disagree.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[*Session]struct{}
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[*Session]struct{})}
}

// Join adds the session to the room. Joining twice is a no-op.
func (r *Registry) Join(room string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.closed {
		return
	}
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[*Session]struct{})
		r.rooms[room] = members
	}
	members[s] = struct{}{}
	s.rooms[room] = struct{}{}
}

// Leave removes the session from the room. Leaving a room the session
// is not in is a no-op, not an error.
func (r *Registry) Leave(room string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(room, s)
}

func (r *Registry) leaveLocked(room string, s *Session) {
	if members, ok := r.rooms[room]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	delete(s.rooms, room)
}

// RemoveSession takes the session out of every room it belongs to,
// marks it closed, and closes its outbound channel. Safe to call more
// than once and concurrently with an in-flight fan-out: deliver checks
// the closed flag under the same lock before sending.
func (r *Registry) RemoveSession(s *Session) {
	r.mu.Lock()
	if s.closed {
		r.mu.Unlock()
		return
	}
	for room := range s.rooms {
		r.leaveLocked(room, s)
	}
	s.closed = true
	r.mu.Unlock()

	// Close after releasing the lock; deliver can no longer reach the
	// channel once closed is set.
	close(s.send)
}

// InRoom reports whether the session is currently joined to room.
func (r *Registry) InRoom(room string, s *Session) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := s.rooms[room]
	return ok
}

// MembersOf returns a snapshot of the room's members. The snapshot is
// consistent with respect to concurrent joins and leaves; sessions
// removed after it is taken simply drop the in-flight delivery.
func (r *Registry) MembersOf(room string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.rooms[room]
	out := make([]*Session, 0, len(members))
	for s := range members {
		out = append(out, s)
	}
	return out
}

// RoomsOf returns the names of the rooms the session is joined to.
func (r *Registry) RoomsOf(s *Session) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(s.rooms))
	for room := range s.rooms {
		out = append(out, room)
	}
	return out
}

// deliver queues the event on the session's outbound channel without
// blocking. It reports false when the session is gone or its buffer is
// full; either way the caller moves on to the next member.
func (r *Registry) deliver(s *Session, ev Event) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- ev:
		return true
	default:
		return false
	}
}
