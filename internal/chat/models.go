package chat

import "time"

// Message is a durable chat message. Author is the denormalized username
// at send time, not a foreign key; rows are immutable once inserted and
// ordered within a room by created_at with the auto-increment id as
// tie-break.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Room      string    `gorm:"type:varchar(50);index;not null" json:"room"`
	Author    string    `gorm:"type:varchar(50);not null" json:"author"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (Message) TableName() string { return "messages" }

// Event is a frame queued for a session: a room broadcast or a
// per-session error notice.
type Event struct {
	Type      string    `json:"type"`
	Room      string    `json:"room,omitempty"`
	Author    string    `json:"author,omitempty"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	Error     string    `json:"error,omitempty"`
}

const (
	EventMessage = "message"
	EventError   = "error"
)

func eventFromMessage(m *Message) Event {
	return Event{
		Type:      EventMessage,
		Room:      m.Room,
		Author:    m.Author,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
