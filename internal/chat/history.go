package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var ErrStoreUnavailable = errors.New("history store unavailable")

// DefaultHistoryLimit caps Recent when the caller passes no limit.
const DefaultHistoryLimit = 50

// HistoryStore is the durable append-only log of room messages.
type HistoryStore interface {
	// Append persists a message with a server-assigned timestamp.
	Append(ctx context.Context, room, author, content string) (*Message, error)
	// Recent returns up to limit messages for room, oldest first. An
	// unknown or empty room yields an empty slice, not an error.
	Recent(ctx context.Context, room string, limit int) ([]Message, error)
}

type GormHistory struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewGormHistory(db *gorm.DB, timeout time.Duration) *GormHistory {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GormHistory{db: db, timeout: timeout}
}

func (h *GormHistory) Append(ctx context.Context, room, author, content string) (*Message, error) {
	cctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	m := &Message{
		Room:      room,
		Author:    author,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := h.db.WithContext(cctx).Create(m).Error; err != nil {
		return nil, storeErr(err)
	}
	return m, nil
}

func (h *GormHistory) Recent(ctx context.Context, room string, limit int) ([]Message, error) {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}

	cctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	// Newest rows first, then reversed, so the limit keeps the most
	// recent messages while callers still see them oldest first.
	var desc []Message
	if err := h.db.WithContext(cctx).
		Where("room = ?", room).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&desc).Error; err != nil {
		return nil, storeErr(err)
	}

	msgs := make([]Message, 0, len(desc))
	for i := len(desc) - 1; i >= 0; i-- {
		msgs = append(msgs, desc[i])
	}
	return msgs, nil
}

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
