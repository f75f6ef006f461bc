package user

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/gamerhubx/chat-platform/internal/auth"
)

var (
	ErrDuplicateUsername = errors.New("username already taken")
	ErrNotFound          = errors.New("user not found")
	ErrWrongPassword     = errors.New("wrong password")
	ErrStoreUnavailable  = errors.New("user store unavailable")
)

type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(100);not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

// Store persists user credentials. Passwords are bcrypt-hashed before
// they touch the database; the stored hash is never returned to callers.
type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewStore(db *gorm.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{db: db, timeout: timeout}
}

// Register creates a user with the given username and plaintext password.
// Username uniqueness is enforced by the database; a concurrent register
// for the same name loses with ErrDuplicateUsername.
func (s *Store) Register(ctx context.Context, username, password string) (*User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	u := &User{Username: username, PasswordHash: hash}
	if err := s.db.WithContext(cctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, storeErr(err)
	}
	return u, nil
}

// Verify checks username/password against the stored hash.
func (s *Store) Verify(ctx context.Context, username, password string) (*User, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var u User
	if err := s.db.WithContext(cctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeErr(err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrWrongPassword
	}
	return &u, nil
}

func storeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrStoreUnavailable
	}
	return err
}
