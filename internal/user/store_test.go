package user

import (
	"context"
	"errors"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:?cache=shared"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&User{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestRegisterAndVerify(t *testing.T) {
	store := NewStore(openTestDB(t), 5*time.Second)

	u, err := store.Register(context.Background(), "reg_alice", "s3cret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == 0 {
		t.Fatalf("expected assigned user id")
	}
	if u.PasswordHash == "s3cret" {
		t.Fatalf("password stored in plaintext")
	}

	got, err := store.Verify(context.Background(), "reg_alice", "s3cret")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("verify returned user %d, want %d", got.ID, u.ID)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	store := NewStore(openTestDB(t), 5*time.Second)

	if _, err := store.Register(context.Background(), "dup_bob", "pw1"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := store.Register(context.Background(), "dup_bob", "pw2")
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	store := NewStore(openTestDB(t), 5*time.Second)

	if _, err := store.Register(context.Background(), "wp_carol", "right"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := store.Verify(context.Background(), "wp_carol", "wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
}

func TestVerifyUnknownUser(t *testing.T) {
	store := NewStore(openTestDB(t), 5*time.Second)

	if _, err := store.Verify(context.Background(), "nobody_here", "pw"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
