package db

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/gamerhubx/chat-platform/internal/chat"
	"github.com/gamerhubx/chat-platform/internal/user"
)

// Connect opens the MySQL database and migrates the users and messages
// tables. TranslateError is required so duplicate-key violations surface
// as gorm.ErrDuplicatedKey.
func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	if err := gdb.AutoMigrate(&user.User{}, &chat.Message{}); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	return gdb
}
