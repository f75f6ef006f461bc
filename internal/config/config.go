package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr  string
	DBDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Empty RabbitURL disables the message event feed.
	RabbitURL   string
	RabbitQueue string

	// PEM-encoded Ed25519 private key. Empty means generate an
	// ephemeral key pair at startup.
	TokenPrivateKeyPEM string
	TokenTTL           time.Duration

	StoreTimeout time.Duration
}

func Load() Config {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":4000"
	}

	// DSN demo:
	// app:apppass@tcp(127.0.0.1:3306)/gamerhub?charset=utf8mb4&parseTime=true&loc=Local
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "app:apppass@tcp(127.0.0.1:3306)/gamerhub?charset=utf8mb4&parseTime=true&loc=Local"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	rabbitQueue := os.Getenv("RABBIT_QUEUE")
	if rabbitQueue == "" {
		rabbitQueue = "chat_events"
	}

	tokenTTL := 24 * time.Hour
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			tokenTTL = d
		}
	}

	storeTimeout := 5 * time.Second
	if v := os.Getenv("STORE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			storeTimeout = d
		}
	}

	return Config{
		Addr:  addr,
		DBDSN: dsn,

		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		RabbitURL:   os.Getenv("RABBIT_URL"),
		RabbitQueue: rabbitQueue,

		TokenPrivateKeyPEM: os.Getenv("TOKEN_PRIVATE_KEY"),
		TokenTTL:           tokenTTL,

		StoreTimeout: storeTimeout,
	}
}
