package main

import (
	"context"
	"crypto/ed25519"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gamerhubx/chat-platform/internal/auth"
	"github.com/gamerhubx/chat-platform/internal/chat"
	"github.com/gamerhubx/chat-platform/internal/config"
	"github.com/gamerhubx/chat-platform/internal/db"
	"github.com/gamerhubx/chat-platform/internal/httpapi"
	"github.com/gamerhubx/chat-platform/internal/store/rabbitmq"
	"github.com/gamerhubx/chat-platform/internal/store/redisstore"
	"github.com/gamerhubx/chat-platform/internal/user"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

	priv, err := loadOrGenerateKey(cfg)
	if err != nil {
		log.Fatalf("token key: %v", err)
	}
	tokens := auth.NewTokenService(priv, cfg.TokenTTL)

	users := user.NewStore(gdb, cfg.StoreTimeout)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	var history chat.HistoryStore = chat.NewGormHistory(gdb, cfg.StoreTimeout)
	history = redisstore.NewCachedHistory(history, rdb, 30*time.Second)

	var events chat.EventPublisher
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Fatalf("rabbit connect: %v", err)
		}
		defer pub.Close()
		events = pub
	}

	engine := chat.NewEngine(chat.NewRegistry(), history, events)

	router := httpapi.NewRouter(cfg, users, tokens, engine)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	go func() {
		log.Printf("server listening addr=%s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// loadOrGenerateKey prefers the configured PEM key so tokens survive
// restarts; without one, an ephemeral key pair is generated and
// outstanding tokens die with the process.
func loadOrGenerateKey(cfg config.Config) (ed25519.PrivateKey, error) {
	if cfg.TokenPrivateKeyPEM != "" {
		return auth.ParsePrivateKeyPEM(cfg.TokenPrivateKeyPEM)
	}
	log.Printf("TOKEN_PRIVATE_KEY not set, generating ephemeral signing key")
	return auth.GenerateKey()
}
