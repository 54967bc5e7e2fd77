package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/tuckborough/internal/database"
	"github.com/dukerupert/tuckborough/internal/logging"
	"github.com/dukerupert/tuckborough/internal/notify"
	"github.com/dukerupert/tuckborough/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("TUCKBOROUGH_LOG_LEVEL"))

	port := os.Getenv("TUCKBOROUGH_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("TUCKBOROUGH_DB_PATH")
	if dbPath == "" {
		dbPath = "tuckborough.db"
	}

	secret := os.Getenv("TUCKBOROUGH_JWT_SECRET")
	if secret == "" {
		log.Fatal("TUCKBOROUGH_JWT_SECRET is required")
	}

	repeatPeriod := 12 * time.Hour
	if v := os.Getenv("TUCKBOROUGH_REPEAT_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("invalid TUCKBOROUGH_REPEAT_PERIOD: %v", err)
		}
		repeatPeriod = d
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	cfg := server.Config{
		JWTSecret:    []byte(secret),
		RepeatPeriod: repeatPeriod,
		Push: notify.Config{
			VAPIDPublicKey:  os.Getenv("TUCKBOROUGH_VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: os.Getenv("TUCKBOROUGH_VAPID_PRIVATE_KEY"),
		},
	}
	if cfg.Push.VAPIDPublicKey == "" || cfg.Push.VAPIDPrivateKey == "" {
		pub, priv, err := notify.GenerateVAPIDKeys()
		if err != nil {
			log.Fatalf("failed to generate VAPID keys: %v", err)
		}
		cfg.Push.VAPIDPublicKey = pub
		cfg.Push.VAPIDPrivateKey = priv
		// Fresh keys invalidate existing subscriptions, so tell the
		// operator how to pin this pair.
		logger.Warn("VAPID keys not configured, generated a new pair; set TUCKBOROUGH_VAPID_PUBLIC_KEY and TUCKBOROUGH_VAPID_PRIVATE_KEY to keep push subscriptions across restarts",
			"public_key", pub,
			"private_key", priv,
		)
	}

	srv := server.New(db, cfg, logger)
	srv.Start(context.Background())
	defer srv.Stop()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("tuckborough listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
