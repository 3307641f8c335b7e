package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/lockholes/internal/backup"
	"github.com/dukerupert/lockholes/internal/database"
	"github.com/dukerupert/lockholes/internal/logging"
	"github.com/dukerupert/lockholes/internal/server"
	"github.com/dukerupert/lockholes/internal/store"
	"github.com/dukerupert/lockholes/internal/vault"
)

func main() {
	logger := logging.Setup(os.Getenv("LOCKHOLES_LOG_LEVEL"), os.Getenv("LOCKHOLES_LOG_FORMAT"))

	port := os.Getenv("LOCKHOLES_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("LOCKHOLES_DB_PATH")
	if dbPath == "" {
		dbPath = "lockholes.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	manager, err := vault.NewManager(store.NewVaultStore(db), logger.With("component", "vault"))
	if err != nil {
		logger.Error("failed to load vault", "error", err)
		os.Exit(1)
	}

	backupCfg := backup.S3Config{
		Endpoint:  os.Getenv("LOCKHOLES_S3_ENDPOINT"),
		Bucket:    os.Getenv("LOCKHOLES_S3_BUCKET"),
		Region:    os.Getenv("LOCKHOLES_S3_REGION"),
		AccessKey: os.Getenv("LOCKHOLES_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("LOCKHOLES_S3_SECRET_KEY"),
		Prefix:    os.Getenv("LOCKHOLES_S3_PREFIX"),
	}

	srv := server.New(db, manager, backupCfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv.BackupManager().Start(ctx)
	defer srv.BackupManager().Stop()

	// Hourly cleanup of expired sessions and stale rate-limit entries.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Warn("session cleanup", "error", err)
				} else if n > 0 {
					logger.Debug("expired sessions removed", "count", n)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("lockholes running", "addr", "http://localhost:"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
