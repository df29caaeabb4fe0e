// Command setup creates the schema and resets the admin account.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"checkin/internal/admin"
	"checkin/internal/auth"
	"checkin/internal/config"
	"checkin/internal/logging"
	"checkin/internal/store"
)

func main() {
	cfg := config.Load()

	username := flag.String("username", cfg.AdminUsername, "admin username to reset")
	password := flag.String("password", cfg.AdminPassword, "new admin password")
	skipAdmin := flag.Bool("skip-admin", false, "only run migrations")
	flag.Parse()

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := store.NewDB(ctx, cfg.DatabaseURL, store.PoolOptions{MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer db.Close()

	if err := store.Migrate(ctx, db.Client); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}
	logger.Info("schema up to date")

	if *skipAdmin {
		return
	}

	// No tokens are issued here.
	admins, err := admin.NewService(admin.NewRepository(db.Client), nil, auth.NewMemoryRevoker(), logger, 0)
	if err != nil {
		logger.Fatal("admin service init failed", zap.Error(err))
	}
	if err := admins.ResetAdmin(ctx, *username, *password); err != nil {
		logger.Fatal("admin reset failed", zap.Error(err))
	}
	logger.Info("setup complete", zap.String("admin", *username))
}
