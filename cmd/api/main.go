package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"checkin/internal/admin"
	"checkin/internal/archive"
	"checkin/internal/attendance"
	"checkin/internal/auth"
	"checkin/internal/config"
	"checkin/internal/handler"
	"checkin/internal/logging"
	"checkin/internal/metrics"
	"checkin/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Path:       cfg.LogPath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, logger *zap.Logger) error {
	ctx := context.Background()

	db, err := store.NewDB(ctx, cfg.DatabaseURL, store.PoolOptions{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer db.Close()

	if err := store.Migrate(ctx, db.Client); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	var (
		redisClient *store.Redis
		revoker     auth.Revoker
	)
	if cfg.SessionBackend == "memory" {
		revoker = auth.NewMemoryRevoker()
		logger.Warn("session revocation list is process-local (SESSION_BACKEND=memory)")
	} else {
		redisClient = store.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
		defer redisClient.Close()
		if !redisClient.Healthy(ctx) {
			logger.Warn("redis not reachable at startup", zap.String("addr", cfg.RedisAddr))
		}
		revoker = auth.NewRedisRevoker(redisClient.Client, "")
	}

	issuer := auth.NewIssuer(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.AdminTokenTTL)
	admins, err := admin.NewService(admin.NewRepository(db.Client), issuer, revoker, logger, 0)
	if err != nil {
		return err
	}
	if _, err := admins.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Fatal("admin seed failed", zap.Error(err))
	}

	policy := attendance.Policy(cfg.CheckinPolicy)
	att := attendance.NewService(attendance.NewRepository(db.Client, policy), attendance.Options{
		Policy:             policy,
		RegistrationPrefix: cfg.RegistrationPrefix,
		Location:           cfg.Location(),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := handler.Options{
		Attendance:      att,
		Admin:           admins,
		Issuer:          issuer,
		Revoker:         revoker,
		DB:              db,
		Metrics:         metrics.New(reg),
		Gatherer:        reg,
		Logger:          logger,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		HSTS:            cfg.IsProduction(),
	}
	if redisClient != nil {
		opts.Redis = redisClient
	}

	// Archive client (nil when not configured)
	arc, err := archive.New(ctx, archive.Options{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	})
	switch {
	case err != nil:
		logger.Warn("archive storage disabled", zap.Error(err))
	case arc != nil:
		opts.Archive = arc
		logger.Info("archive storage configured", zap.String("bucket", cfg.S3Bucket))
	default:
		logger.Info("archive storage not configured (S3_BUCKET not set)")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      handler.NewRouter(opts),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.HTTPPort),
			zap.String("policy", cfg.CheckinPolicy),
			zap.String("timezone", cfg.EventTimezone),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
	return nil
}
