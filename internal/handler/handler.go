// Package handler exposes the check-in and admin HTTP API.
package handler

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"checkin/internal/archive"
	"checkin/internal/attendance"
	"checkin/internal/auth"
	"checkin/internal/metrics"
)

// AttendanceService is implemented by *attendance.Service.
type AttendanceService interface {
	Policy() attendance.Policy
	Today() string
	CheckIn(ctx context.Context, in attendance.CheckInInput) (attendance.CheckInResult, error)
	List(ctx context.Context) (attendance.Listing, error)
	ListByDate(ctx context.Context, date string) (attendance.Listing, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// AdminService is implemented by *admin.Service.
type AdminService interface {
	Login(ctx context.Context, username, password string) (auth.Token, error)
	Logout(ctx context.Context, claims auth.Claims) error
}

// Archiver is implemented by *archive.Store.
type Archiver interface {
	PutCSV(ctx context.Context, data []byte) (archive.Object, error)
}

// HealthChecker reports whether a dependency answers.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// Options carries everything the router needs. Archive and Redis may be nil.
type Options struct {
	Attendance AttendanceService
	Admin      AdminService
	Issuer     *auth.Issuer
	Revoker    auth.Revoker
	Archive    Archiver
	DB         HealthChecker
	Redis      HealthChecker

	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger

	CORSOrigins     []string
	RateLimitPerMin int
	HSTS            bool
}

// Handler serves the API routes.
type Handler struct {
	attendance AttendanceService
	admin      AdminService
	archive    Archiver
	db         HealthChecker
	redis      HealthChecker
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func newHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		attendance: opts.Attendance,
		admin:      opts.Admin,
		archive:    opts.Archive,
		db:         opts.DB,
		redis:      opts.Redis,
		metrics:    opts.Metrics,
		logger:     logger,
	}
}
