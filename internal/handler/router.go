package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"checkin/internal/auth"
	"checkin/internal/httpmiddleware"
	"checkin/internal/metrics"
)

// NewRouter wires middleware and routes.
func NewRouter(opts Options) *gin.Engine {
	h := newHandler(opts)
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
		h.metrics = opts.Metrics
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	r := gin.New()
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.Recovery(h.logger))
	r.Use(httpmiddleware.AccessLog(h.logger, "/healthz", "/metrics"))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	r.Use(httpmiddleware.SecurityHeaders(opts.HSTS))
	r.Use(httpmiddleware.Metrics(opts.Metrics))

	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))

	// Check-in is never throttled: attendees at a venue share one NAT address.
	limit := httpmiddleware.NewRateLimiter(opts.RateLimitPerMin).GinMiddleware()

	api := r.Group("/api")
	api.POST("/checkin", h.checkIn)
	api.POST("/admin/login", limit, h.login)

	admin := api.Group("/admin", limit, auth.AdminAuth(opts.Issuer, opts.Revoker))
	admin.POST("/logout", h.logout)
	admin.GET("/attendance", h.listAttendance)
	admin.GET("/attendance/:date", h.listAttendanceByDate)
	admin.PUT("/attendance/:id", h.updateStatus)
	admin.GET("/export", h.export)
	admin.POST("/export/archive", h.archiveExport)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Accept", httpmiddleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", httpmiddleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
