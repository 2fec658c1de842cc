// Package http provides the Gin HTTP server hosting the consent, audit log,
// and retention trigger APIs.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditHTTP "github.com/scenespin/voiceconsent/internal/audit/http"
	consentHTTP "github.com/scenespin/voiceconsent/internal/consent/http"
	retentionHTTP "github.com/scenespin/voiceconsent/internal/retention/http"
)

// Handlers groups the per-module HTTP handlers mounted on the server.
type Handlers struct {
	Consent   *consentHTTP.ConsentHandler
	AuditLog  *auditHTTP.AuditLogHandler
	Retention *retentionHTTP.RetentionHandler
}

// Options carries the cross-cutting router configuration.
type Options struct {
	// CORSEnabled indicates whether the CORS middleware is applied.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins.
	CORSAllowOrigins string
	// TriggerToken gates the retention trigger endpoint; empty disables the gate.
	TriggerToken string
	// MetricsMiddleware records per-request HTTP metrics when non-nil.
	MetricsMiddleware gin.HandlerFunc
}

// Server represents the HTTP server.
type Server struct {
	db     *sql.DB
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new HTTP server. The database handle is used only by
// the readiness probe; a nil handle reports not ready.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the gin router with all middleware and routes. It must be
// called before Start; tests may instead assign a prepared router directly.
func (s *Server) SetupRouter(handlers Handlers, opts Options) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(opts.CORSEnabled, opts.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if opts.MetricsMiddleware != nil {
		router.Use(opts.MetricsMiddleware)
	}

	// Health and readiness endpoints
	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	if handlers.Consent != nil {
		v1.POST("/consents", handlers.Consent.CreateHandler)
		v1.GET("/consents/:id", handlers.Consent.GetHandler)
	}

	if handlers.AuditLog != nil {
		v1.GET("/audit-logs", handlers.AuditLog.ListHandler)
		v1.GET("/consents/:id/audit-logs", handlers.AuditLog.ListByConsentHandler)
	}

	if handlers.Retention != nil {
		trigger := v1.Group("/retention")
		trigger.Use(TriggerTokenMiddleware(opts.TriggerToken, s.logger))
		trigger.POST("/run", handlers.Retention.TriggerHandler)
	}

	s.router = router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic, checking each
// dependent component.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	ready := true

	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			components["database"] = "error"
			ready = false
		} else {
			components["database"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
