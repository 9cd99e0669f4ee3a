// Package http provides the HTTP server, router assembly and middleware.
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

	auditHTTP "github.com/keepsakevault/keepsake/internal/audit/http"
	recoveryHTTP "github.com/keepsakevault/keepsake/internal/recovery/http"
	userHTTP "github.com/keepsakevault/keepsake/internal/user/http"
	vaultHTTP "github.com/keepsakevault/keepsake/internal/vault/http"
)

// Server represents the API HTTP server.
type Server struct {
	db     *sql.DB
	host   string
	port   int
	logger *slog.Logger
	router *gin.Engine
	server *http.Server
}

// NewServer creates a new HTTP server. The router is assembled separately via
// SetupRouter before Start is called.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		host:   host,
		port:   port,
		logger: logger,
	}
}

// RouterConfig carries the handlers and middleware the router is built from.
// Nil middleware entries disable the corresponding feature.
type RouterConfig struct {
	UserHandler    *userHTTP.UserHandler
	SessionHandler *userHTTP.SessionHandler
	ItemHandler    *vaultHTTP.ItemHandler
	PlanHandler    *recoveryHTTP.PlanHandler
	AuditHandler   *auditHTTP.AuditRecordHandler

	// SessionMiddleware authenticates the bearer token and stores the
	// session in the request context.
	SessionMiddleware gin.HandlerFunc
	// RequireUnlockedVault rejects content routes while the vault is locked.
	RequireUnlockedVault gin.HandlerFunc
	// LoginRateLimit throttles the credential endpoints per client IP.
	LoginRateLimit gin.HandlerFunc
	// SessionRateLimit throttles authenticated endpoints per user.
	SessionRateLimit gin.HandlerFunc
	// MetricsMiddleware records HTTP request metrics.
	MetricsMiddleware gin.HandlerFunc

	CORSEnabled      bool
	CORSAllowOrigins string
}

// SetupRouter assembles the Gin router with all routes and middleware.
//
// Route groups:
//   - Open: registration, login, passphrase checks, health/readiness.
//   - Trustee/beneficiary: approvals, trigger and complete. No session; the
//     trustee key material in the request body is the authenticator.
//   - Session: account, session state, item listing, plan management, audit.
//   - Unlocked vault: item content routes and plan readiness, which need the
//     vault master key from the session.
func (s *Server) SetupRouter(cfg RouterConfig) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if cfg.MetricsMiddleware != nil {
		router.Use(cfg.MetricsMiddleware)
	}

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	// Open endpoints.
	v1.POST("/users", cfg.UserHandler.RegisterHandler)

	credentials := v1.Group("")
	if cfg.LoginRateLimit != nil {
		credentials.Use(cfg.LoginRateLimit)
	}
	credentials.POST("/sessions", cfg.SessionHandler.LoginHandler)
	credentials.POST("/passphrase-checks", cfg.SessionHandler.CheckPassphraseHandler)

	// Trustee and beneficiary endpoints. The quorum machinery authenticates
	// these: every mutation proves possession of a granted trustee key.
	v1.POST("/plans/:id/approvals", cfg.PlanHandler.ApproveHandler)
	v1.DELETE("/plans/:id/approvals/:index", cfg.PlanHandler.RevokeApprovalHandler)
	v1.POST("/plans/:id/trigger", cfg.PlanHandler.TriggerHandler)
	v1.POST("/plans/:id/complete", cfg.PlanHandler.CompleteHandler)

	// Session-protected endpoints.
	authed := v1.Group("", cfg.SessionMiddleware)
	if cfg.SessionRateLimit != nil {
		authed.Use(cfg.SessionRateLimit)
	}
	authed.GET("/users/me", cfg.UserHandler.MeHandler)
	authed.GET("/sessions/current", cfg.SessionHandler.GetHandler)
	authed.POST("/sessions/current/lock", cfg.SessionHandler.LockHandler)
	authed.DELETE("/sessions/current", cfg.SessionHandler.LogoutHandler)

	// Unlock accepts passphrase guesses, so it shares the credential rate
	// limit even though it also requires a session.
	if cfg.LoginRateLimit != nil {
		authed.POST("/sessions/current/unlock", cfg.LoginRateLimit, cfg.SessionHandler.UnlockHandler)
	} else {
		authed.POST("/sessions/current/unlock", cfg.SessionHandler.UnlockHandler)
	}

	authed.GET("/items", cfg.ItemHandler.ListHandler)

	authed.POST("/plans", cfg.PlanHandler.CreateHandler)
	authed.GET("/plans", cfg.PlanHandler.ListHandler)
	authed.GET("/plans/:id", cfg.PlanHandler.GetHandler)
	authed.POST("/plans/:id/trustees", cfg.PlanHandler.RegisterTrusteeHandler)
	authed.POST("/plans/:id/beneficiaries", cfg.PlanHandler.RegisterBeneficiaryHandler)
	authed.POST("/plans/:id/items", cfg.PlanHandler.CoverItemHandler)
	authed.POST("/plans/:id/cancel", cfg.PlanHandler.CancelHandler)

	authed.GET("/audit-records", cfg.AuditHandler.ListHandler)
	authed.POST("/audit-records/verify", cfg.AuditHandler.VerifyHandler)

	// Content endpoints need the vault master key.
	unlocked := authed.Group("", cfg.RequireUnlockedVault)
	unlocked.POST("/items", cfg.ItemHandler.CreateHandler)
	unlocked.GET("/items/:id", cfg.ItemHandler.GetHandler)
	unlocked.GET("/items/:id/versions/:version", cfg.ItemHandler.GetVersionHandler)
	unlocked.PUT("/items/:id", cfg.ItemHandler.UpdateHandler)
	unlocked.POST("/plans/:id/ready", cfg.PlanHandler.ReadyHandler)

	s.router = router
}

// GetRouter returns the assembled router for testing purposes.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic, checking the
// database connection.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	status := "ready"
	code := http.StatusOK

	if s.db == nil {
		components["database"] = "error"
		status = "not_ready"
		code = http.StatusServiceUnavailable
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.PingContext(ctx); err != nil {
			components["database"] = "error"
			status = "not_ready"
			code = http.StatusServiceUnavailable
		} else {
			components["database"] = "ok"
		}
	}

	c.JSON(code, gin.H{"status": status, "components": components})
}

// Start starts the HTTP server. SetupRouter must have been called first.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router is not configured")
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
