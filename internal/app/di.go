// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	auditHTTP "github.com/keepsakevault/keepsake/internal/audit/http"
	auditService "github.com/keepsakevault/keepsake/internal/audit/service"
	auditUseCase "github.com/keepsakevault/keepsake/internal/audit/usecase"
	"github.com/keepsakevault/keepsake/internal/config"
	cryptoService "github.com/keepsakevault/keepsake/internal/crypto/service"
	"github.com/keepsakevault/keepsake/internal/database"
	"github.com/keepsakevault/keepsake/internal/http"
	"github.com/keepsakevault/keepsake/internal/metrics"
	outboxUseCase "github.com/keepsakevault/keepsake/internal/outbox/usecase"
	recoveryHTTP "github.com/keepsakevault/keepsake/internal/recovery/http"
	recoveryService "github.com/keepsakevault/keepsake/internal/recovery/service"
	recoveryUseCase "github.com/keepsakevault/keepsake/internal/recovery/usecase"
	userHTTP "github.com/keepsakevault/keepsake/internal/user/http"
	userService "github.com/keepsakevault/keepsake/internal/user/service"
	userUseCase "github.com/keepsakevault/keepsake/internal/user/usecase"
	vaultHTTP "github.com/keepsakevault/keepsake/internal/vault/http"
	vaultUseCase "github.com/keepsakevault/keepsake/internal/vault/usecase"
)

// Container holds all application dependencies and provides methods to access
// them. Components are created lazily on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Managers
	txManager database.TxManager

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Crypto services
	keyDeriver        cryptoService.KeyDeriver
	aeadManager       cryptoService.AEADManager
	contentKeyManager cryptoService.ContentKeyManager
	serviceKeyService cryptoService.ServiceKeyService

	// Audit
	auditRepo    auditUseCase.AuditRecordRepository
	recordSigner auditService.RecordSigner
	auditUC      auditUseCase.AuditUseCase

	// User
	userRepo      userUseCase.UserRepository
	sessionStore  userService.SessionStore
	tokenService  userService.TokenService
	userUC        userUseCase.UserUseCase
	sessionUC     userUseCase.SessionUseCase

	// Vault
	itemRepo    vaultUseCase.VaultItemRepository
	versionRepo vaultUseCase.ItemVersionRepository
	vaultUC     vaultUseCase.VaultItemUseCase

	// Recovery
	planRepo        recoveryUseCase.RecoveryPlanRepository
	trusteeRepo     recoveryUseCase.TrusteeRepository
	beneficiaryRepo recoveryUseCase.BeneficiaryRepository
	coveredItemRepo recoveryUseCase.CoveredItemRepository
	secretSharer    recoveryService.SecretSharer
	shareSealer     recoveryService.ShareSealer
	recoveryUC      recoveryUseCase.RecoveryPlanUseCase

	// Outbox
	outboxRepo outboxUseCase.OutboxEventRepository
	outboxUC   outboxUseCase.UseCase

	// Handlers
	userHandler    *userHTTP.UserHandler
	sessionHandler *userHTTP.SessionHandler
	itemHandler    *vaultHTTP.ItemHandler
	planHandler    *recoveryHTTP.PlanHandler
	auditHandler   *auditHTTP.AuditRecordHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                    sync.Mutex
	loggerInit            sync.Once
	dbInit                sync.Once
	txManagerInit         sync.Once
	metricsProviderInit   sync.Once
	businessMetricsInit   sync.Once
	keyDeriverInit        sync.Once
	aeadManagerInit       sync.Once
	contentKeyManagerInit sync.Once
	serviceKeyInit        sync.Once
	auditRepoInit         sync.Once
	recordSignerInit      sync.Once
	auditUCInit           sync.Once
	userRepoInit          sync.Once
	sessionStoreInit      sync.Once
	tokenServiceInit      sync.Once
	userUCInit            sync.Once
	sessionUCInit         sync.Once
	itemRepoInit          sync.Once
	versionRepoInit       sync.Once
	vaultUCInit           sync.Once
	planRepoInit          sync.Once
	trusteeRepoInit       sync.Once
	beneficiaryRepoInit   sync.Once
	coveredItemRepoInit   sync.Once
	secretSharerInit      sync.Once
	shareSealerInit       sync.Once
	recoveryUCInit        sync.Once
	outboxRepoInit        sync.Once
	outboxUCInit          sync.Once
	userHandlerInit       sync.Once
	sessionHandlerInit    sync.Once
	itemHandlerInit       sync.Once
	planHandlerInit       sync.Once
	auditHandlerInit      sync.Once
	httpServerInit        sync.Once
	metricsServerInit     sync.Once
	initErrors            map[string]error
}

// NewContainer creates a new dependency injection container with the provided
// configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := c.initDB()
		if err != nil {
			c.initErrors["db"] = err
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the OpenTelemetry metrics provider, or nil when
// metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder is
// returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = bm
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the API HTTP server with the router fully assembled.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		server, err := c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = server
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus metrics server, or nil when metrics
// are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initHTTPServer creates the HTTP server and assembles its router.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	userHandler, err := c.UserHandler()
	if err != nil {
		return nil, err
	}
	sessionHandler, err := c.SessionHandler()
	if err != nil {
		return nil, err
	}
	itemHandler, err := c.ItemHandler()
	if err != nil {
		return nil, err
	}
	planHandler, err := c.PlanHandler()
	if err != nil {
		return nil, err
	}
	auditHandler, err := c.AuditHandler()
	if err != nil {
		return nil, err
	}
	sessionUC, err := c.SessionUseCase()
	if err != nil {
		return nil, err
	}

	routerCfg := http.RouterConfig{
		UserHandler:          userHandler,
		SessionHandler:       sessionHandler,
		ItemHandler:          itemHandler,
		PlanHandler:          planHandler,
		AuditHandler:         auditHandler,
		SessionMiddleware:    userHTTP.SessionMiddleware(sessionUC, logger),
		RequireUnlockedVault: userHTTP.RequireUnlockedVault(logger),
		CORSEnabled:          c.config.CORSEnabled,
		CORSAllowOrigins:     c.config.CORSAllowOrigins,
	}

	if c.config.RateLimitLoginEnabled {
		routerCfg.LoginRateLimit = userHTTP.LoginRateLimitMiddleware(
			c.config.RateLimitLoginRequestsPerSec,
			c.config.RateLimitLoginBurst,
			logger,
		)
	}

	if c.config.RateLimitEnabled {
		routerCfg.SessionRateLimit = userHTTP.SessionRateLimitMiddleware(
			c.config.RateLimitRequestsPerSec,
			c.config.RateLimitBurst,
			logger,
		)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider != nil {
		routerCfg.MetricsMiddleware = metrics.HTTPMetricsMiddleware(
			provider.MeterProvider(),
			c.config.MetricsNamespace,
		)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(routerCfg)

	return server, nil
}
