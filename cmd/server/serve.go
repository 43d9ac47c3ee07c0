package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"formrelay/backend/internal/analytics"
	"formrelay/backend/internal/api"
	"formrelay/backend/internal/auth"
	"formrelay/backend/internal/cache"
	"formrelay/backend/internal/config"
	"formrelay/backend/internal/logging"
	"formrelay/backend/internal/mcp"
	"formrelay/backend/internal/repository"
	"formrelay/backend/internal/services"
	"formrelay/backend/internal/tls"
	"formrelay/backend/internal/webhooks"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	logger.Info("Starting FormRelay service",
		"environment", cfg.Environment,
		"issuer", cfg.Auth.Issuer,
		"auth_bypass", cfg.IsDevelopment() && cfg.Auth.DevBypass,
	)

	// Initialize database connection
	dbPool, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("database initialization failed: %w", err)
	}
	defer dbPool.Close()

	if err := repository.Migrate(dbPool, repository.Up); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	logger.Info("Database connected")

	// Initialize repository layer
	store := repository.NewPostgresStore(dbPool)
	var forms repository.FormStore = store
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, form reads will go to the database", "addr", cfg.Redis.Addr, "error", err)
		}
		forms = cache.NewFormCache(store, client, cfg.Redis.TTL, logger)
		logger.Info("Form cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
	}

	// Initialize service layer
	sender := webhooks.NewSender(&http.Client{Timeout: cfg.Webhooks.Timeout}, cfg.Webhooks.UserAgent)
	dispatcher := webhooks.NewDispatcher(sender, store, logger, webhooks.WithMaxConcurrency(cfg.Webhooks.MaxConcurrency))
	navigation := services.NewNavigationService(forms)
	submissions := services.NewSubmissionService(forms, store, dispatcher, logger)
	admin := services.NewWebhookAdminService(forms, store, dispatcher)
	tracker := analytics.NewTracker(forms, store)

	logger.Info("Service layer initialized")

	// Initialize authentication
	authz, err := auth.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("auth initialization failed: %w", err)
	}

	// Create Echo server
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetOutput(logger.Writer())
	e.HTTPErrorHandler = api.ProblemErrorHandler(logger)

	// Middleware
	e.Use(otelecho.Middleware("formrelay"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				logger.Warn("Request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "error", v.Error)
				return nil
			}
			logger.Info("Request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// Mount REST API handlers; owner-only routes need a bearer token
	apiHandler := api.NewHandler(store, navigation, submissions, admin, tracker, logger)
	api.RegisterHandlers(e, apiHandler, echo.WrapMiddleware(authz.RequireAuth))
	api.RegisterDocs(e, cfg.Auth.Issuer, cfg.Auth.DocsClientID)

	logger.Info("REST API handlers mounted")

	// Mount MCP protocol handlers
	mcpServer := mcp.NewServer(navigation, admin)
	mcpHandlers := http.NewServeMux()
	mcp.MountHTTPHandlers(mcpHandlers, mcpServer.GetMCPServer(), authz.RequireAuth)
	e.Any("/mcp", echo.WrapHandler(mcpHandlers))
	e.Any("/mcp/*", echo.WrapHandler(mcpHandlers))

	logger.Info("MCP protocol handlers mounted")

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	if cfg.TLS.Enable {
		created, err := tls.EnsureCertificate(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.Hostnames)
		if err != nil {
			return fmt.Errorf("prepare TLS certificate: %w", err)
		}
		if created {
			logger.Warn("Generated self-signed certificate", "cert", cfg.TLS.CertFile, "hosts", cfg.TLS.Hostnames)
		}
	}

	// Graceful shutdown handling
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", cfg.Server.Addr, "tls", cfg.TLS.Enable)
		if cfg.TLS.Enable {
			serverErrors <- server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-shutdown.Done():
		logger.Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		if err := server.Close(); err != nil {
			logger.Error("Server close error", "error", err)
		}
	}

	// deliveries started by accepted submissions finish before the pool closes
	if err := submissions.Drain(ctx); err != nil {
		logger.Error("Webhook deliveries still running at shutdown", "error", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}
