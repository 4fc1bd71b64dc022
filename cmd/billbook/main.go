package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"billbook/internal/access"
	"billbook/internal/amqp"
	"billbook/internal/backend"
	"billbook/internal/cache"
	"billbook/internal/cli"
	"billbook/internal/config"
	apphttp "billbook/internal/http"
	"billbook/internal/log"
	"billbook/internal/scheduler"
	"billbook/internal/services"
)

// sessionCleanupSchedule drops expired author sessions from the memo.
const sessionCleanupSchedule = "@every 10m"

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)
	dates := cli.Dates(cfg)

	backendCfg, err := backend.FromAppConfig(cfg, dates)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldBackend, cfg.DataBackend, log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	}()

	sched := scheduler.New(logger)
	gate := newAuthorizer(cfg, result, sched, logger)

	var publisher services.EventPublisher
	if client := newPublisher(cfg, logger); client != nil {
		defer client.Close()
		publisher = client
	}

	transactions := services.NewTransactionService(gate, result.Store, publisher, dates, logger)
	dashboard := services.NewDashboardService(transactions, dates, logger)

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	}, transactions, dashboard, gate, logger)
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	sched.Start()
	ctx, done := cli.GracefulShutdown(logger, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		sched.Stop()
	})

	logger.Info("Starting billbook server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"session_cache", cfg.SessionCacheEnabled,
		"events", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// newAuthorizer memoizes valid keys when the session cache is enabled and
// schedules cleanup of expired sessions.
func newAuthorizer(cfg *config.Config, result *backend.BackendResult, sched *scheduler.Scheduler, logger *log.Logger) access.Authorizer {
	gate := access.NewGate(result.Store, logger)
	if !cfg.SessionCacheEnabled {
		return gate
	}

	sessions := cache.NewLRUCache[struct{}](cfg.SessionCacheSize, cfg.SessionTTL)
	manager := cache.NewManager(logger)
	manager.Register(sessions)
	if err := sched.AddJob(sessionCleanupSchedule, manager); err != nil {
		logger.Warn("Session cleanup not scheduled", log.FieldJob, manager.Name(), log.FieldError, err)
	}
	return access.NewSessionGate(gate, sessions, logger)
}

// newPublisher connects to the broker when configured. A broker that is
// down at start-up disables events instead of failing the server.
func newPublisher(cfg *config.Config, logger *log.Logger) *amqp.Client {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP_URL not set, transaction events disabled")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Warn("AMQP unavailable, transaction events disabled", log.FieldError, err)
		return nil
	}
	logger.Info("AMQP publisher connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}
