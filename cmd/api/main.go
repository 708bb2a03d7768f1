package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"outreach_backend/internal/accounts"
	"outreach_backend/internal/activity"
	"outreach_backend/internal/campaigns"
	"outreach_backend/internal/events"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/internal/http/router"
	"outreach_backend/internal/leads"
	"outreach_backend/internal/provider"
	"outreach_backend/internal/webhook"
	"outreach_backend/platform/config"
	"outreach_backend/platform/db"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting api server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	providerClient := provider.NewClient(cfg, log)
	activities := activity.NewRepository(pool)

	accountsModule := accounts.NewModule(pool, log)
	campaignsModule := campaigns.NewModule(pool, val, log)
	leadsModule := leads.NewModule(pool, activities, eventBus, log)
	webhookModule := webhook.NewModule(
		pool,
		leadsModule.Repository(),
		leadsModule.Service(),
		accountsModule.Repository(),
		eventBus,
		cfg,
		log,
	)

	// Register our callback URLs with the provider. Best effort: webhooks
	// are the fast path and the scheduler's polling covers gaps.
	registrar := webhook.NewRegistrar(providerClient, cfg, log)
	if err := registrar.EnsureRegistered(ctx); err != nil {
		log.Warn("webhook registration failed", "error", err)
	}

	engine := router.New(router.Config{
		Env:  cfg.Env,
		HTTP: cfg,
		Log:  log,
		Modules: []apphttp.Module{
			accountsModule,
			campaignsModule,
			leadsModule,
			webhookModule,
		},
	})

	server := apphttp.NewServer(cfg, engine, log)
	if err := server.Start(ctx); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}

	eventBus.Wait()
	log.Info("api server shut down")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
