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
	"outreach_backend/internal/outreach/ratelimit"
	"outreach_backend/internal/outreach/scheduler"
	"outreach_backend/internal/provider"
	"outreach_backend/platform/config"
	"outreach_backend/platform/db"
	"outreach_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	providerClient := provider.NewClient(cfg, log)
	activities := activity.NewRepository(pool)
	leadsRepo := leads.NewRepository(pool)
	leadsSvc := leads.NewService(pool, leadsRepo, activities, eventBus, log)
	campRepo := campaigns.NewRepository(pool)
	acctRepo := accounts.NewRepository(pool)
	limiter := ratelimit.New(pool, cfg.MaxInvitesPerDay, cfg.MaxMessagesPerDay)

	processor := scheduler.NewProcessor(
		pool, leadsRepo, leadsSvc, campRepo, acctRepo,
		activities, limiter, providerClient, eventBus, cfg, log,
	)

	checker := scheduler.NewConnectionChecker(acctRepo, leadsRepo, leadsSvc, providerClient, log)
	nightly := scheduler.NewNightly(leadsRepo, campRepo, acctRepo, activities, limiter, providerClient, log)

	loop := scheduler.New(processor, leadsRepo, checker, nightly, cfg, log)
	loop.Start(ctx)
	defer loop.Stop()

	// Admin surface on its own port: manual start/stop/status and per-lead
	// triggers for operators.
	adminCfg := *cfg
	adminCfg.HTTPAddr = cfg.SchedulerHTTPAddr
	engine := router.New(router.Config{
		Env:  cfg.Env,
		HTTP: &adminCfg,
		Log:  log,
		Modules: []apphttp.Module{
			scheduler.NewAdminModule(ctx, loop, processor, log),
		},
	})
	go func() {
		if err := apphttp.NewServer(&adminCfg, engine, log).Start(ctx); err != nil {
			log.Error("admin server stopped", "error", err)
		}
	}()

	// The queue worker is optional: without Redis the poll loop alone
	// drives automation, webhook transitions just wait for the next tick.
	if cfg.RedisURL != "" {
		client, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to create queue client", "error", err)
			panic("failed to create queue client: " + err.Error())
		}
		defer client.Close()
		scheduler.RegisterHandlers(eventBus, client, log)

		worker, err := scheduler.NewWorker(cfg, processor, log)
		if err != nil {
			log.Error("failed to create queue worker", "error", err)
			panic("failed to create queue worker: " + err.Error())
		}
		worker.Run(ctx)
	} else {
		log.Info("redis url not set, running poll loop only")
		<-ctx.Done()
	}

	eventBus.Wait()
	log.Info("scheduler shut down")
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
