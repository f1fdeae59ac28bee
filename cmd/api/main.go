package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"offerbuilder_backend/internal/attachments"
	"offerbuilder_backend/internal/catalog"
	"offerbuilder_backend/internal/email"
	apphttp "offerbuilder_backend/internal/http"
	"offerbuilder_backend/internal/http/router"
	"offerbuilder_backend/internal/offers"
	"offerbuilder_backend/internal/offers/plugin/catering"
	"offerbuilder_backend/internal/scheduler"
	"offerbuilder_backend/platform/config"
	"offerbuilder_backend/platform/db"
	"offerbuilder_backend/platform/events"
	"offerbuilder_backend/platform/logger"
	"offerbuilder_backend/platform/storage"
	"offerbuilder_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

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

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Redis backs the catalog cache and the expiry scheduler; both degrade
	// gracefully when it is absent.
	rdb := initRedis(cfg, log)
	if rdb != nil {
		defer rdb.Close()
	}

	expiryScheduler, closeScheduler := initExpiryScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	plug := catering.New()
	offersModule := offers.NewModule(pool, plug, eventBus, val, cfg, log)
	if expiryScheduler != nil {
		offersModule.SetExpiryScheduler(expiryScheduler)
	}

	catalogModule := catalog.NewModule(pool, rdb, cfg, log)

	// Wire catalog reader: offers → catalog (suggestions + catalog-sourced items)
	offersModule.SetCatalogReader(catalogModule.Repository())

	modules := []apphttp.Module{
		offersModule,
		catalogModule,
	}

	// Attachments need object storage; without MinIO the API runs without them.
	if cfg.IsMinIOEnabled() {
		store, err := storage.NewMinIO(cfg)
		if err != nil {
			log.Error("failed to initialize storage", "error", err)
			panic("failed to initialize storage: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure attachments bucket", 5, 2*time.Second, func() error {
			return store.EnsureBucket(ctx)
		}); err != nil {
			log.Error("failed to ensure attachments bucket", "error", err)
			panic("failed to ensure attachments bucket: " + err.Error())
		}
		log.Info("storage initialized", "bucket", cfg.GetAttachmentsBucket())

		modules = append(modules, attachments.NewModule(pool, store, offersModule.Repository(), offersModule.Adjustments(), val, log))
	} else {
		log.Warn("MINIO_ENDPOINT not configured; attachments disabled")
	}

	// Email listener subscribes to offer lifecycle events (not HTTP-facing)
	var sender email.Sender = email.Nop{}
	if cfg.GetEmailEnabled() {
		sender = email.NewSMTPSender(cfg)
		log.Info("email sender initialized", "host", cfg.GetSMTPHost())
	} else {
		log.Warn("EMAIL_ENABLED is false; offer emails disabled")
	}
	emailListener := email.NewListener(sender, offersModule.Repository(), offersModule.Service(), cfg.GetEmailFromName(), log)
	emailListener.Register(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules:  modules,
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initRedis(cfg config.CacheConfig, log *logger.Logger) *redis.Client {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		log.Warn("REDIS_URL not configured; catalog cache disabled")
		return nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Error("invalid REDIS_URL; catalog cache disabled", "error", err)
		return nil
	}
	return redis.NewClient(opt)
}

func initExpiryScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; automatic offer expiry disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize expiry scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
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
