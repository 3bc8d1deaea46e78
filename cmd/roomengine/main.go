package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"lodging/internal/app/engine"
	"lodging/internal/app/middleware"
	appoutbox "lodging/internal/app/outbox"
	"lodging/internal/app/policies"
	"lodging/internal/app/uow"
	"lodging/internal/infra/broker/kafka"
	rediscache "lodging/internal/infra/cache/redis"
	"lodging/internal/infra/config"
	mongodb "lodging/internal/infra/db/mongo"
	"lodging/internal/infra/db/postgres"
	ginserver "lodging/internal/infra/http/gin"
	"lodging/internal/infra/jobs"
	"lodging/internal/infra/obs"
	infraoutbox "lodging/internal/infra/outbox"
	"lodging/internal/infra/storage/memory"
	"lodging/internal/infra/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using fallback configuration", "error", err)
		cfg = config.Defaults()
		cfg.Env = env
		cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	}

	app := &application{checks: map[string]obs.Check{}}
	if err := app.build(ctx, cfg, logger); err != nil {
		logger.Error("application setup failed", "error", err, "storage", cfg.StorageDriver)
		app.close(logger)
		os.Exit(1)
	}

	if cfg.RoomFixtures != "" {
		if err := loadRoomFixtures(ctx, app.factory, cfg.RoomFixtures, logger); err != nil {
			logger.Warn("room fixtures load failed", "error", err, "path", cfg.RoomFixtures)
		}
	}

	app.startBackground(ctx, cfg, logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: app.checks}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		stop()
		app.wait()
		app.close(logger)
		os.Exit(1)
	}
	stop()
	app.wait()
	app.close(logger)
	logger.Info("HTTP server stopped")
}

type application struct {
	factory  uow.UoWFactory
	box      appoutbox.Outbox
	memBox   *memory.Outbox
	source   infraoutbox.Source
	idem     middleware.IdempotencyStore
	cache    policies.AvailabilityCache
	checks   map[string]obs.Check
	closers  []func(context.Context) error
	handlers ginserver.Handlers
	wg       sync.WaitGroup
}

func (a *application) build(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if err := a.openStorage(ctx, cfg, logger); err != nil {
		return err
	}
	a.openCache(ctx, cfg, logger)

	e := engine.New(engine.Dependencies{
		UoWFactory:  a.factory,
		Outbox:      a.box,
		Idempotency: a.idem,
		Cache:       a.cache,
		Validator:   validation.New(),
		Limits: engine.Limits{
			MaxWindowDays:    cfg.MaxWindowDays,
			BulkEditMaxDates: cfg.BulkEditMaxDates,
			BookingMaxNights: cfg.BookingMaxNights,
		},
		Logger: logger,
	})
	a.handlers = ginserver.Handlers{
		Availability: ginserver.AvailabilityHandler{Queries: e.Queries, Logger: logger},
		Calendar:     ginserver.CalendarHandler{Commands: e.Commands, Logger: logger},
		Booking:      ginserver.BookingHandler{Commands: e.Commands, Queries: e.Queries, Logger: logger},
	}
	return nil
}

func (a *application) openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	switch cfg.StorageDriver {
	case config.StorageMongo:
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return fmt.Errorf("mongo connect: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		if err := client.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("mongo indexes: %w", err)
		}
		store, err := infraoutbox.NewStore(ctx, client.DB)
		if err != nil {
			return fmt.Errorf("mongo outbox: %w", err)
		}
		idem, err := mongodb.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
		if err != nil {
			return fmt.Errorf("mongo idempotency: %w", err)
		}
		a.factory = mongodb.Factory{DB: client.DB}
		a.box, a.source = store, store
		a.idem = idem
		a.checks["mongo"] = client.Ping
	case config.StoragePostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
		box := postgres.Outbox{DB: db}
		a.factory = postgres.Factory{DB: db}
		a.box, a.source = box, box
		a.idem = postgres.IdempotencyStore{DB: db, TTL: cfg.IdempotencyTTL}
		a.checks["postgres"] = func(ctx context.Context) error { return postgres.Ping(ctx, db) }
	default:
		store := memory.NewStore()
		a.factory = memory.Factory{Store: store}
		a.memBox = store.Outbox()
		a.box = a.memBox
		a.idem = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
	}
	return nil
}

// openCache prefers Redis and degrades to a per-process cache.
func (a *application) openCache(ctx context.Context, cfg config.Config, logger *slog.Logger) {
	if cfg.RedisAddr != "" {
		client, err := rediscache.Connect(ctx, rediscache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err == nil {
			a.cache = rediscache.NewAvailabilityCache(client, cfg.CacheTTL)
			a.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
			a.closers = append(a.closers, func(context.Context) error { return client.Close() })
			return
		}
		logger.Warn("redis unavailable, using in-process availability cache", "addr", cfg.RedisAddr, "error", err)
	}
	a.cache = memory.NewAvailabilityCache(cfg.CacheTTL)
}

// startBackground wires event delivery. In memory mode the outbox hands
// records to in-process subscribers; durable stores are drained to Kafka, and
// every instance consumes the topics to drop cached availability.
func (a *application) startBackground(ctx context.Context, cfg config.Config, logger *slog.Logger) {
	invalidator := appoutbox.RoomCacheInvalidator{Cache: a.cache, Logger: logger}
	if a.memBox != nil {
		a.memBox.Subscribe(appoutbox.Fanout{appoutbox.EventLogger{Logger: logger}, invalidator})
	}
	if maintainer, ok := a.source.(jobs.OutboxMaintainer); ok && cfg.JanitorSchedule != "" {
		janitor := &jobs.Janitor{
			Outbox:       maintainer,
			Retention:    cfg.OutboxRetention,
			ClaimTimeout: cfg.OutboxClaimTimeout,
			Logger:       logger,
		}
		a.goRun(ctx, logger, "outbox janitor", func(ctx context.Context) error {
			return janitor.Start(ctx, cfg.JanitorSchedule)
		})
	}
	if len(cfg.KafkaBrokers) == 0 {
		if a.source != nil {
			logger.Warn("KAFKA_BROKERS not set, outbox records stay pending")
		}
		return
	}

	if a.source != nil {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, kafka.NewConfig())
		if err != nil {
			logger.Error("kafka producer unavailable", "error", err)
		} else {
			a.closers = append(a.closers, func(context.Context) error { return producer.Close() })
			worker := &infraoutbox.Worker{
				Source:      a.source,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
				Logger:      logger,
			}
			a.goRun(ctx, logger, "outbox worker", worker.Run)
		}
	}

	group := cfg.KafkaConsumerGroup
	if _, shared := a.cache.(*rediscache.AvailabilityCache); !shared {
		// An in-process cache needs every event, so each instance gets its own group.
		if host, err := os.Hostname(); err == nil {
			group += "-" + host
		}
	}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, group, kafka.NewConfig(), kafka.SubscriberHandler{Subscriber: invalidator}, logger)
	if err != nil {
		logger.Error("kafka consumer unavailable", "error", err)
		return
	}
	a.closers = append(a.closers, func(context.Context) error { return consumer.Close() })
	topics := []string{
		infraoutbox.Topic(cfg.KafkaTopicPrefix, "reservation"),
		infraoutbox.Topic(cfg.KafkaTopicPrefix, "calendar"),
	}
	a.goRun(ctx, logger, "cache invalidation consumer", func(ctx context.Context) error {
		return consumer.Run(ctx, topics)
	})
}

func (a *application) goRun(ctx context.Context, logger *slog.Logger, name string, run func(ctx context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		logger.Info("background task started", "task", name)
		if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("background task stopped", "task", name, "error", err)
		}
	}()
}

func (a *application) wait() {
	a.wg.Wait()
}

// close releases resources in reverse order of acquisition.
func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
