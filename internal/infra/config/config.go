package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	HTTPAddr           string
	StorageDriver      string
	MongoURI           string
	MongoDB            string
	PostgresDSN        string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	CacheTTL           time.Duration
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	KafkaConsumerGroup string
	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	OutboxRetention    time.Duration
	OutboxClaimTimeout time.Duration
	JanitorSchedule    string
	RetryBackoff       []time.Duration
	MaxWindowDays      int
	BulkEditMaxDates   int
	BookingMaxNights   int
	RoomFixtures       string
}

// Defaults returns the configuration of a single in-memory instance.
func Defaults() Config {
	return Config{
		Env:                "dev",
		HTTPAddr:           ":8080",
		StorageDriver:      StorageMemory,
		MongoDB:            "lodging",
		CacheTTL:           30 * time.Second,
		KafkaConsumerGroup: "lodging-cache",
		IdempotencyTTL:     168 * time.Hour,
		OutboxPollInterval: 500 * time.Millisecond,
		OutboxRetention:    72 * time.Hour,
		OutboxClaimTimeout: 5 * time.Minute,
		JanitorSchedule:    "@every 10m",
		RetryBackoff:       []time.Duration{time.Second, 5 * time.Second, 30 * time.Second},
		MaxWindowDays:      366,
		BulkEditMaxDates:   366,
		BookingMaxNights:   90,
	}
}

// Load parses configuration from the current environment. A .env file in the
// working directory is read first when present; real environment variables win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	def := Defaults()
	cfg := Config{
		Env:                getEnv("APP_ENV", def.Env),
		HTTPAddr:           getEnv("HTTP_ADDR", def.HTTPAddr),
		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", def.StorageDriver)),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDB:            getEnv("MONGO_DB", def.MongoDB),
		PostgresDSN:        os.Getenv("POSTGRES_DSN"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		KafkaTopicPrefix:   getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", def.KafkaConsumerGroup),
		JanitorSchedule:    getEnv("JANITOR_SCHEDULE", def.JanitorSchedule),
		RoomFixtures:       os.Getenv("ROOM_FIXTURES"),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = parseDurationEnv("AVAILABILITY_CACHE_TTL", def.CacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = parseDurationEnv("IDEMP_TTL", def.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.OutboxPollInterval, err = parseDurationEnv("OUTBOX_POLL_INTERVAL", def.OutboxPollInterval); err != nil {
		return Config{}, err
	}
	if cfg.OutboxRetention, err = parseDurationEnv("OUTBOX_RETENTION", def.OutboxRetention); err != nil {
		return Config{}, err
	}
	if cfg.OutboxClaimTimeout, err = parseDurationEnv("OUTBOX_CLAIM_TIMEOUT", def.OutboxClaimTimeout); err != nil {
		return Config{}, err
	}
	if cfg.MaxWindowDays, err = parseIntEnv("AVAILABILITY_MAX_WINDOW_DAYS", def.MaxWindowDays); err != nil {
		return Config{}, err
	}
	if cfg.BulkEditMaxDates, err = parseIntEnv("BULK_EDIT_MAX_DATES", def.BulkEditMaxDates); err != nil {
		return Config{}, err
	}
	if cfg.BookingMaxNights, err = parseIntEnv("BOOKING_MAX_NIGHTS", def.BookingMaxNights); err != nil {
		return Config{}, err
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	switch cfg.StorageDriver {
	case StorageMemory:
	case StorageMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required for STORAGE_DRIVER=mongo")
		}
	case StoragePostgres:
		if cfg.PostgresDSN == "" {
			return Config{}, fmt.Errorf("POSTGRES_DSN is required for STORAGE_DRIVER=postgres")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	return cfg, nil
}

// Durable reports whether events go through a persistent outbox.
func (c Config) Durable() bool {
	return c.StorageDriver != StorageMemory
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid %s integer: must not be negative", key)
	}
	return v, nil
}
