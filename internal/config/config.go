package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Weather provider configuration.
	WeatherAPIKey    string
	WeatherBaseURL   string
	WeatherTimeout   time.Duration
	WeatherRetries   int
	WeatherCacheSize int
	WeatherCacheTTL  time.Duration

	// Job scheduler configuration.
	WorkerCount      int
	QueueSize        int
	JobTimeout       time.Duration
	WatchdogInterval time.Duration

	// Stores. Empty values select the in-memory implementations.
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Kafka request consumer and event publisher.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaRequestTopic  string
	KafkaEventTopic    string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := parsePositiveDuration("WEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	jobTimeout, err := parsePositiveDuration("JOB_TIMEOUT", "2m")
	if err != nil {
		return nil, err
	}
	watchdogInterval, err := parsePositiveDuration("WATCHDOG_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("WEATHER_CACHE_TTL", "10m"))
	if err != nil || cacheTTL < 0 {
		return nil, errors.New("invalid WEATHER_CACHE_TTL")
	}

	workers, err := parseInt("WORKER_COUNT", 4, 1)
	if err != nil {
		return nil, err
	}
	queueSize, err := parseInt("QUEUE_SIZE", 64, 1)
	if err != nil {
		return nil, err
	}
	retries, err := parseInt("WEATHER_RETRIES", 2, 0)
	if err != nil {
		return nil, err
	}
	redisDB, err := parseInt("REDIS_DB", 0, 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WeatherAPIKey:    os.Getenv("OPENWEATHER_API_KEY"),
		WeatherBaseURL:   sharedcfg.EnvOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
		WeatherTimeout:   weatherTimeout,
		WeatherRetries:   retries,
		WeatherCacheSize: parseCacheSize(),
		WeatherCacheTTL:  cacheTTL,

		WorkerCount:      workers,
		QueueSize:        queueSize,
		JobTimeout:       jobTimeout,
		WatchdogInterval: watchdogInterval,

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		KafkaEnabled:       os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaRequestTopic:  sharedcfg.EnvOrDefault("KAFKA_REQUEST_TOPIC", "simulation-requests"),
		KafkaEventTopic:    sharedcfg.EnvOrDefault("KAFKA_EVENT_TOPIC", "simulation-events"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "climate-sim"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.WeatherAPIKey == "" {
		return nil, errors.New("OPENWEATHER_API_KEY is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaRequestTopic == "" || cfg.KafkaEventTopic == "" {
			return nil, errors.New("KAFKA_REQUEST_TOPIC and KAFKA_EVENT_TOPIC are required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def, minValue int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minValue {
		return 0, fmt.Errorf("invalid %s: must be an integer >= %d", key, minValue)
	}
	return n, nil
}

func parseCacheSize() int {
	if s := os.Getenv("WEATHER_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
