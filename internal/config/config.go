// Package config loads the process configuration from the environment.
//
// Every variable is prefixed with POOLHISTORY_, e.g. POOLHISTORY_LOG_LEVEL or
// POOLHISTORY_REDIS_ADDR. The node endpoint and run switches are command line
// flags instead, see the cli handler.
package config

import (
	"time"

	"github.com/gabapcia/poolhistory/internal/pkg/validator"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "POOLHISTORY"

type Telemetry struct {
	Enabled     bool   `envconfig:"ENABLED" default:"false"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"poolhistory" validate:"required"`
}

// Lookup tunes how transaction lookups are retried.
type Lookup struct {
	Attempts           uint          `envconfig:"ATTEMPTS" default:"3" validate:"gte=1"`
	Delay              time.Duration `envconfig:"DELAY" default:"100ms"`
	MaxDelay           time.Duration `envconfig:"MAX_DELAY" default:"1s" validate:"gtefield=Delay"`
	HTTPTimeout        time.Duration `envconfig:"HTTP_TIMEOUT" default:"5s" validate:"gt=0"`
	MaxFailures        int           `envconfig:"MAX_FAILURES" default:"5" validate:"gte=0"`
	MaxNotFoundRetries int           `envconfig:"MAX_NOT_FOUND_RETRIES" default:"0" validate:"gte=0"`
	IdleRetryInterval  time.Duration `envconfig:"IDLE_RETRY_INTERVAL" default:"0s" validate:"gte=0"`
	SeenCacheSize      int           `envconfig:"SEEN_CACHE_SIZE" default:"65536" validate:"gte=0"`
}

// Redis configures the pub/sub sink. The sink is disabled when Addr is empty.
type Redis struct {
	Addr     string `envconfig:"ADDR" validate:"omitempty,hostname_port"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0" validate:"gte=0"`
	Channel  string `envconfig:"CHANNEL" default:"poolhistory:transactions" validate:"required_with=Addr"`
}

// Kafka configures the topic sink. The sink is disabled when Brokers is empty.
type Kafka struct {
	Brokers []string `envconfig:"BROKERS" validate:"omitempty,dive,hostname_port"`
	Topic   string   `envconfig:"TOPIC" default:"poolhistory.transactions" validate:"required_with=Brokers"`
}

type Config struct {
	LogLevel  string    `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Telemetry Telemetry `envconfig:"TELEMETRY"`
	Lookup    Lookup    `envconfig:"LOOKUP"`
	Redis     Redis     `envconfig:"REDIS"`
	Kafka     Kafka     `envconfig:"KAFKA"`
}

// RedisEnabled reports whether the Redis sink is configured.
func (c Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

// KafkaEnabled reports whether the Kafka sink is configured.
func (c Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

// Load reads and validates the configuration.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, err
	}

	if err := validator.Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
