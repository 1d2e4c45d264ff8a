package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Owujuah/Finatera/internal/accounts"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	BrokerNone     = "none"
	BrokerKafka    = "kafka"
	BrokerRabbitMQ = "rabbitmq"
)

// Config holds the service settings, read from the environment and an optional .env file.
type Config struct {
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	StoreDriver   string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL   string        `mapstructure:"DATABASE_URL"`
	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	TokenExpiry   time.Duration `mapstructure:"TOKEN_EXPIRY"`
	CommitTimeout time.Duration `mapstructure:"COMMIT_TIMEOUT"`
	StatusMode    string        `mapstructure:"STATUS_MODE"`

	RawInitialBalance string `mapstructure:"INITIAL_BALANCE"`
	DisplayTimezone   string `mapstructure:"DISPLAY_TIMEZONE"`

	EventsBroker     string   `mapstructure:"EVENTS_BROKER"`
	KafkaBrokers     []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic       string   `mapstructure:"KAFKA_TOPIC"`
	RabbitMQURL      string   `mapstructure:"RABBITMQ_URL"`
	RabbitMQExchange string   `mapstructure:"RABBITMQ_EXCHANGE"`

	RedisURL                string `mapstructure:"REDIS_URL"`
	LoginRateLimitPerMinute int    `mapstructure:"LOGIN_RATE_LIMIT_PER_MINUTE"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// derived in normalize
	InitialBalance decimal.Decimal `mapstructure:"-"`
	Location       *time.Location  `mapstructure:"-"`
}

var keys = []string{
	"SERVER_PORT", "STORE_DRIVER", "DATABASE_URL", "JWT_SECRET", "TOKEN_EXPIRY",
	"COMMIT_TIMEOUT", "STATUS_MODE", "INITIAL_BALANCE", "DISPLAY_TIMEZONE",
	"EVENTS_BROKER", "KAFKA_BROKERS", "KAFKA_TOPIC", "RABBITMQ_URL", "RABBITMQ_EXCHANGE",
	"REDIS_URL", "LOGIN_RATE_LIMIT_PER_MINUTE", "LOG_LEVEL", "LOG_FORMAT",
}

// LoadConfig loads dir/.env if present, then reads the environment.
func LoadConfig(dir string) (Config, error) {
	var cfg Config

	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("read .env: %w", err)
	}

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("STORE_DRIVER", "memory")
	viper.SetDefault("TOKEN_EXPIRY", "24h")
	viper.SetDefault("COMMIT_TIMEOUT", "5s")
	viper.SetDefault("STATUS_MODE", "positional")
	viper.SetDefault("INITIAL_BALANCE", accounts.DefaultInitialBalance.String())
	viper.SetDefault("DISPLAY_TIMEZONE", "UTC")
	viper.SetDefault("EVENTS_BROKER", BrokerNone)
	viper.SetDefault("KAFKA_TOPIC", "transfer_completed")
	viper.SetDefault("RABBITMQ_EXCHANGE", "finatera.transfers")
	viper.SetDefault("LOGIN_RATE_LIMIT_PER_MINUTE", 10)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")

	for _, key := range keys {
		_ = viper.BindEnv(key)
	}
	_ = viper.BindEnv("SERVER_PORT", "SERVER_PORT", "PORT")

	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.EventsBroker = strings.ToLower(strings.TrimSpace(c.EventsBroker))
	c.JWTSecret = strings.TrimSpace(c.JWTSecret)
	c.RedisURL = strings.TrimSpace(c.RedisURL)

	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.TokenExpiry <= 0 {
		return fmt.Errorf("TOKEN_EXPIRY must be positive, got %s", c.TokenExpiry)
	}
	if c.CommitTimeout <= 0 {
		return fmt.Errorf("COMMIT_TIMEOUT must be positive, got %s", c.CommitTimeout)
	}

	balance, err := decimal.NewFromString(strings.TrimSpace(c.RawInitialBalance))
	if err != nil || balance.IsNegative() {
		return fmt.Errorf("INITIAL_BALANCE must be a non-negative number, got %q", c.RawInitialBalance)
	}
	c.InitialBalance = balance

	loc, err := time.LoadLocation(strings.TrimSpace(c.DisplayTimezone))
	if err != nil {
		return fmt.Errorf("DISPLAY_TIMEZONE: %w", err)
	}
	c.Location = loc

	brokers := c.KafkaBrokers[:0]
	for _, b := range c.KafkaBrokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	c.KafkaBrokers = brokers

	switch c.EventsBroker {
	case "", BrokerNone:
		c.EventsBroker = BrokerNone
	case BrokerKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when EVENTS_BROKER=kafka")
		}
	case BrokerRabbitMQ:
		if strings.TrimSpace(c.RabbitMQURL) == "" {
			return errors.New("RABBITMQ_URL is required when EVENTS_BROKER=rabbitmq")
		}
	default:
		return fmt.Errorf("unknown EVENTS_BROKER %q", c.EventsBroker)
	}
	return nil
}
