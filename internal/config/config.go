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

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Kafka    KafkaConfig
	Gateway  GatewayConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig selects the storage backend: "postgres" or "memory".
type StorageConfig struct {
	Driver string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// KafkaConfig holds Kafka configuration.
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	EventsTopic  string
	RefundsTopic string
	GroupID      string
}

// GatewayConfig holds payment gateway configuration.
type GatewayConfig struct {
	Provider        string // mock or stripe
	Currency        string
	StripeSecretKey string
	CheckoutURL     string
	MockRedirectURL string
}

// Load loads configuration from environment variables, reading a .env file first if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", "postgres"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "cab_booking"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "cab-booking-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Kafka: KafkaConfig{
			Enabled:      getBoolEnv("KAFKA_ENABLED", false),
			Brokers:      getListEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			EventsTopic:  getEnv("KAFKA_EVENTS_TOPIC", "cab-booking.events"),
			RefundsTopic: getEnv("KAFKA_REFUNDS_TOPIC", "cab-booking.refunds"),
			GroupID:      getEnv("KAFKA_GROUP_ID", "cab-booking-refund-worker"),
		},
		Gateway: GatewayConfig{
			Provider:        getEnv("PAYMENT_GATEWAY", "mock"),
			Currency:        getEnv("PAYMENT_CURRENCY", "USD"),
			StripeSecretKey: getEnv("STRIPE_API_KEY", ""),
			CheckoutURL:     getEnv("STRIPE_CHECKOUT_URL", "https://checkout.example.com/pay"),
			MockRedirectURL: getEnv("MOCK_GATEWAY_URL", "http://mock-gateway.local/pay"),
		},
	}
}

// Validate checks for settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}

	switch c.Gateway.Provider {
	case "mock":
	case "stripe":
		if c.Gateway.StripeSecretKey == "" {
			errs = append(errs, errors.New("STRIPE_API_KEY is required for the stripe gateway"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PAYMENT_GATEWAY %q", c.Gateway.Provider))
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when Kafka is enabled"))
	}

	if c.NewRelic.Enabled && c.NewRelic.LicenseKey == "" {
		errs = append(errs, errors.New("NEW_RELIC_LICENSE_KEY is required when New Relic is enabled"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
