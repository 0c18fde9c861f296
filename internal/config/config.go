package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file - ignore error if file doesn't exist
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Note: .env file not found or could not be loaded: %v\n", err)
	}
}

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	// VerifyPath is where Paystack sends the payer back after checkout.
	VerifyPath = "/api/verify-payment"
)

type Config struct {
	Primary       PrimaryConfig
	Server        ServerConfig
	Redis         RedisConfig
	RateLimit     RateLimitConfig
	Kafka         KafkaConfig
	Observability *ObservabilityConfig
	Paystack      PaystackConfig
}

type PrimaryConfig struct {
	Env string
	// PublicURL is the externally visible base URL used for callbacks in production.
	PublicURL string
}

type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	IdleTimeout        int
	CORSAllowedOrigins []string
}

type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	KeyPrefix    string
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool {
	return c.Address != ""
}

type RateLimitConfig struct {
	Requests int64
	Window   time.Duration
}

type KafkaConfig struct {
	Brokers []string
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type ObservabilityConfig struct {
	ServiceName string
	Environment string
	Logging     LoggingConfig
	NewRelic    NewRelicConfig
}

type LoggingConfig struct {
	Level  string
	Format string
}

type NewRelicConfig struct {
	LicenseKey                string
	AppLogForwardingEnabled   bool
	DistributedTracingEnabled bool
	DebugLogging              bool
}

type PaystackConfig struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	Currency      string
	Timeout       time.Duration
}

// Helper functions for parsing env vars
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}

func (c *ObservabilityConfig) GetLogLevel() string {
	if c.Logging.Level == "" {
		switch c.Environment {
		case EnvProduction:
			return "info"
		case EnvDevelopment:
			return "debug"
		default:
			return "info"
		}
	}
	return c.Logging.Level
}

func (c *ObservabilityConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

func (c *Config) IsProduction() bool {
	return c.Primary.Env == EnvProduction
}

// HasCredential reports whether a Paystack secret key is configured.
func (c *Config) HasCredential() bool {
	return c.Paystack.SecretKey != ""
}

func LoadConfig() (*Config, error) {
	env := getEnv("PAYGATE_ENV", EnvDevelopment)
	secretKey := getEnv("PAYGATE_PAYSTACK_SECRET_KEY", "")

	cfg := &Config{
		Primary: PrimaryConfig{
			Env:       env,
			PublicURL: strings.TrimRight(getEnv("PAYGATE_PUBLIC_URL", "https://payment-platform-two.vercel.app"), "/"),
		},
		Server: ServerConfig{
			Port:               getEnv("PAYGATE_SERVER_PORT", "5000"),
			ReadTimeout:        getEnvInt("PAYGATE_SERVER_READ_TIMEOUT", 30),
			WriteTimeout:       getEnvInt("PAYGATE_SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:        getEnvInt("PAYGATE_SERVER_IDLE_TIMEOUT", 60),
			CORSAllowedOrigins: getEnvSlice("PAYGATE_SERVER_CORS_ORIGINS", nil),
		},
		Redis: RedisConfig{
			Address:      getEnv("PAYGATE_REDIS_ADDRESS", ""),
			Password:     getEnv("PAYGATE_REDIS_PASSWORD", ""),
			DB:           getEnvInt("PAYGATE_REDIS_DB", 0),
			PoolSize:     getEnvInt("PAYGATE_REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("PAYGATE_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("PAYGATE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("PAYGATE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("PAYGATE_REDIS_WRITE_TIMEOUT", 3*time.Second),
			KeyPrefix:    getEnv("PAYGATE_REDIS_KEY_PREFIX", "paygate:"),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvInt64("PAYGATE_RATELIMIT_REQUESTS", 60),
			Window:   getEnvDuration("PAYGATE_RATELIMIT_WINDOW", time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvSlice("PAYGATE_KAFKA_BROKERS", nil),
		},
		Observability: &ObservabilityConfig{
			ServiceName: "paygate",
			Environment: env,
			Logging: LoggingConfig{
				Level:  getEnv("PAYGATE_LOG_LEVEL", ""),
				Format: getEnv("PAYGATE_LOG_FORMAT", "console"),
			},
			NewRelic: NewRelicConfig{
				LicenseKey:                getEnv("PAYGATE_NEWRELIC_LICENSE_KEY", ""),
				AppLogForwardingEnabled:   getEnvBool("PAYGATE_NEWRELIC_LOG_FORWARDING", true),
				DistributedTracingEnabled: getEnvBool("PAYGATE_NEWRELIC_DISTRIBUTED_TRACING", true),
				DebugLogging:              getEnvBool("PAYGATE_NEWRELIC_DEBUG", false),
			},
		},
		Paystack: PaystackConfig{
			SecretKey:     secretKey,
			WebhookSecret: getEnv("PAYGATE_PAYSTACK_WEBHOOK_SECRET", secretKey),
			BaseURL:       strings.TrimRight(getEnv("PAYGATE_PAYSTACK_BASE_URL", "https://api.paystack.co"), "/"),
			Currency:      strings.ToUpper(getEnv("PAYGATE_PAYSTACK_CURRENCY", "NGN")),
			Timeout:       getEnvDuration("PAYGATE_PAYSTACK_TIMEOUT", 30*time.Second),
		},
	}

	// Validate required fields
	if cfg.Server.Port == "" {
		return nil, fmt.Errorf("PAYGATE_SERVER_PORT is required")
	}
	if len(cfg.Paystack.Currency) != 3 {
		return nil, fmt.Errorf("PAYGATE_PAYSTACK_CURRENCY must be a 3-letter ISO code, got %q", cfg.Paystack.Currency)
	}
	if cfg.RateLimit.Requests <= 0 || cfg.RateLimit.Window <= 0 {
		return nil, fmt.Errorf("PAYGATE_RATELIMIT_REQUESTS and PAYGATE_RATELIMIT_WINDOW must be positive")
	}

	return cfg, nil
}
