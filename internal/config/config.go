package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/portfolio-gate/internal/pkg/validate"
)

const (
	BackendRedis  = "redis"
	BackendDynamo = "dynamo"
	BackendMemory = "memory"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort       string
	AppEnv        string
	PublicBaseURL string // prefix of every magic link
	SiteName      string

	SuperAdminEmail    string
	AuthTestMode       bool
	AuthTestSecret     string
	AuthTestSecretHash string // bcrypt; takes precedence over AuthTestSecret

	StoreBackend string
	RedisURL     string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTable    string

	CatalogSource string // "embedded", a file path, or s3://bucket/key

	SMTPHost        string
	SMTPPort        int
	SMTPFrom        string
	SMTPUsername    string
	SMTPPassword    string
	EmailRatePerSec float64
	EmailBurst      int

	SNSRegion        string
	SNSAdminTopicARN string

	RateLimits RateLimits

	LogFormat   string
	LogLevel    string
	MetricsAddr string

	AllowedOrigins []string // CORS allowed origins
}

// RateLimits holds the per-namespace budgets, all sharing one window.
type RateLimits struct {
	Request int
	Verify  int
	Test    int
	Window  time.Duration
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:       getEnv("APP_PORT", "3000"),
		AppEnv:        getEnv("APP_ENV", "development"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", getEnv("NEXT_PUBLIC_SITE_URL", "http://localhost:3000")), "/"),
		SiteName:      getEnv("SITE_NAME", "Portfolio"),

		SuperAdminEmail:    strings.ToLower(strings.TrimSpace(getEnv("SUPER_ADMIN_EMAIL", ""))),
		AuthTestMode:       getEnvBool("AUTH_TEST_MODE", false),
		AuthTestSecret:     getEnv("AUTH_TEST_SECRET", ""),
		AuthTestSecretHash: getEnv("AUTH_TEST_SECRET_HASH", ""),

		StoreBackend: getEnv("STORE_BACKEND", BackendRedis),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTable:    getEnv("DYNAMO_TABLE_KV", "portfolio_gate_kv"),

		CatalogSource: getEnv("CATALOG_SOURCE", "embedded"),

		SMTPHost:        getEnv("SMTP_HOST", "localhost"),
		SMTPPort:        getEnvInt("SMTP_PORT", 1025),
		SMTPFrom:        getEnv("SMTP_FROM", "Portfolio <noreply@example.com>"),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		EmailRatePerSec: getEnvFloat("EMAIL_RATE_PER_SEC", 2),
		EmailBurst:      getEnvInt("EMAIL_BURST", 5),

		SNSRegion:        getEnv("SNS_REGION", getEnv("AWS_REGION", "us-east-1")),
		SNSAdminTopicARN: getEnv("SNS_ADMIN_TOPIC_ARN", ""),

		RateLimits: RateLimits{
			Request: getEnvInt("RATE_LIMIT_REQUEST", 5),
			Verify:  getEnvInt("RATE_LIMIT_VERIFY", 10),
			Test:    getEnvInt("RATE_LIMIT_TEST", 10),
			Window:  getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},

		LogFormat:   getEnv("LOG_FORMAT", "text"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		MetricsAddr: getEnv("METRICS_ADDR", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
	}
}

// IsProduction turns on the Secure cookie attribute.
func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

// Validate reports configuration the service cannot start with.
func (c *Config) Validate() error {
	if _, err := validate.Email(c.SuperAdminEmail); err != nil {
		return fmt.Errorf("SUPER_ADMIN_EMAIL must be a valid address: %w", err)
	}
	switch c.StoreBackend {
	case BackendRedis, BackendDynamo, BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND %q is not one of redis, dynamo, memory", c.StoreBackend)
	}
	if c.AuthTestMode && c.AuthTestSecret == "" && c.AuthTestSecretHash == "" {
		return fmt.Errorf("AUTH_TEST_MODE requires AUTH_TEST_SECRET or AUTH_TEST_SECRET_HASH")
	}
	if c.RateLimits.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
