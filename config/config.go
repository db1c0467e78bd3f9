package config

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	awspkg "raffle-bff/pkg/aws"

	"github.com/joho/godotenv"
)

// SecretName holds overrides for the sensitive settings when AWS_USE_SECRETS
// is true.
const SecretName = "raffle-bff/CONFIG"

// Config holds all configuration for the raffle BFF.
type Config struct {
	Port           string
	Env            string
	APIBaseURL     string
	RequestTimeout time.Duration

	// Device state lives in redis when RedisURL is set, in memory otherwise.
	RedisURL    string
	RedisPrefix string
	StoreTTL    time.Duration

	// JWTSecret enables signature checks on bearer tokens. Leave empty when the
	// raffle API does not share its signing key.
	JWTSecret string

	AllowedOrigins     []string
	SecureCookie       bool
	RateLimitPerMinute int
	RateLimitBurst     int

	AWSRegion           string
	AWSEndpoint         string
	CloudWatchEnabled   bool
	CloudWatchLogGroup  string
	MetricsNamespace    string
	OrderEventsTopicARN string
}

// Load reads .env (when present) and the environment, then applies the
// Secrets Manager override.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		awsCfg, err := awspkg.LoadAWSConfig(ctx, awspkg.Options{Region: cfg.AWSRegion, Endpoint: cfg.AWSEndpoint})
		if err != nil {
			return nil, err
		}
		values, err := awspkg.NewSecretsClient(awsCfg).GetSecretValues(ctx, SecretName)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", SecretName, err)
		}
		cfg.applySecret(values)
	}
	return cfg, cfg.Validate()
}

// FromEnv builds a Config from environment variables and defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8000"),
		Env:                 getEnv("ENV", "development"),
		APIBaseURL:          getEnv("RAFFLE_API_URL", "http://localhost:5000/api"),
		RedisURL:            os.Getenv("REDIS_URL"),
		RedisPrefix:         getEnv("REDIS_PREFIX", "raffle:"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		AllowedOrigins:      splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:4200")),
		SecureCookie:        os.Getenv("SECURE_COOKIE") == "true",
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSEndpoint:         os.Getenv("AWS_ENDPOINT"),
		CloudWatchEnabled:   os.Getenv("CLOUDWATCH_ENABLED") == "true",
		CloudWatchLogGroup:  getEnv("CLOUDWATCH_LOG_GROUP", "/raffle/raffle-bff"),
		MetricsNamespace:    getEnv("METRICS_NAMESPACE", "RaffleBFF"),
		OrderEventsTopicARN: os.Getenv("ORDER_EVENTS_TOPIC_ARN"),
	}

	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.StoreTTL, err = getDuration("STORE_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = getInt("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 30); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("RAFFLE_API_URL must be an absolute url, got %q", c.APIBaseURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	return nil
}

// applySecret overrides settings from the secret's values. Unknown and
// empty keys are ignored.
func (c *Config) applySecret(m map[string]string) {
	if v := m["JWT_SECRET"]; v != "" {
		c.JWTSecret = v
	}
	if v := m["REDIS_URL"]; v != "" {
		c.RedisURL = v
	}
	if v := m["RAFFLE_API_URL"]; v != "" {
		c.APIBaseURL = v
	}
	if v := m["ORDER_EVENTS_TOPIC_ARN"]; v != "" {
		c.OrderEventsTopicARN = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
