package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerHost         string        `env:"SERVER_HOST" env-default:"0.0.0.0"`
	ServerPort         string        `env:"SERVER_PORT" env-default:"8000"`
	ShutdownTimeout    time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"5s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
	MaxUploadBytes     int64         `env:"MAX_UPLOAD_BYTES" env-default:"10485760"`

	// Database configuration
	DBDriver          string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	DBHost            string        `env:"DB_HOST" env-default:"localhost"`
	DBPort            string        `env:"DB_PORT" env-default:"5432"`
	DBUser            string        `env:"DB_USER" env-default:"postgres"`
	DBPassword        string        `env:"DB_PASSWORD"`
	DBName            string        `env:"DB_NAME" env-default:"kitchen_buddy"`
	DBSSLMode         string        `env:"DB_SSL_MODE" env-default:"require"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"12"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`

	// Redis configuration
	RedisHost     string `env:"REDIS_HOST"`
	RedisPort     string `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`
	RedisURL      string `env:"REDIS_URL"`

	// Identity configuration
	JWTSecret     string `env:"JWT_SECRET"`
	AuthRequired  bool   `env:"AUTH_REQUIRED" env-default:"false"`
	DefaultUserID string `env:"DEFAULT_USER_ID" env-default:"00000000-0000-0000-0000-000000000001"`

	// Language model configuration
	LLMProvider      string        `env:"LLM_PROVIDER" env-default:"openai"`
	LLMAPIKey        string        `env:"LLM_API_KEY"`
	LLMAPIURL        string        `env:"LLM_API_URL"`
	LLMModel         string        `env:"LLM_MODEL" env-default:"gpt-4"`
	LLMParserModel   string        `env:"LLM_PARSER_MODEL" env-default:"gpt-3.5-turbo"`
	LLMVisionModel   string        `env:"LLM_VISION_MODEL" env-default:"gpt-4o"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" env-default:"90s"`
	LLMEnrichRecipes bool          `env:"LLM_ENRICH_RECIPES" env-default:"true"`

	// Rate limiting for model-backed endpoints
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"1m"`
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" env-default:"20"`

	// Object storage for uploaded recipe images
	S3BucketName string `env:"S3_BUCKET_NAME"`
	AWSRegion    string `env:"AWS_REGION"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"json"`
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	loadSecrets(cfg)

	// OPENAI_API_KEY is accepted for deployments that predate LLM_API_KEY
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadSecrets fills sensitive fields left empty by the environment from Docker secrets
func loadSecrets(cfg *Config) {
	secrets := map[string]*string{
		"db_password":    &cfg.DBPassword,
		"jwt_secret":     &cfg.JWTSecret,
		"llm_api_key":    &cfg.LLMAPIKey,
		"redis_password": &cfg.RedisPassword,
		"database_url":   &cfg.DatabaseURL,
	}
	for name, field := range secrets {
		if *field != "" {
			continue
		}
		*field = readSecret(name)
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return net.JoinHostPort(c.ServerHost, c.ServerPort)
}

// DSN returns the connection string for the configured database driver
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.DBDriver == "sqlite" {
		return c.DBName
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// RedisEnabled reports whether a Redis server has been configured
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// StorageEnabled reports whether uploaded images should be kept in S3
func (c *Config) StorageEnabled() bool {
	return c.S3BucketName != ""
}
