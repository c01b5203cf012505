package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerPort         int
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string

	// Upstream configuration
	NotionBaseURL string
	NotionVersion string
	NotionTimeout time.Duration

	// TLS configuration
	TLSCertPath string
	TLSKeyPath  string

	// Logging configuration
	LogLevel  string
	LogFormat string
}

// IsTLSEnabled returns true if TLS is enabled
func (c *Config) IsTLSEnabled() bool {
	return c.TLSCertPath != "" && c.TLSKeyPath != ""
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ServerPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ShutdownTimeout, validation.Required),
		validation.Field(&c.CORSAllowedOrigins, validation.Required),
		validation.Field(&c.NotionBaseURL, validation.Required, is.URL),
		validation.Field(&c.NotionVersion, validation.Required),
		validation.Field(&c.NotionTimeout, validation.Required),
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.In("text", "json")),
	)
}

// LoadConfig loads configuration from an optional .env file and the
// environment. Variables already set in the environment win.
func LoadConfig(logger hclog.Logger, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{
		ServerPort:         getEnvInt(logger, "SERVER_PORT", 3001),
		ShutdownTimeout:    getEnvDuration(logger, "SHUTDOWN_TIMEOUT", 15*time.Second),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		NotionBaseURL:      getEnvStr("NOTION_BASE_URL", "https://api.notion.com"),
		NotionVersion:      getEnvStr("NOTION_VERSION", "2022-06-28"),
		NotionTimeout:      getEnvDuration(logger, "NOTION_TIMEOUT", 60*time.Second),
		TLSCertPath:        getEnvStr("TLS_CERT_PATH", ""),
		TLSKeyPath:         getEnvStr("TLS_KEY_PATH", ""),
		LogLevel:           strings.ToLower(getEnvStr("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnvStr("LOG_FORMAT", "text")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("server configuration", "port", cfg.ServerPort, "notion_base_url", cfg.NotionBaseURL, "notion_version", cfg.NotionVersion)

	return cfg, nil
}

// getEnvStr retrieves an environment variable or returns a default value
func getEnvStr(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer or returns a default value
func getEnvInt(logger hclog.Logger, key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
		logger.Warn("invalid value, using default", "key", key, "default", defaultVal)
	}
	return defaultVal
}

// getEnvDuration parses values such as "30s" or "2m"
func getEnvDuration(logger hclog.Logger, key string, defaultVal time.Duration) time.Duration {
	if val, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		logger.Warn("invalid duration, using default", "key", key, "default", defaultVal)
	}
	return defaultVal
}

// getEnvList splits a comma separated variable, dropping empty entries
func getEnvList(key string, defaultVal []string) []string {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
