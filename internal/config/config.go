package config

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Store configuration
	Store StoreConfig

	// Redis configuration
	Redis RedisConfig

	// OpenRouter reasoning service configuration
	OpenRouter OpenRouterConfig

	// Server configuration
	Server ServerConfig

	// Query configuration
	Query QueryConfig
}

// StoreConfig holds SQLite configuration
type StoreConfig struct {
	DatabasePath   string
	MigrationsPath string
}

// RedisConfig holds Redis configuration. The cache is optional: with
// Enabled false the engine runs without one.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// OpenRouterConfig holds reasoning service configuration
type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port    string
	GinMode string
}

// QueryConfig holds question processing configuration
type QueryConfig struct {
	Timeout           time.Duration
	CacheTTL          time.Duration
	MaxQuestionLength int
}

// Loader handles loading configuration from various sources
type Loader struct {
	provider SecretProvider
}

// NewLoader creates a new configuration loader with the given secret provider
func NewLoader(provider SecretProvider) *Loader {
	return &Loader{
		provider: provider,
	}
}

// NewDefaultLoader creates a loader with the default provider chain:
// 1. File-based secrets (if available)
// 2. Environment variables (fallback)
func NewDefaultLoader() *Loader {
	providers := []SecretProvider{
		NewFileProvider("/var/secrets"), // Common secret mount path
		NewEnvProvider(),                // Always available fallback
	}

	return &Loader{
		provider: NewChainProvider(providers...),
	}
}

// Load loads the complete configuration
func (l *Loader) Load(ctx context.Context) (*Config, error) {
	cfg := &Config{}

	// Load Store config
	cfg.Store = StoreConfig{
		DatabasePath:   l.getString(ctx, "DATABASE_PATH", "adaptation_mission.db"),
		MigrationsPath: l.getString(ctx, "MIGRATIONS_PATH", "./migrations"),
	}

	// Load Redis config
	cfg.Redis = RedisConfig{
		Enabled:  l.getBool(ctx, "REDIS_ENABLED", false),
		Addr:     l.getString(ctx, "REDIS_ADDR", "localhost:6379"),
		Password: l.getString(ctx, "REDIS_PASSWORD", ""),
		DB:       l.getInt(ctx, "REDIS_DB", 0),
	}

	// Load OpenRouter config
	cfg.OpenRouter = OpenRouterConfig{
		APIKey:  l.getString(ctx, "OPENROUTER_API_KEY", ""),
		Model:   l.getString(ctx, "OPENROUTER_MODEL", "anthropic/claude-sonnet-4"),
		BaseURL: l.getString(ctx, "OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		Timeout: l.getDuration(ctx, "OPENROUTER_TIMEOUT", 30*time.Second),
	}

	// Load Server config
	cfg.Server = ServerConfig{
		Port:    l.getString(ctx, "PORT", "8080"),
		GinMode: l.getString(ctx, "GIN_MODE", "debug"),
	}

	// Load Query config
	cfg.Query = QueryConfig{
		Timeout:           l.getDuration(ctx, "QUERY_TIMEOUT", 60*time.Second),
		CacheTTL:          l.getDuration(ctx, "CACHE_TTL", 5*time.Minute),
		MaxQuestionLength: l.getInt(ctx, "MAX_QUESTION_LENGTH", 500),
	}

	return cfg, nil
}

// Helper methods for retrieving and parsing configuration values

func (l *Loader) getString(ctx context.Context, key, defaultValue string) string {
	value, err := l.provider.GetSecret(ctx, key)
	if err != nil || value == "" {
		return defaultValue
	}
	return value
}

func (l *Loader) getBool(ctx context.Context, key string, defaultValue bool) bool {
	value, err := l.provider.GetSecret(ctx, key)
	if err != nil || value == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func (l *Loader) getInt(ctx context.Context, key string, defaultValue int) int {
	value, err := l.provider.GetSecret(ctx, key)
	if err != nil || value == "" {
		return defaultValue
	}

	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}

func (l *Loader) getDuration(ctx context.Context, key string, defaultValue time.Duration) time.Duration {
	value, err := l.provider.GetSecret(ctx, key)
	if err != nil || value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// MustLoad loads configuration and panics on error
// Useful for application startup
func (l *Loader) MustLoad(ctx context.Context) *Config {
	cfg, err := l.Load(ctx)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
