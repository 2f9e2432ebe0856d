package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation error(s):\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// HasErrors returns true if there are any validation errors
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validate performs comprehensive validation on the configuration
func (c *Config) Validate() error {
	var errors ValidationErrors

	// Validate Store config
	errors = append(errors, c.validateStore()...)

	// Validate Redis config
	errors = append(errors, c.validateRedis()...)

	// Validate OpenRouter config
	errors = append(errors, c.validateOpenRouter()...)

	// Validate Server config
	errors = append(errors, c.validateServer()...)

	// Validate Query config
	errors = append(errors, c.validateQuery()...)

	if errors.HasErrors() {
		return errors
	}

	return nil
}

func (c *Config) validateStore() []ValidationError {
	var errors []ValidationError

	if c.Store.DatabasePath == "" {
		errors = append(errors, ValidationError{
			Field:   "Store.DatabasePath",
			Message: "database path is required",
		})
	}

	if c.Store.MigrationsPath == "" {
		errors = append(errors, ValidationError{
			Field:   "Store.MigrationsPath",
			Message: "migrations path is required",
		})
	}

	return errors
}

func (c *Config) validateRedis() []ValidationError {
	var errors []ValidationError

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errors = append(errors, ValidationError{
			Field:   "Redis.Addr",
			Message: "redis address is required when caching is enabled",
		})
	}

	return errors
}

func (c *Config) validateOpenRouter() []ValidationError {
	var errors []ValidationError

	if c.OpenRouter.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "OpenRouter.APIKey",
			Message: "OpenRouter API key is required",
		})
	}

	if c.OpenRouter.Model == "" {
		errors = append(errors, ValidationError{
			Field:   "OpenRouter.Model",
			Message: "OpenRouter model is required",
		})
	}

	if c.OpenRouter.Timeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "OpenRouter.Timeout",
			Message: "OpenRouter timeout must be positive",
		})
	}

	return errors
}

func (c *Config) validateServer() []ValidationError {
	var errors []ValidationError

	if c.Server.Port == "" {
		errors = append(errors, ValidationError{
			Field:   "Server.Port",
			Message: "server port is required",
		})
	}

	// Validate GinMode
	validModes := []string{"debug", "release", "test"}
	isValid := false
	for _, mode := range validModes {
		if c.Server.GinMode == mode {
			isValid = true
			break
		}
	}
	if !isValid {
		errors = append(errors, ValidationError{
			Field:   "Server.GinMode",
			Message: fmt.Sprintf("invalid gin mode: %s (must be 'debug', 'release', or 'test')", c.Server.GinMode),
		})
	}

	return errors
}

func (c *Config) validateQuery() []ValidationError {
	var errors []ValidationError

	if c.Query.Timeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "Query.Timeout",
			Message: "query timeout must be positive",
		})
	}

	if c.Query.CacheTTL < 0 {
		errors = append(errors, ValidationError{
			Field:   "Query.CacheTTL",
			Message: "cache TTL must be non-negative",
		})
	}

	if c.Query.MaxQuestionLength <= 0 {
		errors = append(errors, ValidationError{
			Field:   "Query.MaxQuestionLength",
			Message: "max question length must be positive",
		})
	}

	return errors
}

// ValidateProduction performs additional validation for production environments
// It checks for insecure default values that should not be used in production
func (c *Config) ValidateProduction() error {
	var errors ValidationErrors

	// Check for insecure Redis passwords
	if c.Redis.Enabled && (c.Redis.Password == "" || c.Redis.Password == "changeme") {
		errors = append(errors, ValidationError{
			Field:   "Redis.Password",
			Message: "production deployment must not use default or empty Redis password",
		})
	}

	// Check for placeholder API key
	if c.OpenRouter.APIKey == "your-api-key-here" || c.OpenRouter.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "OpenRouter.APIKey",
			Message: "production deployment requires a valid OpenRouter API key",
		})
	}

	// Ensure Gin is in release mode for production
	if c.Server.GinMode != "release" {
		errors = append(errors, ValidationError{
			Field:   "Server.GinMode",
			Message: "production deployment should use 'release' mode",
		})
	}

	if errors.HasErrors() {
		return errors
	}

	return nil
}

// IsProduction determines if the current environment is production
// based on the GinMode setting
func (c *Config) IsProduction() bool {
	return c.Server.GinMode == "release"
}

// ValidateWithContext validates configuration and runs production checks if appropriate
func (c *Config) ValidateWithContext() error {
	// Always run basic validation
	if err := c.Validate(); err != nil {
		return err
	}

	// Run production validation if in production mode
	if c.IsProduction() {
		if err := c.ValidateProduction(); err != nil {
			return fmt.Errorf("production validation failed: %w", err)
		}
	}

	return nil
}
