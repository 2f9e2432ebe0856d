// Package errors provides enhanced error types with helpful context and suggestions
package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Configuration errors
	ErrCodeMissingCredential ErrorCode = "MISSING_CREDENTIAL"
	ErrCodeInvalidConfig     ErrorCode = "INVALID_CONFIGURATION"

	// Translation errors (question -> SQL)
	ErrCodeTranslationAuth      ErrorCode = "TRANSLATION_AUTH_FAILED"
	ErrCodeTranslationRateLimit ErrorCode = "TRANSLATION_RATE_LIMITED"
	ErrCodeTranslationUpstream  ErrorCode = "TRANSLATION_UPSTREAM_FAILED"
	ErrCodeEmptyTranslation     ErrorCode = "EMPTY_TRANSLATION"

	// Statement safety errors
	ErrCodeSafetyValidation ErrorCode = "SAFETY_VALIDATION_FAILED"

	// Execution errors
	ErrCodeExecution ErrorCode = "SQL_EXECUTION_FAILED"

	// Summary errors (never fatal)
	ErrCodeSummaryGeneration ErrorCode = "SUMMARY_GENERATION_FAILED"

	// Input validation errors
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeMissingRequired ErrorCode = "MISSING_REQUIRED_FIELD"

	// Cache errors
	ErrCodeCacheRead  ErrorCode = "CACHE_READ_FAILED"
	ErrCodeCacheWrite ErrorCode = "CACHE_WRITE_FAILED"

	// Ingestion errors
	ErrCodeIngestion ErrorCode = "INGESTION_FAILED"
)

// EnhancedError represents an error with additional context and helpful information
type EnhancedError struct {
	Code          ErrorCode              `json:"code"`
	Message       string                 `json:"message"`
	Details       string                 `json:"details,omitempty"`
	Suggestion    string                 `json:"suggestion,omitempty"`
	Documentation string                 `json:"documentation,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	Cause         error                  `json:"-"`
}

// Error implements the error interface
func (e *EnhancedError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))
	if e.Details != "" {
		sb.WriteString(fmt.Sprintf(": %s", e.Details))
	}
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(" (cause: %v)", e.Cause))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error chain unwrapping
func (e *EnhancedError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly error message with suggestions
func (e *EnhancedError) UserMessage() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Details != "" {
		sb.WriteString(fmt.Sprintf("\n\nDetails: %s", e.Details))
	}

	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("\n\nSuggestion: %s", e.Suggestion))
	}

	return sb.String()
}

// New creates a new EnhancedError
func New(code ErrorCode, message string) *EnhancedError {
	return &EnhancedError{
		Code:     code,
		Message:  message,
		Metadata: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with enhanced context
func Wrap(err error, code ErrorCode, message string) *EnhancedError {
	return &EnhancedError{
		Code:     code,
		Message:  message,
		Cause:    err,
		Metadata: make(map[string]interface{}),
	}
}

// WithDetails adds detailed information about the error
func (e *EnhancedError) WithDetails(details string) *EnhancedError {
	e.Details = details
	return e
}

// WithSuggestion adds a suggestion on how to fix the error
func (e *EnhancedError) WithSuggestion(suggestion string) *EnhancedError {
	e.Suggestion = suggestion
	return e
}

// WithMetadata adds additional metadata to the error
func (e *EnhancedError) WithMetadata(key string, value interface{}) *EnhancedError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Common error constructors with pre-configured messages

// NewMissingCredentialError is raised at startup when the reasoning-service
// credential is absent. No question may be accepted until it is fixed.
func NewMissingCredentialError() *EnhancedError {
	return New(ErrCodeMissingCredential, "Missing reasoning service API key").
		WithDetails("The OPENROUTER_API_KEY environment variable is not set").
		WithSuggestion("Set the OPENROUTER_API_KEY environment variable (export OPENROUTER_API_KEY=\"your-key-here\") and restart the service.")
}

// NewTranslationAuthError wraps a 401 from the reasoning service. Fatal:
// no further questions should be processed until the credential is fixed.
func NewTranslationAuthError(err error) *EnhancedError {
	return Wrap(err, ErrCodeTranslationAuth, "Invalid reasoning service API key").
		WithDetails("The reasoning service rejected the configured credential").
		WithSuggestion("Check the OPENROUTER_API_KEY environment variable and restart the service.").
		WithMetadata("retryable", false)
}

// NewTranslationRateLimitError wraps a 429 from the reasoning service.
func NewTranslationRateLimitError(err error) *EnhancedError {
	return Wrap(err, ErrCodeTranslationRateLimit, "Reasoning service rate limit exceeded").
		WithDetails("Too many translation requests in a short period").
		WithSuggestion("Please wait a moment and resubmit your question.").
		WithMetadata("retryable", true)
}

// NewTranslationUpstreamError wraps any other reasoning-service failure.
func NewTranslationUpstreamError(err error) *EnhancedError {
	return Wrap(err, ErrCodeTranslationUpstream, "Failed to translate question to SQL").
		WithDetails("The reasoning service returned an error").
		WithSuggestion("Try rephrasing your question, or resubmit it in a moment.")
}

// NewEmptyTranslationError is raised when the service returns no usable statement.
func NewEmptyTranslationError() *EnhancedError {
	return New(ErrCodeEmptyTranslation, "Reasoning service returned no SQL statement").
		WithSuggestion("Try rephrasing your question to be more specific about projects or participants.")
}

// NewSafetyValidationError is raised when a generated statement fails shape
// validation and must not be executed.
func NewSafetyValidationError(detail string) *EnhancedError {
	return New(ErrCodeSafetyValidation, "Generated SQL failed safety validation").
		WithDetails(detail).
		WithSuggestion("The statement was not executed. Try rephrasing your question.")
}

// NewExecutionError wraps a store rejection. The driver diagnostic is kept
// verbatim to aid debugging of generated SQL.
func NewExecutionError(err error, sql string) *EnhancedError {
	return Wrap(err, ErrCodeExecution, "Query execution failed").
		WithDetails(err.Error()).
		WithSuggestion("The generated SQL was rejected by the database. Review the statement and try rephrasing your question.").
		WithMetadata("sql", sql)
}

// NewInvalidInputError creates an error for invalid input
func NewInvalidInputError(field string, reason string) *EnhancedError {
	return New(ErrCodeInvalidInput, "Invalid input").
		WithDetails(fmt.Sprintf("Field '%s' is invalid: %s", field, reason)).
		WithSuggestion("Please check the API documentation for the expected format and try again.")
}

// NewIngestionError wraps a failure in the one-shot data load.
func NewIngestionError(err error, source string) *EnhancedError {
	return Wrap(err, ErrCodeIngestion, "Data ingestion failed").
		WithDetails(fmt.Sprintf("Failed to load source: %s", source)).
		WithSuggestion("Verify the source file exists and matches the documented column layout.")
}
