package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/adaptmel/missionquery/internal/contract"
	apperrors "github.com/adaptmel/missionquery/internal/errors"
	"github.com/adaptmel/missionquery/internal/llm"
	"github.com/adaptmel/missionquery/internal/observability"
	"github.com/adaptmel/missionquery/internal/schema"
	"github.com/adaptmel/missionquery/internal/store"
)

const translateMaxTokens = 512

// QueryOptions bounds question processing. Zero values fall back to
// the defaults at construction.
type QueryOptions struct {
	Timeout           time.Duration
	CacheTTL          time.Duration
	MaxQuestionLength int
}

// DefaultQueryOptions returns the bounds used when none are configured
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		Timeout:           60 * time.Second,
		CacheTTL:          5 * time.Minute,
		MaxQuestionLength: 500,
	}
}

// AskRequest represents an incoming natural language question
type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// AskResponse represents one answered question
type AskResponse struct {
	Question       string          `json:"question"`
	SQL            string          `json:"sql"`
	State          ResultState     `json:"state"`
	Columns        []string        `json:"columns"`
	DisplayColumns []string        `json:"display_columns"`
	Rows           [][]interface{} `json:"rows"`
	RowCount       int             `json:"row_count"`
	Suggestions    []string        `json:"suggestions,omitempty"`
	Caption        string          `json:"caption,omitempty"`
	CacheHit       bool            `json:"cache_hit,omitempty"`
	ElapsedMS      int64           `json:"elapsed_ms"`
}

// Engine runs the question pipeline: translate, validate, execute,
// interpret, summarize.
type Engine struct {
	translator  llm.Client
	summarizer  *Summarizer
	validator   *StatementValidator
	store       *store.Store
	interpreter *Interpreter
	cache       *redis.Client
	schema      *schema.Descriptor
	logger      *observability.Logger
	health      *observability.HealthChecker
	opts        QueryOptions

	// Set after the reasoning service rejects the credential. All
	// further questions fail fast until the process restarts with a
	// fixed key.
	credentialInvalid atomic.Bool
}

// New creates an engine. cache may be nil to disable translation caching.
func New(translator llm.Client, s *store.Store, cache *redis.Client) *Engine {
	d := schema.Default()
	return &Engine{
		translator:  translator,
		summarizer:  NewSummarizer(translator),
		validator:   NewStatementValidator(d),
		store:       s,
		interpreter: NewInterpreter(s),
		cache:       cache,
		schema:      d,
		logger:      observability.NewLogger("engine"),
		opts:        DefaultQueryOptions(),
	}
}

// SetQueryOptions overrides the processing bounds. Zero fields keep
// their defaults.
func (e *Engine) SetQueryOptions(opts QueryOptions) {
	if opts.Timeout > 0 {
		e.opts.Timeout = opts.Timeout
	}
	if opts.CacheTTL > 0 {
		e.opts.CacheTTL = opts.CacheTTL
	}
	if opts.MaxQuestionLength > 0 {
		e.opts.MaxQuestionLength = opts.MaxQuestionLength
	}
}

// Ask answers one natural language question end to end
func (e *Engine) Ask(ctx context.Context, req *AskRequest) (*AskResponse, error) {
	start := time.Now()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, apperrors.NewInvalidInputError("question", "must not be empty")
	}
	if len(question) > e.opts.MaxQuestionLength {
		return nil, apperrors.NewInvalidInputError("question",
			fmt.Sprintf("must not exceed %d characters", e.opts.MaxQuestionLength))
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	e.logger.Info(ctx, "Processing question", map[string]interface{}{
		"question": question,
	})

	var errorType string
	var response *AskResponse
	var processingErr error

	defer func() {
		duration := time.Since(start)
		success := processingErr == nil
		cached := response != nil && response.CacheHit
		observability.RecordQuestionMetrics(duration, success, cached, errorType)

		if processingErr != nil {
			e.logger.Error(ctx, "Question processing failed", processingErr, map[string]interface{}{
				"question":    question,
				"duration_ms": duration.Milliseconds(),
				"error_type":  errorType,
			})
		} else {
			e.logger.Info(ctx, "Question answered", map[string]interface{}{
				"question":    question,
				"duration_ms": duration.Milliseconds(),
				"state":       response.State,
				"rows":        response.RowCount,
				"cache_hit":   cached,
			})
		}
	}()

	if e.credentialInvalid.Load() {
		errorType = "credential_invalid"
		processingErr = apperrors.NewTranslationAuthError(
			fmt.Errorf("credential was previously rejected; restart with a valid key"))
		return nil, processingErr
	}

	if cached, err := e.getCachedResponse(ctx, question); err == nil {
		e.logger.Debug(ctx, "Cache hit for question", map[string]interface{}{
			"question": question,
		})
		cached.CacheHit = true
		cached.ElapsedMS = time.Since(start).Milliseconds()
		response = cached
		return cached, nil
	}

	sql, err := e.translate(ctx, question)
	if err != nil {
		errorType = "translation"
		processingErr = err
		return nil, processingErr
	}

	if err := e.validator.ValidateStatement(sql); err != nil {
		errorType = "safety_validation"
		processingErr = err
		observability.GetGlobalMetrics().Inc(observability.MetricQuestionSafetyViolation, nil)
		return nil, processingErr
	}

	execStart := time.Now()
	rs, err := e.store.Execute(ctx, sql)
	observability.RecordStoreMetrics(time.Since(execStart), err)
	if err != nil {
		errorType = "execution"
		processingErr = err
		return nil, processingErr
	}

	state := e.interpreter.Classify(rs)

	response = &AskResponse{
		Question: question,
		SQL:      sql,
		State:    state,
		Columns:  rs.Columns,
		Rows:     rs.Rows,
		RowCount: rs.RowCount(),
	}

	response.DisplayColumns = make([]string, len(rs.Columns))
	for i, col := range rs.Columns {
		response.DisplayColumns[i] = FormatColumnName(col)
	}

	switch state {
	case StateNormal:
		response.Caption = e.summarizer.Summarize(ctx, question, sql, rs)
	default:
		observability.GetGlobalMetrics().Inc(observability.MetricQuestionEmptyResults, nil)
		response.Suggestions = e.interpreter.Diagnose(ctx, sql)
	}

	response.ElapsedMS = time.Since(start).Milliseconds()

	if err := e.cacheResponse(ctx, question, response); err != nil {
		e.logger.Warn(ctx, "Failed to cache response", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return response, nil
}

// translate asks the reasoning service for a SQL statement and
// sanitizes its answer. Failures map onto the translation error
// taxonomy; no automatic retry on any path.
func (e *Engine) translate(ctx context.Context, question string) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: contract.SystemPrompt(e.schema)},
		{Role: llm.RoleUser, Content: question},
	}

	callStart := time.Now()
	resp, err := e.translator.Complete(ctx, messages, translateMaxTokens)
	if err != nil {
		observability.RecordTranslationMetrics("translate", time.Since(callStart), 0, err)
		switch {
		case llm.IsAuth(err):
			e.credentialInvalid.Store(true)
			return "", apperrors.NewTranslationAuthError(err)
		case llm.IsRateLimited(err):
			return "", apperrors.NewTranslationRateLimitError(err)
		case llm.IsTimeout(err):
			return "", apperrors.NewTranslationUpstreamError(err).
				WithMetadata("retryable", true)
		default:
			return "", apperrors.NewTranslationUpstreamError(err)
		}
	}
	observability.RecordTranslationMetrics("translate",
		time.Since(callStart), resp.PromptTokens+resp.CompletionTokens, nil)

	sql := SanitizeSQL(resp.Text)
	if sql == "" {
		return "", apperrors.NewEmptyTranslationError()
	}
	return sql, nil
}

// SanitizeSQL strips markdown code fences from a model answer. Models
// wrap statements in ```sql fences despite being told not to.
func SanitizeSQL(text string) string {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, "```sql", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// getCachedResponse retrieves a cached answer for the question
func (e *Engine) getCachedResponse(ctx context.Context, question string) (*AskResponse, error) {
	if e.cache == nil {
		return nil, redis.Nil
	}

	key := cacheKey(question)
	cached, err := e.cache.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var response AskResponse
	if err := json.Unmarshal([]byte(cached), &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// cacheResponse stores an answer in the cache
func (e *Engine) cacheResponse(ctx context.Context, question string, response *AskResponse) error {
	if e.cache == nil {
		return nil
	}

	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return e.cache.Set(ctx, cacheKey(question), data, e.opts.CacheTTL).Err()
}

func cacheKey(question string) string {
	return fmt.Sprintf("question:%s", strings.ToLower(strings.TrimSpace(question)))
}
