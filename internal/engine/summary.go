package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/adaptmel/missionquery/internal/llm"
	"github.com/adaptmel/missionquery/internal/observability"
	"github.com/adaptmel/missionquery/internal/store"
)

const (
	summaryMaxTokens = 256
	summarySampleN   = 5
)

// Summarizer produces the short caption under a displayed table
type Summarizer struct {
	client llm.Client
	logger *observability.Logger
}

// NewSummarizer creates a summarizer using the given reasoning client
func NewSummarizer(client llm.Client) *Summarizer {
	return &Summarizer{
		client: client,
		logger: observability.NewLogger("summarizer"),
	}
}

// Summarize asks the reasoning service for a 1-2 sentence caption of a
// normal result. Any failure falls back to a deterministic caption so
// the table is never blocked on this call. No retry.
func (s *Summarizer) Summarize(ctx context.Context, question, sql string, rs *store.ResultSet) string {
	prompt := buildSummaryPrompt(question, sql, rs)
	observability.GetGlobalMetrics().Inc(observability.MetricSummaryRequests, nil)

	resp, err := s.client.Complete(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	}, summaryMaxTokens)
	if err != nil {
		s.logger.Warn(ctx, "Summary generation failed, using fallback", map[string]interface{}{
			"error": err.Error(),
		})
		observability.GetGlobalMetrics().Inc(observability.MetricSummaryFallbacks, nil)
		return FallbackCaption(rs.RowCount())
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		observability.GetGlobalMetrics().Inc(observability.MetricSummaryFallbacks, nil)
		return FallbackCaption(rs.RowCount())
	}
	return text
}

// FallbackCaption is the deterministic caption used when summary
// generation fails.
func FallbackCaption(rows int) string {
	return fmt.Sprintf("Table showing %d results for your query.", rows)
}

// buildSummaryPrompt renders the question, SQL and a sample of the
// result into the caption prompt.
func buildSummaryPrompt(question, sql string, rs *store.ResultSet) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Given this user question: %q\n\n", question)
	fmt.Fprintf(&b, "And this SQL query: %s\n\n", sql)

	b.WriteString("Sample results (first 5 rows):\n")
	limit := rs.RowCount()
	if limit > summarySampleN {
		limit = summarySampleN
	}
	for i := 0; i < limit; i++ {
		pairs := make([]string, 0, len(rs.Columns))
		for j, col := range rs.Columns {
			pairs = append(pairs, fmt.Sprintf("%s=%v", col, rs.Rows[i][j]))
		}
		fmt.Fprintf(&b, "- %s\n", strings.Join(pairs, ", "))
	}
	fmt.Fprintf(&b, "Total rows: %d\n\n", rs.RowCount())

	b.WriteString("Provide a clear, 1-2 sentence description explaining what this table shows and key findings.\n")
	b.WriteString("Be conversational. Focus on interpreting data for EU climate adaptation policy analysts.")

	return b.String()
}
