package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/adaptmel/missionquery/internal/observability"
	"github.com/adaptmel/missionquery/internal/store"
)

// ResultState classifies an executed result set
type ResultState string

const (
	// StateNormal is a displayable result with at least one real row
	StateNormal ResultState = "normal"
	// StateEmpty is a result with zero rows
	StateEmpty ResultState = "empty"
	// StateDegenerate is a single-row aggregate over no matching data,
	// e.g. SELECT AVG(x) over an empty match returns one NULL row
	StateDegenerate ResultState = "degenerate_aggregate"
)

// Interpreter classifies results and explains empty ones
type Interpreter struct {
	store  *store.Store
	logger *observability.Logger
}

// NewInterpreter creates an interpreter backed by the given store
func NewInterpreter(s *store.Store) *Interpreter {
	return &Interpreter{
		store:  s,
		logger: observability.NewLogger("interpreter"),
	}
}

// Classify decides the state of a result set. A single row counts as a
// degenerate aggregate when it holds at least one NULL and no non-NULL
// numeric cell, which is how an aggregate over nothing comes back.
func (in *Interpreter) Classify(rs *store.ResultSet) ResultState {
	if rs.RowCount() == 0 {
		return StateEmpty
	}
	if rs.RowCount() != 1 {
		return StateNormal
	}

	hasNull := false
	for _, cell := range rs.Rows[0] {
		switch cell.(type) {
		case nil:
			hasNull = true
		case int64, float64:
			return StateNormal
		}
	}
	if hasNull {
		return StateDegenerate
	}
	return StateNormal
}

const sampleTruncateLen = 100

// Diagnose inspects the SQL of an empty result and probes the database
// for hints about what the data actually contains. Probes are best
// effort: a failing probe degrades to an explanatory message and never
// aborts the interaction.
func (in *Interpreter) Diagnose(ctx context.Context, sql string) []string {
	var suggestions []string
	upper := strings.ToUpper(sql)

	if strings.Contains(upper, "PROJECTS") {
		if strings.Contains(sql, "climate_risks LIKE") ||
			strings.Contains(sql, "main_themes LIKE") ||
			strings.Contains(sql, "regions LIKE") {
			suggestions = append(suggestions,
				"**Tip**: Multi-value fields use semicolon-separated lists. Make sure your search term matches the exact capitalization in the data.",
				"Common climate risks: Drought, Flooding, Extreme heat, Sea level rise, Wildfires, Heavy precipitation",
				"Common themes: Governance, Infrastructure, Water management, Ecosystems and nature-based solutions",
			)
		}

		samples, err := in.store.SampleMultiValue(ctx, "climate_risks", 5)
		if err != nil {
			in.logger.Warn(ctx, "Climate risk probe failed", map[string]interface{}{
				"error": err.Error(),
			})
			suggestions = append(suggestions, fmt.Sprintf("Unable to analyze query: %s", err.Error()))
		} else if len(samples) > 0 {
			suggestions = append(suggestions,
				fmt.Sprintf("Example climate risks in database: %s...", truncate(samples[0], sampleTruncateLen)))
		}
	}

	if strings.Contains(upper, "PARTICIPANTS") {
		countries, err := in.store.TopCountries(ctx, 5)
		if err != nil {
			in.logger.Warn(ctx, "Country probe failed", map[string]interface{}{
				"error": err.Error(),
			})
			suggestions = append(suggestions, fmt.Sprintf("Unable to analyze query: %s", err.Error()))
		} else if len(countries) > 0 {
			parts := make([]string, 0, len(countries))
			for _, c := range countries {
				parts = append(parts, fmt.Sprintf("%s (%d)", c.Country, c.Count))
			}
			suggestions = append(suggestions,
				fmt.Sprintf("Top countries with participants: %s", strings.Join(parts, ", ")))
		}
	}

	return suggestions
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
