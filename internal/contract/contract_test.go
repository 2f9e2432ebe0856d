package contract

import (
	"strings"
	"testing"

	"github.com/adaptmel/missionquery/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules(t *testing.T) {
	rules := Rules()
	require.Len(t, rules, 9)

	byName := map[string]string{}
	for _, r := range rules {
		byName[r.Name] = r.Text
	}

	t.Run("multi-value rule forbids equality", func(t *testing.T) {
		text := byName["MULTI-VALUE FIELD QUERIES"]
		assert.Contains(t, text, "LIKE")
		assert.Contains(t, text, "WRONG")
		assert.Contains(t, text, "climate_risks = 'Drought'")
	})

	t.Run("monetary rule pins euros and rounding", func(t *testing.T) {
		text := byName["MONETARY VALUES"]
		assert.Contains(t, text, "EUROS (not thousands)")
		assert.Contains(t, text, "ROUND(euro_value, 2)")
		assert.Contains(t, text, "1000000.0")
	})

	t.Run("date rule uses calendar strings", func(t *testing.T) {
		text := byName["DATE HANDLING"]
		assert.Contains(t, text, "strftime('%Y', project_start_date)")
		assert.Contains(t, text, "Never cast dates to numbers")
	})

	t.Run("geographic rule excludes the sentinel", func(t *testing.T) {
		assert.Contains(t, byName["GEOGRAPHIC QUERIES"], "nuts_1_name != '-'")
	})

	t.Run("join rule requires optional joins", func(t *testing.T) {
		text := byName["JOINING TABLES"]
		assert.Contains(t, text, "LEFT JOIN")
		assert.Contains(t, text, "Do NOT join")
	})

	t.Run("aggregation rule sets the default row cap", func(t *testing.T) {
		text := byName["AGGREGATION DEFAULTS"]
		assert.Contains(t, text, "Default LIMIT: 20")
		assert.Contains(t, text, "ORDER BY for TOP N")
	})

	t.Run("output rule demands one bare statement", func(t *testing.T) {
		text := byName["OUTPUT FORMAT"]
		assert.Contains(t, text, "exactly one statement")
		assert.Contains(t, text, "Do NOT include markdown code fences")
	})
}

func TestExamples(t *testing.T) {
	for _, ex := range Examples() {
		upper := strings.ToUpper(ex.SQL)
		assert.True(t, strings.HasPrefix(upper, "SELECT"), ex.Question)
		// Examples must themselves obey the multi-value rule.
		for _, col := range []string{"climate_risks", "main_themes", "regions"} {
			assert.NotContains(t, ex.SQL, col+" = ", ex.Question)
		}
	}
}

func TestSystemPrompt(t *testing.T) {
	prompt := SystemPrompt(schema.Default())

	assert.Contains(t, prompt, "DATABASE SCHEMA:")
	assert.Contains(t, prompt, "=== CRITICAL RULES ===")
	assert.Contains(t, prompt, "=== EXAMPLES ===")
	assert.Contains(t, prompt, "RULE 1 - MULTI-VALUE FIELD QUERIES:")
	assert.Contains(t, prompt, "RULE 9 - OUTPUT FORMAT:")
	assert.Contains(t, prompt, `Q: "What are the top 5 projects by budget?"`)
	assert.Contains(t, prompt, "LEFT JOIN participants part ON p.coordinator_org = part.legal_name")
}
