package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatColumnName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"acronym", "Acronym"},
		{"project_start_date", "Project Start Date"},
		{"eu_contribution_euro", "EU Contribution (€)"},
		{"total_budget_euro", "Total Budget (€)"},
		{"net_eu_contribution_euro", "Net EU Contribution (€)"},
		{"budget_millions", "Budget (Millions)"},
		{"country_territory", "Country Territory"},
		{"COUNT(*)", "Count(*)"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatColumnName(tt.in))
		})
	}
}

func TestFormatCell(t *testing.T) {
	t.Run("nil renders empty", func(t *testing.T) {
		assert.Equal(t, "", FormatCell("total_budget_euro", nil))
	})

	t.Run("monetary float gets euro prefix and separators", func(t *testing.T) {
		assert.Equal(t, "€4,999,000.00", FormatCell("total_budget_euro", float64(4999000)))
		assert.Equal(t, "€1,234.56", FormatCell("eu_contribution_euro", 1234.56))
	})

	t.Run("funding columns count as monetary", func(t *testing.T) {
		assert.Equal(t, "€100.00", FormatCell("total_funding", float64(100)))
	})

	t.Run("plain float gets separators only", func(t *testing.T) {
		assert.Equal(t, "1,234.50", FormatCell("avg_participations", 1234.5))
	})

	t.Run("negative float", func(t *testing.T) {
		assert.Equal(t, "-1,000.00", FormatCell("delta", float64(-1000)))
	})

	t.Run("integers pass through unformatted", func(t *testing.T) {
		assert.Equal(t, "42", FormatCell("project_count", int64(42)))
	})

	t.Run("strings pass through", func(t *testing.T) {
		assert.Equal(t, "REGILIENCE", FormatCell("acronym", "REGILIENCE"))
	})
}
