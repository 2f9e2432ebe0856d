package engine

import (
	"fmt"
	"strings"
)

// formatSpecialCases are column-name words that should not be plain
// Title Cased for display.
var formatSpecialCases = map[string]string{
	"eu":       "EU",
	"euros":    "Euros",
	"euro":     "(€)",
	"millions": "(Millions)",
}

// FormatColumnName transforms a snake_case column name into a display
// header: "eu_contribution_euro" becomes "EU Contribution (€)".
func FormatColumnName(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	formatted := make([]string, 0, len(words))
	for _, w := range words {
		if special, ok := formatSpecialCases[strings.ToLower(w)]; ok {
			formatted = append(formatted, special)
			continue
		}
		formatted = append(formatted, capitalize(w))
	}
	return strings.Join(formatted, " ")
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
}

// isMonetaryColumn reports whether a column holds euro amounts, judged
// from its name the same way the display layer does.
func isMonetaryColumn(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"euro", "€", "budget", "contribution", "funding"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// FormatCell renders a result cell for display or CSV export. Floats in
// monetary columns get a euro prefix; all floats get thousands
// separators; NULL renders empty.
func FormatCell(column string, value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case float64:
		if isMonetaryColumn(column) {
			return "€" + groupThousands(fmt.Sprintf("%.2f", v))
		}
		return groupThousands(fmt.Sprintf("%.2f", v))
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// groupThousands inserts comma separators into the integer part of a
// formatted decimal number.
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	out := b.String() + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
