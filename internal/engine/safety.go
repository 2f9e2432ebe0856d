package engine

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "github.com/adaptmel/missionquery/internal/errors"
	"github.com/adaptmel/missionquery/internal/schema"
)

// StatementValidator checks generated SQL before it reaches the store.
// Generated statements are untrusted input: anything that is not a
// single read-only SELECT over the two known tables is rejected.
type StatementValidator struct {
	schema *schema.Descriptor
}

// NewStatementValidator creates a validator bound to the schema descriptor
func NewStatementValidator(d *schema.Descriptor) *StatementValidator {
	return &StatementValidator{schema: d}
}

var forbiddenKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "CREATE",
	"REPLACE", "TRUNCATE", "ATTACH", "DETACH", "PRAGMA",
	"VACUUM", "REINDEX",
}

var (
	tableRefPattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	ctePattern      = regexp.MustCompile(`(?i)\b([A-Za-z_][A-Za-z0-9_]*)\s+AS\s*\(`)
)

// ValidateStatement checks that sql is a single read-only SELECT
// referencing only known tables. Violations come back as safety
// validation errors and the statement must not be executed.
func (v *StatementValidator) ValidateStatement(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return apperrors.NewSafetyValidationError("statement is empty")
	}

	// A single trailing semicolon is fine; anything else means
	// multiple statements.
	trimmed = strings.TrimSuffix(trimmed, ";")
	if containsBareSemicolon(trimmed) {
		return apperrors.NewSafetyValidationError("multiple statements are not allowed")
	}

	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return apperrors.NewSafetyValidationError("only SELECT statements are allowed")
	}

	// Keyword and table scans must not see quoted literals: a filter
	// like LIKE '%update%' is legitimate generated SQL.
	bare := stripQuotedLiterals(trimmed)
	upperBare := strings.ToUpper(bare)

	for _, keyword := range forbiddenKeywords {
		pattern := regexp.MustCompile(`\b` + keyword + `\b`)
		if pattern.MatchString(upperBare) {
			return apperrors.NewSafetyValidationError(
				fmt.Sprintf("statement contains forbidden keyword: %s", keyword))
		}
	}

	// CTE names introduced by WITH are legal FROM targets.
	cteNames := map[string]bool{}
	for _, m := range ctePattern.FindAllStringSubmatch(bare, -1) {
		cteNames[strings.ToLower(m[1])] = true
	}

	for _, m := range tableRefPattern.FindAllStringSubmatch(bare, -1) {
		name := strings.ToLower(m[1])
		if cteNames[name] {
			continue
		}
		if !v.schema.IsKnownTable(name) {
			return apperrors.NewSafetyValidationError(
				fmt.Sprintf("statement references unknown table: %s", m[1]))
		}
	}

	return nil
}

// stripQuotedLiterals blanks out the contents of single and double
// quoted literals so keyword and table scans only see the statement
// structure. Quote characters themselves are kept.
func stripQuotedLiterals(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSingle, inDouble := false, false
	for _, r := range s {
		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			b.WriteRune(r)
		case r == '"' && !inSingle:
			inDouble = !inDouble
			b.WriteRune(r)
		case inSingle || inDouble:
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// containsBareSemicolon reports whether s holds a semicolon outside of
// single or double quoted literals.
func containsBareSemicolon(s string) bool {
	inSingle, inDouble := false, false
	for _, r := range s {
		switch r {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case ';':
			if !inSingle && !inDouble {
				return true
			}
		}
	}
	return false
}
