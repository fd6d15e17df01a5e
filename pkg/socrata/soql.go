package socrata

import (
	"fmt"
	"strings"
)

// EscapeString doubles single quotes for safe embedding in a SoQL string
// literal.
func EscapeString(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}

// QuoteString wraps a value as an escaped SoQL string literal.
func QuoteString(v string) string {
	return "'" + EscapeString(v) + "'"
}

// InInt64 builds a "field in(1,2,3)" predicate.
func InInt64(field string, values []int64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("%s in(%s)", field, strings.Join(parts, ","))
}

// OrGroup joins conditions with OR and parenthesizes the result.
func OrGroup(conditions []string) string {
	return "(" + strings.Join(conditions, " OR ") + ")"
}
