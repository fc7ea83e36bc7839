// Package sql provides the text-level safety boundary for the relational
// tool catalog: read-only statement enforcement, operation wrapping,
// parameter substitution, and injection screening. Everything here runs
// before a query ever reaches a connection.
package sql

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrMultipleStatements indicates the query contains multiple SQL statements.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")

	// ErrNotReadOnly indicates the query is not a SELECT or WITH statement.
	ErrNotReadOnly = errors.New("only SELECT and WITH queries are allowed")
)

// limitPattern detects an existing LIMIT clause so one is not injected twice.
var limitPattern = regexp.MustCompile(`(?is)\blimit\s+\d+`)

// ValidationResult contains the normalized SQL and any validation errors.
type ValidationResult struct {
	NormalizedSQL string
	Error         error
}

// ValidateReadOnly checks that a query is a single read-only statement and
// returns it normalized (trimmed, trailing semicolon stripped).
//
// The validation order is:
//  1. Strip trailing semicolon and whitespace (normalize)
//  2. Reject multiple statements (any remaining semicolons outside string literals)
//  3. Reject anything whose lower-cased text does not start with SELECT or WITH
func ValidateReadOnly(sqlQuery string) ValidationResult {
	sqlQuery = strings.TrimSpace(sqlQuery)
	if sqlQuery == "" {
		return ValidationResult{Error: fmt.Errorf("%w: empty query", ErrNotReadOnly)}
	}

	normalized := stripTrailingSemicolon(sqlQuery)

	if hasSemicolonOutsideStrings(normalized) {
		return ValidationResult{Error: ErrMultipleStatements}
	}

	lowered := strings.ToLower(normalized)
	if !strings.HasPrefix(lowered, "select") && !strings.HasPrefix(lowered, "with") {
		return ValidationResult{Error: ErrNotReadOnly}
	}

	return ValidationResult{NormalizedSQL: normalized}
}

// WrapCount rewrites a validated query to return its row count.
func WrapCount(normalizedSQL string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS subquery", normalizedSQL)
}

// WrapExists rewrites a validated query to return whether it yields rows.
func WrapExists(normalizedSQL string) string {
	return fmt.Sprintf("SELECT EXISTS(%s)", normalizedSQL)
}

// EnsureLimit appends a LIMIT clause when the caller asked for one and the
// query does not already carry its own.
func EnsureLimit(normalizedSQL string, limit int) string {
	if limit <= 0 {
		return normalizedSQL
	}
	if limitPattern.MatchString(normalizedSQL) {
		return normalizedSQL
	}
	return fmt.Sprintf("%s LIMIT %d", normalizedSQL, limit)
}

// stripTrailingSemicolon removes one trailing semicolon plus surrounding
// whitespace.
func stripTrailingSemicolon(sqlQuery string) string {
	trimmed := strings.TrimSpace(sqlQuery)
	trimmed = strings.TrimSuffix(trimmed, ";")
	return strings.TrimSpace(trimmed)
}

// hasSemicolonOutsideStrings returns true if the SQL contains any semicolon
// outside of string literals.
func hasSemicolonOutsideStrings(sqlQuery string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal

	for i := 0; i < len(sqlQuery); i++ {
		ch := sqlQuery[i]
		switch state {
		case stateNormal:
			switch ch {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			if ch == '\'' {
				// SQL standard escape ('') stays inside the literal
				if i+1 < len(sqlQuery) && sqlQuery[i+1] == '\'' {
					i++
					continue
				}
				state = stateNormal
			}
		case stateDoubleQuote:
			if ch == '"' {
				state = stateNormal
			}
		}
	}

	return false
}
