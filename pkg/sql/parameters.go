package sql

import (
	"fmt"
	"regexp"
)

// parameterRegex matches {{parameter_name}} placeholders in SQL queries.
// Parameter names must start with a letter or underscore, followed by any
// number of alphanumeric characters or underscores.
var parameterRegex = regexp.MustCompile(`\{\{([a-zA-Z_]\w*)\}\}`)

// ExtractParameters finds all {{param}} placeholders in SQL and returns
// a deduplicated list of parameter names in order of first appearance.
func ExtractParameters(sqlQuery string) []string {
	matches := parameterRegex.FindAllStringSubmatch(sqlQuery, -1)
	seen := make(map[string]bool)
	var params []string

	for _, match := range matches {
		name := match[1]
		if !seen[name] {
			seen[name] = true
			params = append(params, name)
		}
	}

	return params
}

// SubstituteParameters replaces {{param}} placeholders with PostgreSQL
// positional parameters ($1, $2, ...) and returns the prepared SQL along
// with ordered values for binding. The same $N is reused when a parameter
// appears multiple times. Values are never interpolated into the SQL text;
// they always travel as bind parameters.
//
// Example:
//
//	sql := "SELECT * FROM defects WHERE equipment_id = {{equipment_id}}"
//	prepared, values, err := SubstituteParameters(sql, map[string]any{"equipment_id": "a1"})
//	// prepared == "SELECT * FROM defects WHERE equipment_id = $1"
//	// values == []any{"a1"}
func SubstituteParameters(sqlQuery string, supplied map[string]any) (string, []any, error) {
	for _, name := range ExtractParameters(sqlQuery) {
		if _, ok := supplied[name]; !ok {
			return "", nil, fmt.Errorf("parameter {{%s}} used in SQL but no value supplied", name)
		}
	}

	var orderedValues []any
	paramIndex := 1
	paramPositions := make(map[string]int)

	result := parameterRegex.ReplaceAllStringFunc(sqlQuery, func(match string) string {
		name := parameterRegex.FindStringSubmatch(match)[1]

		// Same param used multiple times keeps its first position
		if pos, exists := paramPositions[name]; exists {
			return fmt.Sprintf("$%d", pos)
		}

		paramPositions[name] = paramIndex
		orderedValues = append(orderedValues, supplied[name])
		pos := paramIndex
		paramIndex++

		return fmt.Sprintf("$%d", pos)
	})

	return result, orderedValues, nil
}
