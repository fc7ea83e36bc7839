package sql

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	fromTablePattern    = regexp.MustCompile(`(?i)\bfrom\s+([a-zA-Z_][a-zA-Z0-9_.]*)`)
	trailingClausePat   = regexp.MustCompile(`(?i)\b(order\s+by|group\s+by|having|limit)\b`)
	workspaceColumnName = "workspace_id"
)

// ScopeToWorkspace rewrites a SELECT so its main table is filtered to one
// workspace. Document-store identifiers are translated to their relational
// UUID form first. The query is returned unchanged when it already references
// the workspace column, when no FROM table can be found, or when workspaceID
// is empty. A workspace id that is neither a document id nor a UUID never
// reaches the SQL text: only WorkspaceUUID output is interpolated, so the
// header value cannot smuggle its own predicate into the filter.
func ScopeToWorkspace(sqlQuery, workspaceID string) string {
	if workspaceID == "" {
		return sqlQuery
	}
	lower := strings.ToLower(sqlQuery)
	if strings.Contains(lower, workspaceColumnName) {
		return sqlQuery
	}

	match := fromTablePattern.FindStringSubmatch(sqlQuery)
	if match == nil {
		return sqlQuery
	}
	table := match[1]

	value, ok := WorkspaceUUID(workspaceID)
	if !ok {
		return sqlQuery
	}
	condition := fmt.Sprintf("%s.%s = '%s'", table, workspaceColumnName, value)

	if idx := strings.Index(lower, "where"); idx != -1 {
		head := sqlQuery[:idx+len("where")]
		tail := sqlQuery[idx+len("where"):]
		return fmt.Sprintf("%s %s AND%s", head, condition, tail)
	}

	// No WHERE clause: insert one before any trailing ORDER BY / GROUP BY /
	// HAVING / LIMIT.
	insert := len(sqlQuery)
	if loc := trailingClausePat.FindStringIndex(sqlQuery); loc != nil {
		insert = loc[0]
	}
	head := strings.TrimRight(sqlQuery[:insert], " \t\n")
	tail := sqlQuery[insert:]
	if tail == "" {
		return fmt.Sprintf("%s WHERE %s", head, condition)
	}
	return fmt.Sprintf("%s WHERE %s %s", head, condition, tail)
}
