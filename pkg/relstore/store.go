// Package relstore implements the relational side of the tool catalog:
// guarded query execution, catalog introspection, and sampling, all scoped
// to a single schema namespace.
package relstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fleetlens/fleetlens-engine/pkg/apperrors"
	"github.com/fleetlens/fleetlens-engine/pkg/logging"
	enginesql "github.com/fleetlens/fleetlens-engine/pkg/sql"
)

// Operation selects how ExecuteQuery shapes its result.
type Operation string

const (
	OpSelect Operation = "select"
	OpCount  Operation = "count"
	OpExists Operation = "exists"
)

// QueryResult carries rows decoded into generic maps plus the executed SQL
// for transparency in tool output.
type QueryResult struct {
	Rows        []map[string]any `json:"rows"`
	RowCount    int              `json:"rowCount"`
	ExecutedSQL string           `json:"executedSql"`
}

// Store executes relational operations for the tool catalog. All access is
// read-only and confined to the configured schema namespace.
type Store struct {
	pool   *pgxpool.Pool
	schema string
	logger *zap.Logger
}

// NewStore creates a Store over an established pool, scoped to schema.
func NewStore(pool *pgxpool.Pool, schema string, logger *zap.Logger) *Store {
	return &Store{pool: pool, schema: schema, logger: logger}
}

// Schema returns the namespace this store is scoped to.
func (s *Store) Schema() string {
	return s.schema
}

// ExecuteQuery runs a read-only query. The text-level guard runs first and
// rejects anything that is not a single SELECT/WITH statement; parameter
// values are screened for injection patterns and bound positionally, never
// interpolated. count and exists wrap the query rather than trusting the
// model to write the wrapper itself.
func (s *Store) ExecuteQuery(ctx context.Context, op Operation, query string, params map[string]any, limit int) (*QueryResult, error) {
	if s.pool == nil {
		return nil, apperrors.ErrNotConnected
	}

	validated := enginesql.ValidateReadOnly(query)
	if validated.Error != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidOperation, validated.Error)
	}

	if findings := enginesql.CheckAllParameters(params); len(findings) > 0 {
		return nil, fmt.Errorf("%w: parameter %q failed injection screening",
			apperrors.ErrInvalidOperation, findings[0].ParamName)
	}

	prepared, values, err := enginesql.SubstituteParameters(validated.NormalizedSQL, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidOperation, err)
	}

	// Document-store identifiers pasted into relational queries become
	// their derived UUID form.
	prepared = enginesql.RewriteObjectIDLiterals(prepared)

	switch op {
	case OpSelect:
		prepared = enginesql.EnsureLimit(prepared, limit)
	case OpCount:
		prepared = enginesql.WrapCount(prepared)
	case OpExists:
		prepared = enginesql.WrapExists(prepared)
	default:
		return nil, fmt.Errorf("%w: operation must be select, count or exists, got %q",
			apperrors.ErrInvalidOperation, op)
	}

	s.logger.Debug("relational query",
		zap.String("operation", string(op)),
		zap.String("query", logging.SanitizeQuery(prepared)))

	rows, err := s.pool.Query(ctx, prepared, values...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	decoded, err := rowsToMaps(rows)
	if err != nil {
		return nil, err
	}

	return &QueryResult{
		Rows:        decoded,
		RowCount:    len(decoded),
		ExecutedSQL: prepared,
	}, nil
}

// GetSampleData returns up to limit literal rows from a table, all columns
// or a caller-chosen subset. A non-empty workspaceID restricts the sample to
// that workspace. Identifiers are sanitized, not interpolated.
func (s *Store) GetSampleData(ctx context.Context, table string, limit int, columns []string, workspaceID string) ([]map[string]any, error) {
	if s.pool == nil {
		return nil, apperrors.ErrNotConnected
	}
	if limit <= 0 {
		limit = 5
	}

	columnList := "*"
	if len(columns) > 0 {
		sanitized := make([]string, len(columns))
		for i, col := range columns {
			sanitized[i] = pgx.Identifier{col}.Sanitize()
		}
		columnList = joinColumns(sanitized)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", columnList, s.qualifiedTable(table))
	params := []any{limit}
	if workspaceID != "" {
		query += " WHERE workspace_id = $2"
		// Already-UUID workspaces pass through; only document-store hex
		// ids are converted. The value stays a bound parameter either way.
		ws := workspaceID
		if normalized, ok := enginesql.WorkspaceUUID(workspaceID); ok {
			ws = normalized
		}
		params = append(params, ws)
	}
	query += " LIMIT $1"

	rows, err := s.pool.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("sampling %s failed: %w", table, err)
	}
	defer rows.Close()

	return rowsToMaps(rows)
}

// qualifiedTable builds a safely quoted schema.table reference.
func (s *Store) qualifiedTable(table string) string {
	return pgx.Identifier{s.schema, table}.Sanitize()
}

func joinColumns(cols []string) string {
	out := cols[0]
	for _, c := range cols[1:] {
		out += ", " + c
	}
	return out
}

// rowsToMaps decodes pgx rows into name→value maps preserving column order
// per row via FieldDescriptions.
func rowsToMaps(rows pgx.Rows) ([]map[string]any, error) {
	fields := rows.FieldDescriptions()

	var out []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[string(fd.Name)] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return out, nil
}
