package relstore

import (
	"context"
	"fmt"

	"github.com/fleetlens/fleetlens-engine/pkg/apperrors"
)

// Column describes one column of a table.
type Column struct {
	Name     string  `json:"name"`
	DataType string  `json:"dataType"`
	Nullable bool    `json:"nullable"`
	Default  *string `json:"default,omitempty"`
}

// Constraint describes a table constraint with its rendered definition.
type Constraint struct {
	Name       string `json:"name"`
	Type       string `json:"type"` // PRIMARY KEY, FOREIGN KEY, UNIQUE, CHECK
	Definition string `json:"definition"`
}

// Index describes an index on a table.
type Index struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

// TableInfo is the full introspection result for one table.
type TableInfo struct {
	Table       string       `json:"table"`
	Schema      string       `json:"schema"`
	Columns     []Column     `json:"columns"`
	Constraints []Constraint `json:"constraints"`
	Indexes     []Index      `json:"indexes"`
}

// ListTables returns the base-table names inside the scoped schema.
// Tables outside the namespace are not enumerable through the catalog.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	if s.pool == nil {
		return nil, apperrors.ErrNotConnected
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := s.pool.Query(ctx, query, s.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// GetTableInfo returns column, constraint and index definitions for one
// table in the scoped schema.
func (s *Store) GetTableInfo(ctx context.Context, table string) (*TableInfo, error) {
	if s.pool == nil {
		return nil, apperrors.ErrNotConnected
	}

	columns, err := s.tableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: table %s.%s", apperrors.ErrNotFound, s.schema, table)
	}

	constraints, err := s.tableConstraints(ctx, table)
	if err != nil {
		return nil, err
	}

	indexes, err := s.tableIndexes(ctx, table)
	if err != nil {
		return nil, err
	}

	return &TableInfo{
		Table:       table,
		Schema:      s.schema,
		Columns:     columns,
		Constraints: constraints,
		Indexes:     indexes,
	}, nil
}

func (s *Store) tableColumns(ctx context.Context, table string) ([]Column, error) {
	query := `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	rows, err := s.pool.Query(ctx, query, s.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &col.Default); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (s *Store) tableConstraints(ctx context.Context, table string) ([]Constraint, error) {
	query := `
		SELECT con.conname,
		       CASE con.contype
		            WHEN 'p' THEN 'PRIMARY KEY'
		            WHEN 'f' THEN 'FOREIGN KEY'
		            WHEN 'u' THEN 'UNIQUE'
		            WHEN 'c' THEN 'CHECK'
		            ELSE con.contype::text
		       END,
		       pg_get_constraintdef(con.oid)
		FROM pg_constraint con
		JOIN pg_class rel ON rel.oid = con.conrelid
		JOIN pg_namespace nsp ON nsp.oid = rel.relnamespace
		WHERE nsp.nspname = $1 AND rel.relname = $2
		ORDER BY con.conname`

	rows, err := s.pool.Query(ctx, query, s.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query constraints for %s: %w", table, err)
	}
	defer rows.Close()

	var constraints []Constraint
	for rows.Next() {
		var c Constraint
		if err := rows.Scan(&c.Name, &c.Type, &c.Definition); err != nil {
			return nil, fmt.Errorf("failed to scan constraint: %w", err)
		}
		constraints = append(constraints, c)
	}
	return constraints, rows.Err()
}

func (s *Store) tableIndexes(ctx context.Context, table string) ([]Index, error) {
	query := `
		SELECT indexname, indexdef
		FROM pg_indexes
		WHERE schemaname = $1 AND tablename = $2
		ORDER BY indexname`

	rows, err := s.pool.Query(ctx, query, s.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes for %s: %w", table, err)
	}
	defer rows.Close()

	var indexes []Index
	for rows.Next() {
		var idx Index
		if err := rows.Scan(&idx.Name, &idx.Definition); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}
