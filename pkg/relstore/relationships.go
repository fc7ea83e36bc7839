package relstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/fleetlens/fleetlens-engine/pkg/apperrors"
)

// ForeignKeyEdge is one declared foreign-key relationship read from the
// relational catalog.
type ForeignKeyEdge struct {
	FromTable  string `json:"fromTable"`
	FromColumn string `json:"fromColumn"`
	ToTable    string `json:"toTable"`
	ToColumn   string `json:"toColumn"`
	Constraint string `json:"constraint"`
}

// RelationshipReport summarizes the declared foreign keys of the scoped
// schema. Unlike the document store there is nothing to guess here: the
// catalog is authoritative.
type RelationshipReport struct {
	Edges []ForeignKeyEdge `json:"edges"`
	// ImplicitEdges are undeclared candidates inferred from column naming,
	// populated only when requested.
	ImplicitEdges   []ForeignKeyEdge `json:"implicitEdges,omitempty"`
	EdgeCount       int              `json:"edgeCount"`
	ConnectedTables int              `json:"connectedTables"`
}

// AnalyzeRelationships reads the declared foreign-key edges of the scoped
// schema and summarizes them. With includeImplicit set, columns named after
// another table (`equipment_id` against an `equipments` table) are reported
// as implicit candidates alongside the declared edges.
func (s *Store) AnalyzeRelationships(ctx context.Context, includeImplicit bool) (*RelationshipReport, error) {
	if s.pool == nil {
		return nil, apperrors.ErrNotConnected
	}

	query := `
		SELECT tc.table_name,
		       kcu.column_name,
		       ccu.table_name  AS foreign_table_name,
		       ccu.column_name AS foreign_column_name,
		       tc.constraint_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON ccu.constraint_name = tc.constraint_name
		 AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = $1
		ORDER BY tc.table_name, kcu.column_name`

	rows, err := s.pool.Query(ctx, query, s.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	var edges []ForeignKeyEdge
	tables := make(map[string]struct{})
	for rows.Next() {
		var e ForeignKeyEdge
		if err := rows.Scan(&e.FromTable, &e.FromColumn, &e.ToTable, &e.ToColumn, &e.Constraint); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		edges = append(edges, e)
		tables[e.FromTable] = struct{}{}
		tables[e.ToTable] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("foreign key iteration failed: %w", err)
	}

	report := &RelationshipReport{
		Edges:           edges,
		EdgeCount:       len(edges),
		ConnectedTables: len(tables),
	}

	if includeImplicit {
		implicit, err := s.implicitEdges(ctx, edges)
		if err != nil {
			return nil, err
		}
		report.ImplicitEdges = implicit
	}
	return report, nil
}

// tableColumn is one (table, column) pair from the catalog.
type tableColumn struct {
	Table  string
	Column string
}

// implicitEdges proposes foreign-key candidates from column naming patterns,
// skipping pairs already covered by a declared constraint.
func (s *Store) implicitEdges(ctx context.Context, declared []ForeignKeyEdge) ([]ForeignKeyEdge, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_schema = $1
		  AND column_name LIKE '%\_id'
		ORDER BY table_name, column_name`, s.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []tableColumn
	for rows.Next() {
		var tc tableColumn
		if err := rows.Scan(&tc.Table, &tc.Column); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("column iteration failed: %w", err)
	}

	return inferImplicitEdges(columns, tables, declared), nil
}

// inferImplicitEdges matches `<name>_id` columns against table names, both
// singular and plural forms.
func inferImplicitEdges(columns []tableColumn, tables []string, declared []ForeignKeyEdge) []ForeignKeyEdge {
	known := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		known[t] = struct{}{}
	}
	declaredSet := make(map[string]struct{}, len(declared))
	for _, e := range declared {
		declaredSet[e.FromTable+"."+e.FromColumn] = struct{}{}
	}

	var edges []ForeignKeyEdge
	for _, tc := range columns {
		base := strings.TrimSuffix(tc.Column, "_id")
		if base == "" {
			continue
		}
		if _, ok := declaredSet[tc.Table+"."+tc.Column]; ok {
			continue
		}

		target := ""
		for _, candidate := range []string{base, inflection.Plural(base), inflection.Singular(base)} {
			if _, ok := known[candidate]; ok && candidate != tc.Table {
				target = candidate
				break
			}
		}
		if target == "" {
			continue
		}

		edges = append(edges, ForeignKeyEdge{
			FromTable:  tc.Table,
			FromColumn: tc.Column,
			ToTable:    target,
			ToColumn:   "id",
			Constraint: "implicit",
		})
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].FromTable != edges[j].FromTable {
			return edges[i].FromTable < edges[j].FromTable
		}
		return edges[i].FromColumn < edges[j].FromColumn
	})
	return edges
}
