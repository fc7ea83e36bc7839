package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/fleetlens/fleetlens-engine/pkg/apperrors"
	"github.com/fleetlens/fleetlens-engine/pkg/jsonutil"
	"github.com/fleetlens/fleetlens-engine/pkg/relstore"
	enginesql "github.com/fleetlens/fleetlens-engine/pkg/sql"
)

const defaultQueryLimit = 100

// RelationalToolDeps contains dependencies for the PostgreSQL-backed tools.
type RelationalToolDeps struct {
	Store  *relstore.Store
	Logger *zap.Logger
}

// RegisterRelationalTools registers the PostgreSQL-backed tools.
func RegisterRelationalTools(r *Registry, deps *RelationalToolDeps) {
	registerExecuteQueryTool(r, deps)
	registerGetSchemaInfoTool(r, deps)
	registerGetTableSampleDataTool(r, deps)
	registerAnalyzeRelationshipsTool(r, deps)
}

func registerExecuteQueryTool(r *Registry, deps *RelationalToolDeps) {
	tool := mcp.NewTool(
		"executeQuery",
		mcp.WithDescription(
			"Execute a read-only SQL query against the PostgreSQL analytics database. "+
				"Only single SELECT statements are accepted; use named {{parameter}} placeholders for values.",
		),
		mcp.WithString(
			"query",
			mcp.Required(),
			mcp.Description("SQL SELECT statement. Use {{name}} placeholders for parameter values, never inline literals"),
		),
		mcp.WithString(
			"operation",
			mcp.Description("Result shape: 'select' returns rows (default), 'count' returns the row count, 'exists' returns a boolean"),
		),
		mcp.WithObject(
			"parameters",
			mcp.Description("Values for the {{name}} placeholders in the query, for example {\"brand\": \"acme\"}"),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("Maximum rows to return for select operations (default 100)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	r.Add(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := rawArguments(req)
		workspace := popWorkspace(args)

		query := stringArg(args, "query", "")
		if query == "" {
			return NewErrorResult("missing_parameter", "query is required"), nil
		}
		op := relstore.Operation(stringArg(args, "operation", string(relstore.OpSelect)))
		limit := intArg(args, "limit", defaultQueryLimit)

		params, err := jsonutil.ObjectValue(args["parameters"])
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		query = enginesql.ScopeToWorkspace(query, workspace)

		result, err := deps.Store.ExecuteQuery(ctx, op, query, params, limit)
		if err != nil {
			return relationalErrorResult(err)
		}

		encoded, err := marshalIndent(result.Rows)
		if err != nil {
			return nil, err
		}
		text := fmt.Sprintf("Query returned %d rows:\n%s\n\nExecuted SQL:\n%s",
			result.RowCount, encoded, result.ExecutedSQL)
		return mcp.NewToolResultText(text), nil
	})
}

func registerGetSchemaInfoTool(r *Registry, deps *RelationalToolDeps) {
	tool := mcp.NewTool(
		"getSchemaInfo",
		mcp.WithDescription(
			"Inspect the PostgreSQL schema. Without arguments it lists every table; "+
				"with a tableName it returns that table's columns, constraints and indexes.",
		),
		mcp.WithString(
			"tableName",
			mcp.Description("Table to describe (leave empty to list all tables)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	r.Add(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := rawArguments(req)
		popWorkspace(args)

		table := stringArg(args, "tableName", "")
		if table == "" {
			tables, err := deps.Store.ListTables(ctx)
			if err != nil {
				return relationalErrorResult(err)
			}
			encoded, err := marshalIndent(tables)
			if err != nil {
				return nil, err
			}
			text := fmt.Sprintf("Schema '%s' contains %d tables:\n%s",
				deps.Store.Schema(), len(tables), encoded)
			return mcp.NewToolResultText(text), nil
		}

		info, err := deps.Store.GetTableInfo(ctx, table)
		if err != nil {
			return relationalErrorResult(err)
		}
		encoded, err := marshalIndent(info)
		if err != nil {
			return nil, err
		}
		text := fmt.Sprintf("Table '%s':\n%s", table, encoded)
		return mcp.NewToolResultText(text), nil
	})
}

func registerGetTableSampleDataTool(r *Registry, deps *RelationalToolDeps) {
	tool := mcp.NewTool(
		"getTableSampleData",
		mcp.WithDescription(
			"Retrieve example rows from a PostgreSQL table to understand its data "+
				"shape and value formats before writing queries.",
		),
		mcp.WithString(
			"tableName",
			mcp.Required(),
			mcp.Description("Table to sample"),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("Number of example rows to return (default 5)"),
		),
		mcp.WithArray(
			"columns",
			mcp.Description("Specific columns to show (leave empty for all columns)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	r.Add(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := rawArguments(req)
		workspace := popWorkspace(args)

		table := stringArg(args, "tableName", "")
		if table == "" {
			return NewErrorResult("missing_parameter", "tableName is required"), nil
		}
		limit := intArg(args, "limit", 0)

		var columns []string
		if raw, present := args["columns"]; present {
			parsed, err := jsonutil.StringsValue(raw)
			if err != nil {
				return NewErrorResult("invalid_columns", err.Error()), nil
			}
			columns = parsed
		}

		rows, err := deps.Store.GetSampleData(ctx, table, limit, columns, workspace)
		if err != nil {
			return relationalErrorResult(err)
		}

		encoded, err := marshalIndent(rows)
		if err != nil {
			return nil, err
		}
		text := fmt.Sprintf("Sample of %d rows from table '%s':\n%s", len(rows), table, encoded)
		return mcp.NewToolResultText(text), nil
	})
}

func registerAnalyzeRelationshipsTool(r *Registry, deps *RelationalToolDeps) {
	tool := mcp.NewTool(
		"analyzeRelationships",
		mcp.WithDescription(
			"Map how PostgreSQL tables connect to each other through foreign keys. "+
				"Use this to plan JOINs across tables.",
		),
		mcp.WithBoolean(
			"includeImplicitRelations",
			mcp.Description("Also infer relationships from *_id column naming when no foreign key is declared (default false)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	r.Add(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := rawArguments(req)
		popWorkspace(args)

		includeImplicit := boolArg(args, "includeImplicitRelations", false)

		report, err := deps.Store.AnalyzeRelationships(ctx, includeImplicit)
		if err != nil {
			return relationalErrorResult(err)
		}

		encoded, err := marshalIndent(report)
		if err != nil {
			return nil, err
		}
		text := fmt.Sprintf("Relationship analysis for schema '%s': %d foreign keys across %d connected tables\n%s",
			deps.Store.Schema(), report.EdgeCount, report.ConnectedTables, encoded)
		return mcp.NewToolResultText(text), nil
	})
}

// relationalErrorResult converts store errors the model can correct into JSON
// error results; infrastructure failures pass through as Go errors.
func relationalErrorResult(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidOperation):
		return NewErrorResult("invalid_query", err.Error()), nil
	case errors.Is(err, apperrors.ErrNotFound):
		return NewErrorResult("table_not_found", err.Error()), nil
	case errors.Is(err, apperrors.ErrNotConnected):
		return nil, err
	case IsSQLUserError(err):
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return NewErrorResultWithDetails("sql_error", pgErr.Message,
				map[string]any{"sqlstate": pgErr.Code}), nil
		}
		return NewErrorResult("sql_error", err.Error()), nil
	default:
		return NewErrorResult("query_error", err.Error()), nil
	}
}
