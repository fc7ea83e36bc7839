package tools

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fleetlens/fleetlens-engine/pkg/apperrors"
	"github.com/fleetlens/fleetlens-engine/pkg/llm"
	enginesql "github.com/fleetlens/fleetlens-engine/pkg/sql"
)

// The oracle writes its queries from the tool descriptions alone, so the
// documented placeholder syntax must be the one the substitution engine
// binds.
func TestExecuteQueryDocumentsBindablePlaceholderSyntax(t *testing.T) {
	r := NewRegistry()
	RegisterRelationalTools(r, &RelationalToolDeps{Logger: zap.NewNop()})

	defs, err := r.Definitions()
	require.NoError(t, err)

	var def *llm.ToolDefinition
	for i := range defs {
		if defs[i].Name == "executeQuery" {
			def = &defs[i]
		}
	}
	require.NotNil(t, def, "executeQuery not in catalog")

	assert.Contains(t, def.Description, "{{", "tool description must show the {{name}} syntax")
	assert.NotContains(t, def.Description, ":parameters")

	props, ok := def.Parameters["properties"].(map[string]any)
	require.True(t, ok)
	for _, param := range []string{"query", "parameters"} {
		prop, ok := props[param].(map[string]any)
		require.True(t, ok, "missing %s property", param)
		desc, _ := prop["description"].(string)
		assert.Contains(t, desc, "{{name}}", "%s description must show the {{name}} syntax", param)
	}

	// The documented syntax actually binds.
	prepared, values, err := enginesql.SubstituteParameters(
		"SELECT * FROM defects WHERE brand = {{brand}}", map[string]any{"brand": "acme"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM defects WHERE brand = $1", prepared)
	assert.Equal(t, []any{"acme"}, values)
}

func TestRelationalErrorResultInvalidOperation(t *testing.T) {
	result, err := relationalErrorResult(
		fmt.Errorf("%w: multiple statements", apperrors.ErrInvalidOperation))
	require.NoError(t, err)

	resp := decodeErrorResult(t, result)
	assert.Equal(t, "invalid_query", resp.Code)
}

func TestRelationalErrorResultTableNotFound(t *testing.T) {
	result, err := relationalErrorResult(
		fmt.Errorf("%w: table fleet.missing", apperrors.ErrNotFound))
	require.NoError(t, err)

	resp := decodeErrorResult(t, result)
	assert.Equal(t, "table_not_found", resp.Code)
}

func TestRelationalErrorResultNotConnectedPropagates(t *testing.T) {
	result, err := relationalErrorResult(apperrors.ErrNotConnected)

	assert.Nil(t, result)
	assert.True(t, errors.Is(err, apperrors.ErrNotConnected))
}

func TestRelationalErrorResultSQLUserError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42703", Message: `column "brandd" does not exist`}
	result, err := relationalErrorResult(fmt.Errorf("query failed: %w", pgErr))
	require.NoError(t, err)

	resp := decodeErrorResult(t, result)
	assert.Equal(t, "sql_error", resp.Code)
	assert.Contains(t, resp.Message, "brandd")

	details, ok := resp.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "42703", details["sqlstate"])
}

func TestRelationalErrorResultServerFailureBecomesQueryError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "57P01", Message: "terminating connection"}
	result, err := relationalErrorResult(fmt.Errorf("query failed: %w", pgErr))
	require.NoError(t, err)

	resp := decodeErrorResult(t, result)
	assert.Equal(t, "query_error", resp.Code)
}
