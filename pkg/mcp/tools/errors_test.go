package tools

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorResult(t *testing.T) {
	result := NewErrorResult("invalid_query", "query must be an object")

	resp := decodeErrorResult(t, result)
	assert.True(t, resp.Error)
	assert.Equal(t, "invalid_query", resp.Code)
	assert.Equal(t, "query must be an object", resp.Message)
	assert.Nil(t, resp.Details)
}

func TestNewErrorResultWithDetails(t *testing.T) {
	result := NewErrorResultWithDetails("sql_error", "syntax error",
		map[string]any{"sqlstate": "42601"})

	resp := decodeErrorResult(t, result)
	require.NotNil(t, resp.Details)
	details := resp.Details.(map[string]any)
	assert.Equal(t, "42601", details["sqlstate"])
}

func TestIsSQLUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"syntax error", &pgconn.PgError{Code: "42601"}, true},
		{"undefined column", &pgconn.PgError{Code: "42703"}, true},
		{"data exception", &pgconn.PgError{Code: "22P02"}, true},
		{"constraint violation", &pgconn.PgError{Code: "23505"}, true},
		{"connection failure", &pgconn.PgError{Code: "08006"}, false},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, false},
		{"wrapped pg error", fmt.Errorf("query failed: %w", &pgconn.PgError{Code: "42P01"}), true},
		{"sqlstate in message", errors.New(`ERROR: relation "x" does not exist (SQLSTATE 42P01)`), true},
		{"plain error", errors.New("dial tcp: connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSQLUserError(tt.err))
		})
	}
}
