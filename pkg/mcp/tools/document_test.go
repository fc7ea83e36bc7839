package tools

import (
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func decodeErrorResult(t *testing.T, result *mcp.CallToolResult) ErrorResponse {
	t.Helper()
	require.NotNil(t, result)
	require.True(t, result.IsError)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(firstText(result)), &resp))
	return resp
}

func TestScopeQueryToWorkspace(t *testing.T) {
	query := map[string]any{"status": "open"}
	scopeQueryToWorkspace(query, "665f1c2a9d3e4b0012345678")

	assert.Equal(t, "665f1c2a9d3e4b0012345678", query["workspace_id"])
	assert.Equal(t, "open", query["status"])
}

func TestScopeQueryToWorkspaceKeepsExisting(t *testing.T) {
	query := map[string]any{"workspace_id": "original"}
	scopeQueryToWorkspace(query, "injected")

	assert.Equal(t, "original", query["workspace_id"])
}

func TestScopeQueryToWorkspaceEmptyWorkspace(t *testing.T) {
	query := map[string]any{"status": "open"}
	scopeQueryToWorkspace(query, "")

	assert.NotContains(t, query, "workspace_id")
}

func TestScopePipelineToWorkspacePrepends(t *testing.T) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$brand", "count": bson.M{"$sum": 1}}},
	}
	scoped := scopePipelineToWorkspace(pipeline, "ws1")

	require.Len(t, scoped, 2)
	match, ok := scoped[0]["$match"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "ws1", match["workspace_id"])
}

func TestScopePipelineToWorkspaceMergesLeadingMatch(t *testing.T) {
	pipeline := []bson.M{
		{"$match": map[string]any{"status": "open"}},
		{"$count": "total"},
	}
	scoped := scopePipelineToWorkspace(pipeline, "ws1")

	require.Len(t, scoped, 2)
	match, ok := scoped[0]["$match"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ws1", match["workspace_id"])
	assert.Equal(t, "open", match["status"])
}

func TestScopePipelineToWorkspaceEmptyWorkspace(t *testing.T) {
	pipeline := []bson.M{{"$count": "total"}}

	assert.Equal(t, pipeline, scopePipelineToWorkspace(pipeline, ""))
}

func TestSummarizeGroupCounts(t *testing.T) {
	results := []bson.M{
		{"_id": "brandA", "count": 12},
		{"_id": "brandB", "count": 7},
	}
	summary := summarizeGroupCounts(results)

	assert.Contains(t, summary, "1. ID: brandA - Count: 12")
	assert.Contains(t, summary, "2. ID: brandB - Count: 7")
}

func TestSummarizeGroupCountsTruncates(t *testing.T) {
	var results []bson.M
	for i := 0; i < 8; i++ {
		results = append(results, bson.M{"_id": i, "count": i * 10})
	}
	summary := summarizeGroupCounts(results)

	assert.Contains(t, summary, "... and 3 more results")
	assert.NotContains(t, summary, "6. ID:")
}

func TestSummarizeGroupCountsNonGroupShape(t *testing.T) {
	results := []bson.M{{"name": "brandA"}, {"_id": nil, "count": 3}}

	assert.Empty(t, summarizeGroupCounts(results))
}

func TestParseFindOptions(t *testing.T) {
	opts, errResult := parseFindOptions(map[string]any{
		"limit":      float64(20),
		"skip":       float64(5),
		"sort":       map[string]any{"created_at": float64(-1)},
		"projection": map[string]any{"name": float64(1), "_id": float64(0)},
	})
	require.Nil(t, errResult)

	assert.Equal(t, int64(20), opts.Limit)
	assert.Equal(t, int64(5), opts.Skip)
	assert.Equal(t, bson.M{"created_at": float64(-1)}, opts.Sort)
	assert.Equal(t, bson.M{"name": float64(1), "_id": float64(0)}, opts.Projection)
}

func TestParseFindOptionsNil(t *testing.T) {
	opts, errResult := parseFindOptions(nil)
	require.Nil(t, errResult)
	assert.Zero(t, opts.Limit)
}

func TestParseFindOptionsRejectsNonObject(t *testing.T) {
	_, errResult := parseFindOptions("limit=5")
	require.NotNil(t, errResult)

	resp := decodeErrorResult(t, errResult)
	assert.Equal(t, "invalid_options", resp.Code)
}
