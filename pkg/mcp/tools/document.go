package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/fleetlens/fleetlens-engine/pkg/apperrors"
	"github.com/fleetlens/fleetlens-engine/pkg/docstore"
	"github.com/fleetlens/fleetlens-engine/pkg/jsonutil"
)

// DocumentToolDeps contains dependencies for the document-store tools.
type DocumentToolDeps struct {
	Store  *docstore.Store
	Logger *zap.Logger
}

// RegisterDocumentTools registers the MongoDB-backed tools.
func RegisterDocumentTools(r *Registry, deps *DocumentToolDeps) {
	registerFindDocumentsTool(r, deps)
	registerFindOneDocumentTool(r, deps)
	registerAggregateDocumentsTool(r, deps)
	registerCountDocumentsTool(r, deps)
	registerListCollectionsTool(r, deps)
	registerGetCollectionSchemaTool(r, deps)
	registerGetSampleDataTool(r, deps)
}

func registerFindDocumentsTool(r *Registry, deps *DocumentToolDeps) {
	tool := mcp.NewTool(
		"findDocuments",
		mcp.WithDescription(
			"Find and retrieve documents from a MongoDB collection. "+
				"Use this when you need to see actual document contents or search by specific criteria.",
		),
		mcp.WithString(
			"collection",
			mcp.Required(),
			mcp.Description("Collection to query (for example 'defects', 'equipments', 'brands')"),
		),
		mcp.WithObject(
			"query",
			mcp.Description("Query filter object to match documents"),
		),
		mcp.WithObject(
			"options",
			mcp.Description("Options: limit (max documents), skip (pagination offset), sort ({field: 1} ascending, {field: -1} descending), projection ({'name': 1, '_id': 0})"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	r.Add(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := rawArguments(req)
		workspace := popWorkspace(args)

		collection := stringArg(args, "collection", "")
		if collection == "" {
			return NewErrorResult("missing_parameter", "collection is required"), nil
		}

		query, err := jsonutil.ObjectValue(args["query"])
		if err != nil {
			return NewErrorResult("invalid_query", err.Error()), nil
		}
		scopeQueryToWorkspace(query, workspace)

		opts, errResult := parseFindOptions(args["options"])
		if errResult != nil {
			return errResult, nil
		}

		docs, err := deps.Store.Find(ctx, collection, bson.M(query), opts)
		if err != nil {
			return documentErrorResult(err)
		}

		encoded, err := marshalIndent(docs)
		if err != nil {
			return nil, err
		}
		text := fmt.Sprintf("Found %d documents in collection '%s'\n%s", len(docs), collection, encoded)
		return mcp.NewToolResultText(text), nil
	})
}

func registerFindOneDocumentTool(r *Registry, deps *DocumentToolDeps) {
	tool := mcp.NewTool(
		"findOneDocument",
		mcp.WithDescription(
			"Find a single document in a MongoDB collection. "+
				"Use this when you need exactly one document by id or specific criteria.",
		),
		mcp.WithString(
			"collection",
			mcp.Required(),
			mcp.Description("Collection to query"),
		),
		mcp.WithObject(
			"query",
			mcp.Required(),
			mcp.Description("Query filter for locating the document"),
		),
		mcp.WithObject(
			"options",
			mcp.Description("Options: projection to include or exclude fields in the result"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	r.Add(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := rawArguments(req)
		workspace := popWorkspace(args)

		collection := stringArg(args, "collection", "")
		if collection == "" {
			return NewErrorResult("missing_parameter", "collection is required"), nil
		}

		query, err := jsonutil.ObjectValue(args["query"])
		if err != nil {
			return NewErrorResult("invalid_query", err.Error()), nil
		}
		scopeQueryToWorkspace(query, workspace)

		var projection bson.M
		if opts, err := jsonutil.ObjectValue(args["options"]); err == nil {
			if proj, ok := opts["projection"].(map[string]any); ok {
				projection = bson.M(proj)
			}
		}

		doc, found, err := deps.Store.FindOne(ctx, collection, bson.M(query), projection)
		if err != nil {
			return documentErrorResult(err)
		}
		if !found {
			text := fmt.Sprintf("No document found in collection '%s' for the given query", collection)
			return mcp.NewToolResultText(text), nil
		}

		encoded, err := marshalIndent(doc)
		if err != nil {
			return nil, err
		}
		text := fmt.Sprintf("Found a document in collection '%s':\n%s", collection, encoded)
		return mcp.NewToolResultText(text), nil
	})
}

func registerAggregateDocumentsTool(r *Registry, deps *DocumentToolDeps) {
	tool := mcp.NewTool(
		"aggregateDocuments",
		mcp.WithDescription(
			"Run an aggregation pipeline on a MongoDB collection. "+
				"Use this for complex queries such as grouping, counting by field, or finding min/max values.",
		),
		mcp.WithString(
			"collection",
			mcp.Required(),
			mcp.Description("Collection to aggregate"),
		),
		mcp.WithArray(
			"pipeline",
			mcp.Required(),
			mcp.Description("MongoDB aggregation pipeline stages. Example: [{'$group': {'_id': '$field', 'count': {'$sum': 1}}}, {'$sort': {'count': -1}}]"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	r.Add(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := rawArguments(req)
		workspace := popWorkspace(args)

		collection := stringArg(args, "collection", "")
		if collection == "" {
			return NewErrorResult("missing_parameter", "collection is required"), nil
		}

		stages, err := jsonutil.ArrayValue(args["pipeline"])
		if err != nil {
			return NewErrorResult("invalid_pipeline", err.Error()), nil
		}
		pipeline := make([]bson.M, 0, len(stages)+1)
		for _, stage := range stages {
			pipeline = append(pipeline, bson.M(stage))
		}
		pipeline = scopePipelineToWorkspace(pipeline, workspace)

		results, err := deps.Store.Aggregate(ctx, collection, pipeline)
		if err != nil {
			return documentErrorResult(err)
		}

		text := fmt.Sprintf("Aggregation on collection '%s' returned %d results", collection, len(results))
		if len(results) == 0 {
			text += ". No documents matched the aggregation criteria."
			return mcp.NewToolResultText(text), nil
		}

		encoded, err := marshalIndent(results)
		if err != nil {
			return nil, err
		}
		text += ":\n" + encoded
		if summary := summarizeGroupCounts(results); summary != "" {
			text += "\n\nSummary:" + summary
		}
		return mcp.NewToolResultText(text), nil
	})
}

func registerCountDocumentsTool(r *Registry, deps *DocumentToolDeps) {
	tool := mcp.NewTool(
		"countDocuments",
		mcp.WithDescription(
			"Count documents in a MongoDB collection. "+
				"To count all documents pass an explicit empty query object: {}",
		),
		mcp.WithString(
			"collection",
			mcp.Required(),
			mcp.Description("Collection to count documents in"),
		),
		mcp.WithObject(
			"query",
			mcp.Required(),
			mcp.Description("Filter object for counting specific documents; {} counts everything"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	r.Add(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := rawArguments(req)
		workspace := popWorkspace(args)

		collection := stringArg(args, "collection", "")
		if collection == "" {
			return NewErrorResult("missing_parameter", "collection is required"), nil
		}
		if _, present := args["query"]; !present {
			return NewErrorResult("missing_parameter", "query is required; pass {} to count all documents"), nil
		}

		query, err := jsonutil.ObjectValue(args["query"])
		if err != nil {
			return NewErrorResult("invalid_query", err.Error()), nil
		}
		scopeQueryToWorkspace(query, workspace)

		count, err := deps.Store.Count(ctx, collection, bson.M(query))
		if err != nil {
			return documentErrorResult(err)
		}

		text := fmt.Sprintf("Collection '%s' contains %d documents matching the query", collection, count)
		return mcp.NewToolResultText(text), nil
	})
}

func registerListCollectionsTool(r *Registry, deps *DocumentToolDeps) {
	tool := mcp.NewTool(
		"listCollections",
		mcp.WithDescription("List all collections in the database to understand its structure"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	r.Add(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		collections, err := deps.Store.ListCollections(ctx)
		if err != nil {
			return documentErrorResult(err)
		}

		encoded, err := marshalIndent(collections)
		if err != nil {
			return nil, err
		}
		text := fmt.Sprintf("Database contains %d collections:\n%s", len(collections), encoded)
		return mcp.NewToolResultText(text), nil
	})
}

func registerGetCollectionSchemaTool(r *Registry, deps *DocumentToolDeps) {
	tool := mcp.NewTool(
		"getCollectionSchema",
		mcp.WithDescription(
			"Analyze the structure and field types of a MongoDB collection "+
				"to understand which fields are available for queries",
		),
		mcp.WithString(
			"collection",
			mcp.Required(),
			mcp.Description("Collection to analyze"),
		),
		mcp.WithNumber(
			"sampleSize",
			mcp.Description("Number of documents to sample for schema analysis (default 100)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	r.Add(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := rawArguments(req)
		popWorkspace(args)

		collection := stringArg(args, "collection", "")
		if collection == "" {
			return NewErrorResult("missing_parameter", "collection is required"), nil
		}
		sampleSize := int64(intArg(args, "sampleSize", 0))

		schema, err := deps.Store.GetCollectionSchema(ctx, collection, sampleSize)
		if err != nil {
			return documentErrorResult(err)
		}

		encoded, err := marshalIndent(schema)
		if err != nil {
			return nil, err
		}
		text := fmt.Sprintf("Schema for collection '%s':\n%s", collection, encoded)
		return mcp.NewToolResultText(text), nil
	})
}

func registerGetSampleDataTool(r *Registry, deps *DocumentToolDeps) {
	tool := mcp.NewTool(
		"getSampleData",
		mcp.WithDescription(
			"Retrieve example documents from a collection to understand its data "+
				"structure and field types. Useful for debugging query problems.",
		),
		mcp.WithString(
			"collection",
			mcp.Required(),
			mcp.Description("Collection to sample"),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("Number of example documents to return (default 5)"),
		),
		mcp.WithArray(
			"fields",
			mcp.Description("Specific fields to show (leave empty for all fields)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	r.Add(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := rawArguments(req)
		popWorkspace(args)

		collection := stringArg(args, "collection", "")
		if collection == "" {
			return NewErrorResult("missing_parameter", "collection is required"), nil
		}
		limit := int64(intArg(args, "limit", 0))

		var fields []string
		if raw, present := args["fields"]; present {
			parsed, err := jsonutil.StringsValue(raw)
			if err != nil {
				return NewErrorResult("invalid_fields", err.Error()), nil
			}
			fields = parsed
		}

		docs, err := deps.Store.GetSampleData(ctx, collection, limit, fields)
		if err != nil {
			return documentErrorResult(err)
		}

		encoded, err := marshalIndent(docs)
		if err != nil {
			return nil, err
		}
		text := fmt.Sprintf("Sample of %d documents from collection '%s':\n%s", len(docs), collection, encoded)
		return mcp.NewToolResultText(text), nil
	})
}

// parseFindOptions decodes the options argument for findDocuments.
func parseFindOptions(raw any) (docstore.FindOptions, *mcp.CallToolResult) {
	var out docstore.FindOptions
	if raw == nil {
		return out, nil
	}
	opts, err := jsonutil.ObjectValue(raw)
	if err != nil {
		return out, NewErrorResult("invalid_options", err.Error())
	}

	out.Limit = int64(intArg(opts, "limit", 0))
	out.Skip = int64(intArg(opts, "skip", 0))
	if sort, ok := opts["sort"].(map[string]any); ok {
		out.Sort = bson.M(sort)
	}
	if projection, ok := opts["projection"].(map[string]any); ok {
		out.Projection = bson.M(projection)
	}
	return out, nil
}

// scopeQueryToWorkspace restricts a filter to one workspace. Identifier
// coercion downstream converts the value to its native form.
func scopeQueryToWorkspace(query map[string]any, workspace string) {
	if workspace == "" || query == nil {
		return
	}
	if _, present := query["workspace_id"]; !present {
		query["workspace_id"] = workspace
	}
}

// scopePipelineToWorkspace forces a workspace filter onto the pipeline's
// leading $match stage, inserting one when absent.
func scopePipelineToWorkspace(pipeline []bson.M, workspace string) []bson.M {
	if workspace == "" {
		return pipeline
	}
	if len(pipeline) > 0 {
		if match, ok := pipeline[0]["$match"].(map[string]any); ok {
			scopeQueryToWorkspace(match, workspace)
			return pipeline
		}
		if match, ok := pipeline[0]["$match"].(bson.M); ok {
			scopeQueryToWorkspace(match, workspace)
			return pipeline
		}
	}
	scoped := make([]bson.M, 0, len(pipeline)+1)
	scoped = append(scoped, bson.M{"$match": bson.M{"workspace_id": workspace}})
	return append(scoped, pipeline...)
}

// summarizeGroupCounts renders a short per-group digest when aggregation
// results look like {_id, count} rows.
func summarizeGroupCounts(results []bson.M) string {
	summary := ""
	shown := 0
	for _, row := range results {
		id, hasID := row["_id"]
		count, hasCount := row["count"]
		if !hasID || !hasCount || id == nil {
			continue
		}
		shown++
		summary += fmt.Sprintf("\n%d. ID: %v - Count: %v", shown, id, count)
		if shown == 5 {
			break
		}
	}
	if shown == 5 && len(results) > 5 {
		summary += fmt.Sprintf("\n... and %d more results", len(results)-5)
	}
	return summary
}

// documentErrorResult converts store errors the model can act on into JSON
// error results; system failures pass through as Go errors.
func documentErrorResult(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, apperrors.ErrCollectionNotFound):
		return NewErrorResult("collection_not_found", err.Error()), nil
	case errors.Is(err, apperrors.ErrInvalidOperation):
		return NewErrorResult("invalid_operation", err.Error()), nil
	case errors.Is(err, apperrors.ErrNotConnected):
		return nil, err
	default:
		return NewErrorResult("query_error", err.Error()), nil
	}
}

func marshalIndent(v any) (string, error) {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(encoded), nil
}
