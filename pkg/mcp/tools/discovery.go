package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/fleetlens/fleetlens-engine/pkg/discovery"
)

// DiscoveryToolDeps contains dependencies for the relationship-discovery
// tools over the document store.
type DiscoveryToolDeps struct {
	Engine *discovery.Engine
	Logger *zap.Logger
}

// RegisterDiscoveryTools registers the heuristic relationship-discovery tools.
func RegisterDiscoveryTools(r *Registry, deps *DiscoveryToolDeps) {
	registerFindRelationshipsTool(r, deps)
	registerDiscoverRelationshipsTool(r, deps)
}

func registerFindRelationshipsTool(r *Registry, deps *DiscoveryToolDeps) {
	tool := mcp.NewTool(
		"findRelationshipsBetweenCollections",
		mcp.WithDescription(
			"Check whether two MongoDB collections reference each other by sampling "+
				"documents and matching id-like fields in both directions. "+
				"Use this before writing multi-collection lookups.",
		),
		mcp.WithString(
			"collection1",
			mcp.Required(),
			mcp.Description("First collection to compare"),
		),
		mcp.WithString(
			"collection2",
			mcp.Required(),
			mcp.Description("Second collection to compare"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	r.Add(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := rawArguments(req)
		popWorkspace(args)

		first := stringArg(args, "collection1", "")
		second := stringArg(args, "collection2", "")
		if first == "" || second == "" {
			return NewErrorResult("missing_parameter", "collection1 and collection2 are required"), nil
		}
		if first == second {
			return NewErrorResult("invalid_parameters", "collection1 and collection2 must differ"), nil
		}

		relationships, err := deps.Engine.FindBetween(ctx, first, second)
		if err != nil {
			return NewErrorResult("discovery_error", err.Error()), nil
		}

		if len(relationships) == 0 {
			text := fmt.Sprintf(
				"No relationships found between '%s' and '%s'. The collections appear unrelated, "+
					"or their reference fields follow an unrecognized naming pattern.",
				first, second)
			return mcp.NewToolResultText(text), nil
		}

		encoded, err := marshalIndent(relationships)
		if err != nil {
			return nil, err
		}
		text := fmt.Sprintf("Found %d candidate relationships between '%s' and '%s':\n%s",
			len(relationships), first, second, encoded)
		return mcp.NewToolResultText(text), nil
	})
}

func registerDiscoverRelationshipsTool(r *Registry, deps *DiscoveryToolDeps) {
	tool := mcp.NewTool(
		"discoverRelationships",
		mcp.WithDescription(
			"Scan every MongoDB collection pair for cross-references and report the "+
				"discovered relationship graph. Expensive on large databases; prefer "+
				"findRelationshipsBetweenCollections when the candidate pair is known.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	r.Add(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := rawArguments(req)
		popWorkspace(args)

		report, err := deps.Engine.DiscoverAll(ctx)
		if err != nil {
			return NewErrorResult("discovery_error", err.Error()), nil
		}

		encoded, err := marshalIndent(report)
		if err != nil {
			return nil, err
		}
		text := fmt.Sprintf("Discovered %d relationships (%d strong, %d weak) across %d connected clusters:\n%s",
			len(report.Relationships), report.StrongCount, report.WeakCount, len(report.Components), encoded)
		return mcp.NewToolResultText(text), nil
	})
}
