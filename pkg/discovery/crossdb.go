package discovery

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// DiscoverAll analyzes pairwise relationships across the database's
// collections, bounded by fixed caps so discovery time stays predictable.
// Each pair is individually time-boxed; a failing or slow pair is recorded
// as not analyzed instead of aborting the run.
func (e *Engine) DiscoverAll(ctx context.Context) (*Report, error) {
	collections, err := e.sampler.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections failed: %w", err)
	}
	sort.Strings(collections)

	report := &Report{}

	if len(collections) > maxCollections {
		collections = collections[:maxCollections]
		report.Limited = true
	}

	pairs := 0
	for i := 0; i < len(collections); i++ {
		for j := i + 1; j < len(collections); j++ {
			if pairs >= maxPairs {
				report.Limited = true
				break
			}
			pairs++

			pairName := collections[i] + "<->" + collections[j]
			found, err := e.findPairBoxed(ctx, collections[i], collections[j])
			if err != nil {
				e.logger.Warn("pair analysis skipped",
					zap.String("pair", pairName),
					zap.Error(err))
				report.NotAnalyzed = append(report.NotAnalyzed, pairName)
				report.Limited = true
				continue
			}
			report.Relationships = append(report.Relationships, found...)
		}
	}

	for _, rel := range report.Relationships {
		if rel.Strong() {
			report.StrongCount++
		} else {
			report.WeakCount++
		}
	}
	report.Components = connectedComponents(collections, report.Relationships)

	if report.Limited {
		report.Note = "analysis limited: collection/pair caps or per-pair failures truncated discovery"
	}

	return report, nil
}

// findPairBoxed runs one pairwise analysis under the per-pair timeout.
func (e *Engine) findPairBoxed(ctx context.Context, a, b string) ([]Relationship, error) {
	pairCtx, cancel := context.WithTimeout(ctx, perPairTimeout)
	defer cancel()
	return e.FindBetween(pairCtx, a, b)
}

// connectedComponents groups collections into clusters joined by accepted
// relationships, via breadth-first traversal. Collections with no accepted
// relationship form singleton components and are omitted.
func connectedComponents(collections []string, relationships []Relationship) [][]string {
	adjacency := make(map[string][]string)
	for _, rel := range relationships {
		adjacency[rel.FromCollection] = append(adjacency[rel.FromCollection], rel.ToCollection)
		adjacency[rel.ToCollection] = append(adjacency[rel.ToCollection], rel.FromCollection)
	}

	visited := make(map[string]bool)
	var components [][]string

	for _, start := range collections {
		if visited[start] || len(adjacency[start]) == 0 {
			continue
		}

		var component []string
		queue := []string{start}
		visited[start] = true
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			component = append(component, node)
			for _, next := range adjacency[node] {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}

		sort.Strings(component)
		components = append(components, component)
	}

	return components
}
