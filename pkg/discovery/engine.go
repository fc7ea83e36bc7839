package discovery

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	// verificationSampleSize bounds how many documents are sampled per
	// collection when verifying a candidate.
	verificationSampleSize = 100

	// minStrength is the acceptance threshold. Deliberately permissive:
	// small, skewed samples underestimate true overlap.
	minStrength = 0.1

	// strongStrength classifies a relationship as strong in summaries.
	strongStrength = 0.5

	// maxCollections bounds the collections considered in a cross-database
	// discovery run.
	maxCollections = 10

	// maxPairs bounds total pairwise comparisons in a discovery run.
	maxPairs = 25

	// perPairTimeout boxes each pairwise analysis so one slow pair cannot
	// stall the whole run.
	perPairTimeout = 10 * time.Second
)

// Sampler supplies bounded samples from the document store. Implemented by
// the docstore executor; tests substitute fixtures.
type Sampler interface {
	ListCollections(ctx context.Context) ([]string, error)
	GetSampleData(ctx context.Context, collection string, limit int64, fields []string) ([]bson.M, error)
}

// Relationship is one verified foreign-key style candidate.
type Relationship struct {
	FromCollection string      `json:"fromCollection"`
	FromField      string      `json:"fromField"`
	ToCollection   string      `json:"toCollection"`
	ToField        string      `json:"toField"`
	Strength       float64     `json:"strength"`
	Matched        int         `json:"matched"`
	Checked        int         `json:"checked"`
	Reason         MatchReason `json:"reason"`
}

// Strong reports whether the relationship clears the strong threshold.
func (r Relationship) Strong() bool {
	return r.Strength >= strongStrength
}

// Report aggregates a multi-collection discovery run.
type Report struct {
	Relationships []Relationship `json:"relationships"`
	StrongCount   int            `json:"strongCount"`
	WeakCount     int            `json:"weakCount"`
	// Components are the connected clusters of collections implied by the
	// accepted relationships.
	Components [][]string `json:"components"`
	// NotAnalyzed lists pairs skipped due to error or timeout; their
	// absence from Relationships is not evidence of independence.
	NotAnalyzed []string `json:"notAnalyzed,omitempty"`
	// Limited is set when caps or failures truncated the analysis.
	Limited bool `json:"limited"`
	Note    string `json:"note,omitempty"`
}

// Engine runs relationship discovery over a Sampler.
type Engine struct {
	sampler Sampler
	logger  *zap.Logger
}

// NewEngine creates a discovery engine.
func NewEngine(sampler Sampler, logger *zap.Logger) *Engine {
	return &Engine{sampler: sampler, logger: logger}
}

// FindBetween proposes and verifies relationships between two collections,
// in both directions: foreign keys may point either way.
func (e *Engine) FindBetween(ctx context.Context, collectionA, collectionB string) ([]Relationship, error) {
	samplesA, err := e.sampler.GetSampleData(ctx, collectionA, verificationSampleSize, nil)
	if err != nil {
		return nil, fmt.Errorf("sampling %s failed: %w", collectionA, err)
	}
	samplesB, err := e.sampler.GetSampleData(ctx, collectionB, verificationSampleSize, nil)
	if err != nil {
		return nil, fmt.Errorf("sampling %s failed: %w", collectionB, err)
	}

	var out []Relationship
	out = append(out, e.findDirected(collectionA, samplesA, collectionB, samplesB)...)
	out = append(out, e.findDirected(collectionB, samplesB, collectionA, samplesA)...)
	return out, nil
}

// findDirected tests fields of the source collection against the target's
// primary identifiers.
func (e *Engine) findDirected(fromCollection string, fromSamples []bson.M, toCollection string, toSamples []bson.M) []Relationship {
	if len(fromSamples) == 0 || len(toSamples) == 0 {
		// Undefined strength: an empty sample verifies nothing.
		return nil
	}

	targetIDs := identifierSet(toSamples)
	if len(targetIDs) == 0 {
		return nil
	}

	var out []Relationship
	for _, field := range fieldNames(fromSamples) {
		reason, ok := CandidateField(field, toCollection)
		if !ok {
			continue
		}

		matched, checked := verify(fromSamples, field, targetIDs)
		if checked == 0 {
			continue
		}

		strength := round2(float64(matched) / float64(checked))
		if strength <= minStrength {
			continue
		}

		out = append(out, Relationship{
			FromCollection: fromCollection,
			FromField:      field,
			ToCollection:   toCollection,
			ToField:        "_id",
			Strength:       strength,
			Matched:        matched,
			Checked:        checked,
			Reason:         reason,
		})
	}
	return out
}

// verify counts how many of the source field's sampled values resolve in
// the target identifier set.
func verify(samples []bson.M, field string, targetIDs map[string]struct{}) (matched, checked int) {
	for _, doc := range samples {
		raw, ok := doc[field]
		if !ok {
			continue
		}
		value, ok := idText(raw)
		if !ok {
			continue
		}
		checked++
		if _, hit := targetIDs[value]; hit {
			matched++
		}
	}
	return matched, checked
}

// identifierSet extracts the textual form of every _id in a sample.
func identifierSet(samples []bson.M) map[string]struct{} {
	set := make(map[string]struct{}, len(samples))
	for _, doc := range samples {
		if value, ok := idText(doc["_id"]); ok {
			set[value] = struct{}{}
		}
	}
	return set
}

// idText normalizes an identifier value to comparable text.
func idText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, v != ""
	case primitive.ObjectID:
		return v.Hex(), true
	case int32:
		return fmt.Sprintf("%d", v), true
	case int64:
		return fmt.Sprintf("%d", v), true
	case float64:
		return fmt.Sprintf("%v", v), true
	default:
		return "", false
	}
}

// fieldNames collects the distinct field names observed across a sample,
// sorted for deterministic output.
func fieldNames(samples []bson.M) []string {
	seen := make(map[string]struct{})
	for _, doc := range samples {
		for field := range doc {
			seen[field] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for field := range seen {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
