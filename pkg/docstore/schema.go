package docstore

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxNestedDepth bounds how far schema inference descends into nested
// objects and arrays of objects.
const maxNestedDepth = 3

// FieldSchema describes one field observed in a sampled collection.
type FieldSchema struct {
	// Types is the sorted set of BSON type names observed for the field.
	Types []string `json:"types"`
	// Frequency is the percentage of sampled documents carrying the field.
	Frequency float64 `json:"frequency"`
	// Nested describes object / array-of-object fields, up to maxNestedDepth.
	Nested map[string]FieldSchema `json:"nested,omitempty"`
}

// CollectionSchema is the inferred shape of a collection.
type CollectionSchema struct {
	Collection  string                 `json:"collection"`
	SampleSize  int                    `json:"sampleSize"`
	Fields      map[string]FieldSchema `json:"fields"`
}

// InferSchema analyzes a bounded sample of documents and reports, per
// field, the observed type set and occurrence frequency. Nested objects
// are analyzed recursively. This is a sample-based approximation, not a
// declared schema.
func InferSchema(collection string, docs []bson.M) CollectionSchema {
	return CollectionSchema{
		Collection: collection,
		SampleSize: len(docs),
		Fields:     inferFields(docs, 1),
	}
}

func inferFields(docs []bson.M, depth int) map[string]FieldSchema {
	if len(docs) == 0 {
		return map[string]FieldSchema{}
	}

	typeSets := make(map[string]map[string]struct{})
	counts := make(map[string]int)
	nestedDocs := make(map[string][]bson.M)

	for _, doc := range docs {
		for field, value := range doc {
			counts[field]++
			if typeSets[field] == nil {
				typeSets[field] = make(map[string]struct{})
			}
			typeSets[field][bsonTypeName(value)] = struct{}{}

			if depth < maxNestedDepth {
				for _, nested := range nestedDocuments(value) {
					nestedDocs[field] = append(nestedDocs[field], nested)
				}
			}
		}
	}

	fields := make(map[string]FieldSchema, len(counts))
	for field, count := range counts {
		schema := FieldSchema{
			Types:     sortedTypeSet(typeSets[field]),
			Frequency: roundPercent(float64(count) / float64(len(docs)) * 100),
		}
		if nested := nestedDocs[field]; len(nested) > 0 {
			schema.Nested = inferFields(nested, depth+1)
		}
		fields[field] = schema
	}
	return fields
}

// nestedDocuments extracts the documents reachable one level down from a
// field value: the value itself if it is an object, or its object elements
// if it is an array.
func nestedDocuments(value any) []bson.M {
	switch v := value.(type) {
	case bson.M:
		return []bson.M{v}
	case map[string]any:
		return []bson.M{bson.M(v)}
	case bson.A:
		var out []bson.M
		for _, elem := range v {
			switch e := elem.(type) {
			case bson.M:
				out = append(out, e)
			case map[string]any:
				out = append(out, bson.M(e))
			}
		}
		return out
	case []any:
		var out []bson.M
		for _, elem := range v {
			switch e := elem.(type) {
			case bson.M:
				out = append(out, e)
			case map[string]any:
				out = append(out, bson.M(e))
			}
		}
		return out
	default:
		return nil
	}
}

// bsonTypeName maps a decoded BSON value to a stable type name for the
// schema report.
func bsonTypeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int32, int64, int:
		return "int"
	case float64, float32:
		return "double"
	case primitive.ObjectID:
		return "objectId"
	case primitive.DateTime, time.Time:
		return "date"
	case primitive.Decimal128:
		return "decimal"
	case bson.M, map[string]any, primitive.D:
		return "object"
	case bson.A, []any:
		return "array"
	case primitive.Binary:
		return "binary"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func sortedTypeSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// roundPercent rounds to two decimal places, matching the report format.
func roundPercent(v float64) float64 {
	return math.Round(v*100) / 100
}
