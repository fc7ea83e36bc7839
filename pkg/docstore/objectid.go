package docstore

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The LLM writes document identifiers as plain hex strings. The store only
// matches them as native ObjectIDs, so queries are rewritten before
// execution: any value under an identifier-named key (or an operator key
// such as $in) that looks exactly like an ObjectID is converted. Fields
// that hold identifiers under unconventional names are skipped on purpose;
// widening the match would risk converting unrelated hex-like strings.

// isObjectIDHex reports whether s has the exact textual shape of an
// ObjectID: 24 characters, hexadecimal only.
func isObjectIDHex(s string) bool {
	if len(s) != 24 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// isIdentifierKey reports whether a query key names an identifier field or
// is a query operator whose operands may carry identifiers.
func isIdentifierKey(key string) bool {
	return key == "_id" ||
		strings.HasSuffix(key, "_id") ||
		strings.HasSuffix(key, "Id") ||
		strings.HasPrefix(key, "$")
}

// CoerceObjectIDs walks a query document and converts string leaves under
// identifier keys to primitive.ObjectID when they match the ObjectID hex
// shape. Non-matching strings pass through unchanged. The walk recurses
// into nested documents, operator trees ($and, $or, $in, ...) and arrays,
// and unwraps extended-JSON {"$oid": "..."} values.
func CoerceObjectIDs(query bson.M) bson.M {
	if query == nil {
		return nil
	}

	out := make(bson.M, len(query))
	for key, value := range query {
		if isIdentifierKey(key) {
			out[key] = coerceValue(value)
		} else {
			switch v := value.(type) {
			case bson.M:
				out[key] = CoerceObjectIDs(v)
			case map[string]any:
				out[key] = CoerceObjectIDs(bson.M(v))
			case []any:
				out[key] = coerceSliceDocuments(v)
			default:
				out[key] = value
			}
		}
	}
	return out
}

// coerceValue converts a value positioned under an identifier key.
func coerceValue(value any) any {
	switch v := value.(type) {
	case string:
		if isObjectIDHex(v) {
			oid, err := primitive.ObjectIDFromHex(v)
			if err == nil {
				return oid
			}
		}
		return v
	case bson.M:
		return coerceDocumentValue(v)
	case map[string]any:
		return coerceDocumentValue(bson.M(v))
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			switch e := elem.(type) {
			case string:
				out[i] = coerceValue(e)
			case bson.M:
				out[i] = CoerceObjectIDs(e)
			case map[string]any:
				out[i] = CoerceObjectIDs(bson.M(e))
			default:
				out[i] = elem
			}
		}
		return out
	default:
		return value
	}
}

// coerceDocumentValue handles a document under an identifier key: an
// extended-JSON {"$oid": ...} wrapper is unwrapped; anything else (an
// operator document like {"$in": [...]}) goes back through the key-aware
// walk so only operator operands are converted.
func coerceDocumentValue(doc bson.M) any {
	if raw, ok := doc["$oid"]; ok && len(doc) == 1 {
		if s, ok := raw.(string); ok && isObjectIDHex(s) {
			oid, err := primitive.ObjectIDFromHex(s)
			if err == nil {
				return oid
			}
		}
		return doc
	}

	return CoerceObjectIDs(doc)
}

// coerceSliceDocuments recurses into documents inside an array reached
// through a non-identifier key (e.g. the operand list of $and).
func coerceSliceDocuments(values []any) []any {
	out := make([]any, len(values))
	for i, elem := range values {
		switch v := elem.(type) {
		case bson.M:
			out[i] = CoerceObjectIDs(v)
		case map[string]any:
			out[i] = CoerceObjectIDs(bson.M(v))
		default:
			out[i] = elem
		}
	}
	return out
}
