// Package discovery infers foreign-key style relationships between
// schema-less collections. Candidate fields are proposed by naming
// heuristics and then verified by sampling; results carry an explicit
// strength score so callers can weigh them. This trades precision for
// recall: the document store declares no schema, so query-time inference
// is the only way to find joinable collections.
package discovery

import (
	"strings"

	"github.com/jinzhu/inflection"
)

// idSuffixes are the generic identifier suffix conventions.
var idSuffixes = []string{"_id", "Id"}

// MatchReason records which heuristic proposed a candidate field.
type MatchReason string

const (
	MatchSingularID  MatchReason = "singular_id"  // e.g. equipmentId / equipment_id → equipments
	MatchPluralID    MatchReason = "plural_id"    // e.g. equipmentsId / equipments_id → equipments
	MatchNameContain MatchReason = "name_contain" // field name contains the singular collection name
	MatchGenericID   MatchReason = "generic_id"   // any *_id / *Id field
)

// CandidateField tests a field name from one collection against the name
// of a target collection. It returns the strongest matching heuristic, or
// false when no heuristic applies.
//
// The battery, strongest first:
//   - singular(target)+"Id" / singular(target)+"_id"
//   - plural(target)+"Id" / plural(target)+"_id"
//   - field name containing singular(target)
//   - a generic identifier suffix (_id / Id)
func CandidateField(field, targetCollection string) (MatchReason, bool) {
	if field == "" || field == "_id" {
		return "", false
	}

	singular := strings.ToLower(inflection.Singular(targetCollection))
	plural := strings.ToLower(inflection.Plural(targetCollection))
	lowered := strings.ToLower(field)

	for _, suffix := range idSuffixes {
		if lowered == singular+strings.ToLower(suffix) {
			return MatchSingularID, true
		}
		if lowered == plural+strings.ToLower(suffix) {
			return MatchPluralID, true
		}
	}

	if strings.Contains(lowered, singular) {
		return MatchNameContain, true
	}

	if hasIDSuffix(field) {
		return MatchGenericID, true
	}

	return "", false
}

func hasIDSuffix(field string) bool {
	for _, suffix := range idSuffixes {
		if strings.HasSuffix(field, suffix) {
			return true
		}
	}
	return false
}
