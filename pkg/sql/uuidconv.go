package sql

import (
	"regexp"

	"github.com/google/uuid"
)

// Rows replicated from the document store carry identifiers that were
// ObjectIDs there but are UUID columns relationally, derived as version-5
// UUIDs of the hex text. The LLM tends to paste the document-store form
// into relational queries, so quoted 24-hex literals are rewritten to the
// derived UUID before execution.

// quotedObjectIDPattern matches a single-quoted 24-char hex literal.
var quotedObjectIDPattern = regexp.MustCompile(`'([0-9a-fA-F]{24})'`)

var objectIDHexPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// isObjectIDHex reports whether s has the exact textual shape of a document
// store identifier.
func isObjectIDHex(s string) bool {
	return objectIDHexPattern.MatchString(s)
}

// ObjectIDToUUID derives the deterministic UUID a document identifier maps
// to in the relational store.
func ObjectIDToUUID(objectIDHex string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(objectIDHex)).String()
}

// WorkspaceUUID normalizes a workspace identifier to its relational UUID
// form: document-store hex ids are converted, UUID text passes through
// canonicalized. Anything else is rejected; the caller must not use such a
// value in SQL.
func WorkspaceUUID(workspaceID string) (string, bool) {
	if isObjectIDHex(workspaceID) {
		return ObjectIDToUUID(workspaceID), true
	}
	if parsed, err := uuid.Parse(workspaceID); err == nil {
		return parsed.String(), true
	}
	return "", false
}

// RewriteObjectIDLiterals replaces quoted 24-hex literals in a query with
// their derived UUID form. Literals of any other shape are untouched.
func RewriteObjectIDLiterals(sqlQuery string) string {
	return quotedObjectIDPattern.ReplaceAllStringFunc(sqlQuery, func(match string) string {
		hex := match[1 : len(match)-1]
		return "'" + ObjectIDToUUID(hex) + "'"
	})
}
