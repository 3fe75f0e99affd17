package pgtool

import (
	"strings"

	"github.com/skosovsky/toolsrv"
)

// ReadOnlyViolation is the failure message for rejected statements.
const ReadOnlyViolation = "only read-only queries are allowed"

// mutatingKeywords are matched as plain substrings, so text such as "created_at" or a
// string literal containing "update" is rejected too, and obfuscated statements may pass.
// The guard is a heuristic, not a security boundary.
var mutatingKeywords = []string{"insert", "update", "delete", "drop", "alter", "create", "truncate"}

// mutatingKeyword returns the first mutating keyword found in query, case-insensitively.
func mutatingKeyword(query string) (string, bool) {
	q := strings.ToLower(query)
	for _, kw := range mutatingKeywords {
		if strings.Contains(q, kw) {
			return kw, true
		}
	}
	return "", false
}

// CheckReadOnly returns a policy ClientError if query contains a mutating keyword.
func CheckReadOnly(query string) error {
	if _, found := mutatingKeyword(query); found {
		return toolsrv.PolicyViolation(ReadOnlyViolation)
	}
	return nil
}
