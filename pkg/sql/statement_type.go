package sql

import (
	"regexp"
	"strings"
)

// StatementType is the coarse kind of a registered statement, used for logging.
type StatementType string

const (
	StatementSelect      StatementType = "SELECT"
	StatementInsert      StatementType = "INSERT"
	StatementUpdate      StatementType = "UPDATE"
	StatementDelete      StatementType = "DELETE"
	StatementCall        StatementType = "CALL"
	StatementDDL         StatementType = "DDL" // CREATE, ALTER, DROP, TRUNCATE, RENAME
	StatementTransaction StatementType = "TRANSACTION"
	StatementUnknown     StatementType = "UNKNOWN"
)

// modifyingCTEPattern matches CTEs that contain data-modifying operations.
// Example: WITH deleted AS (DELETE FROM ...) SELECT * FROM deleted
var modifyingCTEPattern = regexp.MustCompile(`(?i)\bAS\s*\(\s*(INSERT|UPDATE|DELETE)\b`)

var leadingKeywords = []struct {
	keyword string
	kind    StatementType
}{
	{"SELECT", StatementSelect},
	{"INSERT", StatementInsert},
	{"UPDATE", StatementUpdate},
	{"DELETE", StatementDelete},
	{"MERGE", StatementUpdate},
	{"CALL", StatementCall},
	{"EXEC", StatementCall},
	{"CREATE", StatementDDL},
	{"ALTER", StatementDDL},
	{"DROP", StatementDDL},
	{"TRUNCATE", StatementDDL},
	{"RENAME", StatementDDL},
	{"BEGIN", StatementTransaction},
	{"START", StatementTransaction},
	{"COMMIT", StatementTransaction},
	{"ROLLBACK", StatementTransaction},
	{"SAVEPOINT", StatementTransaction},
}

// DetectStatementType classifies text by its first keyword. A WITH clause is
// a SELECT unless one of its CTEs modifies data, in which case it counts as
// UPDATE.
func DetectStatementType(text string) StatementType {
	normalized := strings.ToUpper(strings.TrimSpace(text))

	if strings.HasPrefix(normalized, "WITH") {
		if modifyingCTEPattern.MatchString(text) {
			return StatementUpdate
		}
		return StatementSelect
	}

	for _, k := range leadingKeywords {
		if hasKeywordPrefix(normalized, k.keyword) {
			return k.kind
		}
	}
	return StatementUnknown
}

// hasKeywordPrefix requires a word boundary so SELECTED is not SELECT.
func hasKeywordPrefix(s, keyword string) bool {
	if !strings.HasPrefix(s, keyword) {
		return false
	}
	if len(s) == len(keyword) {
		return true
	}
	c := s[len(keyword)]
	return !(c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_')
}

// ChangesSchema reports whether a statement of this type may add, remove or
// alter tables. Unknown statements are assumed to.
func (t StatementType) ChangesSchema() bool {
	return t == StatementDDL || t == StatementUnknown || t == StatementCall
}
