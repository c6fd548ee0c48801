package sqlgen

import (
	"regexp"
	"strings"

	"github.com/ekamlabs/ekamquery/internal/domain"
)

// forbiddenKeywords rejects anything that writes or alters the database.
// Validation is structural only; it proves read-only shape, not semantic
// correctness of the generated statement.
var forbiddenKeywords = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|grant|revoke|copy|vacuum|into|call|do|merge|set)\b`)

// ValidateStatement checks that a generated statement is a single
// read-only SELECT. A single trailing semicolon is tolerated.
func ValidateStatement(stmt string) error {
	cleaned := strings.TrimSpace(stmt)
	cleaned = strings.TrimSuffix(cleaned, ";")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return domain.ErrSQLEmptyStatement
	}
	if strings.ContainsRune(cleaned, ';') {
		return domain.ErrSQLMultipleStmts
	}

	lower := strings.ToLower(cleaned)
	if !strings.HasPrefix(lower, "select") && !strings.HasPrefix(lower, "with") {
		return domain.ErrSQLNotReadOnly
	}
	if forbiddenKeywords.MatchString(cleaned) {
		return domain.ErrSQLNotReadOnly
	}

	return nil
}
