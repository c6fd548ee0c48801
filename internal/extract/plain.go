package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain returns the content as UTF-8 text, replacing invalid byte
// sequences so downstream chunking never sees broken runes.
func extractPlain(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	return strings.ToValidUTF8(string(content), "�"), nil
}
