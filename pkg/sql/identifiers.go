package sql

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrInvalidType       = errors.New("invalid column type")
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	// Words, an optional (n) or (p,s) qualifier, trailing words, optional array suffix.
	// Matches "int4", "varchar(40)", "numeric(10, 2)", "timestamp(3) with time zone", "text[]".
	typePattern = regexp.MustCompile(
		`^[A-Za-z][A-Za-z0-9_]*(\s+[A-Za-z][A-Za-z0-9_]*)*` +
			`\s*(\(\s*\d+\s*(,\s*\d+\s*)?\))?` +
			`(\s+[A-Za-z][A-Za-z0-9_]*)*(\[\])?$`)
)

// ValidateIdentifier checks a table or column name before it is spliced into DDL.
// Names are ASCII-only and unquoted so the engine folds their case.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidIdentifier)
	}
	if !isASCII(name) {
		return fmt.Errorf("%w: %q contains non-ASCII characters", ErrInvalidIdentifier, name)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	if res := CheckValueForInjection("identifier", name); res != nil {
		return fmt.Errorf("%w: %q matches injection fingerprint %s", ErrInvalidIdentifier, name, res.Fingerprint)
	}
	return nil
}

// ValidateTypeName checks a caller-supplied column type.
func ValidateTypeName(dataType string) error {
	t := strings.TrimSpace(dataType)
	if t == "" {
		return fmt.Errorf("%w: empty", ErrInvalidType)
	}
	if !isASCII(t) {
		return fmt.Errorf("%w: %q contains non-ASCII characters", ErrInvalidType, t)
	}
	if !typePattern.MatchString(t) {
		return fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
	return nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}
