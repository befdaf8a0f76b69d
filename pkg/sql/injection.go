package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a value that libinjection fingerprinted as SQL injection.
type InjectionCheckResult struct {
	Fingerprint string
	Source      string // what the value was, e.g. "identifier" or "statement"
	Value       string
}

// CheckValueForInjection runs libinjection over a value that is about to be
// embedded in SQL. Returns nil when the value looks clean.
func CheckValueForInjection(source, value string) *InjectionCheckResult {
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{
		Fingerprint: string(fingerprint),
		Source:      source,
		Value:       value,
	}
}
