package validation

import (
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"
	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy strips every tag, script blocks included. Safe for concurrent
// use; bluemonday policies are immutable after construction.
var strictPolicy = bluemonday.StrictPolicy()

// Sanitize strips script blocks and any remaining tag-like markup from a
// free-text value, then trims surrounding whitespace.
func Sanitize(value string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(value))
}

// SanitizeFields applies Sanitize to each named field of the payload that is
// present and a string. Non-string values pass through unchanged.
func SanitizeFields(payload map[string]any, fields ...string) {
	for _, field := range fields {
		if str, ok := payload[field].(string); ok {
			payload[field] = Sanitize(str)
		}
	}
}

// CheckInjection runs libinjection's SQLi detector over every string field
// of the payload and returns one violation per flagged field. Non-string
// values cannot carry injection payloads and are skipped.
func CheckInjection(payload map[string]any) []string {
	var violations []string
	for _, field := range sortedKeys(payload) {
		str, ok := payload[field].(string)
		if !ok {
			continue
		}
		if isSQLi, _ := libinjection.IsSQLi(str); isSQLi {
			violations = append(violations, field+" contains a disallowed SQL pattern")
		}
	}
	return violations
}
