package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Kind names the primitive type a payload field must decode to.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "boolean"
)

// Range bounds a numeric field inclusively.
type Range struct {
	Min float64
	Max float64
}

// Schema declares the accepted shape of one route's JSON payload.
// A nil map disables that class of checks.
type Schema struct {
	Required    []string
	Types       map[string]Kind
	MaxLength   map[string]int
	NumberRange map[string]Range
}

// Validate checks payload against the schema and returns every violation,
// not just the first. An empty slice means the payload passed. A missing
// required field suppresses the type check for that same field, since there
// is no value to type-check; all other checks run independently.
func Validate(payload map[string]any, s Schema) []string {
	var violations []string
	missing := make(map[string]bool)

	for _, field := range s.Required {
		value, ok := payload[field]
		if !ok || value == nil || value == "" {
			violations = append(violations, fmt.Sprintf("%s is required", field))
			missing[field] = true
		}
	}

	// Deterministic ordering for the remaining map-driven checks.
	for _, field := range sortedKeys(s.Types) {
		expected := s.Types[field]
		value, ok := payload[field]
		if !ok || value == nil || missing[field] {
			continue
		}
		if actual := kindOf(value); actual != expected {
			violations = append(violations, fmt.Sprintf("%s must be a %s, got %s", field, expected, actual))
		}
	}

	for _, field := range sortedKeys(s.MaxLength) {
		limit := s.MaxLength[field]
		value, ok := payload[field]
		if !ok {
			continue
		}
		str, isStr := value.(string)
		if !isStr {
			continue
		}
		if len([]rune(str)) > limit {
			violations = append(violations, fmt.Sprintf("%s exceeds maximum length of %d", field, limit))
		}
	}

	for _, field := range sortedKeys(s.NumberRange) {
		bounds := s.NumberRange[field]
		value, ok := payload[field]
		if !ok || value == nil {
			continue
		}
		n, err := toNumber(value)
		if err != nil || math.IsNaN(n) || n < bounds.Min || n > bounds.Max {
			violations = append(violations,
				fmt.Sprintf("%s must be a number between %g and %g", field, bounds.Min, bounds.Max))
		}
	}

	return violations
}

func kindOf(value any) Kind {
	switch value.(type) {
	case string:
		return KindString
	case float64, float32, int, int32, int64, json.Number:
		return KindNumber
	case bool:
		return KindBool
	default:
		return Kind(fmt.Sprintf("%T", value))
	}
}

// toNumber accepts JSON numbers and numeric strings; anything else fails.
func toNumber(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("not a number: %T", value)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
