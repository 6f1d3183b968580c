package encryptor

import (
	"fmt"
	"strings"
)

// Normalizer transforms input into a canonical form before an assisted query
// value is computed. The same normalizer must be used on write and on search.
type Normalizer func(string) string

// NormalizeNone returns the input unchanged (exact, case-sensitive match).
var NormalizeNone Normalizer = func(s string) string {
	return s
}

// NormalizeTrim trims leading and trailing whitespace and preserves case.
var NormalizeTrim Normalizer = func(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeLower folds to lower case without trimming.
var NormalizeLower Normalizer = func(s string) string {
	return strings.ToLower(s)
}

// NormalizeEmail lowercases and trims.
//
// Example: " Alice@Example.COM " -> "alice@example.com"
var NormalizeEmail Normalizer = func(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone keeps ASCII digits only.
//
// Example: "(555) 123-4567" -> "5551234567"
var NormalizePhone Normalizer = func(s string) string {
	var digits strings.Builder
	digits.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return digits.String()
}

var normalizers = map[string]Normalizer{
	"none":  NormalizeNone,
	"trim":  NormalizeTrim,
	"lower": NormalizeLower,
	"email": NormalizeEmail,
	"phone": NormalizePhone,
}

// NormalizerByName returns the built-in normalizer called name.
// An empty name selects NormalizeNone.
func NormalizerByName(name string) (Normalizer, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return NormalizeNone, nil
	}
	norm, ok := normalizers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown normalizer %q", ErrInvalidProperty, name)
	}
	return norm, nil
}
