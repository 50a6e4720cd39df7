// Package normalization parses user-supplied enum settings leniently:
// surrounding whitespace and letter case are ignored.
package normalization

import (
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

// Enum maps raw configuration strings onto a string-backed enum type.
type Enum[T ~string] struct {
	name         string
	values       map[string]T
	keys         []string
	defaultValue T
}

// NewEnum creates an Enum named name (used in error messages). An empty raw
// value parses to defaultValue.
func NewEnum[T ~string](name string, defaultValue T, values ...T) *Enum[T] {
	e := &Enum[T]{name: name, values: make(map[string]T, len(values)), defaultValue: defaultValue}
	for _, v := range values {
		key := normalize(string(v))
		e.values[key] = v
		e.keys = append(e.keys, key)
	}
	slices.Sort(e.keys)
	return e
}

// Parse returns the enum value for raw, or a validation error listing the
// accepted values.
func (e *Enum[T]) Parse(raw string) (T, error) {
	key := normalize(raw)
	if key == "" {
		return e.defaultValue, nil
	}
	if v, ok := e.values[key]; ok {
		return v, nil
	}
	return e.defaultValue, ferrors.ValidationError("invalid "+e.name).
		WithContext("value", raw).
		WithContext("valid", strings.Join(e.keys, ", ")).
		Build()
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
