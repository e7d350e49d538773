package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer maps loosely formatted strings ("  Long-Haul ") onto a closed set
// of enum values.
type Normalizer[T comparable] struct {
	name         string
	validValues  map[string]T
	defaultValue T
	validKeys    []string
}

// NewNormalizer creates a normalizer. Keys are cleaned with Clean.
func NewNormalizer[T comparable](name string, values map[string]T, defaultValue T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	keys := make([]string, 0, len(values))
	for k, v := range values {
		ck := Clean(k)
		normalized[ck] = v
		keys = append(keys, ck)
	}
	sort.Strings(keys)
	return &Normalizer[T]{
		name:         name,
		validValues:  normalized,
		defaultValue: defaultValue,
		validKeys:    keys,
	}
}

// Normalize returns the matching value or the default.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.validValues[Clean(raw)]; ok {
		return v
	}
	return n.defaultValue
}

// Parse returns the matching value or an error naming the valid options.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	if v, ok := n.validValues[Clean(raw)]; ok {
		return v, nil
	}
	return n.defaultValue, fmt.Errorf("invalid %s %q (valid: %s)", n.name, raw, strings.Join(n.validKeys, ", "))
}

// ValidKeys lists accepted inputs in sorted order.
func (n *Normalizer[T]) ValidKeys() []string {
	out := make([]string, len(n.validKeys))
	copy(out, n.validKeys)
	return out
}

// Clean lowercases and trims s.
func Clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
