package store

import "strings"

// DefaultKey is the hash results are written to when none is configured.
var DefaultKey = Key{Namespace: "geo", Dataset: "coordinates"}

// Key identifies the Redis hash holding a result set.
type Key struct {
	// Namespace prefixes every key written by this module (e.g., "geo")
	Namespace string

	// Dataset names the result set (e.g., "coordinates")
	Dataset string

	// Tags further qualify the dataset (e.g., a run label)
	Tags []string
}

// String generates a deterministic key string.
// Format: namespace:dataset:tag1:tag2
//
// Example:
//
//	geo:coordinates:france-2025
func (k Key) String() string {
	parts := make([]string, 0, 2+len(k.Tags))
	for _, p := range append([]string{k.Namespace, k.Dataset}, k.Tags...) {
		p = strings.Trim(strings.TrimSpace(p), ":")
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ":")
}
