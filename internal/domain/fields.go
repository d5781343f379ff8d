package domain

import "sort"

// Fields is the sorted set of keys present in a request payload. Absent keys
// are left untouched on update; present keys are applied, including nulls.
type Fields []string

// NewFields builds a Fields set from keys, dropping duplicates.
func NewFields(keys ...string) Fields {
	seen := make(map[string]struct{}, len(keys))
	out := make(Fields, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Has reports whether key is in the set.
func (f Fields) Has(key string) bool {
	i := sort.SearchStrings(f, key)
	return i < len(f) && f[i] == key
}

// Outside returns the keys of f that are not in allowed, in sorted order.
func (f Fields) Outside(allowed Fields) []string {
	var out []string
	for _, k := range f {
		if !allowed.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// Payload is a request body decoded into a typed struct.
type Payload interface {
	// Present records the keys the client sent and the error for the first
	// value that did not decode into its field.
	Present(fields Fields, invalid error)
}

// Changes maps column names to the values an update writes. A nil value
// clears the column.
type Changes map[string]any
