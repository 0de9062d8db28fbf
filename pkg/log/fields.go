package log

import "sort"

const (
	FieldKeyPrefix = "prefix"
	FieldKeyMsg    = "msg"
	FieldKeyLevel  = "level"
	FieldKeyTime   = "time"
)

// Fields type, used to pass to `WithFields`.
type Fields map[string]interface{}

// Keys returns the sorted field keys, skipping the given ones.
func (fields Fields) Keys(removeKeys ...string) []string {
	var keys []string

	for key := range fields {
		var skip bool

		for _, removeKey := range removeKeys {
			if key == removeKey {
				skip = true
				break
			}
		}

		if !skip {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)

	return keys
}
