package cache

import (
	"fmt"
	"strings"
)

// BuildKey produces the canonical cache key: category, then colon-joined
// stringified positional arguments, skipping nil arguments (spec §4.A "Key
// construction"). Equal arguments MUST produce equal keys across call
// sites, so callers should pass comparable, stringable values.
func BuildKey(category Category, args ...interface{}) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, string(category))
	for _, a := range args {
		if a == nil {
			continue
		}
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, ":")
}
