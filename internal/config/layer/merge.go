package layer

import (
	"sort"
	"strings"
)

// Lookup retrieves the value for key from data.
// A flat dotted key ("editor.tabSize": 2) takes precedence over the nested
// form ({"editor": {"tabSize": 2}}).
func Lookup(data map[string]any, key string) (any, bool) {
	if data == nil {
		return nil, false
	}
	if val, ok := data[key]; ok {
		return val, true
	}
	return GetByPath(data, key)
}

// Assign stores value under key. An existing nested entry is updated in
// place; otherwise the flat dotted key is written.
func Assign(data map[string]any, key string, value any) {
	if data == nil {
		return
	}
	if _, flat := data[key]; !flat {
		if _, nested := GetByPath(data, key); nested {
			SetByPath(data, key, value)
			return
		}
	}
	data[key] = value
}

// KeyPath returns the segments key occupies in data: the nested path when
// only a nested entry exists, otherwise the flat key as a single segment.
func KeyPath(data map[string]any, key string) []string {
	if _, flat := data[key]; !flat {
		if _, nested := GetByPath(data, key); nested {
			return strings.Split(key, ".")
		}
	}
	return []string{key}
}

// GetByPath retrieves a value from a nested map using a dot-separated path.
func GetByPath(data map[string]any, path string) (any, bool) {
	if data == nil {
		return nil, false
	}

	parts := strings.Split(path, ".")
	current := any(data)

	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		val, exists := m[part]
		if !exists {
			return nil, false
		}

		current = val
	}

	return current, true
}

// SetByPath sets a value in a nested map using a dot-separated path.
// Creates intermediate maps as needed.
func SetByPath(data map[string]any, path string, value any) {
	if data == nil {
		return
	}

	parts := strings.Split(path, ".")
	current := data

	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if next, ok := current[part].(map[string]any); ok {
			current = next
		} else {
			next := make(map[string]any)
			current[part] = next
			current = next
		}
	}

	current[parts[len(parts)-1]] = value
}

// FlattenMap flattens a nested map into a single-level map with dot-separated keys.
func FlattenMap(data map[string]any) map[string]any {
	result := make(map[string]any)
	flattenMapRecursive(data, "", result)
	return result
}

func flattenMapRecursive(data map[string]any, prefix string, result map[string]any) {
	for key, val := range data {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := val.(map[string]any); ok && len(nested) > 0 {
			flattenMapRecursive(nested, fullKey, result)
		} else {
			result[fullKey] = val
		}
	}
}

// DiffKeys returns the sorted keys whose values differ between two layer
// snapshots, including keys that were added or removed.
func DiffKeys(old, new map[string]any) []string {
	oldFlat := FlattenMap(old)
	newFlat := FlattenMap(new)

	var changed []string
	for key, newVal := range newFlat {
		if oldVal, exists := oldFlat[key]; !exists || !valuesEqual(oldVal, newVal) {
			changed = append(changed, key)
		}
	}
	for key := range oldFlat {
		if _, exists := newFlat[key]; !exists {
			changed = append(changed, key)
		}
	}

	sort.Strings(changed)
	return changed
}

// valuesEqual compares two values for equality.
func valuesEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	switch va := a.(type) {
	case map[string]any:
		vb, ok := b.(map[string]any)
		if !ok {
			return false
		}
		return mapsEqual(va, vb)
	case []any:
		vb, ok := b.([]any)
		if !ok {
			return false
		}
		return slicesEqual(va, vb)
	default:
		return a == b
	}
}

func mapsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !valuesEqual(va, vb) {
			return false
		}
	}
	return true
}

func slicesEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valuesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
