// Package layer provides configuration layer management for Quicky.
//
// The layer package holds one map per configuration scope (defaults, user,
// workspace and one per workspace folder). Keys use the flat dotted form
// ("editor.tabSize") with a nested-map fallback, and narrower layers
// override broader ones when a key is read.
package layer

import (
	"time"

	"github.com/dshills/quicky/internal/scope"
)

// Layer represents a single configuration layer.
type Layer struct {
	// Name identifies the layer (e.g., "user", "workspace", "folder:/src/app").
	Name string

	// Priority determines lookup order (higher overrides lower).
	Priority int

	// Scope indicates which configuration scope the layer belongs to.
	Scope Scope

	// Root is the folder root for folder layers.
	Root string

	// Path is the settings file path (if backed by a file).
	Path string

	// Data holds the configuration values.
	Data map[string]any

	// ModTime is when the source was last modified.
	ModTime time.Time

	// ReadOnly prevents modifications to this layer.
	ReadOnly bool
}

// NewLayer creates a new configuration layer.
func NewLayer(name string, scope Scope, priority int) *Layer {
	return &Layer{
		Name:     name,
		Scope:    scope,
		Priority: priority,
		Data:     make(map[string]any),
		ModTime:  time.Now(),
	}
}

// NewLayerWithData creates a new layer with initial data.
func NewLayerWithData(name string, scope Scope, priority int, data map[string]any) *Layer {
	if data == nil {
		data = make(map[string]any)
	}
	return &Layer{
		Name:     name,
		Scope:    scope,
		Priority: priority,
		Data:     data,
		ModTime:  time.Now(),
	}
}

// Scope indicates which configuration scope a layer belongs to.
type Scope uint8

const (
	// ScopeDefault represents registered default values.
	ScopeDefault Scope = iota
	// ScopeUser represents user global settings.
	ScopeUser
	// ScopeWorkspace represents workspace settings.
	ScopeWorkspace
	// ScopeFolder represents settings of one workspace folder.
	ScopeFolder
)

// String returns a human-readable name for the scope.
func (s Scope) String() string {
	switch s {
	case ScopeDefault:
		return "default"
	case ScopeUser:
		return "user"
	case ScopeWorkspace:
		return "workspace"
	case ScopeFolder:
		return "folder"
	default:
		return "unknown"
	}
}

// ScopeForTarget maps a write target to its layer scope.
func ScopeForTarget(t scope.Target) Scope {
	switch t {
	case scope.TargetWorkspace:
		return ScopeWorkspace
	case scope.TargetFolder:
		return ScopeFolder
	default:
		return ScopeUser
	}
}

// cloneMap creates a deep copy of a map.
func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for key, val := range src {
		dst[key] = cloneValue(val)
	}

	return dst
}

// cloneSlice creates a deep copy of a slice.
func cloneSlice(src []any) []any {
	if src == nil {
		return nil
	}

	dst := make([]any, len(src))
	for i, val := range src {
		dst[i] = cloneValue(val)
	}

	return dst
}

// cloneValue creates a deep copy of a value.
func cloneValue(val any) any {
	switch v := val.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		return cloneSlice(v)
	default:
		return val
	}
}
