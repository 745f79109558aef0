package layer

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/quicky/internal/scope"
)

// Manager manages configuration layers and resolves keys across them.
type Manager struct {
	mu     sync.RWMutex
	layers []*Layer // Sorted by priority (ascending)
}

// NewManager creates a new layer manager.
func NewManager() *Manager {
	return &Manager{
		layers: make([]*Layer, 0),
	}
}

// AddLayer adds a layer to the manager, replacing a layer with the same name.
// Layers are automatically sorted by priority.
func (m *Manager) AddLayer(layer *Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.layers {
		if existing.Name == layer.Name {
			m.layers[i] = layer
			m.sortLayers()
			return
		}
	}

	m.layers = append(m.layers, layer)
	m.sortLayers()
}

// Layers returns a copy of all layers sorted by priority.
func (m *Manager) Layers() []*Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Layer, len(m.layers))
	copy(result, m.layers)
	return result
}

// Get returns the effective value for key as seen from resource.
// Only the folder layer containing resource takes part in the lookup.
func (m *Manager) Get(key, resource string) (any, *Layer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	folder := m.folderFor(resource)
	for i := len(m.layers) - 1; i >= 0; i-- {
		layer := m.layers[i]
		if layer.Scope == ScopeFolder && layer != folder {
			continue
		}
		if val, ok := Lookup(layer.Data, key); ok {
			return val, layer, true
		}
	}

	return nil, nil, false
}

// Inspect returns the per-scope values of key as seen from resource.
func (m *Manager) Inspect(key, resource string) scope.Inspection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	insp := scope.Inspection{Key: key}
	folder := m.folderFor(resource)

	// Highest priority last so narrower layers of the same scope win.
	for _, layer := range m.layers {
		val, ok := Lookup(layer.Data, key)
		if !ok {
			continue
		}
		switch layer.Scope {
		case ScopeDefault:
			insp.Default = scope.Set(val)
		case ScopeUser:
			insp.Global = scope.Set(val)
		case ScopeWorkspace:
			insp.Workspace = scope.Set(val)
		case ScopeFolder:
			if layer == folder {
				insp.Folder = scope.Set(val)
			}
		}
	}

	return insp
}

// Set stores value for key in the layer selected by target and resource.
// It returns the layer that was modified.
func (m *Manager) Set(target scope.Target, resource, key string, value any) (*Layer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	layer, err := m.targetLayer(target, resource)
	if err != nil {
		return nil, err
	}

	if layer.ReadOnly {
		return nil, fmt.Errorf("%w: %s", ErrReadOnly, layer.Name)
	}

	if layer.Data == nil {
		layer.Data = make(map[string]any)
	}

	Assign(layer.Data, key, value)
	return layer, nil
}

// UpdateLayer replaces a layer's data entirely and returns the previous data.
func (m *Manager) UpdateLayer(name string, data map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	layer := m.findLayer(name)
	if layer == nil {
		return nil, fmt.Errorf("%w: %s", ErrLayerNotFound, name)
	}

	old := layer.Data
	layer.Data = cloneMap(data)
	if layer.Data == nil {
		layer.Data = make(map[string]any)
	}
	return old, nil
}

// Snapshot returns a deep copy of a layer's data.
func (m *Manager) Snapshot(name string) (map[string]any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	layer := m.findLayer(name)
	if layer == nil {
		return nil, false
	}
	return cloneMap(layer.Data), true
}

// LayerForPath returns the layer backed by the given file path.
func (m *Manager) LayerForPath(path string) *Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, layer := range m.layers {
		if layer.Path != "" && filepath.Clean(layer.Path) == filepath.Clean(path) {
			return layer
		}
	}
	return nil
}

// FolderFor returns the folder layer whose root contains resource.
func (m *Manager) FolderFor(resource string) *Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.folderFor(resource)
}

// folderFor picks the deepest folder root containing resource
// (must be called with lock held).
func (m *Manager) folderFor(resource string) *Layer {
	if resource == "" {
		return nil
	}

	var best *Layer
	for _, layer := range m.layers {
		if layer.Scope != ScopeFolder || !containsPath(layer.Root, resource) {
			continue
		}
		if best == nil || len(layer.Root) > len(best.Root) {
			best = layer
		}
	}
	return best
}

// TargetLayer returns the layer a write to target would modify.
func (m *Manager) TargetLayer(target scope.Target, resource string) (*Layer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.targetLayer(target, resource)
}

// targetLayer resolves a write target (must be called with lock held).
func (m *Manager) targetLayer(target scope.Target, resource string) (*Layer, error) {
	want := ScopeForTarget(target)
	if want == ScopeFolder {
		if folder := m.folderFor(resource); folder != nil {
			return folder, nil
		}
		return nil, fmt.Errorf("%w: no folder contains %q", ErrLayerNotFound, resource)
	}

	for i := len(m.layers) - 1; i >= 0; i-- {
		if m.layers[i].Scope == want {
			return m.layers[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrLayerNotFound, want)
}

// sortLayers sorts layers by priority (ascending).
func (m *Manager) sortLayers() {
	sort.SliceStable(m.layers, func(i, j int) bool {
		return m.layers[i].Priority < m.layers[j].Priority
	})
}

// findLayer finds a layer by name (must be called with lock held).
func (m *Manager) findLayer(name string) *Layer {
	for _, layer := range m.layers {
		if layer.Name == name {
			return layer
		}
	}
	return nil
}

// containsPath reports whether path is root or lies beneath it.
func containsPath(root, path string) bool {
	if root == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
