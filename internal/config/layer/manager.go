package layer

import (
	"sort"
	"sync"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/value"
)

// Manager holds the configuration layers and caches their merge.
type Manager struct {
	mu     sync.RWMutex
	layers []*Layer   // Sorted by priority (ascending)
	merged *value.Map // Cached merged result
	dirty  bool       // Whether merged cache needs refresh
}

// NewManager creates a new layer manager.
func NewManager() *Manager {
	return &Manager{
		layers: make([]*Layer, 0),
		dirty:  true,
	}
}

// AddLayer adds a layer, replacing any layer with the same name.
// Layers are kept sorted by priority.
func (m *Manager) AddLayer(layer *Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.layers {
		if existing.Name == layer.Name {
			m.layers = append(m.layers[:i], m.layers[i+1:]...)
			break
		}
	}
	m.layers = append(m.layers, layer)
	m.sortLayers()
	m.dirty = true
}

// LayerCount returns the number of layers.
func (m *Manager) LayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.layers)
}

// Merge combines all layers into a single tree.
// The result is cached until a layer is added or replaced; callers
// receive their own copy.
func (m *Manager) Merge() *value.Map {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mergedData().Clone()
}

// mergedData refreshes the cache if needed and returns the internal
// reference. Must be called with the write lock held.
func (m *Manager) mergedData() *value.Map {
	if m.dirty || m.merged == nil {
		trees := make([]*value.Map, len(m.layers))
		for i, layer := range m.layers {
			trees[i] = layer.Data
		}
		m.merged = Merge(trees...)
		m.dirty = false
	}
	return m.merged
}

// Get returns the value a path takes in the highest layer that sets it,
// together with that layer.
func (m *Manager) Get(path string) (value.Value, *Layer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.layers) - 1; i >= 0; i-- {
		layer := m.layers[i]
		if v, ok := value.Get(layer.Data, path); ok {
			return v, layer, true
		}
	}
	return value.Null(), nil, false
}

// Invalidate marks the merged cache as dirty.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirty = true
}

// Clear removes all layers.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.layers = nil
	m.merged = nil
	m.dirty = true
}

// sortLayers sorts layers by priority (ascending). Layers of equal priority
// keep insertion order.
func (m *Manager) sortLayers() {
	sort.SliceStable(m.layers, func(i, j int) bool {
		return m.layers[i].Priority < m.layers[j].Priority
	})
}
