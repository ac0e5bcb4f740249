package lighting

import (
	"sort"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/models"
)

// Manager holds the lights of a scene and the ones registered for the pass
// being rendered.
type Manager struct {
	mutex      sync.RWMutex
	ids        models.SequentialIDGenerator
	lights     map[uint32]*Light
	special    map[SpecialLight]*Light
	registered []*Light
}

func NewManager() *Manager {
	return &Manager{
		lights:  make(map[uint32]*Light),
		special: make(map[SpecialLight]*Light),
	}
}

// AddLight assigns an id to the light and stores it.
func (m *Manager) AddLight(l *Light) uint32 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	l.ID = m.ids.New()
	m.lights[l.ID] = l
	return l.ID
}

func (m *Manager) RemoveLight(id uint32) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	l, ok := m.lights[id]
	if !ok {
		return false
	}

	delete(m.lights, id)
	for k, s := range m.special {
		if s == l {
			delete(m.special, k)
		}
	}
	m.ids.Reuse(id)
	return true
}

func (m *Manager) Lights() []*Light {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.sortedLights()
}

func (m *Manager) sortedLights() []*Light {
	lights := make([]*Light, 0, len(m.lights))
	for _, l := range m.lights {
		lights = append(lights, l)
	}
	sort.Slice(lights, func(i, j int) bool {
		return lights[i].ID < lights[j].ID
	})
	return lights
}

// SetSpecialLight gives a role to a light. The light is added when it was
// not.
func (m *Manager) SetSpecialLight(kind SpecialLight, l *Light) {
	m.mutex.Lock()
	if m.lights[l.ID] != l {
		l.ID = m.ids.New()
		m.lights[l.ID] = l
	}
	m.special[kind] = l
	m.mutex.Unlock()
}

func (m *Manager) SpecialLight(kind SpecialLight) (*Light, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	l, ok := m.special[kind]
	return l, ok
}

// RegisterGlobalLights registers the lights that may affect what is inside
// the frustum and returns how many were registered. Special lights are
// always registered.
func (m *Manager) RegisterGlobalLights(f geometry.Frustum, staticOnly bool) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.registered = m.registered[:0]
	for _, l := range m.sortedLights() {
		if m.isSpecial(l) {
			m.registered = append(m.registered, l)
			continue
		}
		if staticOnly && !l.Static {
			continue
		}
		if l.IsVisible(f) {
			m.registered = append(m.registered, l)
		}
	}

	logs.WithTag("count", len(m.registered)).
		WithTag("static_only", staticOnly).
		Debug("lights registered")

	instrumentRegisteredLights(len(m.registered))
	return len(m.registered)
}

func (m *Manager) isSpecial(l *Light) bool {
	for _, s := range m.special {
		if s == l {
			return true
		}
	}
	return false
}

func (m *Manager) UnregisterAllLights() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.registered = m.registered[:0]
	instrumentRegisteredLights(0)
}

func (m *Manager) RegisteredLights() []*Light {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	lights := make([]*Light, len(m.registered))
	copy(lights, m.registered)
	return lights
}
