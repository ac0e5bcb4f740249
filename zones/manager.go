package zones

import (
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/models"
	"github.com/go-gl/mathgl/mgl32"
)

// Manager maps global zone ids to the zone spaces owning them.
//
// Registration changes take the write lock while frames hold the read lock
// for their whole duration, so a space is never registered or unregistered
// during a traversal.
type Manager struct {
	mutex      sync.RWMutex
	root       *RootSpace
	spaces     []ZoneSpace
	zoneLookup []ZoneSpace
	spaceIDs   models.SequentialIDGenerator
	epoch      uint64
}

// NewManager returns a manager with the root space registered.
func NewManager() *Manager {
	m := &Manager{
		root: NewRootSpace(),
	}

	if err := m.RegisterZones(m.root); err != nil {
		panic(err)
	}
	return m
}

func (m *Manager) Root() *RootSpace {
	return m.root
}

// RegisterZones assigns a contiguous range of global zone ids to the space.
func (m *Manager) RegisterZones(s ZoneSpace) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	b := s.base()
	if b.registered {
		return errors.New("zone space is already registered").
			WithType(ErrTypeZoneSpaceAlreadyRegistered).
			WithTag("zone_space", s.Name()).
			WithTag("range_start", b.rangeStart)
	}

	count := s.ZoneCount()
	if count <= 0 {
		return errors.New("zone space has no zones").
			WithType(ErrTypeInvalidZoneSpace).
			WithTag("zone_space", s.Name())
	}

	start := m.allocateRange(count)
	for i := 0; i < count; i++ {
		m.zoneLookup[int(start)+i] = s
	}

	b.id = m.spaceIDs.New()
	b.rangeStart = start
	b.zoneCount = count
	b.registered = true
	b.manager.Store(m)
	m.spaces = append(m.spaces, s)
	m.epoch++

	logs.WithTag("zone_space", s.Name()).
		WithTag("zone_space_id", b.id).
		WithTag("range_start", start).
		WithTag("zone_count", count).
		Debug("zone space registered")

	instrumentRegisterZones(count)
	return nil
}

// allocateRange returns the start of the first run of count free ids,
// growing the lookup table when no such run exists.
func (m *Manager) allocateRange(count int) models.ZoneID {
	run := 0
	for i, s := range m.zoneLookup {
		if s != nil {
			run = 0
			continue
		}

		run++
		if run == count {
			return models.ZoneID(i - count + 1)
		}
	}

	start := len(m.zoneLookup) - run
	m.zoneLookup = append(m.zoneLookup, make([]ZoneSpace, count-run)...)
	return models.ZoneID(start)
}

// UnregisterZones frees the zone ids of the space. The root space cannot be
// unregistered.
func (m *Manager) UnregisterZones(s ZoneSpace) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	b := s.base()
	if !b.registered {
		return errNotRegistered(s)
	}
	if s == ZoneSpace(m.root) {
		return errors.New("root zone space cannot be unregistered").
			WithType(ErrTypeRootZoneSpace)
	}

	if count := s.ZoneCount(); count != b.zoneCount {
		return errors.New("zone count changed while registered").
			WithType(ErrTypeZoneRangeMismatch).
			WithTag("zone_space", s.Name()).
			WithTag("registered_count", b.zoneCount).
			WithTag("count", count)
	}

	start := int(b.rangeStart)
	if start+b.zoneCount > len(m.zoneLookup) {
		return m.rangeMismatch(s)
	}
	for i := start; i < start+b.zoneCount; i++ {
		if m.zoneLookup[i] != s {
			return m.rangeMismatch(s)
		}
	}

	for i := start; i < start+b.zoneCount; i++ {
		m.zoneLookup[i] = nil
	}
	for len(m.zoneLookup) != 0 && m.zoneLookup[len(m.zoneLookup)-1] == nil {
		m.zoneLookup = m.zoneLookup[:len(m.zoneLookup)-1]
	}

	for i, rs := range m.spaces {
		if rs == s {
			m.spaces = append(m.spaces[:i], m.spaces[i+1:]...)
			break
		}
	}
	for _, c := range b.connected {
		c.base().disconnect(s)
	}

	logs.WithTag("zone_space", s.Name()).
		WithTag("zone_space_id", b.id).
		Debug("zone space unregistered")

	instrumentUnregisterZones(b.zoneCount)

	m.spaceIDs.Reuse(b.id)
	b.connected = nil
	b.id = 0
	b.rangeStart = models.InvalidZoneID
	b.zoneCount = 0
	b.registered = false
	b.manager.Store(nil)
	m.epoch++
	return nil
}

func (m *Manager) rangeMismatch(s ZoneSpace) error {
	return errors.New("zone range is not owned by the zone space").
		WithType(ErrTypeZoneRangeMismatch).
		WithTag("zone_space", s.Name()).
		WithTag("range_start", s.ZoneRangeStart())
}

// ZoneSpace returns the space owning the given global zone id.
func (m *Manager) ZoneSpace(id models.ZoneID) (ZoneSpace, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.zoneSpace(id)
}

func (m *Manager) zoneSpace(id models.ZoneID) (ZoneSpace, bool) {
	if !id.IsValid() || int(id) >= len(m.zoneLookup) {
		return nil, false
	}

	s := m.zoneLookup[id]
	return s, s != nil
}

// Spaces returns the registered spaces in registration order.
func (m *Manager) Spaces() []ZoneSpace {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	spaces := make([]ZoneSpace, len(m.spaces))
	copy(spaces, m.spaces)
	return spaces
}

// ZoneCount returns the number of zone ids in use.
func (m *Manager) ZoneCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	n := 0
	for _, s := range m.zoneLookup {
		if s != nil {
			n++
		}
	}
	return n
}

// FindZone returns the space and zone containing p. Points that are not in
// any zone resolve to the root zone.
func (m *Manager) FindZone(p mgl32.Vec3) (ZoneSpace, models.ZoneID) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.findZone(p)
}

func (m *Manager) findZone(p mgl32.Vec3) (ZoneSpace, models.ZoneID) {
	// Later spaces are searched first so that spaces nested in others win.
	for i := len(m.spaces) - 1; i >= 0; i-- {
		s := m.spaces[i]
		if s == ZoneSpace(m.root) || !s.ContainsPoint(p) {
			continue
		}

		if id := s.GetPointZone(p); id.IsValid() {
			return s, id
		}
	}

	logs.WithTag("point", p).Debug("point is not in any zone, using root zone")
	instrumentRootFallback()
	return m.root, models.RootZoneID
}

// GetOverlappingZones returns the ids of the zones overlapping b. The root
// zone comes first when b reaches outside of every zone space. At most
// models.MaxObjectZones ids are returned.
func (m *Manager) GetOverlappingZones(b geometry.Box) []models.ZoneID {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.getOverlappingZones(b)
}

func (m *Manager) getOverlappingZones(b geometry.Box) []models.ZoneID {
	var buf [models.MaxObjectZones]models.ZoneID
	var zones []models.ZoneID
	outside := true

	for _, s := range m.spaces {
		if s == ZoneSpace(m.root) || !s.WorldBox().Overlaps(b) {
			continue
		}

		n, o := s.GetOverlappingZones(b, buf[:])
		if n != 0 && !o {
			outside = false
		}
		zones = append(zones, buf[:n]...)
	}

	if outside {
		zones = append([]models.ZoneID{models.RootZoneID}, zones...)
	}

	if len(zones) > models.MaxObjectZones {
		logs.Warn(errors.New("overlapping zones truncated").
			WithTag("box_min", b.Min).
			WithTag("box_max", b.Max).
			WithTag("count", len(zones)).
			WithTag("max", models.MaxObjectZones))
		instrumentTruncateZones()
		zones = zones[:models.MaxObjectZones]
	}
	return zones
}

// GetObjectZones returns the zones overlapped by the object. The result is
// cached on the object until it moves or a zone space changes.
func (m *Manager) GetObjectZones(o *models.SceneObject) []models.ZoneID {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if zones, _, ok := o.CachedZones(m.epoch); ok {
		return zones
	}

	zones := m.getOverlappingZones(o.WorldBox())
	outside := len(zones) != 0 && zones[0] == models.RootZoneID
	o.SetCachedZones(m.epoch, zones, outside)
	return zones
}

// NotifyObjectChanged drops the zones cached for the object.
func (m *Manager) NotifyObjectChanged(o *models.SceneObject) {
	o.InvalidateZones()

	logs.WithTag("object_id", o.ID).
		WithTag("object", o.Name).
		Debug("object zones invalidated")
}

func (m *Manager) invalidateZoneCaches() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.epoch++
}

// ConnectZoneSpaces links two spaces so that traversal crosses from one to
// the other.
func (m *Manager) ConnectZoneSpaces(a, b ZoneSpace) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !a.IsRegistered() {
		return errNotRegistered(a)
	}
	if !b.IsRegistered() {
		return errNotRegistered(b)
	}
	if a == b {
		return nil
	}

	a.base().connect(b)
	b.base().connect(a)
	return nil
}

// DisconnectZoneSpaces removes the link between two spaces.
func (m *Manager) DisconnectZoneSpaces(a, b ZoneSpace) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	a.base().disconnect(b)
	b.base().disconnect(a)
}

// ConnectZoneSpace links the outside of the space to the root zone.
func (m *Manager) ConnectZoneSpace(s ZoneSpace) error {
	return m.ConnectZoneSpaces(m.root, s)
}

// DisconnectZoneSpace unlinks the space from the root zone.
func (m *Manager) DisconnectZoneSpace(s ZoneSpace) {
	m.DisconnectZoneSpaces(m.root, s)
}

// BeginFrame locks the manager for reading until End is called on the
// returned frame.
func (m *Manager) BeginFrame() *Frame {
	m.mutex.RLock()
	return &Frame{manager: m}
}

// TraverseZones traverses the zones visible from the camera of the state.
func (m *Manager) TraverseZones(state *TraversalState) {
	f := m.BeginFrame()
	defer f.End()

	f.TraverseZones(state)
}

// SpaceInfo describes a registered zone space.
type SpaceInfo struct {
	ID         uint32        `json:"id"`
	Name       string        `json:"name"`
	RangeStart models.ZoneID `json:"range_start"`
	ZoneCount  int           `json:"zone_count"`
	Connected  []uint32      `json:"connected"`
	BoxMin     mgl32.Vec3    `json:"box_min"`
	BoxMax     mgl32.Vec3    `json:"box_max"`
}

// Snapshot describes the registered spaces in registration order.
func (m *Manager) Snapshot() []SpaceInfo {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	infos := make([]SpaceInfo, 0, len(m.spaces))
	for _, s := range m.spaces {
		b := s.base()
		box := s.WorldBox()

		connected := make([]uint32, 0, len(b.connected))
		for _, c := range b.connected {
			connected = append(connected, c.ZoneSpaceID())
		}

		infos = append(infos, SpaceInfo{
			ID:         b.id,
			Name:       s.Name(),
			RangeStart: b.rangeStart,
			ZoneCount:  b.zoneCount,
			Connected:  connected,
			BoxMin:     box.Min,
			BoxMax:     box.Max,
		})
	}
	return infos
}
