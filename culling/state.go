package culling

import (
	"sort"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/models"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MaxOccludersPerZone is the number of occluders kept per zone.
	MaxOccludersPerZone = 4

	// MinOccluderScreenWidth and MinOccluderScreenHeight are the fractions of
	// the screen an occluder must cover to be admitted.
	MinOccluderScreenWidth  = 0.1
	MinOccluderScreenHeight = 0.1
)

// CullFlags tune CullObjects.
type CullFlags uint32

const (
	// CullEditorOverrides makes editor override objects go through the
	// visibility test like any other object.
	CullEditorOverrides CullFlags = 1 << iota

	// CullIgnoreOccluders skips the occluder test.
	CullIgnoreOccluders
)

// ZoneResolver resolves the zones a world box overlaps.
type ZoneResolver interface {
	GetOverlappingZones(b geometry.Box) []models.ZoneID
}

// ZoneResolverFunc is a function that implements ZoneResolver.
type ZoneResolverFunc func(b geometry.Box) []models.ZoneID

func (f ZoneResolverFunc) GetOverlappingZones(b geometry.Box) []models.ZoneID {
	return f(b)
}

// State holds the culling volumes that reached each zone during a frame.
//
// A State is frame scoped: it is created when a frame starts and dropped when
// it ends. It is not safe for concurrent use.
type State struct {
	frustum  geometry.Frustum
	root     geometry.CullingVolume
	resolver ZoneResolver

	zoneVolumes map[models.ZoneID][]geometry.CullingVolume
	occluders   map[models.ZoneID][]geometry.CullingVolume
}

// NewState returns a state whose root volume is the given frustum.
func NewState(frustum geometry.Frustum, resolver ZoneResolver) *State {
	return &State{
		frustum:     frustum,
		root:        frustum.Volume(),
		resolver:    resolver,
		zoneVolumes: make(map[models.ZoneID][]geometry.CullingVolume),
		occluders:   make(map[models.ZoneID][]geometry.CullingVolume),
	}
}

func (s *State) Frustum() geometry.Frustum {
	return s.frustum
}

func (s *State) RootVolume() geometry.CullingVolume {
	return s.root
}

// AddCullingVolumeToZone appends a volume through which the zone is seen.
// Empty volumes are ignored.
func (s *State) AddCullingVolumeToZone(id models.ZoneID, v geometry.CullingVolume) {
	if v.IsEmpty() || !id.IsValid() {
		return
	}
	s.zoneVolumes[id] = append(s.zoneVolumes[id], v)
}

// ZoneVolumes returns the volumes added to the given zone.
func (s *State) ZoneVolumes(id models.ZoneID) []geometry.CullingVolume {
	return s.zoneVolumes[id]
}

func (s *State) HasZone(id models.ZoneID) bool {
	return len(s.zoneVolumes[id]) != 0
}

// Zones returns the zones with at least one volume, sorted.
func (s *State) Zones() []models.ZoneID {
	zones := make([]models.ZoneID, 0, len(s.zoneVolumes))
	for id := range s.zoneVolumes {
		zones = append(zones, id)
	}
	sort.Slice(zones, func(i, j int) bool {
		return zones[i] < zones[j]
	})
	return zones
}

func (s *State) ZoneCount() int {
	return len(s.zoneVolumes)
}

// AddOccluder registers the winding as an occluder of the given zone, seen
// from eye. It returns false when the occluder was not admitted, either
// because it covers too little of the screen or because the zone already has
// MaxOccludersPerZone occluders.
func (s *State) AddOccluder(id models.ZoneID, eye mgl32.Vec3, winding []mgl32.Vec3) bool {
	if len(s.occluders[id]) >= MaxOccludersPerZone {
		logs.Warn(errors.New("occluder list is full").
			WithTag("zone", id).
			WithTag("max", MaxOccludersPerZone))
		instrumentRejectOccluder(occluderCapacityReason)
		return false
	}

	w, h := s.frustum.ScreenExtent(winding)
	if w < MinOccluderScreenWidth || h < MinOccluderScreenHeight {
		instrumentRejectOccluder(occluderSizeReason)
		return false
	}

	v, ok := geometry.NewOcclusionVolume(eye, winding)
	if !ok {
		instrumentRejectOccluder(occluderSizeReason)
		return false
	}

	s.occluders[id] = append(s.occluders[id], v)
	return true
}

func (s *State) Occluders(id models.ZoneID) []geometry.CullingVolume {
	return s.occluders[id]
}

// Reset drops every volume and occluder so the state can be used for a new
// frame.
func (s *State) Reset(frustum geometry.Frustum) {
	s.frustum = frustum
	s.root = frustum.Volume()
	clear(s.zoneVolumes)
	clear(s.occluders)
}

// IsCulled reports whether an object with the given world box cannot be seen
// through any volume of the zones it overlaps.
func (s *State) IsCulled(b geometry.Box, flags CullFlags) bool {
	if s.root.TestBox(b) == geometry.Outside {
		return true
	}

	zones := s.resolver.GetOverlappingZones(b)
	if len(zones) == 0 {
		zones = []models.ZoneID{models.RootZoneID}
	}

	for _, id := range zones {
		if s.isVisibleInZone(id, b, flags) {
			return false
		}
	}
	return true
}

func (s *State) isVisibleInZone(id models.ZoneID, b geometry.Box, flags CullFlags) bool {
	seen := false
	for _, v := range s.zoneVolumes[id] {
		if !v.IsBoxCulled(b) {
			seen = true
			break
		}
	}
	if !seen {
		return false
	}

	if flags&CullIgnoreOccluders != 0 {
		return true
	}
	for _, o := range s.occluders[id] {
		if o.IsBoxCulled(b) {
			instrumentOccludedObject()
			return false
		}
	}
	return true
}

func (s *State) alwaysRender(o *models.SceneObject, flags CullFlags) bool {
	if o.HasGlobalBounds() {
		return true
	}
	return o.IsEditorOverride() && flags&CullEditorOverrides == 0
}

// CullObjects moves the visible objects to the front of the slice, keeping
// their order, and returns how many there are.
func (s *State) CullObjects(objects []*models.SceneObject, flags CullFlags) int {
	var culled []*models.SceneObject
	n := 0

	for _, o := range objects {
		if s.alwaysRender(o, flags) || !s.IsCulled(o.WorldBox(), flags) {
			objects[n] = o
			n++
			continue
		}
		culled = append(culled, o)
	}
	copy(objects[n:], culled)

	instrumentCull(len(objects), n)
	return n
}
