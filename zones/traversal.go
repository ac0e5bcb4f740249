package zones

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/zonecull/culling"
	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/models"
	"github.com/go-gl/mathgl/mgl32"
)

// VisitState is the traversal state of a zone space during a frame.
type VisitState int

const (
	NotVisited VisitState = iota
	Visiting
	Visited
)

func (v VisitState) String() string {
	switch v {
	case Visiting:
		return "visiting"
	case Visited:
		return "visited"
	default:
		return "not-visited"
	}
}

type zoneKey struct {
	space uint32
	local int
}

// TraversalState is the per frame state of a zone traversal.
type TraversalState struct {
	Culling        *culling.State
	CameraPosition mgl32.Vec3

	// Strict makes interior spaces only visit the zones seen through their
	// portals instead of flooding every zone.
	Strict bool

	zoneStack   []models.ZoneID
	volumeStack []geometry.CullingVolume
	spaces      map[uint32]VisitState
	zones       map[zoneKey]struct{}
	renderArea  geometry.Box
	stats       TraversalStats
}

// TraversalStats summarizes a traversal.
type TraversalStats struct {
	ZoneVisits      int `json:"zone_visits"`
	RejectedPortals int `json:"rejected_portals"`
	SkippedSpaces   int `json:"skipped_spaces"`
	MaxDepth        int `json:"max_depth"`
}

// NewTraversalState returns a state starting with the root volume of the
// culling state.
func NewTraversalState(cull *culling.State, cameraPosition mgl32.Vec3, strict bool) *TraversalState {
	return &TraversalState{
		Culling:        cull,
		CameraPosition: cameraPosition,
		Strict:         strict,
		volumeStack:    []geometry.CullingVolume{cull.RootVolume()},
		spaces:         make(map[uint32]VisitState),
		zones:          make(map[zoneKey]struct{}),
		renderArea:     geometry.InvertedBox(),
	}
}

func (s *TraversalState) CurrentVolume() geometry.CullingVolume {
	return s.volumeStack[len(s.volumeStack)-1]
}

func (s *TraversalState) PushVolume(v geometry.CullingVolume) {
	s.volumeStack = append(s.volumeStack, v)
}

// PopVolume removes the last pushed volume. The root volume is never
// removed.
func (s *TraversalState) PopVolume() {
	if len(s.volumeStack) > 1 {
		s.volumeStack = s.volumeStack[:len(s.volumeStack)-1]
	}
}

func (s *TraversalState) PushZone(id models.ZoneID) {
	s.zoneStack = append(s.zoneStack, id)
	s.stats.MaxDepth = max(s.stats.MaxDepth, len(s.zoneStack))
}

func (s *TraversalState) PopZone() {
	if len(s.zoneStack) != 0 {
		s.zoneStack = s.zoneStack[:len(s.zoneStack)-1]
	}
}

// CurrentZone returns the zone on top of the stack, or models.InvalidZoneID
// when the stack is empty.
func (s *TraversalState) CurrentZone() models.ZoneID {
	if len(s.zoneStack) == 0 {
		return models.InvalidZoneID
	}
	return s.zoneStack[len(s.zoneStack)-1]
}

func (s *TraversalState) ZoneStack() []models.ZoneID {
	stack := make([]models.ZoneID, len(s.zoneStack))
	copy(stack, s.zoneStack)
	return stack
}

func (s *TraversalState) Depth() int {
	return len(s.zoneStack)
}

// ExtendRenderArea grows the render area by b. The render area never
// shrinks.
func (s *TraversalState) ExtendRenderArea(b geometry.Box) {
	s.renderArea = s.renderArea.Union(b)
}

func (s *TraversalState) RenderArea() geometry.Box {
	return s.renderArea
}

func (s *TraversalState) Stats() TraversalStats {
	return s.stats
}

func (s *TraversalState) SpaceState(zs ZoneSpace) VisitState {
	return s.spaces[zs.ZoneSpaceID()]
}

// beginSpace marks the space as being visited. It returns false when the
// space was already entered during the frame.
func (s *TraversalState) beginSpace(zs ZoneSpace) bool {
	id := zs.ZoneSpaceID()
	if s.spaces[id] != NotVisited {
		return false
	}

	s.spaces[id] = Visiting
	return true
}

func (s *TraversalState) endSpace(zs ZoneSpace) {
	s.spaces[zs.ZoneSpaceID()] = Visited
}

// visitZone marks a local zone of a space as visited. It returns false when
// it already was.
func (s *TraversalState) visitZone(zs ZoneSpace, local int) bool {
	k := zoneKey{space: zs.ZoneSpaceID(), local: local}
	if _, ok := s.zones[k]; ok {
		return false
	}

	s.zones[k] = struct{}{}
	return true
}

func (s *TraversalState) countZoneVisit() {
	s.stats.ZoneVisits++
}

func (s *TraversalState) rejectPortal() {
	s.stats.RejectedPortals++
}

func (s *TraversalState) skipUnregistered(zs ZoneSpace) {
	s.stats.SkippedSpaces++

	logs.WithTag("zone_space", zs.Name()).
		Error(errors.New("skipping a connected zone space that is not registered").
			WithType(ErrTypeZoneSpaceNotRegistered))
}
