package zones

import (
	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/models"
	"github.com/go-gl/mathgl/mgl32"
)

// RootSpace is the outdoor space. It owns the root zone only and contains
// every point.
type RootSpace struct {
	SpaceBase
}

func NewRootSpace() *RootSpace {
	s := &RootSpace{}
	s.init("root")
	return s
}

func (s *RootSpace) ZoneCount() int {
	return 1
}

func (s *RootSpace) WorldBox() geometry.Box {
	return geometry.InfiniteBox()
}

func (s *RootSpace) ContainsPoint(p mgl32.Vec3) bool {
	return true
}

func (s *RootSpace) GetPointZone(p mgl32.Vec3) models.ZoneID {
	return models.RootZoneID
}

func (s *RootSpace) GetOverlappingZones(b geometry.Box, out []models.ZoneID) (int, bool) {
	if len(out) == 0 {
		return 0, true
	}

	out[0] = models.RootZoneID
	return 1, true
}

func (s *RootSpace) ZoneAmbient(id models.ZoneID) (models.Color, bool) {
	return models.Color{}, false
}

func (s *RootSpace) TraverseZones(state *TraversalState, start models.ZoneID) {
	v := state.CurrentVolume()
	state.Culling.AddCullingVolumeToZone(models.RootZoneID, v)
	state.ExtendRenderArea(v.Bounds)
	state.countZoneVisit()

	if !state.beginSpace(s) {
		return
	}
	defer state.endSpace(s)

	state.PushZone(models.RootZoneID)
	defer state.PopZone()

	s.traverseConnected(state)
}
