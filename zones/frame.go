package zones

import (
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/models"
	"github.com/go-gl/mathgl/mgl32"
)

// Frame gives access to the zones of a manager for the duration of a frame.
// Registration changes wait until End is called.
type Frame struct {
	manager *Manager
	once    sync.Once
}

// End releases the manager. It is safe to call it more than once.
func (f *Frame) End() {
	f.once.Do(f.manager.mutex.RUnlock)
}

func (f *Frame) Root() *RootSpace {
	return f.manager.root
}

func (f *Frame) FindZone(p mgl32.Vec3) (ZoneSpace, models.ZoneID) {
	return f.manager.findZone(p)
}

func (f *Frame) ZoneSpace(id models.ZoneID) (ZoneSpace, bool) {
	return f.manager.zoneSpace(id)
}

func (f *Frame) GetOverlappingZones(b geometry.Box) []models.ZoneID {
	return f.manager.getOverlappingZones(b)
}

// TraverseZones starts the traversal at the zone containing the camera.
func (f *Frame) TraverseZones(state *TraversalState) {
	s, id := f.FindZone(state.CameraPosition)
	f.TraverseFrom(state, s, id)
}

// TraverseFrom starts the traversal at the given space and zone. Spaces that
// are not registered fall back to the root zone.
func (f *Frame) TraverseFrom(state *TraversalState, s ZoneSpace, start models.ZoneID) {
	if s == nil {
		s, start = f.FindZone(state.CameraPosition)
	}

	if !s.IsRegistered() {
		logs.WithTag("zone_space", s.Name()).
			Error(errors.New("traversing a zone space that is not registered").
				WithType(ErrTypeZoneSpaceNotRegistered))
		s, start = f.manager.root, models.RootZoneID
	}

	if !s.base().OwnsZone(start) {
		start = models.InvalidZoneID
	}

	s.TraverseZones(state, start)
	instrumentTraversal(state)
}
