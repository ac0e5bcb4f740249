package zones

import (
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/models"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// PortalAmbientFalloff is the distance from an outside portal beyond
	// which the portal no longer lets outdoor light in.
	PortalAmbientFalloff = 10

	// OutsideZone is the local index standing for the outside of an
	// interior.
	OutsideZone = 0

	solidZone = -1
)

// Zone is a convex region of an interior, in the interior's local space.
type Zone struct {
	Name string

	// Inward facing planes bounding the zone.
	Planes []geometry.Plane
	Bounds geometry.Box

	// Solid zones are inside geometry and never visited.
	Solid bool

	// Ambient overrides the ambient light of the zone.
	Ambient *models.Color

	// Indices of the portals of the zone, filled by NewInteriorSpace.
	Portals []int
}

// NewBoxZone returns a zone covering the given local box.
func NewBoxZone(name string, b geometry.Box) Zone {
	return Zone{
		Name:   name,
		Planes: b.Planes(),
		Bounds: b,
	}
}

func (z Zone) containsPoint(p mgl32.Vec3) bool {
	if !z.Bounds.ContainsPoint(p) {
		return false
	}
	for _, pl := range z.Planes {
		if pl.Distance(p) < -geometry.Epsilon {
			return false
		}
	}
	return true
}

func (z Zone) overlaps(b geometry.Box) bool {
	return geometry.NewCullingVolume(z.Planes, z.Bounds).TestBox(b) != geometry.Outside
}

// Portal is an opening between two zones. A side set to OutsideZone opens
// to the outside of the interior.
type Portal struct {
	// Convex polygon in local space.
	Winding   []mgl32.Vec3
	ZoneFront int
	ZoneBack  int
}

// Other returns the zone on the other side of the portal.
func (p Portal) Other(local int) int {
	if p.ZoneFront == local {
		return p.ZoneBack
	}
	return p.ZoneFront
}

func (p Portal) IsOutside() bool {
	return p.ZoneFront == OutsideZone || p.ZoneBack == OutsideZone
}

// InteriorSpace is a zone space made of convex zones linked by portals.
// Zones have local indices starting at 1.
type InteriorSpace struct {
	SpaceBase

	zones   []Zone
	portals []Portal

	mutex        sync.RWMutex
	transform    mgl32.Mat4
	invTransform mgl32.Mat4
	localBox     geometry.Box
	worldBox     geometry.Box
	zoneBoxes    []geometry.Box
	windings     [][]mgl32.Vec3
}

// NewInteriorSpace returns an interior placed in the world with the given
// transform.
func NewInteriorSpace(name string, transform mgl32.Mat4, zones []Zone, portals []Portal) (*InteriorSpace, error) {
	if len(zones) == 0 {
		return nil, errors.New("interior has no zones").
			WithType(ErrTypeInvalidZoneSpace).
			WithTag("zone_space", name)
	}

	s := &InteriorSpace{
		zones:   make([]Zone, len(zones)),
		portals: make([]Portal, len(portals)),
	}
	s.init(name)
	copy(s.zones, zones)
	copy(s.portals, portals)

	s.localBox = geometry.InvertedBox()
	for i := range s.zones {
		z := &s.zones[i]
		if !z.Bounds.IsValid() {
			return nil, errors.New("zone has invalid bounds").
				WithType(ErrTypeInvalidZoneSpace).
				WithTag("zone_space", name).
				WithTag("zone", i+1)
		}

		z.Portals = nil
		s.localBox = s.localBox.Union(z.Bounds)
	}

	for i, p := range s.portals {
		if reason := s.checkPortal(p); reason != "" {
			return nil, errors.New("invalid portal").
				WithType(ErrTypeInvalidZoneSpace).
				WithTag("zone_space", name).
				WithTag("portal", i).
				WithTag("reason", reason)
		}

		if p.ZoneFront != OutsideZone {
			s.zones[p.ZoneFront-1].Portals = append(s.zones[p.ZoneFront-1].Portals, i)
		}
		if p.ZoneBack != OutsideZone {
			s.zones[p.ZoneBack-1].Portals = append(s.zones[p.ZoneBack-1].Portals, i)
		}
		s.localBox = s.localBox.Union(geometry.PolygonBounds(p.Winding))
	}

	s.setTransform(transform)
	return s, nil
}

// checkPortal returns why the portal is invalid, or an empty string.
func (s *InteriorSpace) checkPortal(p Portal) string {
	switch {
	case len(p.Winding) < 3:
		return "winding has less than 3 points"

	case p.ZoneFront == p.ZoneBack:
		return "portal links a zone to itself"

	case p.ZoneFront < 0 || p.ZoneFront > len(s.zones),
		p.ZoneBack < 0 || p.ZoneBack > len(s.zones):
		return "zone out of range"
	}
	return ""
}

// SetTransform moves the interior. Cached zones of objects are invalidated.
func (s *InteriorSpace) SetTransform(m mgl32.Mat4) {
	s.setTransform(m)
	s.invalidate()
}

func (s *InteriorSpace) setTransform(m mgl32.Mat4) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.transform = m
	s.invTransform = m.Inv()
	s.worldBox = s.localBox.Transform(m)

	s.zoneBoxes = make([]geometry.Box, len(s.zones))
	for i, z := range s.zones {
		s.zoneBoxes[i] = z.Bounds.Transform(m)
	}

	s.windings = make([][]mgl32.Vec3, len(s.portals))
	for i, p := range s.portals {
		s.windings[i] = geometry.TransformPolygon(m, p.Winding)
	}
}

func (s *InteriorSpace) Transform() mgl32.Mat4 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.transform
}

func (s *InteriorSpace) ZoneCount() int {
	return len(s.zones)
}

// Zone returns the zone with the given local index.
func (s *InteriorSpace) Zone(local int) (Zone, bool) {
	if local < 1 || local > len(s.zones) {
		return Zone{}, false
	}
	return s.zones[local-1], true
}

func (s *InteriorSpace) Portals() []Portal {
	portals := make([]Portal, len(s.portals))
	copy(portals, s.portals)
	return portals
}

// GlobalZoneID returns the global id of a local zone, or
// models.InvalidZoneID when the space is not registered or the index is out
// of range.
func (s *InteriorSpace) GlobalZoneID(local int) models.ZoneID {
	if !s.registered || local < 1 || local > len(s.zones) {
		return models.InvalidZoneID
	}
	return s.rangeStart + models.ZoneID(local-1)
}

// LocalZone returns the local index of a global zone id, or OutsideZone when
// the id is not owned by the space.
func (s *InteriorSpace) LocalZone(id models.ZoneID) int {
	if !s.OwnsZone(id) {
		return OutsideZone
	}
	return int(id-s.rangeStart) + 1
}

func (s *InteriorSpace) WorldBox() geometry.Box {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.worldBox
}

func (s *InteriorSpace) toLocal(p mgl32.Vec3) mgl32.Vec3 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return geometry.TransformPoint(s.invTransform, p)
}

// classifyPoint returns the local zone containing the local point p,
// OutsideZone, or solidZone.
func (s *InteriorSpace) classifyPoint(p mgl32.Vec3) int {
	for i, z := range s.zones {
		if !z.containsPoint(p) {
			continue
		}
		if z.Solid {
			return solidZone
		}
		return i + 1
	}
	return OutsideZone
}

func (s *InteriorSpace) ContainsPoint(p mgl32.Vec3) bool {
	return s.localBox.ContainsPoint(s.toLocal(p))
}

func (s *InteriorSpace) GetPointZone(p mgl32.Vec3) models.ZoneID {
	local := s.classifyPoint(s.toLocal(p))
	if local <= OutsideZone {
		return models.InvalidZoneID
	}
	return s.GlobalZoneID(local)
}

func (s *InteriorSpace) GetOverlappingZones(b geometry.Box, out []models.ZoneID) (int, bool) {
	s.mutex.RLock()
	lb := b.Transform(s.invTransform)
	s.mutex.RUnlock()

	n := 0
	truncated := 0
	for i, z := range s.zones {
		if z.Solid || !z.overlaps(lb) {
			continue
		}

		if n == len(out) {
			truncated++
			continue
		}
		out[n] = s.GlobalZoneID(i + 1)
		n++
	}

	if truncated != 0 {
		logs.Warn(errors.New("overlapping zones truncated").
			WithTag("zone_space", s.name).
			WithTag("count", n+truncated).
			WithTag("max", len(out)))
		instrumentTruncateZones()
	}

	outside := !s.localBox.ContainsBox(lb)
	for _, p := range s.portals {
		if outside {
			break
		}
		if p.IsOutside() && geometry.PolygonBounds(p.Winding).Overlaps(lb) {
			outside = true
		}
	}
	return n, outside
}

func (s *InteriorSpace) ZoneAmbient(id models.ZoneID) (models.Color, bool) {
	z, ok := s.Zone(s.LocalZone(id))
	if !ok || z.Ambient == nil {
		return models.Color{}, false
	}
	return *z.Ambient, true
}

// GetPointInsideScale estimates how far inside the interior p is: 1 deep
// inside, 0 outside. Points close to portals opening to the outside get
// values closer to 0. The value is meant for ambient light blending, not as
// an exact measure.
func (s *InteriorSpace) GetPointInsideScale(p mgl32.Vec3) float32 {
	local := s.classifyPoint(s.toLocal(p))
	switch local {
	case solidZone:
		return 1
	case OutsideZone:
		return 0
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var sum float32
	for _, pi := range s.zones[local-1].Portals {
		if s.portals[pi].Other(local) != OutsideZone {
			continue
		}

		d := p.Sub(geometry.PolygonCentroid(s.windings[pi])).Len()
		sum += 1 - geometry.Clamp(d/PortalAmbientFalloff, 0, 1)
	}
	return 1 - geometry.Clamp(sum, 0, 1)
}

func (s *InteriorSpace) TraverseZones(state *TraversalState, start models.ZoneID) {
	if state.Strict {
		s.traverseStrict(state, start)
		return
	}
	s.traverseFlood(state, start)
}

// traverseFlood adds the current volume to every zone of the interior.
func (s *InteriorSpace) traverseFlood(state *TraversalState, start models.ZoneID) {
	v := state.CurrentVolume()

	s.mutex.RLock()
	for i, z := range s.zones {
		if z.Solid {
			continue
		}

		state.Culling.AddCullingVolumeToZone(s.GlobalZoneID(i+1), v)
		if area, ok := s.zoneBoxes[i].Intersect(v.Bounds); ok {
			state.ExtendRenderArea(area)
		}
	}
	s.mutex.RUnlock()
	state.countZoneVisit()

	if !state.beginSpace(s) {
		return
	}
	defer state.endSpace(s)

	if start.IsValid() {
		state.PushZone(start)
		defer state.PopZone()
	}

	s.traverseConnected(state)
}

// traverseStrict visits the zones seen through portals only.
func (s *InteriorSpace) traverseStrict(state *TraversalState, start models.ZoneID) {
	// Entering again through another portal still narrows into the zones.
	// Visited zones bound the recursion.
	if state.beginSpace(s) {
		defer state.endSpace(s)
	}

	if local := s.LocalZone(start); local != OutsideZone {
		s.visitZone(state, local)
		return
	}

	for pi, p := range s.portals {
		if !p.IsOutside() {
			continue
		}

		local := p.Other(OutsideZone)
		if s.zones[local-1].Solid {
			continue
		}
		s.throughPortal(state, pi, func() {
			s.visitZone(state, local)
		})
	}
}

func (s *InteriorSpace) visitZone(state *TraversalState, local int) {
	v := state.CurrentVolume()
	state.Culling.AddCullingVolumeToZone(s.GlobalZoneID(local), v)

	s.mutex.RLock()
	area, ok := s.zoneBoxes[local-1].Intersect(v.Bounds)
	s.mutex.RUnlock()
	if ok {
		state.ExtendRenderArea(area)
	}
	state.countZoneVisit()

	if !state.visitZone(s, local) {
		return
	}

	state.PushZone(s.GlobalZoneID(local))
	defer state.PopZone()

	for _, pi := range s.zones[local-1].Portals {
		other := s.portals[pi].Other(local)
		if other != OutsideZone && s.zones[other-1].Solid {
			continue
		}

		s.throughPortal(state, pi, func() {
			if other == OutsideZone {
				s.traverseConnected(state)
				return
			}
			s.visitZone(state, other)
		})
	}
}

// throughPortal narrows the current volume to what is seen through the
// portal and calls fn with it. fn is not called when nothing is seen.
func (s *InteriorSpace) throughPortal(state *TraversalState, portal int, fn func()) {
	s.mutex.RLock()
	winding := s.windings[portal]
	s.mutex.RUnlock()

	v, ok := geometry.NewPortalVolume(state.CameraPosition, winding, state.CurrentVolume())
	if !ok {
		state.rejectPortal()
		return
	}

	state.PushVolume(v)
	defer state.PopVolume()

	fn()
}
