package zones

import (
	"sort"
	"sync/atomic"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/models"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	ErrTypeZoneSpaceAlreadyRegistered = "zone-space-already-registered"
	ErrTypeZoneSpaceNotRegistered     = "zone-space-not-registered"
	ErrTypeZoneRangeMismatch          = "zone-range-mismatch"
	ErrTypeRootZoneSpace              = "root-zone-space"
	ErrTypeInvalidZoneSpace           = "invalid-zone-space"
)

// ZoneSpace is an object that subdivides space into zones.
//
// Implementations embed SpaceBase, which carries the registration state
// managed by Manager.
type ZoneSpace interface {
	// The id assigned when the space was registered.
	ZoneSpaceID() uint32

	Name() string

	// The number of zones owned by the space. It must not change while the
	// space is registered.
	ZoneCount() int

	// The first global zone id owned by the space.
	ZoneRangeStart() models.ZoneID

	IsRegistered() bool

	WorldBox() geometry.Box

	ContainsPoint(p mgl32.Vec3) bool

	// Returns the global id of the zone containing p, or
	// models.InvalidZoneID when p is outside of every zone or inside solid
	// geometry.
	GetPointZone(p mgl32.Vec3) models.ZoneID

	// Writes the ids of the zones overlapping b to out and returns how many
	// were written, and whether b also overlaps the outside of the space.
	GetOverlappingZones(b geometry.Box, out []models.ZoneID) (int, bool)

	// Returns the ambient color override of the given zone.
	ZoneAmbient(id models.ZoneID) (models.Color, bool)

	// Adds the current volume of the traversal to the zones of the space and
	// visits the connected spaces. start is the zone the traversal enters
	// from, or models.InvalidZoneID when it comes from outside.
	TraverseZones(state *TraversalState, start models.ZoneID)

	base() *SpaceBase
}

// SpaceBase holds the state shared by every zone space.
type SpaceBase struct {
	name string

	manager    atomic.Pointer[Manager]
	id         uint32
	rangeStart models.ZoneID
	zoneCount  int
	registered bool
	connected  []ZoneSpace
}

func (b *SpaceBase) init(name string) {
	b.name = name
	b.rangeStart = models.InvalidZoneID
}

func (b *SpaceBase) base() *SpaceBase {
	return b
}

func (b *SpaceBase) ZoneSpaceID() uint32 {
	return b.id
}

func (b *SpaceBase) Name() string {
	return b.name
}

func (b *SpaceBase) ZoneRangeStart() models.ZoneID {
	return b.rangeStart
}

func (b *SpaceBase) IsRegistered() bool {
	return b.registered
}

// ConnectedSpaces returns the spaces the traversal crosses into from this
// space, sorted by id.
func (b *SpaceBase) ConnectedSpaces() []ZoneSpace {
	spaces := make([]ZoneSpace, len(b.connected))
	copy(spaces, b.connected)
	return spaces
}

// OwnsZone reports whether the global zone id falls in the range of the
// space.
func (b *SpaceBase) OwnsZone(id models.ZoneID) bool {
	if !b.registered || !id.IsValid() {
		return false
	}
	return id >= b.rangeStart && id < b.rangeStart+models.ZoneID(b.zoneCount)
}

func (b *SpaceBase) connect(s ZoneSpace) {
	for _, c := range b.connected {
		if c == s {
			return
		}
	}

	b.connected = append(b.connected, s)
	sort.Slice(b.connected, func(i, j int) bool {
		return b.connected[i].ZoneSpaceID() < b.connected[j].ZoneSpaceID()
	})
}

func (b *SpaceBase) disconnect(s ZoneSpace) {
	for i, c := range b.connected {
		if c == s {
			b.connected = append(b.connected[:i], b.connected[i+1:]...)
			return
		}
	}
}

// traverseConnected enters every connected space from outside.
func (b *SpaceBase) traverseConnected(state *TraversalState) {
	for _, c := range b.connected {
		if !c.IsRegistered() {
			state.skipUnregistered(c)
			continue
		}
		c.TraverseZones(state, models.InvalidZoneID)
	}
}

// invalidate drops the zone caches of the manager the space is registered
// with.
func (b *SpaceBase) invalidate() {
	if m := b.manager.Load(); m != nil {
		m.invalidateZoneCaches()
	}
}

func errNotRegistered(s ZoneSpace) error {
	return errors.New("zone space is not registered").
		WithType(ErrTypeZoneSpaceNotRegistered).
		WithTag("zone_space", s.Name())
}
