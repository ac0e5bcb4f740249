package models

import (
	"sync"

	"github.com/aukilabs/zonecull/geometry"
)

// TypeMask classifies scene objects. Spatial and render queries filter on it.
type TypeMask uint32

const (
	StaticObjectType TypeMask = 1 << iota
	InteriorObjectType
	TerrainObjectType
	EnvironmentObjectType
	PlayerObjectType
	ItemObjectType
	VehicleObjectType
	LightObjectType
	DecalObjectType

	AllObjectTypes TypeMask = 0xFFFFFFFF
)

var typeMaskNames = map[string]TypeMask{
	"static":      StaticObjectType,
	"interior":    InteriorObjectType,
	"terrain":     TerrainObjectType,
	"environment": EnvironmentObjectType,
	"player":      PlayerObjectType,
	"item":        ItemObjectType,
	"vehicle":     VehicleObjectType,
	"light":       LightObjectType,
	"decal":       DecalObjectType,
	"all":         AllObjectTypes,
}

// ParseTypeMask returns the mask named by v, and false when the name is
// unknown.
func ParseTypeMask(v string) (TypeMask, bool) {
	m, ok := typeMaskNames[v]
	return m, ok
}

func (m TypeMask) Matches(o TypeMask) bool {
	return m&o != 0
}

type ObjectFlags uint32

const (
	// GlobalBoundsFlag marks objects that cover the whole world. They are
	// never culled.
	GlobalBoundsFlag ObjectFlags = 1 << iota

	// EditorOverrideFlag marks objects the editor forces into the render
	// list.
	EditorOverrideFlag
)

// SceneObject is an object placed in the scene with a world space bounding
// box.
type SceneObject struct {
	ID       uint32
	Name     string
	TypeMask TypeMask
	Flags    ObjectFlags

	mutex    sync.RWMutex
	worldBox geometry.Box

	zoneEpoch   uint64
	zoneValid   bool
	zoneOutside bool
	zones       []ZoneID
}

func NewSceneObject(name string, mask TypeMask, box geometry.Box) *SceneObject {
	return &SceneObject{
		Name:     name,
		TypeMask: mask,
		worldBox: box,
	}
}

func (o *SceneObject) WorldBox() geometry.Box {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	return o.worldBox
}

// SetWorldBox moves the object. The cached zone membership is dropped.
func (o *SceneObject) SetWorldBox(b geometry.Box) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.worldBox = b
	o.zoneValid = false
}

func (o *SceneObject) HasGlobalBounds() bool {
	return o.Flags&GlobalBoundsFlag != 0
}

func (o *SceneObject) IsEditorOverride() bool {
	return o.Flags&EditorOverrideFlag != 0
}

// CachedZones returns the zones cached for the given epoch. It returns false
// when the cache is missing or was computed for another epoch.
func (o *SceneObject) CachedZones(epoch uint64) ([]ZoneID, bool, bool) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	if !o.zoneValid || o.zoneEpoch != epoch {
		return nil, false, false
	}

	zones := make([]ZoneID, len(o.zones))
	copy(zones, o.zones)
	return zones, o.zoneOutside, true
}

func (o *SceneObject) SetCachedZones(epoch uint64, zones []ZoneID, outside bool) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.zones = append(o.zones[:0], zones...)
	o.zoneOutside = outside
	o.zoneEpoch = epoch
	o.zoneValid = true
}

func (o *SceneObject) InvalidateZones() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.zoneValid = false
}
