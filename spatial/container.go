package spatial

import (
	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/models"
	"github.com/go-gl/mathgl/mgl32"
)

type DebugInfo struct {
	Resolution  float32    `json:"resolution"`
	RowCount    uint32     `json:"row_count"`
	ColCount    uint32     `json:"col_count"`
	ObjectCount uint32     `json:"object_count"`
	GlobalCount uint32     `json:"global_count"`
	MinPoint    mgl32.Vec3 `json:"min_point"`
	MaxPoint    mgl32.Vec3 `json:"max_point"`
	Occupancy   []uint32   `json:"occupancy"`
}

// Container is a spatial index of scene objects.
type Container interface {
	Insert(o *models.SceneObject)
	Remove(o *models.SceneObject) bool
	Update(o *models.SceneObject)

	// Returns the objects matching mask whose world box overlaps b, sorted by
	// id. Objects with global bounds are always returned.
	FindObjectList(b geometry.Box, mask models.TypeMask) []*models.SceneObject

	// Calls fn with each object FindObjectList would return.
	FindObjects(b geometry.Box, mask models.TypeMask, fn func(*models.SceneObject))

	// Returns the closest object hit by the ray, and where along the ray it
	// was hit.
	CastRay(r geometry.Ray, mask models.TypeMask) (*models.SceneObject, float32)

	// debug stuff:
	GetDebugInfo() DebugInfo
}
