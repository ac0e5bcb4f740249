package scene

import (
	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/lighting"
	"github.com/aukilabs/zonecull/models"
	"github.com/aukilabs/zonecull/render"
)

// SpatialContainer finds the objects of the scene.
type SpatialContainer interface {
	FindObjectList(b geometry.Box, mask models.TypeMask) []*models.SceneObject
	FindObjects(b geometry.Box, mask models.TypeMask, fn func(*models.SceneObject))
}

// LightManager registers the lights affecting a pass.
type LightManager interface {
	RegisterGlobalLights(f geometry.Frustum, staticOnly bool) int
	UnregisterAllLights()
	SpecialLight(kind lighting.SpecialLight) (*lighting.Light, bool)
}

// RenderPassManager receives the objects to draw.
type RenderPassManager interface {
	RenderBatch(pass models.PassType, objects []*models.SceneObject) []render.Batch
}
