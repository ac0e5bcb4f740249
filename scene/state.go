package scene

import (
	"github.com/aukilabs/zonecull/culling"
	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/models"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MonoEye is the eye of passes rendered without stereo.
	MonoEye = -1
)

// ViewState is the view shared by the passes of a frame. Stereo passes
// replace it for the duration of each eye.
type ViewState struct {
	Transform mgl32.Mat4
	Frustum   geometry.Frustum
	Viewport  Viewport
}

func (v ViewState) Position() mgl32.Vec3 {
	return v.Transform.Col(3).Vec3()
}

// DebugOverrides alter how a scene is rendered. The zero value renders
// normally.
type DebugOverrides struct {
	// LockedFrustum culls with the given frustum instead of the camera one.
	LockedFrustum *geometry.Frustum

	// DisableZoneTraversal culls against the frustum only.
	DisableZoneTraversal bool

	// ForceFloodTraversal ignores strict portal traversal.
	ForceFloodTraversal bool
}

// RenderState is the state of one render pass.
type RenderState struct {
	Pass models.PassType

	// Frustum is the frustum of the view. Lights are registered with it.
	Frustum geometry.Frustum

	// CullingFrustum is the frustum objects are culled with. It differs from
	// Frustum when the frustum is locked.
	CullingFrustum geometry.Frustum

	CameraPosition mgl32.Vec3
	Viewport       Viewport
	Eye            int
	Ambient        models.Color
	CullFlags      culling.CullFlags
	Debug          DebugOverrides
}

// StaticLightsOnly reports whether the pass only needs static lights.
func (s *RenderState) StaticLightsOnly() bool {
	return s.Pass == models.ShadowPass
}
