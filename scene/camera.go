package scene

import (
	"sync"

	"github.com/aukilabs/zonecull/geometry"
	"github.com/go-gl/mathgl/mgl32"
)

type Viewport struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Stereo describes side by side stereo rendering. Eye 0 is the left eye.
type Stereo struct {
	Enabled bool

	// Eye positions in camera space.
	EyeOffsets [2]mgl32.Vec3

	// Per eye field of view. A zero port uses the camera field of view.
	EyeFov [2]geometry.FovPort
}

// Camera is the viewpoint scenes are rendered from. It looks down its local
// -Z axis.
type Camera struct {
	mutex     sync.RWMutex
	transform mgl32.Mat4
	fovY      float32
	aspect    float32
	near      float32
	far       float32
	viewport  Viewport
	stereo    Stereo
}

// NewCamera returns a camera at the origin. fovY is in radians.
func NewCamera(fovY, near, far float32, viewport Viewport) *Camera {
	aspect := float32(1)
	if viewport.Height != 0 {
		aspect = float32(viewport.Width) / float32(viewport.Height)
	}

	return &Camera{
		transform: mgl32.Ident4(),
		fovY:      fovY,
		aspect:    aspect,
		near:      near,
		far:       far,
		viewport:  viewport,
	}
}

func (c *Camera) SetTransform(m mgl32.Mat4) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.transform = m
}

// LookAt places the camera at eye, looking at target.
func (c *Camera) LookAt(eye, target mgl32.Vec3) {
	c.SetTransform(mgl32.LookAtV(eye, target, mgl32.Vec3{0, 1, 0}).Inv())
}

func (c *Camera) Transform() mgl32.Mat4 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.transform
}

func (c *Camera) Position() mgl32.Vec3 {
	return c.Transform().Col(3).Vec3()
}

func (c *Camera) SetStereo(s Stereo) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.stereo = s
}

func (c *Camera) snapshot() cameraState {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return cameraState{
		transform: c.transform,
		fovY:      c.fovY,
		aspect:    c.aspect,
		near:      c.near,
		far:       c.far,
		viewport:  c.viewport,
		stereo:    c.stereo,
	}
}

type cameraState struct {
	transform mgl32.Mat4
	fovY      float32
	aspect    float32
	near      float32
	far       float32
	viewport  Viewport
	stereo    Stereo
}

// monoView returns the view of the whole camera.
func (c cameraState) monoView() ViewState {
	return ViewState{
		Transform: c.transform,
		Frustum:   geometry.NewPerspectiveFrustum(c.transform, c.fovY, c.aspect, c.near, c.far),
		Viewport:  c.viewport,
	}
}

// eyeView returns the view of one stereo eye, rendered in its half of the
// viewport.
func (c cameraState) eyeView(eye int) ViewState {
	transform := c.transform.Mul4(mgl32.Translate3D(
		c.stereo.EyeOffsets[eye][0],
		c.stereo.EyeOffsets[eye][1],
		c.stereo.EyeOffsets[eye][2],
	))

	port := c.stereo.EyeFov[eye]
	if port == (geometry.FovPort{}) {
		port = geometry.SymmetricFovPort(c.fovY, c.aspect/2)
	}

	viewport := c.viewport
	viewport.Width /= 2
	if eye == 1 {
		viewport.X += viewport.Width
	}

	return ViewState{
		Transform: transform,
		Frustum:   geometry.NewFovPortFrustum(transform, port, c.near, c.far),
		Viewport:  viewport,
	}
}
