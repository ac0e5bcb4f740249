package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// FovPort describes an asymmetric field of view as the tangents of the half
// angles from the view direction.
type FovPort struct {
	UpTan    float32
	DownTan  float32
	LeftTan  float32
	RightTan float32
}

// SymmetricFovPort returns the port of a symmetric vertical field of view in
// radians.
func SymmetricFovPort(fovY, aspect float32) FovPort {
	t := float32(math.Tan(float64(fovY) / 2))
	return FovPort{UpTan: t, DownTan: t, LeftTan: t * aspect, RightTan: t * aspect}
}

// Frustum is a view frustum in world space.
type Frustum struct {
	Planes   [6]Plane
	Corners  [8]mgl32.Vec3
	Position mgl32.Vec3
	ViewProj mgl32.Mat4
}

// NewFrustumFromMatrix extracts the planes from a combined
// projection*view matrix (Gribb/Hartmann).
func NewFrustumFromMatrix(viewProj mgl32.Mat4) Frustum {
	r0 := viewProj.Row(0)
	r1 := viewProj.Row(1)
	r2 := viewProj.Row(2)
	r3 := viewProj.Row(3)

	plane := func(v mgl32.Vec4) Plane {
		return Plane{Normal: v.Vec3(), D: v[3]}.Normalize()
	}

	var f Frustum
	f.ViewProj = viewProj
	f.Planes[FrustumLeft] = plane(r3.Add(r0))
	f.Planes[FrustumRight] = plane(r3.Sub(r0))
	f.Planes[FrustumBottom] = plane(r3.Add(r1))
	f.Planes[FrustumTop] = plane(r3.Sub(r1))
	f.Planes[FrustumNear] = plane(r3.Add(r2))
	f.Planes[FrustumFar] = plane(r3.Sub(r2))

	inv := viewProj.Inv()
	i := 0
	for _, z := range []float32{-1, 1} {
		for _, y := range []float32{-1, 1} {
			for _, x := range []float32{-1, 1} {
				f.Corners[i] = TransformPoint(inv, mgl32.Vec3{x, y, z})
				i++
			}
		}
	}
	return f
}

// NewPerspectiveFrustum builds the frustum of a camera placed with the
// camera-to-world transform, looking down its local -Z axis.
func NewPerspectiveFrustum(transform mgl32.Mat4, fovY, aspect, near, far float32) Frustum {
	return NewFovPortFrustum(transform, SymmetricFovPort(fovY, aspect), near, far)
}

// NewFovPortFrustum builds an off-axis frustum, as used for stereo eyes.
func NewFovPortFrustum(transform mgl32.Mat4, port FovPort, near, far float32) Frustum {
	proj := mgl32.Frustum(-port.LeftTan*near, port.RightTan*near, -port.DownTan*near, port.UpTan*near, near, far)
	view := transform.Inv()

	f := NewFrustumFromMatrix(proj.Mul4(view))
	f.Position = transform.Col(3).Vec3()
	return f
}

func (f Frustum) Bounds() Box {
	b := InvertedBox()
	for _, c := range f.Corners {
		b.ExtendPoint(c)
	}
	return b
}

func (f Frustum) Volume() CullingVolume {
	planes := make([]Plane, len(f.Planes))
	copy(planes, f.Planes[:])
	return NewCullingVolume(planes, f.Bounds())
}

func (f Frustum) TestBox(b Box) TestResult {
	return f.Volume().TestBox(b)
}

func (f Frustum) ContainsPoint(p mgl32.Vec3) bool {
	for _, pl := range f.Planes {
		if pl.Distance(p) < -Epsilon {
			return false
		}
	}
	return true
}

// ScreenExtent returns the fraction of the viewport width and height covered
// by the projection of points. Points behind the eye make the extent cover
// the whole screen.
func (f Frustum) ScreenExtent(points []mgl32.Vec3) (width, height float32) {
	if len(points) == 0 {
		return 0, 0
	}

	minX, minY := float32(1), float32(1)
	maxX, maxY := float32(-1), float32(-1)
	for _, p := range points {
		clip := f.ViewProj.Mul4x1(p.Vec4(1))
		if clip[3] <= 0 {
			return 1, 1
		}
		x := Clamp(clip[0]/clip[3], -1, 1)
		y := Clamp(clip[1]/clip[3], -1, 1)
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	return (maxX - minX) / 2, (maxY - minY) / 2
}
