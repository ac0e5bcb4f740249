package geometry

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane satisfies Normal·p + D = 0. Points with a positive distance are on
// its front side.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// NewPlane returns the plane with the given normal going through point.
func NewPlane(normal, point mgl32.Vec3) Plane {
	n := Normalized(normal)
	return Plane{Normal: n, D: -n.Dot(point)}
}

// NewPlaneFromPoints returns the plane through a, b and c, with its normal
// following the counter-clockwise winding.
func NewPlaneFromPoints(a, b, c mgl32.Vec3) Plane {
	return NewPlane(b.Sub(a).Cross(c.Sub(a)), a)
}

func (p Plane) Distance(pt mgl32.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

func (p Plane) Flip() Plane {
	return Plane{Normal: p.Normal.Mul(-1), D: -p.D}
}

func (p Plane) Normalize() Plane {
	l := p.Normal.Len()
	if l == 0 {
		return p
	}
	return Plane{Normal: p.Normal.Mul(1 / l), D: p.D / l}
}

// Transform returns the plane transformed by m.
func (p Plane) Transform(m mgl32.Mat4) Plane {
	point := p.Normal.Mul(-p.D)
	normal := m.Inv().Transpose().Mul4x1(p.Normal.Vec4(0)).Vec3()
	return NewPlane(normal, TransformPoint(m, point))
}

// BoxDistances returns the signed distances of the box corners that are the
// farthest along and against the plane normal.
func (p Plane) BoxDistances(b Box) (maxDist, minDist float32) {
	var pv, nv mgl32.Vec3
	for i := 0; i < 3; i++ {
		if p.Normal[i] >= 0 {
			pv[i] = b.Max[i]
			nv[i] = b.Min[i]
		} else {
			pv[i] = b.Min[i]
			nv[i] = b.Max[i]
		}
	}
	return p.Distance(pv), p.Distance(nv)
}
