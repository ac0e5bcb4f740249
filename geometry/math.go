package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon used for plane classification.
const Epsilon = float32(0.0001)

func EqualWithEpsilon(a float32, b float32, epsilon float64) bool {
	return math.Abs((float64)(a-b)) <= epsilon
}

func InRangeWithEpsilon(value float32, min float32, max float32, epsilon float32) bool {
	return value+epsilon >= min && value-epsilon <= max
}

func Clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func VecEqualWithEpsilon(a, b mgl32.Vec3, epsilon float64) bool {
	return EqualWithEpsilon(a[0], b[0], epsilon) &&
		EqualWithEpsilon(a[1], b[1], epsilon) &&
		EqualWithEpsilon(a[2], b[2], epsilon)
}

// Normalized returns a normalized copy of v, or v itself when it has no
// length.
func Normalized(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Mul(1 / l)
}

// TransformPoint transforms p by m, including the homogeneous divide.
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(p, m)
}

// TransformDirection transforms a direction by m, ignoring translation.
func TransformDirection(m mgl32.Mat4, d mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformNormal(d, m)
}

// TransformScale returns the scale factors encoded in the basis of m.
func TransformScale(m mgl32.Mat4) mgl32.Vec3 {
	return mgl32.Vec3{
		m.Col(0).Vec3().Len(),
		m.Col(1).Vec3().Len(),
		m.Col(2).Vec3().Len(),
	}
}

type Ray struct {
	From mgl32.Vec3
	To   mgl32.Vec3
}

// IntersectBox returns whether the ray segment hits b and the hit parameter
// in [0..1] along the segment.
func IntersectBox(r Ray, b Box) (bool, float32) {
	dir := r.To.Sub(r.From)
	tMin := float32(0)
	tMax := float32(1)

	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if r.From[axis] < b.Min[axis] || r.From[axis] > b.Max[axis] {
				return false, -1
			}
			continue
		}

		inv := 1 / dir[axis]
		t0 := (b.Min[axis] - r.From[axis]) * inv
		t1 := (b.Max[axis] - r.From[axis]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMin > tMax {
			return false, -1
		}
	}
	return true, tMin
}
