package geometry

import (
	"github.com/go-gl/mathgl/mgl32"
)

type TestResult int

const (
	Outside TestResult = iota
	Intersecting
	Inside
)

func (r TestResult) String() string {
	switch r {
	case Inside:
		return "inside"
	case Intersecting:
		return "intersecting"
	default:
		return "outside"
	}
}

type VolumeKind int

const (
	// IncluderVolume marks the space where objects may be visible.
	IncluderVolume VolumeKind = iota

	// OccluderVolume marks the space hidden behind an occluder.
	OccluderVolume
)

// CullingVolume is a convex region made of inward facing planes together
// with conservative world bounds.
type CullingVolume struct {
	Kind   VolumeKind
	Planes []Plane
	Bounds Box
}

// NewCullingVolume returns an includer volume. When bounds is invalid the
// volume is empty.
func NewCullingVolume(planes []Plane, bounds Box) CullingVolume {
	return CullingVolume{
		Kind:   IncluderVolume,
		Planes: planes,
		Bounds: bounds,
	}
}

func (v CullingVolume) IsEmpty() bool {
	return !v.Bounds.IsValid()
}

func (v CullingVolume) IsOccluder() bool {
	return v.Kind == OccluderVolume
}

func (v CullingVolume) ContainsPoint(p mgl32.Vec3) bool {
	if !v.Bounds.ContainsPoint(p) {
		return false
	}
	for _, pl := range v.Planes {
		if pl.Distance(p) < -Epsilon {
			return false
		}
	}
	return true
}

// TestBox classifies b against the volume. The test is conservative: boxes
// straddling plane corners may be reported as intersecting while being
// outside.
func (v CullingVolume) TestBox(b Box) TestResult {
	if v.IsEmpty() || !v.Bounds.Overlaps(b) {
		return Outside
	}

	result := Inside
	if !v.Bounds.ContainsBox(b) {
		result = Intersecting
	}

	for _, pl := range v.Planes {
		maxDist, minDist := pl.BoxDistances(b)
		if maxDist < -Epsilon {
			return Outside
		}
		if minDist < 0 {
			result = Intersecting
		}
	}
	return result
}

func (v CullingVolume) TestSphere(center mgl32.Vec3, radius float32) TestResult {
	if v.IsEmpty() || !v.Bounds.Overlaps(NewBoxFromCenter(center, mgl32.Vec3{radius, radius, radius})) {
		return Outside
	}

	result := Inside
	for _, pl := range v.Planes {
		d := pl.Distance(center)
		if d < -radius-Epsilon {
			return Outside
		}
		if d < radius {
			result = Intersecting
		}
	}
	return result
}

// IsBoxCulled reports whether b is rejected by the volume: outside of an
// includer or entirely inside an occluder.
func (v CullingVolume) IsBoxCulled(b Box) bool {
	if v.IsOccluder() {
		return v.TestBox(b) == Inside
	}
	return v.TestBox(b) == Outside
}

// Transform returns the volume transformed by m.
func (v CullingVolume) Transform(m mgl32.Mat4) CullingVolume {
	planes := make([]Plane, len(v.Planes))
	for i, p := range v.Planes {
		planes[i] = p.Transform(m)
	}
	return CullingVolume{
		Kind:   v.Kind,
		Planes: planes,
		Bounds: v.Bounds.Transform(m),
	}
}
