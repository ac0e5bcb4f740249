package geometry

import (
	"github.com/go-gl/mathgl/mgl32"
)

// WorldExtent bounds the "infinite" box. It stays finite so transforms never
// produce NaNs.
const WorldExtent = float32(1e30)

// Box is an axis aligned bounding box.
type Box struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func NewBox(min, max mgl32.Vec3) Box {
	return Box{Min: min, Max: max}
}

// NewBoxFromCenter builds a box from its center and half-extents.
func NewBoxFromCenter(center, extents mgl32.Vec3) Box {
	return Box{Min: center.Sub(extents), Max: center.Add(extents)}
}

// InvertedBox returns an empty box that any Extend call turns valid.
func InvertedBox() Box {
	return Box{
		Min: mgl32.Vec3{WorldExtent, WorldExtent, WorldExtent},
		Max: mgl32.Vec3{-WorldExtent, -WorldExtent, -WorldExtent},
	}
}

func InfiniteBox() Box {
	return Box{
		Min: mgl32.Vec3{-WorldExtent, -WorldExtent, -WorldExtent},
		Max: mgl32.Vec3{WorldExtent, WorldExtent, WorldExtent},
	}
}

func (b Box) IsValid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

func (b Box) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extents returns the half-extents.
func (b Box) Extents() mgl32.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

func (b Box) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

func (b Box) ContainsPoint(p mgl32.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

func (b Box) ContainsBox(o Box) bool {
	return b.ContainsPoint(o.Min) && b.ContainsPoint(o.Max)
}

// Overlaps reports whether the two boxes share any point, touching included.
func (b Box) Overlaps(o Box) bool {
	if !b.IsValid() || !o.IsValid() {
		return false
	}
	return b.Min[0] <= o.Max[0] && b.Max[0] >= o.Min[0] &&
		b.Min[1] <= o.Max[1] && b.Max[1] >= o.Min[1] &&
		b.Min[2] <= o.Max[2] && b.Max[2] >= o.Min[2]
}

func (b Box) Intersect(o Box) (Box, bool) {
	if !b.Overlaps(o) {
		return InvertedBox(), false
	}

	var r Box
	for i := 0; i < 3; i++ {
		r.Min[i] = max(b.Min[i], o.Min[i])
		r.Max[i] = min(b.Max[i], o.Max[i])
	}
	return r, true
}

// Union returns the smallest box holding both boxes. Invalid boxes are
// ignored.
func (b Box) Union(o Box) Box {
	if !o.IsValid() {
		return b
	}
	if !b.IsValid() {
		return o
	}

	var r Box
	for i := 0; i < 3; i++ {
		r.Min[i] = min(b.Min[i], o.Min[i])
		r.Max[i] = max(b.Max[i], o.Max[i])
	}
	return r
}

func (b *Box) ExtendPoint(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}

func (b Box) Corners() [8]mgl32.Vec3 {
	return [8]mgl32.Vec3{
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
	}
}

// Transform returns the axis aligned bounds of the box transformed by m.
func (b Box) Transform(m mgl32.Mat4) Box {
	if !b.IsValid() {
		return b
	}

	r := InvertedBox()
	for _, c := range b.Corners() {
		r.ExtendPoint(TransformPoint(m, c))
	}
	return r
}

// Planes returns the six planes of the box, facing inward.
func (b Box) Planes() []Plane {
	return []Plane{
		{Normal: mgl32.Vec3{1, 0, 0}, D: -b.Min[0]},
		{Normal: mgl32.Vec3{-1, 0, 0}, D: b.Max[0]},
		{Normal: mgl32.Vec3{0, 1, 0}, D: -b.Min[1]},
		{Normal: mgl32.Vec3{0, -1, 0}, D: b.Max[1]},
		{Normal: mgl32.Vec3{0, 0, 1}, D: -b.Min[2]},
		{Normal: mgl32.Vec3{0, 0, -1}, D: b.Max[2]},
	}
}
