package geometry

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ClipPolygon clips a convex polygon to the front side of p
// (Sutherland-Hodgman).
func ClipPolygon(poly []mgl32.Vec3, p Plane) []mgl32.Vec3 {
	if len(poly) == 0 {
		return nil
	}

	out := make([]mgl32.Vec3, 0, len(poly)+1)
	prev := poly[len(poly)-1]
	prevDist := p.Distance(prev)

	for _, cur := range poly {
		curDist := p.Distance(cur)

		switch {
		case curDist >= 0 && prevDist >= 0:
			out = append(out, cur)

		case curDist >= 0 && prevDist < 0:
			out = append(out, lerpToPlane(prev, cur, prevDist, curDist), cur)

		case curDist < 0 && prevDist >= 0:
			out = append(out, lerpToPlane(prev, cur, prevDist, curDist))
		}

		prev, prevDist = cur, curDist
	}

	if len(out) < 3 {
		return nil
	}
	return out
}

func lerpToPlane(a, b mgl32.Vec3, da, db float32) mgl32.Vec3 {
	t := da / (da - db)
	return a.Add(b.Sub(a).Mul(t))
}

// ClipPolygonToPlanes clips poly against every plane in turn. It returns nil
// as soon as nothing is left.
func ClipPolygonToPlanes(poly []mgl32.Vec3, planes []Plane) []mgl32.Vec3 {
	for _, p := range planes {
		poly = ClipPolygon(poly, p)
		if poly == nil {
			return nil
		}
	}
	return poly
}

// PolygonCentroid returns the area weighted centroid of the polygon taken as
// a triangle fan. Degenerate polygons return their vertex average.
func PolygonCentroid(poly []mgl32.Vec3) mgl32.Vec3 {
	if len(poly) == 0 {
		return mgl32.Vec3{}
	}

	var centroid mgl32.Vec3
	var area float32
	for i := 1; i+1 < len(poly); i++ {
		a, b, c := poly[0], poly[i], poly[i+1]
		triArea := b.Sub(a).Cross(c.Sub(a)).Len() / 2
		centroid = centroid.Add(a.Add(b).Add(c).Mul(triArea / 3))
		area += triArea
	}

	if area <= Epsilon {
		var sum mgl32.Vec3
		for _, p := range poly {
			sum = sum.Add(p)
		}
		return sum.Mul(1 / float32(len(poly)))
	}
	return centroid.Mul(1 / area)
}

// PolygonNormal returns the normal of the polygon using Newell's method.
func PolygonNormal(poly []mgl32.Vec3) mgl32.Vec3 {
	var n mgl32.Vec3
	for i := range poly {
		cur := poly[i]
		next := poly[(i+1)%len(poly)]
		n[0] += (cur[1] - next[1]) * (cur[2] + next[2])
		n[1] += (cur[2] - next[2]) * (cur[0] + next[0])
		n[2] += (cur[0] - next[0]) * (cur[1] + next[1])
	}
	return Normalized(n)
}

func PolygonBounds(poly []mgl32.Vec3) Box {
	b := InvertedBox()
	for _, p := range poly {
		b.ExtendPoint(p)
	}
	return b
}

func TransformPolygon(m mgl32.Mat4, poly []mgl32.Vec3) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(poly))
	for i, p := range poly {
		out[i] = TransformPoint(m, p)
	}
	return out
}

// NewPortalVolume returns the volume seen from eye through the part of the
// winding that lies inside parent. It returns false when that part is
// empty. When the eye lies on the winding plane no narrowing is possible and
// parent is returned as is.
func NewPortalVolume(eye mgl32.Vec3, winding []mgl32.Vec3, parent CullingVolume) (CullingVolume, bool) {
	if parent.IsEmpty() || len(winding) < 3 {
		return CullingVolume{Bounds: InvertedBox()}, false
	}

	clipped := ClipPolygonToPlanes(winding, parent.Planes)
	if clipped == nil {
		return CullingVolume{Bounds: InvertedBox()}, false
	}

	planes, ok := eyeEdgePlanes(eye, clipped)
	if !ok {
		return parent, true
	}

	return CullingVolume{
		Kind:   IncluderVolume,
		Planes: planes,
		Bounds: parent.Bounds,
	}, true
}

// NewOcclusionVolume returns the volume hidden from eye by the winding.
func NewOcclusionVolume(eye mgl32.Vec3, winding []mgl32.Vec3) (CullingVolume, bool) {
	if len(winding) < 3 {
		return CullingVolume{Kind: OccluderVolume, Bounds: InvertedBox()}, false
	}

	planes, ok := eyeEdgePlanes(eye, winding)
	if !ok {
		return CullingVolume{Kind: OccluderVolume, Bounds: InvertedBox()}, false
	}

	return CullingVolume{
		Kind:   OccluderVolume,
		Planes: planes,
		Bounds: InfiniteBox(),
	}, true
}

// eyeEdgePlanes builds the planes going through eye and every edge of the
// polygon, plus the polygon plane, all facing the space behind the polygon.
func eyeEdgePlanes(eye mgl32.Vec3, poly []mgl32.Vec3) ([]Plane, bool) {
	centroid := PolygonCentroid(poly)
	normal := PolygonNormal(poly)
	if normal.Len() == 0 {
		return nil, false
	}

	nearPlane := NewPlane(normal, centroid)
	eyeDist := nearPlane.Distance(eye)
	if EqualWithEpsilon(eyeDist, 0, float64(Epsilon)) {
		return nil, false
	}
	if eyeDist > 0 {
		nearPlane = nearPlane.Flip()
	}

	planes := make([]Plane, 0, len(poly)+1)
	planes = append(planes, nearPlane)

	for i := range poly {
		a := poly[i]
		b := poly[(i+1)%len(poly)]
		n := a.Sub(eye).Cross(b.Sub(eye))
		if n.Len() <= Epsilon {
			continue
		}

		p := NewPlane(n, eye)
		if p.Distance(centroid) < 0 {
			p = p.Flip()
		}
		planes = append(planes, p)
	}
	return planes, true
}
