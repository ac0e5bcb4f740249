package geometry

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func square(z, x0, x1, y0, y1 float32) []mgl32.Vec3 {
	return []mgl32.Vec3{
		{x0, y0, z},
		{x1, y0, z},
		{x1, y1, z},
		{x0, y1, z},
	}
}

func TestClipPolygon(t *testing.T) {
	poly := square(0, -1, 1, -1, 1)

	t.Run("fully in front", func(t *testing.T) {
		p := Plane{Normal: mgl32.Vec3{1, 0, 0}, D: 5}
		require.Len(t, ClipPolygon(poly, p), 4)
	})

	t.Run("fully behind", func(t *testing.T) {
		p := Plane{Normal: mgl32.Vec3{1, 0, 0}, D: -5}
		require.Nil(t, ClipPolygon(poly, p))
	})

	t.Run("split in half", func(t *testing.T) {
		p := Plane{Normal: mgl32.Vec3{1, 0, 0}, D: 0}
		clipped := ClipPolygon(poly, p)
		require.Len(t, clipped, 4)

		b := PolygonBounds(clipped)
		require.True(t, EqualWithEpsilon(b.Min[0], 0, 0.0001))
		require.True(t, EqualWithEpsilon(b.Max[0], 1, 0.0001))
	})
}

func TestPolygonCentroid(t *testing.T) {
	c := PolygonCentroid(square(3, 0, 2, 0, 4))
	require.True(t, VecEqualWithEpsilon(mgl32.Vec3{1, 2, 3}, c, 0.0001))

	degenerate := []mgl32.Vec3{{0, 0, 0}, {2, 0, 0}, {4, 0, 0}}
	require.True(t, VecEqualWithEpsilon(mgl32.Vec3{2, 0, 0}, PolygonCentroid(degenerate), 0.0001))
}

func TestPolygonNormal(t *testing.T) {
	n := PolygonNormal(square(0, -1, 1, -1, 1))
	require.True(t, VecEqualWithEpsilon(mgl32.Vec3{0, 0, 1}, n, 0.0001))
}

func TestNewPortalVolume(t *testing.T) {
	parent := testFrustum().Volume()
	eye := mgl32.Vec3{}

	t.Run("portal in view narrows the volume", func(t *testing.T) {
		v, ok := NewPortalVolume(eye, square(-5, -1, 1, -1, 1), parent)
		require.True(t, ok)
		require.True(t, v.ContainsPoint(mgl32.Vec3{0, 0, -10}))
		require.True(t, v.ContainsPoint(mgl32.Vec3{1.9, 0, -10}))
		require.False(t, v.ContainsPoint(mgl32.Vec3{5, 0, -10}))
		require.False(t, v.ContainsPoint(mgl32.Vec3{0, 0, -2}))
	})

	t.Run("portal out of view is clipped away", func(t *testing.T) {
		_, ok := NewPortalVolume(eye, square(-5, 50, 52, -1, 1), parent)
		require.False(t, ok)
	})

	t.Run("portal behind the camera is clipped away", func(t *testing.T) {
		_, ok := NewPortalVolume(eye, square(5, -1, 1, -1, 1), parent)
		require.False(t, ok)
	})

	t.Run("portal partially in view", func(t *testing.T) {
		v, ok := NewPortalVolume(eye, square(-5, 4, 8, -1, 1), parent)
		require.True(t, ok)
		require.True(t, v.ContainsPoint(mgl32.Vec3{9, 0, -10}))
		require.False(t, v.ContainsPoint(mgl32.Vec3{11, 0, -10}))
	})

	t.Run("empty parent", func(t *testing.T) {
		_, ok := NewPortalVolume(eye, square(-5, -1, 1, -1, 1), NewCullingVolume(nil, InvertedBox()))
		require.False(t, ok)
	})
}

func TestNewOcclusionVolume(t *testing.T) {
	v, ok := NewOcclusionVolume(mgl32.Vec3{}, square(-5, -1, 1, -1, 1))
	require.True(t, ok)
	require.True(t, v.IsOccluder())

	hidden := NewBoxFromCenter(mgl32.Vec3{0, 0, -10}, mgl32.Vec3{0.5, 0.5, 0.5})
	require.True(t, v.IsBoxCulled(hidden))

	inFront := NewBoxFromCenter(mgl32.Vec3{0, 0, -2}, mgl32.Vec3{0.5, 0.5, 0.5})
	require.False(t, v.IsBoxCulled(inFront))

	peeking := NewBoxFromCenter(mgl32.Vec3{2, 0, -10}, mgl32.Vec3{1, 1, 1})
	require.False(t, v.IsBoxCulled(peeking))
}
