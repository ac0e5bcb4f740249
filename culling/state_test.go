package culling

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/models"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

const (
	westZone models.ZoneID = 1
	eastZone models.ZoneID = 2
)

func testFrustum() geometry.Frustum {
	return geometry.NewPerspectiveFrustum(mgl32.Ident4(), mgl32.DegToRad(90), 1, 0.1, 100)
}

// westEastResolver splits the world on the x = 0 plane.
func westEastResolver() ZoneResolver {
	return ZoneResolverFunc(func(b geometry.Box) []models.ZoneID {
		var zones []models.ZoneID
		if b.Min[0] < 0 {
			zones = append(zones, westZone)
		}
		if b.Max[0] >= 0 {
			zones = append(zones, eastZone)
		}
		return zones
	})
}

func boxAt(x, y, z float32) geometry.Box {
	return geometry.NewBoxFromCenter(mgl32.Vec3{x, y, z}, mgl32.Vec3{0.5, 0.5, 0.5})
}

func square(z, half float32) []mgl32.Vec3 {
	return []mgl32.Vec3{
		{-half, -half, z},
		{half, -half, z},
		{half, half, z},
		{-half, half, z},
	}
}

func TestStateAddCullingVolumeToZone(t *testing.T) {
	t.Run("volumes accumulate", func(t *testing.T) {
		s := NewState(testFrustum(), westEastResolver())
		require.False(t, s.HasZone(westZone))

		s.AddCullingVolumeToZone(westZone, s.RootVolume())
		s.AddCullingVolumeToZone(westZone, s.RootVolume())
		s.AddCullingVolumeToZone(eastZone, s.RootVolume())

		require.Len(t, s.ZoneVolumes(westZone), 2)
		require.Len(t, s.ZoneVolumes(eastZone), 1)
		require.Equal(t, []models.ZoneID{westZone, eastZone}, s.Zones())
		require.Equal(t, 2, s.ZoneCount())
	})

	t.Run("empty volumes are ignored", func(t *testing.T) {
		s := NewState(testFrustum(), westEastResolver())

		s.AddCullingVolumeToZone(westZone, geometry.NewCullingVolume(nil, geometry.InvertedBox()))
		s.AddCullingVolumeToZone(models.InvalidZoneID, s.RootVolume())
		require.Zero(t, s.ZoneCount())
	})

	t.Run("reset clears the volumes", func(t *testing.T) {
		s := NewState(testFrustum(), westEastResolver())
		s.AddCullingVolumeToZone(westZone, s.RootVolume())
		require.True(t, s.AddOccluder(westZone, mgl32.Vec3{}, square(-5, 3)))

		s.Reset(testFrustum())
		require.Zero(t, s.ZoneCount())
		require.Empty(t, s.Occluders(westZone))
	})
}

func TestStateIsCulled(t *testing.T) {
	t.Run("objects in zones without volumes are culled", func(t *testing.T) {
		s := NewState(testFrustum(), westEastResolver())
		require.True(t, s.IsCulled(boxAt(-3, 0, -10), 0))
	})

	t.Run("objects outside the root volume are culled", func(t *testing.T) {
		s := NewState(testFrustum(), westEastResolver())
		s.AddCullingVolumeToZone(westZone, geometry.NewCullingVolume(nil, geometry.InfiniteBox()))

		require.True(t, s.IsCulled(boxAt(-3, 0, 10), 0))
		require.False(t, s.IsCulled(boxAt(-3, 0, -10), 0))
	})

	t.Run("objects without zones fall back to the root zone", func(t *testing.T) {
		s := NewState(testFrustum(), ZoneResolverFunc(func(geometry.Box) []models.ZoneID {
			return nil
		}))
		require.True(t, s.IsCulled(boxAt(0, 0, -10), 0))

		s.AddCullingVolumeToZone(models.RootZoneID, s.RootVolume())
		require.False(t, s.IsCulled(boxAt(0, 0, -10), 0))
	})

	t.Run("objects straddling zones are kept if one zone sees them", func(t *testing.T) {
		s := NewState(testFrustum(), westEastResolver())
		s.AddCullingVolumeToZone(westZone, s.RootVolume())

		require.True(t, s.IsCulled(boxAt(3, 0, -10), 0))
		require.False(t, s.IsCulled(boxAt(0, 0, -10), 0))
	})

	t.Run("objects behind an occluder are culled", func(t *testing.T) {
		s := NewState(testFrustum(), westEastResolver())
		s.AddCullingVolumeToZone(westZone, s.RootVolume())
		s.AddCullingVolumeToZone(eastZone, s.RootVolume())
		require.True(t, s.AddOccluder(westZone, mgl32.Vec3{}, square(-5, 3)))
		require.True(t, s.AddOccluder(eastZone, mgl32.Vec3{}, square(-5, 3)))

		behind := boxAt(0, 0, -20)
		require.True(t, s.IsCulled(behind, 0))
		require.False(t, s.IsCulled(behind, CullIgnoreOccluders))
		require.False(t, s.IsCulled(boxAt(0, 0, -2), 0))
	})

	t.Run("occluders never hide partially covered objects", func(t *testing.T) {
		s := NewState(testFrustum(), westEastResolver())
		s.AddCullingVolumeToZone(eastZone, s.RootVolume())
		require.True(t, s.AddOccluder(eastZone, mgl32.Vec3{}, square(-5, 3)))

		require.False(t, s.IsCulled(boxAt(17.5, 0, -30), 0))
	})
}

func TestStateAddOccluder(t *testing.T) {
	t.Run("small occluders are rejected", func(t *testing.T) {
		s := NewState(testFrustum(), westEastResolver())
		require.False(t, s.AddOccluder(westZone, mgl32.Vec3{}, square(-50, 0.1)))
		require.Empty(t, s.Occluders(westZone))
	})

	t.Run("occluders are capped per zone", func(t *testing.T) {
		b := captureLogs(t)

		s := NewState(testFrustum(), westEastResolver())
		for i := 0; i < MaxOccludersPerZone; i++ {
			require.True(t, s.AddOccluder(westZone, mgl32.Vec3{}, square(-5, 3)))
		}

		require.False(t, s.AddOccluder(westZone, mgl32.Vec3{}, square(-5, 3)))
		require.Len(t, s.Occluders(westZone), MaxOccludersPerZone)
		require.Contains(t, b.String(), "occluder list is full")
		require.True(t, s.AddOccluder(eastZone, mgl32.Vec3{}, square(-5, 3)))
	})
}

func TestStateCullObjects(t *testing.T) {
	newObject := func(name string, box geometry.Box) *models.SceneObject {
		return models.NewSceneObject(name, models.StaticObjectType, box)
	}

	t.Run("visible objects are moved to the front in order", func(t *testing.T) {
		s := NewState(testFrustum(), westEastResolver())
		s.AddCullingVolumeToZone(westZone, s.RootVolume())
		s.AddCullingVolumeToZone(eastZone, s.RootVolume())

		objects := []*models.SceneObject{
			newObject("behind-1", boxAt(0, 0, 10)),
			newObject("front-1", boxAt(-2, 0, -10)),
			newObject("behind-2", boxAt(2, 0, 10)),
			newObject("front-2", boxAt(2, 0, -10)),
		}

		n := s.CullObjects(objects, 0)
		require.Equal(t, 2, n)

		var names []string
		for _, o := range objects {
			names = append(names, o.Name)
		}
		require.Equal(t, []string{"front-1", "front-2", "behind-1", "behind-2"}, names)
	})

	t.Run("global bounds objects are never culled", func(t *testing.T) {
		s := NewState(testFrustum(), westEastResolver())

		o := newObject("sky", boxAt(0, 0, 10))
		o.Flags |= models.GlobalBoundsFlag
		require.Equal(t, 1, s.CullObjects([]*models.SceneObject{o}, 0))
	})

	t.Run("editor overrides bypass culling unless requested", func(t *testing.T) {
		s := NewState(testFrustum(), westEastResolver())

		o := newObject("gizmo", boxAt(0, 0, 10))
		o.Flags |= models.EditorOverrideFlag
		require.Equal(t, 1, s.CullObjects([]*models.SceneObject{o}, 0))
		require.Equal(t, 0, s.CullObjects([]*models.SceneObject{o}, CullEditorOverrides))
	})

	t.Run("empty list", func(t *testing.T) {
		s := NewState(testFrustum(), westEastResolver())
		require.Zero(t, s.CullObjects(nil, 0))
	})
}

// captureLogs redirects logs to the returned builder until the test ends.
func captureLogs(t *testing.T) *strings.Builder {
	var b strings.Builder
	logs.SetInlineEncoder()
	logs.SetLogger(func(e logs.Entry) {
		fmt.Fprint(&b, e)
	})

	t.Cleanup(func() {
		logs.SetLogger(func(e logs.Entry) {
			fmt.Println(e)
		})
		logs.SetLevel(logs.DebugLevel)
	})
	return &b
}

func TestCaptureLogs(t *testing.T) {
	var logsOutput *strings.Builder
	t.Run("logs are captured during the test", func(t *testing.T) {
		logsOutput = captureLogs(t)
		logs.Info("zone culled")
	})

	logs.Info("frame rendered")
	require.Contains(t, logsOutput.String(), "zone culled")
	require.NotContains(t, logsOutput.String(), "frame rendered")
}
