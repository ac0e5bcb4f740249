package scene

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/zonecull/featureflag"
	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/lighting"
	"github.com/aukilabs/zonecull/models"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestManagerRenderScene(t *testing.T) {
	t.Run("flood traversal renders what the frustum sees", func(t *testing.T) {
		s := newTestScene(t)
		s.lookFromRoomA()

		s.add("a-front", models.StaticObjectType, boxAt(-2, 2.5, 0))
		s.add("a-side", models.StaticObjectType, boxAt(-4, 2.5, 8))
		s.add("b-side", models.StaticObjectType, boxAt(5, 2.5, 8))
		s.add("yard", models.StaticObjectType, boxAt(50, 2.5, 30))

		stats := s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{})
		require.False(t, stats.Stereo)
		require.Len(t, stats.Passes, 1)

		pass := stats.Passes[0]
		require.Equal(t, MonoEye, pass.Eye)
		require.Equal(t, "house", pass.StartSpace)
		require.Equal(t, s.house.GlobalZoneID(1), pass.StartZone)
		require.False(t, pass.Skipped)
		require.ElementsMatch(t, []string{"a-front", "b-side", "yard"}, renderedNames(pass))
		require.Equal(t, 1, pass.Culled)
		require.Equal(t, 3, stats.Rendered())
		require.Equal(t, uint64(1), stats.Frame)
	})

	t.Run("strict traversal renders what portals let through", func(t *testing.T) {
		s := newTestScene(t, string(featureflag.FlagStrictPortalTraversal))
		s.lookFromRoomA()

		s.add("a-front", models.StaticObjectType, boxAt(-2, 2.5, 0))
		s.add("b-through", models.StaticObjectType, boxAt(5, 2.5, 0))
		s.add("b-side", models.StaticObjectType, boxAt(5, 2.5, 8))
		s.add("yard-through", models.StaticObjectType, boxAt(50, 2.5, 0))
		s.add("yard", models.StaticObjectType, boxAt(50, 2.5, 30))

		stats := s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{})
		pass := stats.Passes[0]
		require.ElementsMatch(t, []string{"a-front", "b-through", "yard-through"}, renderedNames(pass))
		require.Equal(t, 2, pass.Culled)
	})

	t.Run("forced flood traversal overrides strict traversal", func(t *testing.T) {
		s := newTestScene(t, string(featureflag.FlagStrictPortalTraversal))
		s.lookFromRoomA()
		s.add("b-side", models.StaticObjectType, boxAt(5, 2.5, 8))

		stats := s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{
			ForceFloodTraversal: true,
		})
		require.Equal(t, []string{"b-side"}, renderedNames(stats.Passes[0]))
	})

	t.Run("type mask filters candidates", func(t *testing.T) {
		s := newTestScene(t)
		s.lookFromRoomA()
		s.add("static", models.StaticObjectType, boxAt(-2, 2.5, 0))
		s.add("item", models.ItemObjectType, boxAt(-2, 2.5, 1))

		stats := s.manager.RenderScene(models.DiffusePass, models.ItemObjectType, DebugOverrides{})
		require.Equal(t, []string{"item"}, renderedNames(stats.Passes[0]))
		require.Equal(t, 1, stats.Passes[0].Candidates)
		require.Equal(t, 1, stats.Passes[0].Batches)
	})

	t.Run("global objects are always rendered", func(t *testing.T) {
		s := newTestScene(t)
		s.lookFromRoomA()

		sky := models.NewSceneObject("sky", models.EnvironmentObjectType, geometry.InfiniteBox())
		sky.Flags |= models.GlobalBoundsFlag
		s.grid.Insert(sky)

		stats := s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{})
		require.Equal(t, []string{"sky"}, renderedNames(stats.Passes[0]))
	})

	t.Run("frames are numbered", func(t *testing.T) {
		s := newTestScene(t)
		s.lookFromRoomA()

		for i := 1; i <= 3; i++ {
			stats := s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{})
			require.Equal(t, uint64(i), stats.Frame)
			require.Equal(t, "diffuse", stats.Pass)
		}
	})
}

func TestManagerRenderSceneStereo(t *testing.T) {
	t.Run("each eye is rendered with its own view", func(t *testing.T) {
		s := newTestScene(t)
		s.lookFromRoomA()
		s.camera.SetStereo(Stereo{
			Enabled:    true,
			EyeOffsets: [2]mgl32.Vec3{{-0.5, 0, 0}, {0.5, 0, 0}},
		})
		s.add("a-front", models.StaticObjectType, boxAt(-2, 2.5, 0))

		// The camera right is +z. Each eye sees half of the viewport width,
		// so these are only in the frustum of the eye on their side.
		s.add("left-only", models.StaticObjectType, boxAt(-1, 2.5, -2))
		s.add("right-only", models.StaticObjectType, boxAt(-1, 2.5, 2))

		mono := s.manager.View()

		stats := s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{})
		require.True(t, stats.Stereo)
		require.Len(t, stats.Passes, 2)
		require.Equal(t, 0, stats.Passes[0].Eye)
		require.Equal(t, 1, stats.Passes[1].Eye)

		require.ElementsMatch(t, []string{"a-front", "left-only"}, renderedNames(stats.Passes[0]))
		require.ElementsMatch(t, []string{"a-front", "right-only"}, renderedNames(stats.Passes[1]))
		require.Equal(t, 1, stats.Passes[0].Culled)
		require.Equal(t, 1, stats.Passes[1].Culled)
		require.Equal(t, 4, stats.Rendered())

		view := s.manager.View()
		require.Equal(t, mono.Viewport, view.Viewport)
		require.True(t, view.Transform.ApproxEqual(s.camera.Transform()))
	})

	t.Run("eye views split the viewport", func(t *testing.T) {
		cam := NewCamera(mgl32.DegToRad(90), 0.1, 100, Viewport{Width: 200, Height: 100})
		cam.SetStereo(Stereo{
			Enabled:    true,
			EyeOffsets: [2]mgl32.Vec3{{-0.5, 0, 0}, {0.5, 0, 0}},
		})
		state := cam.snapshot()

		left := state.eyeView(0)
		right := state.eyeView(1)
		require.Equal(t, Viewport{Width: 100, Height: 100}, left.Viewport)
		require.Equal(t, Viewport{X: 100, Width: 100, Height: 100}, right.Viewport)
		require.InDelta(t, -0.5, left.Position()[0], 1e-5)
		require.InDelta(t, 0.5, right.Position()[0], 1e-5)
	})

	t.Run("stereo can be disabled", func(t *testing.T) {
		s := newTestScene(t, string(featureflag.FlagDisableStereo))
		s.lookFromRoomA()
		s.camera.SetStereo(Stereo{Enabled: true})

		stats := s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{})
		require.False(t, stats.Stereo)
		require.Len(t, stats.Passes, 1)
		require.Equal(t, MonoEye, stats.Passes[0].Eye)
	})
}

func TestManagerAmbient(t *testing.T) {
	sunAmbient := models.NewColor(0.2, 0.2, 0.3, 1)

	newSceneWithSun := func(t *testing.T, flags ...string) *testScene {
		s := newTestScene(t, flags...)
		s.lights.SetSpecialLight(lighting.SpecialLightSun, &lighting.Light{
			Name:    "sun",
			Type:    lighting.DirectionalLight,
			Ambient: sunAmbient,
		})
		return s
	}

	t.Run("zone ambient is used inside zones that have one", func(t *testing.T) {
		s := newSceneWithSun(t)
		s.lookFromRoomA()

		stats := s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{})
		require.Equal(t, red, stats.Passes[0].Ambient)
	})

	t.Run("sun ambient is used in zones without ambient", func(t *testing.T) {
		s := newSceneWithSun(t)
		s.camera.LookAt(mgl32.Vec3{5, 2.5, 0}, mgl32.Vec3{9, 2.5, 0})

		stats := s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{})
		require.Equal(t, sunAmbient, stats.Passes[0].Ambient)
	})

	t.Run("zone ambient can be disabled", func(t *testing.T) {
		s := newSceneWithSun(t, string(featureflag.FlagDisableZoneAmbient))
		s.lookFromRoomA()

		stats := s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{})
		require.Equal(t, sunAmbient, stats.Passes[0].Ambient)
	})

	t.Run("ambient is black without sun", func(t *testing.T) {
		s := newTestScene(t)
		s.camera.LookAt(mgl32.Vec3{5, 2.5, 0}, mgl32.Vec3{9, 2.5, 0})

		stats := s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{})
		require.Equal(t, models.Color{}, stats.Passes[0].Ambient)
	})

	t.Run("ambient is only resolved for diffuse passes", func(t *testing.T) {
		s := newSceneWithSun(t)
		s.lookFromRoomA()

		stats := s.manager.RenderScene(models.ShadowPass, models.AllObjectTypes, DebugOverrides{})
		require.Equal(t, models.Color{}, stats.Passes[0].Ambient)
	})
}

func TestManagerRenderSceneState(t *testing.T) {
	t.Run("render area outside of the frustum skips objects", func(t *testing.T) {
		logsOutput := captureLogs(t)
		logs.SetLevel(logs.ParseLevel("debug"))

		s := newTestScene(t, string(featureflag.FlagStrictPortalTraversal))
		s.camera.LookAt(mgl32.Vec3{-5, 2.5, 0}, mgl32.Vec3{-9, 2.5, 0})
		s.add("a-front", models.StaticObjectType, boxAt(-8, 2.5, 0))

		// Starting outside of the house with the door behind the camera,
		// nothing can be seen.
		state := s.manager.NewRenderState(models.DiffusePass, DebugOverrides{})
		stats := s.manager.RenderSceneState(state, models.AllObjectTypes, s.house, models.InvalidZoneID)

		require.True(t, stats.Skipped)
		require.Zero(t, stats.Rendered)
		require.Zero(t, stats.Candidates)
		require.Contains(t, logsOutput.String(), "skipping objects")
	})

	t.Run("base zone overrides the camera zone", func(t *testing.T) {
		s := newTestScene(t, string(featureflag.FlagStrictPortalTraversal))
		s.lookFromRoomA()
		s.add("b-through", models.StaticObjectType, boxAt(5, 2.5, 0))

		state := s.manager.NewRenderState(models.DiffusePass, DebugOverrides{})
		stats := s.manager.RenderSceneState(state, models.AllObjectTypes, s.house, s.house.GlobalZoneID(2))
		require.Equal(t, s.house.GlobalZoneID(2), stats.StartZone)
		require.Equal(t, []string{"b-through"}, renderedNames(stats))
	})

	t.Run("disabled zone traversal culls with the frustum only", func(t *testing.T) {
		s := newTestScene(t, string(featureflag.FlagStrictPortalTraversal))
		s.lookFromRoomA()
		s.add("b-side", models.StaticObjectType, boxAt(5, 2.5, 8))
		s.add("a-behind", models.StaticObjectType, boxAt(-9, 2.5, 0))

		stats := s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{
			DisableZoneTraversal: true,
		})
		require.Equal(t, []string{"b-side"}, renderedNames(stats.Passes[0]))
		require.Equal(t, 1, stats.Passes[0].ZonesVisited)
	})

	t.Run("locked frustum culls from where it was locked", func(t *testing.T) {
		s := newTestScene(t)
		s.lookFromRoomA()
		s.add("a-front", models.StaticObjectType, boxAt(-2, 2.5, 0))
		s.add("a-behind", models.StaticObjectType, boxAt(-9, 2.5, 0))

		locked := s.manager.NewRenderState(models.DiffusePass, DebugOverrides{}).Frustum

		s.camera.LookAt(mgl32.Vec3{-5, 2.5, 0}, mgl32.Vec3{-9, 2.5, 0})
		stats := s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{
			LockedFrustum: &locked,
		})
		require.Equal(t, []string{"a-front"}, renderedNames(stats.Passes[0]))
	})

	t.Run("shadow passes only register static lights", func(t *testing.T) {
		s := newTestScene(t)
		s.lookFromRoomA()
		s.lights.AddLight(&lighting.Light{Name: "lamp", Type: lighting.PointLight, Position: mgl32.Vec3{-2, 2.5, 0}, Radius: 2, Static: true})
		s.lights.AddLight(&lighting.Light{Name: "torch", Type: lighting.PointLight, Position: mgl32.Vec3{-3, 2.5, 0}, Radius: 2})

		stats := s.manager.RenderScene(models.ShadowPass, models.AllObjectTypes, DebugOverrides{})
		require.Equal(t, 1, stats.Passes[0].Lights)

		stats = s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{})
		require.Equal(t, 2, stats.Passes[0].Lights)
		require.Empty(t, s.lights.RegisteredLights())
	})
}

func TestManagerOccluders(t *testing.T) {
	wall := []mgl32.Vec3{
		{-3, 0, -5},
		{-3, 0, 5},
		{-3, 5, 5},
		{-3, 5, -5},
	}

	t.Run("occluders hide what is behind them", func(t *testing.T) {
		s := newTestScene(t)
		s.lookFromRoomA()
		s.manager.AddOccluder(wall)
		s.add("front", models.StaticObjectType, boxAt(-4, 2.5, 0))
		s.add("hidden", models.StaticObjectType, boxAt(-1, 2.5, 0))

		stats := s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{})
		require.Equal(t, 1, stats.Passes[0].Occluders)
		require.Equal(t, []string{"front"}, renderedNames(stats.Passes[0]))
	})

	t.Run("occluders can be disabled", func(t *testing.T) {
		s := newTestScene(t, string(featureflag.FlagDisableOccluders))
		s.lookFromRoomA()
		s.manager.AddOccluder(wall)
		s.add("hidden", models.StaticObjectType, boxAt(-1, 2.5, 0))

		stats := s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{})
		require.Zero(t, stats.Passes[0].Occluders)
		require.Equal(t, []string{"hidden"}, renderedNames(stats.Passes[0]))
	})
}

func TestManagerPostCullHooks(t *testing.T) {
	t.Run("culled objects near the camera are forced", func(t *testing.T) {
		s := newTestScene(t)
		s.lookFromRoomA()
		s.add("side-item", models.ItemObjectType, boxAt(-4.5, 2.5, 1.5))
		s.add("side-static", models.StaticObjectType, boxAt(-4.5, 2.5, -1.5))
		s.add("far-item", models.ItemObjectType, boxAt(-4, 2.5, 6))

		s.manager.AddPostCullHook(ForceIncludeHook(models.ItemObjectType, 2))
		s.manager.AddPostCullHook(ForceIncludeHook(models.ItemObjectType, 3))

		stats := s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{})
		pass := stats.Passes[0]
		require.Equal(t, []string{"side-item"}, renderedNames(pass))
		require.Equal(t, 1, pass.Forced)
		require.Equal(t, 2, pass.Culled)
	})

	t.Run("visible objects returned by a hook are rendered once", func(t *testing.T) {
		s := newTestScene(t)
		s.lookFromRoomA()
		front := s.add("a-front", models.StaticObjectType, boxAt(-2, 2.5, 0))
		side := s.add("side-item", models.ItemObjectType, boxAt(-4.5, 2.5, 1.5))
		s.add("side-static", models.StaticObjectType, boxAt(-4.5, 2.5, -1.5))

		s.manager.AddPostCullHook(func(state *RenderState, culled []*models.SceneObject) []*models.SceneObject {
			return []*models.SceneObject{front, side, side}
		})

		stats := s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{})
		pass := stats.Passes[0]
		require.Equal(t, []string{"a-front", "side-item"}, renderedNames(pass))
		require.Equal(t, 3, pass.Candidates)
		require.Equal(t, 2, pass.Rendered)
		require.Equal(t, 1, pass.Forced)
		require.Equal(t, 1, pass.Culled)
	})
}

func TestManagerSubscribe(t *testing.T) {
	s := newTestScene(t)
	s.lookFromRoomA()

	var frames []uint64
	id := s.manager.Subscribe(func(stats FrameStats) {
		frames = append(frames, stats.Frame)
	})

	s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{})
	s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{})
	s.manager.Unsubscribe(id)
	s.manager.RenderScene(models.DiffusePass, models.AllObjectTypes, DebugOverrides{})

	require.Equal(t, []uint64{1, 2}, frames)
}
