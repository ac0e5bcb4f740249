package scene

import (
	"sort"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/zonecull/culling"
	"github.com/aukilabs/zonecull/featureflag"
	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/lighting"
	"github.com/aukilabs/zonecull/models"
	"github.com/aukilabs/zonecull/zones"
	"github.com/go-gl/mathgl/mgl32"
)

type Config struct {
	Zones     *zones.Manager
	Container SpatialContainer
	Lights    LightManager
	Passes    RenderPassManager
	Camera    *Camera
	Flags     featureflag.FeatureFlag
}

// Manager renders scenes: it traverses the zones visible from the camera,
// culls the objects of the traversed area and hands the survivors to the
// render pass manager.
type Manager struct {
	zones     *zones.Manager
	container SpatialContainer
	lights    LightManager
	passes    RenderPassManager
	camera    *Camera
	flags     featureflag.FeatureFlag

	// mutex serializes render calls, which own the view state for their
	// whole duration.
	mutex sync.Mutex
	view  ViewState
	frame uint64

	hooksMutex sync.RWMutex
	hooks      []PostCullHook
	occluders  [][]mgl32.Vec3

	subscriptionMutex sync.RWMutex
	subscriptionIDs   models.SequentialIDGenerator
	subscriptions     map[uint32]FrameStatsHandler
}

func NewManager(cfg Config) *Manager {
	flags := cfg.Flags
	if flags == nil {
		flags = featureflag.New(nil)
	}

	m := &Manager{
		zones:         cfg.Zones,
		container:     cfg.Container,
		lights:        cfg.Lights,
		passes:        cfg.Passes,
		camera:        cfg.Camera,
		flags:         flags,
		subscriptions: make(map[uint32]FrameStatsHandler),
	}
	m.view = cfg.Camera.snapshot().monoView()
	return m
}

// View returns the current view state.
func (m *Manager) View() ViewState {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.view
}

// AddPostCullHook registers a hook run after each cull.
func (m *Manager) AddPostCullHook(h PostCullHook) {
	m.hooksMutex.Lock()
	defer m.hooksMutex.Unlock()

	m.hooks = append(m.hooks, h)
}

// AddOccluder registers a world space convex polygon that hides what is
// behind it.
func (m *Manager) AddOccluder(winding []mgl32.Vec3) {
	m.hooksMutex.Lock()
	defer m.hooksMutex.Unlock()

	w := make([]mgl32.Vec3, len(winding))
	copy(w, winding)
	m.occluders = append(m.occluders, w)
}

// Subscribe registers a handler called with the stats of every frame. It
// returns the id to unsubscribe with.
func (m *Manager) Subscribe(h FrameStatsHandler) uint32 {
	m.subscriptionMutex.Lock()
	defer m.subscriptionMutex.Unlock()

	id := m.subscriptionIDs.New()
	m.subscriptions[id] = h
	return id
}

func (m *Manager) Unsubscribe(id uint32) {
	m.subscriptionMutex.Lock()
	defer m.subscriptionMutex.Unlock()

	delete(m.subscriptions, id)
	m.subscriptionIDs.Reuse(id)
}

func (m *Manager) publish(stats FrameStats) {
	m.subscriptionMutex.RLock()
	ids := make([]uint32, 0, len(m.subscriptions))
	for id := range m.subscriptions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	handlers := make([]FrameStatsHandler, len(ids))
	for i, id := range ids {
		handlers[i] = m.subscriptions[id]
	}
	m.subscriptionMutex.RUnlock()

	for _, h := range handlers {
		h(stats)
	}
}

// RenderScene renders the scene seen by the camera. With stereo enabled,
// each eye is rendered in turn with its own view.
func (m *Manager) RenderScene(pass models.PassType, mask models.TypeMask, debug DebugOverrides) FrameStats {
	start := time.Now()

	m.mutex.Lock()
	m.frame++
	stats := FrameStats{
		Frame: m.frame,
		Pass:  pass.String(),
	}

	cam := m.camera.snapshot()
	m.view = cam.monoView()

	if cam.stereo.Enabled && !m.flags.IsSet(featureflag.FlagDisableStereo) {
		stats.Stereo = true
		for eye := 0; eye < 2; eye++ {
			stats.Passes = append(stats.Passes, m.renderEye(cam, eye, pass, mask, debug))
		}
	} else {
		state := m.newRenderState(pass, debug, MonoEye)
		stats.Passes = append(stats.Passes, m.renderSceneState(state, mask, nil, models.InvalidZoneID))
	}
	m.mutex.Unlock()

	stats.Duration = time.Since(start)
	instrumentFrame(pass, stats)

	m.publish(stats)
	return stats
}

// renderEye renders one stereo eye. The view state is restored when it
// returns.
func (m *Manager) renderEye(cam cameraState, eye int, pass models.PassType, mask models.TypeMask, debug DebugOverrides) PassStats {
	saved := m.view
	defer func() {
		m.view = saved
	}()

	m.view = cam.eyeView(eye)
	state := m.newRenderState(pass, debug, eye)
	return m.renderSceneState(state, mask, nil, models.InvalidZoneID)
}

// NewRenderState returns the state of a pass rendered from the current view.
func (m *Manager) NewRenderState(pass models.PassType, debug DebugOverrides) *RenderState {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.view = m.camera.snapshot().monoView()
	return m.newRenderState(pass, debug, MonoEye)
}

func (m *Manager) newRenderState(pass models.PassType, debug DebugOverrides, eye int) *RenderState {
	state := &RenderState{
		Pass:           pass,
		Frustum:        m.view.Frustum,
		CullingFrustum: m.view.Frustum,
		CameraPosition: m.view.Position(),
		Viewport:       m.view.Viewport,
		Eye:            eye,
		Debug:          debug,
	}

	if debug.LockedFrustum != nil {
		state.CullingFrustum = *debug.LockedFrustum
		state.CameraPosition = debug.LockedFrustum.Position
	}

	m.flags.IfSet(featureflag.FlagCullEditorOverrides, func() {
		state.CullFlags |= culling.CullEditorOverrides
	})
	m.flags.IfSet(featureflag.FlagDisableOccluders, func() {
		state.CullFlags |= culling.CullIgnoreOccluders
	})
	return state
}

// RenderSceneState renders a pass with the given state. The traversal
// starts at baseZone of baseSpace, or at the zone containing the camera when
// baseSpace is nil.
func (m *Manager) RenderSceneState(state *RenderState, mask models.TypeMask, baseSpace zones.ZoneSpace, baseZone models.ZoneID) PassStats {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.renderSceneState(state, mask, baseSpace, baseZone)
}

func (m *Manager) renderSceneState(state *RenderState, mask models.TypeMask, baseSpace zones.ZoneSpace, baseZone models.ZoneID) PassStats {
	stats := PassStats{Eye: state.Eye}

	frame := m.zones.BeginFrame()
	defer frame.End()

	stats.Lights = m.lights.RegisterGlobalLights(state.Frustum, state.StaticLightsOnly())
	defer m.lights.UnregisterAllLights()

	space, zone := baseSpace, baseZone
	if space == nil {
		space, zone = frame.FindZone(state.CameraPosition)
	}
	stats.StartSpace = space.Name()
	stats.StartZone = zone

	if state.Pass == models.DiffusePass {
		state.Ambient = m.resolveAmbient(state, space, zone)
	}
	stats.Ambient = state.Ambient

	var resolver culling.ZoneResolver = frame
	if state.Debug.DisableZoneTraversal {
		resolver = culling.ZoneResolverFunc(func(geometry.Box) []models.ZoneID {
			return nil
		})
	}

	cull := culling.NewState(state.CullingFrustum, resolver)
	traversal := zones.NewTraversalState(cull, state.CameraPosition, m.isStrict(state))

	if state.Debug.DisableZoneTraversal {
		cull.AddCullingVolumeToZone(models.RootZoneID, cull.RootVolume())
		traversal.ExtendRenderArea(cull.RootVolume().Bounds)
	} else {
		frame.TraverseFrom(traversal, space, zone)
	}

	stats.ZonesVisited = cull.ZoneCount()
	stats.Traversal = traversal.Stats()
	stats.Occluders = m.addOccluders(frame, cull, state)

	renderArea := traversal.RenderArea()
	stats.RenderAreaMin, stats.RenderAreaMax = renderArea.Min, renderArea.Max

	area, ok := renderArea.Intersect(state.CullingFrustum.Bounds())
	if !ok {
		logs.WithTag("pass", state.Pass).
			WithTag("eye", state.Eye).
			Debug("render area is outside of the frustum, skipping objects")
		stats.Skipped = true
		return stats
	}

	objects := m.container.FindObjectList(area, mask)
	n := cull.CullObjects(objects, state.CullFlags)

	visible := make([]*models.SceneObject, n, len(objects))
	copy(visible, objects[:n])
	culled := objects[n:]
	forced := m.runPostCullHooks(state, culled)
	visible = append(visible, forced...)

	batches := m.passes.RenderBatch(state.Pass, visible)

	stats.Candidates = len(objects)
	stats.Rendered = len(visible)
	stats.Culled = len(culled) - len(forced)
	stats.Forced = len(forced)
	stats.Batches = len(batches)
	for _, o := range visible {
		stats.RenderedNames = append(stats.RenderedNames, o.Name)
	}
	return stats
}

func (m *Manager) isStrict(state *RenderState) bool {
	return m.flags.IsSet(featureflag.FlagStrictPortalTraversal) && !state.Debug.ForceFloodTraversal
}

// insideScaler is implemented by spaces that can tell how far inside them a
// point is.
type insideScaler interface {
	GetPointInsideScale(p mgl32.Vec3) float32
}

// resolveAmbient returns the ambient color of the zone, blended with the sun
// ambient near openings to the outside. Zones without ambient use the sun
// one.
func (m *Manager) resolveAmbient(state *RenderState, space zones.ZoneSpace, zone models.ZoneID) models.Color {
	sun, hasSun := m.lights.SpecialLight(lighting.SpecialLightSun)

	if !m.flags.IsSet(featureflag.FlagDisableZoneAmbient) {
		if c, ok := space.ZoneAmbient(zone); ok {
			if s, ok := space.(insideScaler); ok && hasSun {
				return sun.Ambient.Lerp(c, s.GetPointInsideScale(state.CameraPosition))
			}
			return c
		}
	}

	if !hasSun {
		logs.WithTag("zone", zone).Debug("no ambient light for zone")
		return models.Color{}
	}

	logs.WithTag("zone", zone).Debug("zone has no ambient light, using sun ambient")
	return sun.Ambient
}

// addOccluders registers the occluders seen in the traversed zones and
// returns how many were admitted.
func (m *Manager) addOccluders(frame *zones.Frame, cull *culling.State, state *RenderState) int {
	if state.CullFlags&culling.CullIgnoreOccluders != 0 {
		return 0
	}

	m.hooksMutex.RLock()
	defer m.hooksMutex.RUnlock()

	n := 0
	for _, w := range m.occluders {
		for _, id := range frame.GetOverlappingZones(geometry.PolygonBounds(w)) {
			if !cull.HasZone(id) {
				continue
			}
			if cull.AddOccluder(id, state.CameraPosition, w) {
				n++
			}
		}
	}
	return n
}

func (m *Manager) runPostCullHooks(state *RenderState, culled []*models.SceneObject) []*models.SceneObject {
	m.hooksMutex.RLock()
	hooks := make([]PostCullHook, len(m.hooks))
	copy(hooks, m.hooks)
	m.hooksMutex.RUnlock()

	if len(hooks) == 0 || len(culled) == 0 {
		return nil
	}

	// Only culled objects can be forced in, each of them once.
	pending := make(map[*models.SceneObject]struct{}, len(culled))
	for _, o := range culled {
		pending[o] = struct{}{}
	}

	var forced []*models.SceneObject
	for _, h := range hooks {
		for _, o := range h(state, culled) {
			if _, ok := pending[o]; !ok {
				continue
			}
			delete(pending, o)
			forced = append(forced, o)
		}
	}
	return forced
}
