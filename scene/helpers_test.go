package scene

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/zonecull/featureflag"
	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/lighting"
	"github.com/aukilabs/zonecull/models"
	"github.com/aukilabs/zonecull/render"
	"github.com/aukilabs/zonecull/spatial"
	"github.com/aukilabs/zonecull/zones"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

var red = models.NewColor(1, 0, 0, 1)

func box(minX, minY, minZ, maxX, maxY, maxZ float32) geometry.Box {
	return geometry.NewBox(mgl32.Vec3{minX, minY, minZ}, mgl32.Vec3{maxX, maxY, maxZ})
}

func boxAt(x, y, z float32) geometry.Box {
	return geometry.NewBoxFromCenter(mgl32.Vec3{x, y, z}, mgl32.Vec3{0.25, 0.25, 0.25})
}

// testScene is a house made of two rooms along the x axis. Room A spans
// x = -10..0 and has a red ambient. Room B spans x = 0..10 and opens to the
// outside through a door at x = 10.
type testScene struct {
	zones   *zones.Manager
	house   *zones.InteriorSpace
	grid    *spatial.Grid
	lights  *lighting.Manager
	batches *render.BatchManager
	camera  *Camera
	manager *Manager
}

func newTestScene(t *testing.T, flags ...string) *testScene {
	roomA := zones.NewBoxZone("a", box(-10, 0, -10, 0, 5, 10))
	roomA.Ambient = &red

	house, err := zones.NewInteriorSpace("house", mgl32.Ident4(),
		[]zones.Zone{
			roomA,
			zones.NewBoxZone("b", box(0, 0, -10, 10, 5, 10)),
		},
		[]zones.Portal{
			{
				Winding: []mgl32.Vec3{
					{0, 1, -2},
					{0, 1, 2},
					{0, 4, 2},
					{0, 4, -2},
				},
				ZoneFront: 1,
				ZoneBack:  2,
			},
			{
				Winding: []mgl32.Vec3{
					{10, 0, -1},
					{10, 0, 1},
					{10, 3, 1},
					{10, 3, -1},
				},
				ZoneFront: 2,
				ZoneBack:  zones.OutsideZone,
			},
		},
	)
	require.NoError(t, err)

	zm := zones.NewManager()
	require.NoError(t, zm.RegisterZones(house))
	require.NoError(t, zm.ConnectZoneSpace(house))

	s := &testScene{
		zones:   zm,
		house:   house,
		grid:    spatial.NewGrid(4, 4, 16),
		lights:  lighting.NewManager(),
		batches: render.NewBatchManager(),
		camera:  NewCamera(mgl32.DegToRad(90), 0.1, 100, Viewport{Width: 200, Height: 200}),
	}

	s.manager = NewManager(Config{
		Zones:     zm,
		Container: s.grid,
		Lights:    s.lights,
		Passes:    s.batches,
		Camera:    s.camera,
		Flags:     featureflag.New(flags),
	})
	return s
}

func (s *testScene) add(name string, mask models.TypeMask, b geometry.Box) *models.SceneObject {
	o := models.NewSceneObject(name, mask, b)
	s.grid.Insert(o)
	return o
}

// lookFromRoomA places the camera in room A, looking at the door.
func (s *testScene) lookFromRoomA() {
	s.camera.LookAt(mgl32.Vec3{-5, 2.5, 0}, mgl32.Vec3{5, 2.5, 0})
}

func renderedNames(stats PassStats) []string {
	return stats.RenderedNames
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
