package zones

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/zonecull/culling"
	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/models"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

const (
	roomA = 1
	roomB = 2
	floor = 3
)

func box(minX, minY, minZ, maxX, maxY, maxZ float32) geometry.Box {
	return geometry.NewBox(mgl32.Vec3{minX, minY, minZ}, mgl32.Vec3{maxX, maxY, maxZ})
}

func boxAt(x, y, z float32) geometry.Box {
	return geometry.NewBoxFromCenter(mgl32.Vec3{x, y, z}, mgl32.Vec3{0.5, 0.5, 0.5})
}

// newHouse returns two rooms side by side along the x axis, linked by a
// portal at x = 0. Room B has a door to the outside at x = 10. A solid floor
// lies below both rooms.
func newHouse(t *testing.T, name string, transform mgl32.Mat4) *InteriorSpace {
	floorZone := NewBoxZone("floor", box(-10, -2, -10, 10, 0, 10))
	floorZone.Solid = true

	s, err := NewInteriorSpace(name, transform,
		[]Zone{
			NewBoxZone("a", box(-10, 0, -10, 0, 5, 10)),
			NewBoxZone("b", box(0, 0, -10, 10, 5, 10)),
			floorZone,
		},
		[]Portal{
			{
				Winding: []mgl32.Vec3{
					{0, 1, -2},
					{0, 1, 2},
					{0, 4, 2},
					{0, 4, -2},
				},
				ZoneFront: roomA,
				ZoneBack:  roomB,
			},
			{
				Winding: []mgl32.Vec3{
					{10, 0, -1},
					{10, 0, 1},
					{10, 3, 1},
					{10, 3, -1},
				},
				ZoneFront: roomB,
				ZoneBack:  OutsideZone,
			},
		},
	)
	require.NoError(t, err)
	return s
}

// newBoxSpace returns an interior made of count unit box zones laid along
// the x axis, starting at x.
func newBoxSpace(t *testing.T, name string, x float32, count int) *InteriorSpace {
	zones := make([]Zone, count)
	for i := range zones {
		x0 := x + float32(i)
		zones[i] = NewBoxZone(name, box(x0, 0, 0, x0+1, 1, 1))
	}

	s, err := NewInteriorSpace(name, mgl32.Ident4(), zones, nil)
	require.NoError(t, err)
	return s
}

func cameraFrustum(eye, target mgl32.Vec3) geometry.Frustum {
	view := mgl32.LookAtV(eye, target, mgl32.Vec3{0, 1, 0})
	return geometry.NewPerspectiveFrustum(view.Inv(), mgl32.DegToRad(90), 1, 0.1, 100)
}

// traverse runs a traversal from eye toward target and returns its state.
func traverse(m *Manager, eye, target mgl32.Vec3, strict bool) *TraversalState {
	f := m.BeginFrame()
	defer f.End()

	cull := culling.NewState(cameraFrustum(eye, target), f)
	state := NewTraversalState(cull, eye, strict)
	f.TraverseZones(state)
	return state
}

func isVisible(state *TraversalState, b geometry.Box) bool {
	return !state.Culling.IsCulled(b, 0)
}

func globalZone(s *InteriorSpace, local int) models.ZoneID {
	return s.GlobalZoneID(local)
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
