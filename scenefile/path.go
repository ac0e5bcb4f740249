package scenefile

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Waypoint struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
}

// Path is a looping camera path.
type Path []Waypoint

// Pose returns where the camera is and looks at, t waypoints along the path.
// Positions between waypoints are linearly interpolated.
func (p Path) Pose(t float32) (position, target mgl32.Vec3, ok bool) {
	switch len(p) {
	case 0:
		return mgl32.Vec3{}, mgl32.Vec3{}, false
	case 1:
		return p[0].Position, p[0].Target, true
	}

	n := float32(len(p))
	for t < 0 {
		t += n
	}
	for t >= n {
		t -= n
	}

	i := int(t)
	a, b := p[i], p[(i+1)%len(p)]
	f := t - float32(i)
	return lerp(a.Position, b.Position, f), lerp(a.Target, b.Target, f), true
}

func lerp(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
