package lighting

import (
	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/models"
	"github.com/go-gl/mathgl/mgl32"
)

type LightType int

const (
	DirectionalLight LightType = iota
	PointLight
	SpotLight
)

func (t LightType) String() string {
	switch t {
	case DirectionalLight:
		return "directional"
	case SpotLight:
		return "spot"
	default:
		return "point"
	}
}

func ParseLightType(v string) LightType {
	switch v {
	case "directional", "sun":
		return DirectionalLight
	case "spot":
		return SpotLight
	default:
		return PointLight
	}
}

// SpecialLight identifies a light the scene refers to by role.
type SpecialLight int

const (
	SpecialLightSun SpecialLight = iota
)

type Light struct {
	ID        uint32
	Name      string
	Type      LightType
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Color     models.Color
	Ambient   models.Color
	Radius    float32
	Static    bool
}

// Bounds returns the world box lit by the light.
func (l *Light) Bounds() geometry.Box {
	if l.Type == DirectionalLight {
		return geometry.InfiniteBox()
	}
	return geometry.NewBoxFromCenter(l.Position, mgl32.Vec3{l.Radius, l.Radius, l.Radius})
}

// IsVisible reports whether the light can affect what is inside the frustum.
func (l *Light) IsVisible(f geometry.Frustum) bool {
	if l.Type == DirectionalLight {
		return true
	}
	return f.Volume().TestSphere(l.Position, l.Radius) != geometry.Outside
}
