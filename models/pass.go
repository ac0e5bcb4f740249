package models

// PassType is the kind of render pass a scene is rendered for.
type PassType int

const (
	DiffusePass PassType = iota
	ReflectPass
	ShadowPass
	OtherPass
)

func (p PassType) String() string {
	switch p {
	case DiffusePass:
		return "diffuse"
	case ReflectPass:
		return "reflect"
	case ShadowPass:
		return "shadow"
	default:
		return "other"
	}
}

func ParsePassType(v string) PassType {
	switch v {
	case "diffuse":
		return DiffusePass
	case "reflect":
		return ReflectPass
	case "shadow":
		return ShadowPass
	default:
		return OtherPass
	}
}
