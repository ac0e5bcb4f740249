package models

type Color struct {
	R float32 `json:"r" yaml:"r"`
	G float32 `json:"g" yaml:"g"`
	B float32 `json:"b" yaml:"b"`
	A float32 `json:"a" yaml:"a"`
}

func NewColor(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Lerp linearly interpolates between c and o. It returns c when t is 0 and
// o when t is 1.
func (c Color) Lerp(o Color, t float32) Color {
	return Color{
		R: c.R*(1-t) + o.R*t,
		G: c.G*(1-t) + o.G*t,
		B: c.B*(1-t) + o.B*t,
		A: c.A*(1-t) + o.A*t,
	}
}
