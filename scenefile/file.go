package scenefile

import (
	"io"
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/zonecull/models"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

const (
	ErrTypeInvalidScene = "invalid-scene"

	// OutsideZoneName names the outside of an interior in portal sides.
	OutsideZoneName = "outside"
)

// File is a scene description.
type File struct {
	Camera      CameraConfig     `yaml:"camera"`
	Grid        GridConfig       `yaml:"grid"`
	Sun         *SunConfig       `yaml:"sun"`
	Lights      []LightConfig    `yaml:"lights"`
	Interiors   []InteriorConfig `yaml:"interiors"`
	Connections [][2]string      `yaml:"connections"`
	Objects     []ObjectConfig   `yaml:"objects"`
	Occluders   [][]mgl32.Vec3   `yaml:"occluders"`
}

type CameraConfig struct {
	FovDegrees float32          `yaml:"fov_degrees"`
	Near       float32          `yaml:"near"`
	Far        float32          `yaml:"far"`
	Width      int              `yaml:"width"`
	Height     int              `yaml:"height"`
	Stereo     StereoConfig     `yaml:"stereo"`
	Path       []WaypointConfig `yaml:"path"`
}

type StereoConfig struct {
	Enabled       bool    `yaml:"enabled"`
	EyeSeparation float32 `yaml:"eye_separation"`
}

type WaypointConfig struct {
	Position mgl32.Vec3 `yaml:"position"`
	Target   mgl32.Vec3 `yaml:"target"`
}

type GridConfig struct {
	Columns    uint    `yaml:"columns"`
	Rows       uint    `yaml:"rows"`
	Resolution float32 `yaml:"resolution"`
}

type SunConfig struct {
	Direction mgl32.Vec3   `yaml:"direction"`
	Color     models.Color `yaml:"color"`
	Ambient   models.Color `yaml:"ambient"`
}

type LightConfig struct {
	Name      string       `yaml:"name"`
	Type      string       `yaml:"type"`
	Position  mgl32.Vec3   `yaml:"position"`
	Direction mgl32.Vec3   `yaml:"direction"`
	Color     models.Color `yaml:"color"`
	Radius    float32      `yaml:"radius"`
	Static    bool         `yaml:"static"`
}

// InteriorConfig describes an interior. Zones and portals are in the
// interior's local space.
type InteriorConfig struct {
	Name string `yaml:"name"`

	Position mgl32.Vec3 `yaml:"position"`

	// Rotation around the Y axis, in degrees.
	Rotation float32 `yaml:"rotation"`
	Scale    float32 `yaml:"scale"`

	// Outdoor links the outside of the interior to the root zone. It
	// defaults to true.
	Outdoor *bool `yaml:"outdoor"`

	Zones   []ZoneConfig   `yaml:"zones"`
	Portals []PortalConfig `yaml:"portals"`
}

type ZoneConfig struct {
	Name    string        `yaml:"name"`
	Min     mgl32.Vec3    `yaml:"min"`
	Max     mgl32.Vec3    `yaml:"max"`
	Solid   bool          `yaml:"solid"`
	Ambient *models.Color `yaml:"ambient"`
}

// PortalConfig links two zones, referred to by name. Either side may be
// "outside".
type PortalConfig struct {
	Front   string       `yaml:"front"`
	Back    string       `yaml:"back"`
	Winding []mgl32.Vec3 `yaml:"winding"`
}

type ObjectConfig struct {
	// Name defaults to a random one.
	Name string     `yaml:"name"`
	Type string     `yaml:"type"`
	Min  mgl32.Vec3 `yaml:"min"`
	Max  mgl32.Vec3 `yaml:"max"`

	Global         bool `yaml:"global"`
	EditorOverride bool `yaml:"editor_override"`

	// Velocity in units per second, for objects moved by the frame loop.
	Velocity mgl32.Vec3 `yaml:"velocity"`
}

// Load decodes a scene description.
func Load(r io.Reader) (*File, error) {
	var f File

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, errors.New("decoding scene failed").
			WithType(ErrTypeInvalidScene).
			Wrap(err)
	}

	f.setDefaults()
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFile decodes the scene description stored in the named file.
func LoadFile(filename string) (*File, error) {
	r, err := os.Open(filename)
	if err != nil {
		return nil, errors.New("opening scene file failed").
			WithTag("file_name", filename).
			Wrap(err)
	}
	defer r.Close()

	f, err := Load(r)
	if err != nil {
		return nil, errors.New("loading scene file failed").
			WithTag("file_name", filename).
			Wrap(err)
	}
	return f, nil
}

func (f *File) setDefaults() {
	if f.Camera.FovDegrees == 0 {
		f.Camera.FovDegrees = 90
	}
	if f.Camera.Near == 0 {
		f.Camera.Near = 0.1
	}
	if f.Camera.Far == 0 {
		f.Camera.Far = 1000
	}
	if f.Camera.Width == 0 || f.Camera.Height == 0 {
		f.Camera.Width, f.Camera.Height = 1280, 720
	}
	if f.Camera.Stereo.Enabled && f.Camera.Stereo.EyeSeparation == 0 {
		f.Camera.Stereo.EyeSeparation = 0.064
	}

	if f.Grid.Columns == 0 {
		f.Grid.Columns = 16
	}
	if f.Grid.Rows == 0 {
		f.Grid.Rows = 16
	}
	if f.Grid.Resolution == 0 {
		f.Grid.Resolution = 32
	}

	for i := range f.Objects {
		if f.Objects[i].Type == "" {
			f.Objects[i].Type = "static"
		}
	}

	for i := range f.Interiors {
		if f.Interiors[i].Scale == 0 {
			f.Interiors[i].Scale = 1
		}
	}
}

func (f *File) validate() error {
	if f.Camera.Near <= 0 || f.Camera.Far <= f.Camera.Near {
		return errors.New("camera clip planes are invalid").
			WithType(ErrTypeInvalidScene).
			WithTag("near", f.Camera.Near).
			WithTag("far", f.Camera.Far)
	}

	interiors := make(map[string]struct{}, len(f.Interiors))
	for _, in := range f.Interiors {
		if in.Name == "" {
			return errors.New("interior has no name").
				WithType(ErrTypeInvalidScene)
		}
		if _, ok := interiors[in.Name]; ok {
			return errors.New("interior is declared twice").
				WithType(ErrTypeInvalidScene).
				WithTag("interior", in.Name)
		}
		interiors[in.Name] = struct{}{}

		if err := in.validate(); err != nil {
			return err
		}
	}

	for _, c := range f.Connections {
		for _, name := range c {
			if _, ok := interiors[name]; !ok {
				return errors.New("connection refers to an unknown interior").
					WithType(ErrTypeInvalidScene).
					WithTag("interior", name)
			}
		}
	}

	for _, o := range f.Objects {
		if _, ok := models.ParseTypeMask(o.Type); !ok {
			return errors.New("object has an unknown type").
				WithType(ErrTypeInvalidScene).
				WithTag("object", o.Name).
				WithTag("type", o.Type)
		}
	}

	for i, w := range f.Occluders {
		if len(w) < 3 {
			return errors.New("occluder winding has less than 3 points").
				WithType(ErrTypeInvalidScene).
				WithTag("occluder", i)
		}
	}
	return nil
}

func (c InteriorConfig) validate() error {
	if len(c.Zones) == 0 {
		return errors.New("interior has no zones").
			WithType(ErrTypeInvalidScene).
			WithTag("interior", c.Name)
	}

	names := make(map[string]struct{}, len(c.Zones))
	for _, z := range c.Zones {
		if z.Name == "" || z.Name == OutsideZoneName {
			return errors.New("zone name is invalid").
				WithType(ErrTypeInvalidScene).
				WithTag("interior", c.Name).
				WithTag("zone", z.Name)
		}
		if _, ok := names[z.Name]; ok {
			return errors.New("zone is declared twice").
				WithType(ErrTypeInvalidScene).
				WithTag("interior", c.Name).
				WithTag("zone", z.Name)
		}
		names[z.Name] = struct{}{}
	}

	for _, p := range c.Portals {
		for _, side := range []string{p.Front, p.Back} {
			if _, ok := names[side]; !ok && side != OutsideZoneName {
				return errors.New("portal refers to an unknown zone").
					WithType(ErrTypeInvalidScene).
					WithTag("interior", c.Name).
					WithTag("zone", side)
			}
		}
	}
	return nil
}
