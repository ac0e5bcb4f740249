package scenefile

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/lighting"
	"github.com/aukilabs/zonecull/models"
	"github.com/aukilabs/zonecull/scene"
	"github.com/aukilabs/zonecull/spatial"
	"github.com/aukilabs/zonecull/zones"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Scene holds everything built from a scene description.
type Scene struct {
	Zones     *zones.Manager
	Interiors map[string]*zones.InteriorSpace
	Objects   *models.ObjectStore
	Grid      *spatial.Grid
	Lights    *lighting.Manager
	Camera    *scene.Camera
	Occluders [][]mgl32.Vec3
	Path      Path

	velocities map[uint32]mgl32.Vec3
}

// Build creates the zone spaces, objects, lights and camera described by
// the file and registers the spaces with a new zone manager.
func (f *File) Build() (*Scene, error) {
	s := &Scene{
		Zones:      zones.NewManager(),
		Interiors:  make(map[string]*zones.InteriorSpace, len(f.Interiors)),
		Objects:    models.NewObjectStore(),
		Grid:       spatial.NewGrid(f.Grid.Columns, f.Grid.Rows, f.Grid.Resolution),
		Lights:     lighting.NewManager(),
		Occluders:  f.Occluders,
		velocities: make(map[uint32]mgl32.Vec3),
	}

	for _, c := range f.Interiors {
		in, err := c.build()
		if err != nil {
			return nil, err
		}

		if err := s.Zones.RegisterZones(in); err != nil {
			return nil, errors.New("registering interior failed").
				WithTag("interior", c.Name).
				Wrap(err)
		}
		s.Interiors[c.Name] = in

		if c.Outdoor == nil || *c.Outdoor {
			if err := s.Zones.ConnectZoneSpace(in); err != nil {
				return nil, errors.New("connecting interior to the root zone failed").
					WithTag("interior", c.Name).
					Wrap(err)
			}
		}
	}

	for _, c := range f.Connections {
		if err := s.Zones.ConnectZoneSpaces(s.Interiors[c[0]], s.Interiors[c[1]]); err != nil {
			return nil, errors.New("connecting interiors failed").
				WithTag("from", c[0]).
				WithTag("to", c[1]).
				Wrap(err)
		}
	}

	if err := s.addObjects(f.Objects); err != nil {
		return nil, err
	}
	s.addLights(f.Sun, f.Lights)
	s.Camera = f.Camera.build()
	s.Path = f.Camera.path()

	s.Objects.Subscribe(s.handleObjectsMoved)

	logs.WithTag("interiors", len(s.Interiors)).
		WithTag("zones", s.Zones.ZoneCount()).
		WithTag("objects", s.Objects.Len()).
		WithTag("lights", len(s.Lights.Lights())).
		Info("scene built")
	return s, nil
}

func (c InteriorConfig) build() (*zones.InteriorSpace, error) {
	index := make(map[string]int, len(c.Zones))
	zs := make([]zones.Zone, len(c.Zones))

	for i, zc := range c.Zones {
		z := zones.NewBoxZone(zc.Name, geometry.NewBox(zc.Min, zc.Max))
		z.Solid = zc.Solid
		z.Ambient = zc.Ambient

		zs[i] = z
		index[zc.Name] = i + 1
	}

	portals := make([]zones.Portal, len(c.Portals))
	for i, pc := range c.Portals {
		portals[i] = zones.Portal{
			Winding:   pc.Winding,
			ZoneFront: index[pc.Front],
			ZoneBack:  index[pc.Back],
		}
	}

	in, err := zones.NewInteriorSpace(c.Name, c.transform(), zs, portals)
	if err != nil {
		return nil, errors.New("building interior failed").
			WithType(ErrTypeInvalidScene).
			WithTag("interior", c.Name).
			Wrap(err)
	}
	return in, nil
}

func (c InteriorConfig) transform() mgl32.Mat4 {
	return mgl32.Translate3D(c.Position[0], c.Position[1], c.Position[2]).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(c.Rotation))).
		Mul4(mgl32.Scale3D(c.Scale, c.Scale, c.Scale))
}

func (s *Scene) addObjects(objects []ObjectConfig) error {
	for _, c := range objects {
		name := c.Name
		if name == "" {
			name = uuid.NewString()
		}

		mask, _ := models.ParseTypeMask(c.Type)
		o := models.NewSceneObject(name, mask, geometry.NewBox(c.Min, c.Max))
		if c.Global {
			o.Flags |= models.GlobalBoundsFlag
		}
		if c.EditorOverride {
			o.Flags |= models.EditorOverrideFlag
		}

		if err := s.Objects.Add(o); err != nil {
			return errors.New("adding object failed").
				WithType(ErrTypeInvalidScene).
				Wrap(err)
		}
		s.Grid.Insert(o)

		if c.Velocity != (mgl32.Vec3{}) {
			s.velocities[o.ID] = c.Velocity
		}
	}
	return nil
}

func (s *Scene) addLights(sun *SunConfig, lights []LightConfig) {
	if sun != nil {
		s.Lights.SetSpecialLight(lighting.SpecialLightSun, &lighting.Light{
			Name:      "sun",
			Type:      lighting.DirectionalLight,
			Direction: sun.Direction,
			Color:     sun.Color,
			Ambient:   sun.Ambient,
			Static:    true,
		})
	}

	for _, c := range lights {
		s.Lights.AddLight(&lighting.Light{
			Name:      c.Name,
			Type:      lighting.ParseLightType(c.Type),
			Position:  c.Position,
			Direction: c.Direction,
			Color:     c.Color,
			Radius:    c.Radius,
			Static:    c.Static,
		})
	}
}

func (c CameraConfig) build() *scene.Camera {
	cam := scene.NewCamera(mgl32.DegToRad(c.FovDegrees), c.Near, c.Far, scene.Viewport{
		Width:  c.Width,
		Height: c.Height,
	})

	if c.Stereo.Enabled {
		half := c.Stereo.EyeSeparation / 2
		cam.SetStereo(scene.Stereo{
			Enabled:    true,
			EyeOffsets: [2]mgl32.Vec3{{-half, 0, 0}, {half, 0, 0}},
		})
	}

	if len(c.Path) != 0 {
		cam.LookAt(c.Path[0].Position, c.Path[0].Target)
	}
	return cam
}

func (c CameraConfig) path() Path {
	p := make(Path, len(c.Path))
	for i, w := range c.Path {
		p[i] = Waypoint(w)
	}
	return p
}

// handleObjectsMoved keeps the grid and the zone caches in sync with moved
// objects.
func (s *Scene) handleObjectsMoved(objects []*models.SceneObject) {
	for _, o := range objects {
		s.Grid.Update(o)
		s.Zones.NotifyObjectChanged(o)
	}
}

// MoveObjects moves the objects that have a velocity by dt seconds.
func (s *Scene) MoveObjects(dt float32) int {
	moved := 0
	for id, v := range s.velocities {
		o, ok := s.Objects.ByID(id)
		if !ok {
			continue
		}

		b := o.WorldBox()
		d := v.Mul(dt)
		if err := s.Objects.Move(id, geometry.NewBox(b.Min.Add(d), b.Max.Add(d))); err != nil {
			logs.Warn(errors.New("moving object failed").Wrap(err))
			continue
		}
		moved++
	}
	return moved
}

// AddOccluders registers the occluders of the scene with the scene manager.
func (s *Scene) AddOccluders(m *scene.Manager) {
	for _, w := range s.Occluders {
		m.AddOccluder(w)
	}
}
