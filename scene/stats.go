package scene

import (
	"time"

	"github.com/aukilabs/zonecull/models"
	"github.com/aukilabs/zonecull/zones"
	"github.com/go-gl/mathgl/mgl32"
)

// PassStats summarizes a render pass.
type PassStats struct {
	Eye           int                  `json:"eye"`
	StartSpace    string               `json:"start_space"`
	StartZone     models.ZoneID        `json:"start_zone"`
	ZonesVisited  int                  `json:"zones_visited"`
	Traversal     zones.TraversalStats `json:"traversal"`
	Lights        int                  `json:"lights"`
	Occluders     int                  `json:"occluders"`
	Candidates    int                  `json:"candidates"`
	Rendered      int                  `json:"rendered"`
	Culled        int                  `json:"culled"`
	Forced        int                  `json:"forced"`
	Batches       int                  `json:"batches"`
	Skipped       bool                 `json:"skipped"`
	Ambient       models.Color         `json:"ambient"`
	RenderAreaMin mgl32.Vec3           `json:"render_area_min"`
	RenderAreaMax mgl32.Vec3           `json:"render_area_max"`
	RenderedNames []string             `json:"rendered_names,omitempty"`
}

// FrameStats summarizes a RenderScene call.
type FrameStats struct {
	Frame    uint64        `json:"frame"`
	Pass     string        `json:"pass"`
	Stereo   bool          `json:"stereo"`
	Passes   []PassStats   `json:"passes"`
	Duration time.Duration `json:"duration"`
}

// Rendered returns the number of objects rendered by all the passes.
func (s FrameStats) Rendered() int {
	n := 0
	for _, p := range s.Passes {
		n += p.Rendered
	}
	return n
}

// FrameStatsHandler is called after each RenderScene call.
type FrameStatsHandler func(FrameStats)
