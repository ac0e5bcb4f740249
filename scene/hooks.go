package scene

import (
	"github.com/aukilabs/zonecull/models"
)

// PostCullHook returns objects to render even though culling rejected them.
// It receives the culled objects. Returned objects that were not culled are
// ignored.
type PostCullHook func(state *RenderState, culled []*models.SceneObject) []*models.SceneObject

// ForceIncludeHook returns a hook that renders the culled objects matching
// mask whose box center is within maxDistance of the camera. It covers
// objects whose bounding box does not match what they draw.
func ForceIncludeHook(mask models.TypeMask, maxDistance float32) PostCullHook {
	return func(state *RenderState, culled []*models.SceneObject) []*models.SceneObject {
		var forced []*models.SceneObject
		for _, o := range culled {
			if !o.TypeMask.Matches(mask) {
				continue
			}
			if o.WorldBox().Center().Sub(state.CameraPosition).Len() <= maxDistance {
				forced = append(forced, o)
			}
		}
		return forced
	}
}
