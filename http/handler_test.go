package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aukilabs/zonecull/geometry"
	"github.com/aukilabs/zonecull/models"
	"github.com/aukilabs/zonecull/spatial"
	"github.com/aukilabs/zonecull/zones"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

func TestHandleReadyCheck(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleReadyCheck(func() bool { return true })(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleReadyCheck(func() bool { return false })(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestHandleVersion(t *testing.T) {
	w := httptest.NewRecorder()
	HandleVersion("v1.2.3")(w, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "v1.2.3", w.Body.String())
}

func TestHandleZones(t *testing.T) {
	m := zones.NewManager()

	shed, err := zones.NewInteriorSpace("shed", mgl32.Ident4(), []zones.Zone{
		zones.NewBoxZone("inside", geometry.NewBox(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{2, 2, 2})),
	}, nil)
	require.NoError(t, err)
	require.NoError(t, m.RegisterZones(shed))
	require.NoError(t, m.ConnectZoneSpace(shed))

	w := httptest.NewRecorder()
	HandleZones(m)(w, httptest.NewRequest(http.MethodGet, "/zones", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var infos []zones.SpaceInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, 2)
	require.Equal(t, "shed", infos[1].Name)
	require.Equal(t, models.ZoneID(1), infos[1].RangeStart)
	require.Equal(t, 1, infos[1].ZoneCount)
	require.Equal(t, []uint32{infos[0].ID}, infos[1].Connected)
}

func TestHandleSpatialDebug(t *testing.T) {
	g := spatial.NewGrid(2, 2, 10)
	g.Insert(models.NewSceneObject("crate", models.StaticObjectType,
		geometry.NewBox(mgl32.Vec3{1, 0, 1}, mgl32.Vec3{2, 1, 2})))

	w := httptest.NewRecorder()
	HandleSpatialDebug(g)(w, httptest.NewRequest(http.MethodGet, "/debug/spatial", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var info spatial.DebugInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	require.Equal(t, uint32(1), info.ObjectCount)
	require.Equal(t, float32(10), info.Resolution)
}
