package http

import (
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/zonecull/spatial"
	"github.com/aukilabs/zonecull/zones"
	"github.com/segmentio/encoding/json"
)

func HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func HandleReadyCheck(readinessCheck func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !readinessCheck() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func HandleVersion(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(version))
	}
}

// ZoneLister lists the registered zone spaces.
type ZoneLister interface {
	Snapshot() []zones.SpaceInfo
}

// HandleZones writes the registered zone spaces, their zone ranges and
// connections.
func HandleZones(l ZoneLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, l.Snapshot())
	}
}

// HandleSpatialDebug writes the state of a spatial container.
func HandleSpatialDebug(c spatial.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, c.GetDebugInfo())
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logs.WithTag("type", "json").Error(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
