package http

import (
	"context"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/aukilabs/zonecull/spatial"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// AdminConfig describes what the admin server exposes. Nil handlers and
// collaborators leave their routes unregistered.
type AdminConfig struct {
	Addr    string
	Version string

	// Tags the server logs, to tell frame loop runs apart.
	RunID string

	Ready   func() bool
	Zones   ZoneLister
	Spatial spatial.Container

	// Streams frame statistics.
	Frames http.Handler
}

// NewAdminServer returns the server exposing metrics, health, scene state
// and profiling endpoints. Requests are instrumented per route.
func NewAdminServer(conf AdminConfig) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", HandleHealthCheck)
	mux.HandleFunc("/version", HandleVersion(conf.Version))

	if conf.Ready != nil {
		mux.HandleFunc("/ready", HandleReadyCheck(conf.Ready))
	}
	if conf.Zones != nil {
		mux.HandleFunc("/zones", HandleZones(conf.Zones))
	}
	if conf.Spatial != nil {
		mux.HandleFunc("/debug/spatial", HandleSpatialDebug(conf.Spatial))
	}
	if conf.Frames != nil {
		mux.Handle("/frames", conf.Frames)
	}

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return &http.Server{
		Addr:              conf.Addr,
		Handler:           metrics.HTTPHandler(mux, MetricsPathFormatter),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// ListenAndServe serves until ctx is done, then shuts the server down. It
// returns an error when the server stops on its own.
func ListenAndServe(ctx context.Context, runID string, s *http.Server) error {
	served := make(chan error, 1)
	go func() {
		logs.WithTag("addr", s.Addr).
			WithTag("run_id", runID).
			Info("starting admin server")
		served <- s.ListenAndServe()
	}()

	select {
	case err := <-served:
		return errors.New("admin server stopped").
			WithTag("addr", s.Addr).
			WithTag("run_id", runID).
			Wrap(err)

	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		logs.Warn(errors.New("shutting down the admin server failed").
			WithTag("addr", s.Addr).
			WithTag("run_id", runID).
			Wrap(err))
	}

	if err := <-served; err != nil && err != http.ErrServerClosed {
		return errors.New("admin server stopped").
			WithTag("addr", s.Addr).
			WithTag("run_id", runID).
			Wrap(err)
	}

	logs.WithTag("addr", s.Addr).
		WithTag("run_id", runID).
		Info("admin server stopped")
	return nil
}

// MetricsPathFormatter drops the path of requests that matched no route and
// groups the profiling routes under one path.
func MetricsPathFormatter(statusCode int, path string) string {
	switch statusCode {
	case http.StatusMovedPermanently,
		http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusMethodNotAllowed:
		return ""
	}

	if strings.HasPrefix(path, "/debug/pprof/") {
		return "/debug/pprof"
	}
	return path
}
