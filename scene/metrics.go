package scene

import (
	"github.com/aukilabs/zonecull/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	passLabel = "pass"
)

var (
	framesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scene_frames_total",
		Help: "The total number of rendered frames.",
	}, []string{passLabel})

	frameLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scene_frame_latency_seconds",
		Help:    "The time taken to render a frame.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	}, []string{passLabel})

	candidateObjectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scene_candidate_objects_total",
		Help: "The total number of objects found in render areas.",
	}, []string{passLabel})

	renderedObjectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scene_rendered_objects_total",
		Help: "The total number of objects submitted for rendering.",
	}, []string{passLabel})

	forcedObjectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scene_forced_objects_total",
		Help: "The total number of culled objects rendered by post cull hooks.",
	}, []string{passLabel})

	skippedPassesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scene_skipped_passes_total",
		Help: "The total number of passes whose render area was outside of the frustum.",
	}, []string{passLabel})

	visitedZones = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scene_visited_zones",
		Help:    "The number of zones visited per pass.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{passLabel})
)

func instrumentFrame(pass models.PassType, stats FrameStats) {
	labels := prometheus.Labels{passLabel: pass.String()}

	framesTotal.With(labels).Inc()
	frameLatency.With(labels).Observe(stats.Duration.Seconds())

	for _, p := range stats.Passes {
		candidateObjectsTotal.With(labels).Add(float64(p.Candidates))
		renderedObjectsTotal.With(labels).Add(float64(p.Rendered))
		forcedObjectsTotal.With(labels).Add(float64(p.Forced))
		visitedZones.With(labels).Observe(float64(p.ZonesVisited))
		if p.Skipped {
			skippedPassesTotal.With(labels).Inc()
		}
	}
}
