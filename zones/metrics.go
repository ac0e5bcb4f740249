package zones

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registeredZoneCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zones_registered_zone_count",
		Help: "The number of registered zones.",
	})

	registeredZoneSpaceCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zones_registered_zone_space_count",
		Help: "The number of registered zone spaces.",
	})

	rootFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zones_root_fallbacks_total",
		Help: "The total number of point lookups that fell back to the root zone.",
	})

	truncatedZoneListsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zones_truncated_zone_lists_total",
		Help: "The total number of overlapping zone lists truncated to the maximum object zone count.",
	})

	traversalZoneVisits = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "zones_traversal_zone_visits",
		Help:    "The number of zone visits per traversal.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	rejectedPortalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zones_rejected_portals_total",
		Help: "The total number of portals culled during traversals.",
	})
)

func instrumentRegisterZones(count int) {
	registeredZoneCount.Add(float64(count))
	registeredZoneSpaceCount.Inc()
}

func instrumentUnregisterZones(count int) {
	registeredZoneCount.Sub(float64(count))
	registeredZoneSpaceCount.Dec()
}

func instrumentRootFallback() {
	rootFallbacksTotal.Inc()
}

func instrumentTruncateZones() {
	truncatedZoneListsTotal.Inc()
}

func instrumentTraversal(state *TraversalState) {
	stats := state.Stats()
	traversalZoneVisits.Observe(float64(stats.ZoneVisits))
	rejectedPortalsTotal.Add(float64(stats.RejectedPortals))
}
