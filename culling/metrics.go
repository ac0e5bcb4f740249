package culling

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	reasonLabel = "reason"

	occluderCapacityReason = "capacity"
	occluderSizeReason     = "size"
)

var (
	culledObjectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "culling_culled_objects_total",
		Help: "The total number of objects rejected by culling.",
	})

	testedObjectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "culling_tested_objects_total",
		Help: "The total number of objects tested by culling.",
	})

	occludedObjectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "culling_occluded_objects_total",
		Help: "The total number of zone visibility tests rejected by an occluder.",
	})

	rejectedOccludersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "culling_rejected_occluders_total",
		Help: "The total number of occluders that were not admitted.",
	}, []string{reasonLabel})
)

func instrumentCull(tested, kept int) {
	testedObjectsTotal.Add(float64(tested))
	culledObjectsTotal.Add(float64(tested - kept))
}

func instrumentOccludedObject() {
	occludedObjectsTotal.Inc()
}

func instrumentRejectOccluder(reason string) {
	rejectedOccludersTotal.
		With(prometheus.Labels{reasonLabel: reason}).
		Inc()
}
