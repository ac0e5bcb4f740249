package models

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	typeMaskLabel = "type_mask"
)

var (
	sceneObjectCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scene_object_count",
		Help: "The number of scene objects.",
	}, []string{typeMaskLabel})

	sceneObjectCountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scene_object_count_total",
		Help: "The total number of scene objects added.",
	}, []string{typeMaskLabel})
)

func typeMaskLabelValue(m TypeMask) string {
	return strconv.FormatUint(uint64(m), 16)
}

func instrumentIncreaseObjectGauge(m TypeMask) {
	sceneObjectCount.
		With(prometheus.Labels{typeMaskLabel: typeMaskLabelValue(m)}).
		Inc()

	sceneObjectCountTotal.
		With(prometheus.Labels{typeMaskLabel: typeMaskLabelValue(m)}).
		Inc()
}

func instrumentDecreaseObjectGauge(m TypeMask) {
	sceneObjectCount.
		With(prometheus.Labels{typeMaskLabel: typeMaskLabelValue(m)}).
		Dec()
}
