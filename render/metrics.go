package render

import (
	"github.com/aukilabs/zonecull/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	passLabel = "pass"
)

var (
	batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "render_batches_total",
		Help: "The total number of batches submitted.",
	}, []string{passLabel})

	batchedObjectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "render_batched_objects_total",
		Help: "The total number of objects submitted.",
	}, []string{passLabel})
)

func instrumentBatches(pass models.PassType, batches []Batch, objects int) {
	labels := prometheus.Labels{passLabel: pass.String()}

	batchesTotal.With(labels).Add(float64(len(batches)))
	batchedObjectsTotal.With(labels).Add(float64(objects))
}
