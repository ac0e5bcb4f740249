package lighting

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registeredLightCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lighting_registered_light_count",
		Help: "The number of lights registered for the pass being rendered.",
	})
)

func instrumentRegisteredLights(n int) {
	registeredLightCount.Set(float64(n))
}
