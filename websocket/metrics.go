package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wsConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connected_clients",
		Help: "The number of clients streaming frame stats.",
	})

	wsSentFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_sent_frames",
		Help: "The number of frame stats sent to WebSocket connections.",
	})

	wsSentBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_sent_bytes",
		Help: "The number of bytes sent to WebSocket connections.",
	})

	wsDroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_dropped_frames",
		Help: "The number of frame stats dropped because a client did not keep up.",
	})
)

func instrumentConnect() {
	wsConnectedClients.Inc()
}

func instrumentDisconnect() {
	wsConnectedClients.Dec()
}

func instrumentSentFrame(size int) {
	wsSentFrames.Inc()
	wsSentBytes.Add(float64(size))
}

func instrumentDroppedFrame() {
	wsDroppedFrames.Inc()
}
