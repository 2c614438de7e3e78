package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wsConnectedWatchers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voxd_ws_connected_watchers",
		Help: "The number of connected watcher clients.",
	})

	wsSentEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxd_ws_sent_events",
		Help: "The number of events sent to watcher clients.",
	})

	wsSentBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxd_ws_sent_bytes",
		Help: "The number of event bytes sent to watcher clients.",
	})
)

func instrumentConnect() {
	wsConnectedWatchers.Inc()
}

func instrumentDisconnect() {
	wsConnectedWatchers.Dec()
}

func instrumentEventSent(n int) {
	wsSentEvents.Inc()
	wsSentBytes.Add(float64(n))
}
