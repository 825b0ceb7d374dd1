package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardpulse_events_total",
			Help: "Consumed events by type and terminal disposition",
		},
		[]string{"event", "disposition"}, // acked|dropped|skipped
	)

	ActivitiesAppended = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "boardpulse_activities_appended_total",
			Help: "Activity records appended to the ledger",
		},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardpulse_notifications_total",
			Help: "Notifications persisted by kind",
		},
		[]string{"kind"},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "boardpulse_ws_connections",
			Help: "Live websocket connections",
		},
	)

	ConsumerLoops = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "boardpulse_consumer_loops",
			Help: "Running subscription receive loops",
		},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		EventsTotal,
		ActivitiesAppended,
		NotificationsTotal,
		WSConnections,
		ConsumerLoops,
	)
}
