package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const TransportQueueLengthMetricName = "tailship_transport_queue_length"

var TransportQueueLength = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: TransportQueueLengthMetricName,
		Help: "Entries waiting in the transport queue.",
	},
	[]string{"destination"},
)

const TransportEntriesSentMetricName = "tailship_transport_entries_sent_total"

var TransportEntriesSent = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: TransportEntriesSentMetricName,
		Help: "Total entries written to the connection.",
	},
	[]string{"destination"},
)

const TransportEntriesEvictedMetricName = "tailship_transport_entries_evicted_total"

var TransportEntriesEvicted = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: TransportEntriesEvictedMetricName,
		Help: "Total queued entries evicted because the queue was full.",
	},
	[]string{"destination"},
)

const TransportReconnectsMetricName = "tailship_transport_reconnects_total"

var TransportReconnects = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: TransportReconnectsMetricName,
		Help: "Total connection attempts that failed and were retried.",
	},
	[]string{"destination"},
)

const TransportHeartbeatsMetricName = "tailship_transport_heartbeats_total"

var TransportHeartbeats = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: TransportHeartbeatsMetricName,
		Help: "Total heartbeat tokens sent during inactivity.",
	},
	[]string{"destination"},
)
