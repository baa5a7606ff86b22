// Package metrics provides Prometheus metrics for the chat-api service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks the number of live WebSocket connections.
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_active_connections",
			Help: "Number of currently open realtime connections",
		},
	)

	// ActiveRooms tracks the number of job rooms with at least one subscriber.
	ActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_active_rooms",
			Help: "Number of job rooms with at least one live subscriber",
		},
	)

	// MessagesSent counts persisted messages by type.
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total number of messages persisted",
		},
		[]string{"message_type"},
	)

	// BroadcastFailures counts broadcasts that failed after a successful persist.
	BroadcastFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_broadcast_failures_total",
			Help: "Total number of broadcasts dropped after persist",
		},
	)

	// TypingEvents counts relayed typing signals.
	TypingEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_typing_events_total",
			Help: "Total number of typing events relayed",
		},
	)

	// SlowConsumerDisconnects counts connections dropped for full send queues.
	SlowConsumerDisconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_slow_consumer_disconnects_total",
			Help: "Total number of connections closed because their send queue overflowed",
		},
	)

	// SendDuration tracks end-to-end send latency (validate + persist + broadcast).
	SendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_send_duration_seconds",
			Help:    "Duration of message send operations",
			Buckets: prometheus.DefBuckets,
		},
	)

	// MessagesPurged counts messages removed by retention cleanup.
	MessagesPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_purged_total",
			Help: "Total number of messages removed by retention cleanup",
		},
	)
)

// Recorder satisfies the chat domain's Metrics interface with the Prometheus
// collectors above.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (Recorder) RecordMessageSent(messageType string) {
	MessagesSent.WithLabelValues(messageType).Inc()
}

func (Recorder) RecordBroadcastFailure() {
	BroadcastFailures.Inc()
}

func (Recorder) RecordSendDuration(seconds float64) {
	SendDuration.Observe(seconds)
}
