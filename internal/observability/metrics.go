package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	adminRequestsTotal  *prometheus.CounterVec
	adminLatencySeconds *prometheus.HistogramVec
	adminErrorsTotal    *prometheus.CounterVec

	messagingConnectionsTotal  prometheus.Counter
	messagingConnectionsActive prometheus.Gauge
	messagesSentTotal          *prometheus.CounterVec
	messageDeletesTotal        *prometheus.CounterVec
	readReceiptsTotal          prometheus.Counter
	snapshotsEmittedTotal      prometheus.Counter

	notificationsPublishedTotal *prometheus.CounterVec
	sseClientsActive            prometheus.Gauge

	uploadRejectedTotal  *prometheus.CounterVec
	uploadLatencySeconds prometheus.Histogram
	mediaDestroyTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		adminRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Total number of admin API requests served.",
		}, []string{"method", "route", "status"})

		adminLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		adminErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		messagingConnectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messaging_connections_total",
			Help: "Total number of websocket thread subscriptions accepted.",
		})

		messagingConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "messaging_connections_active",
			Help: "Number of websocket thread subscriptions currently open.",
		})

		messagesSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messaging_messages_sent_total",
			Help: "Total number of messages sent, labelled by thread kind.",
		}, []string{"kind"})

		messageDeletesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messaging_message_deletes_total",
			Help: "Total number of message delete operations, labelled by scope.",
		}, []string{"scope"})

		readReceiptsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messaging_read_receipts_total",
			Help: "Total number of read receipts recorded.",
		})

		snapshotsEmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messaging_snapshots_emitted_total",
			Help: "Total number of full thread snapshots pushed to subscribers.",
		})

		notificationsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Total number of notifications published, labelled by type.",
		}, []string{"type"})

		sseClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notifications_sse_clients_active",
			Help: "Number of SSE notification streams currently open.",
		})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uploads_rejected_total",
			Help: "Total number of uploads rejected during validation.",
		}, []string{"reason"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "uploads_latency_seconds",
			Help:    "Latency distribution for media uploads.",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		})

		mediaDestroyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "media_destroy_total",
			Help: "Total number of media destroy calls, labelled by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			adminRequestsTotal, adminLatencySeconds, adminErrorsTotal,
			messagingConnectionsTotal, messagingConnectionsActive,
			messagesSentTotal, messageDeletesTotal, readReceiptsTotal, snapshotsEmittedTotal,
			notificationsPublishedTotal, sseClientsActive,
			uploadRejectedTotal, uploadLatencySeconds, mediaDestroyTotal,
		)
	})
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return adminRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return adminLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return adminErrorsTotal
}

// MessagingConnectionsTotal exposes the websocket subscription counter.
func MessagingConnectionsTotal() prometheus.Counter {
	RegisterMetrics()
	return messagingConnectionsTotal
}

// MessagingConnectionsActive exposes the active websocket subscription gauge.
func MessagingConnectionsActive() prometheus.Gauge {
	RegisterMetrics()
	return messagingConnectionsActive
}

// MessagesSent exposes the per-kind sent message counter.
func MessagesSent() *prometheus.CounterVec {
	RegisterMetrics()
	return messagesSentTotal
}

// MessageDeletes exposes the per-scope delete counter.
func MessageDeletes() *prometheus.CounterVec {
	RegisterMetrics()
	return messageDeletesTotal
}

// ReadReceipts exposes the read receipt counter.
func ReadReceipts() prometheus.Counter {
	RegisterMetrics()
	return readReceiptsTotal
}

// SnapshotsEmitted exposes the snapshot fan-out counter.
func SnapshotsEmitted() prometheus.Counter {
	RegisterMetrics()
	return snapshotsEmittedTotal
}

// NotificationsPublishedTotal exposes the per-type notification counter.
func NotificationsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsPublishedTotal
}

// SSEClientsActive exposes the active SSE stream gauge.
func SSEClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return sseClientsActive
}

// UploadRejected exposes the per-reason upload rejection counter.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency exposes the upload latency histogram.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}

// MediaDestroy exposes the per-outcome media destroy counter.
func MediaDestroy() *prometheus.CounterVec {
	RegisterMetrics()
	return mediaDestroyTotal
}
