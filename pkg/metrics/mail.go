package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// emailSent counts messages accepted by the transport.
	// Labels:
	// - path: "direct" (immediate send) or "sweep" (retry queue)
	emailSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "expomail",
			Subsystem: "email",
			Name:      "sent_total",
			Help:      "Total number of emails accepted by the relay",
		},
		[]string{"path"},
	)

	// emailFailed counts failed delivery attempts.
	// Labels:
	// - path:   "direct" or "sweep"
	// - reason: "validation", "template_not_found", "transport"
	emailFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "expomail",
			Subsystem: "email",
			Name:      "failed_total",
			Help:      "Total number of failed email delivery attempts",
		},
		[]string{"path", "reason"},
	)

	// queueEnqueued counts retry-queue insertions.
	// Labels:
	// - origin: "auto" (after a failed send), "explicit" (queue API), "retry" (sweep requeue)
	queueEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "expomail",
			Subsystem: "queue",
			Name:      "enqueued_total",
			Help:      "Total number of messages pushed onto the retry queue",
		},
		[]string{"origin"},
	)

	queueDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "expomail",
			Subsystem: "queue",
			Name:      "dropped_total",
			Help:      "Total number of messages dropped after exhausting their attempts",
		},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "expomail",
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Number of messages currently held by the retry queue",
		},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "expomail",
			Subsystem: "queue",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a single retry-queue sweep",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// IncEmailSent increments the sent counter for the given path.
func IncEmailSent(path string) {
	if path == "" {
		path = "unknown"
	}
	emailSent.WithLabelValues(path).Inc()
}

// IncEmailFailed increments the failure counter.
func IncEmailFailed(path, reason string) {
	if path == "" {
		path = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	emailFailed.WithLabelValues(path, reason).Inc()
}

// IncQueueEnqueued increments the enqueue counter for origin.
func IncQueueEnqueued(origin string) {
	if origin == "" {
		origin = "unknown"
	}
	queueEnqueued.WithLabelValues(origin).Inc()
}

// IncQueueDropped counts one exhausted message.
func IncQueueDropped() {
	queueDropped.Inc()
}

// SetQueueDepth records the current queue length.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

// ObserveSweepDuration records how long a sweep took, in seconds.
func ObserveSweepDuration(seconds float64) {
	sweepDuration.Observe(seconds)
}
