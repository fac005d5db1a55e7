package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Client simulator metrics
var (
	// Emails sent by kind (initial, reply, follow_up)
	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "client_sim",
			Name:      "emails_sent_total",
			Help:      "Total number of emails sent by the client persona",
		},
		[]string{"kind"},
	)

	// Emails received from the counterpart
	EmailsReceivedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "client_sim",
			Name:      "emails_received_total",
			Help:      "Total number of counterpart emails received",
		},
	)

	// Transport failures by operation (send, poll)
	TransportFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "client_sim",
			Name:      "transport_failures_total",
			Help:      "Failed mail transport operations",
		},
		[]string{"operation"},
	)

	// Generation fallbacks by kind
	GenerationFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "client_sim",
			Name:      "generation_fallbacks_total",
			Help:      "Emails written from fallback text because generation failed",
		},
		[]string{"kind"},
	)

	// Counterpart response time
	ResponseTimeSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "client_sim",
			Name:      "response_time_seconds",
			Help:      "Time between a client email and the counterpart's reply",
			Buckets:   []float64{60, 300, 900, 1800, 3600, 7200, 14400, 43200, 86400},
		},
	)

	// Current performance score
	PerformanceScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jan",
			Subsystem: "client_sim",
			Name:      "performance_score",
			Help:      "Counterpart performance score (0-100)",
		},
	)

	// Completed rounds
	RoundsCompleted = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jan",
			Subsystem: "client_sim",
			Name:      "rounds_completed",
			Help:      "Receive/reply rounds completed in the current conversation",
		},
	)
)

// Recorder feeds conversation events into the package metrics.
type Recorder struct{}

// NewRecorder returns a recorder backed by the default registry.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (*Recorder) EmailSent(kind string) {
	EmailsSentTotal.WithLabelValues(kind).Inc()
}

func (*Recorder) EmailReceived() {
	EmailsReceivedTotal.Inc()
}

func (*Recorder) TransportFailure(op string) {
	TransportFailuresTotal.WithLabelValues(op).Inc()
}

func (*Recorder) ResponseTime(seconds float64) {
	ResponseTimeSeconds.Observe(seconds)
}

func (*Recorder) Score(score float64) {
	PerformanceScore.Set(score)
}

func (*Recorder) RoundCompleted(round int) {
	RoundsCompleted.Set(float64(round))
}

// GenerationFallback counts a fallback for the given email kind.
func (*Recorder) GenerationFallback(kind string) {
	GenerationFallbacksTotal.WithLabelValues(kind).Inc()
}
