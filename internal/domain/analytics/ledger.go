package analytics

import (
	"sync"
	"time"

	"github.com/janhq/client-sim/internal/domain/conversation"
)

// Ledger accumulates send/receive timing and metric counters for one conversation.
// The orchestrator is the only writer; status readers take snapshots concurrently.
type Ledger struct {
	mu  sync.RWMutex
	now func() time.Time

	startedAt     time.Time
	sent          int
	received      int
	lastSendAt    time.Time
	hasSent       bool
	responseTimes []float64

	// cycleSample is the response time recorded since the last send, if any.
	cycleSample *float64

	signals   []Signal
	metrics   *MetricCounters
	threading *conversation.ThreadingState
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithSignals replaces the default signal set. The counter schema is derived from it.
func WithSignals(signals []Signal) Option {
	return func(l *Ledger) {
		l.signals = signals
	}
}

// NewLedger creates a ledger whose clock starts now.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		now:       time.Now,
		signals:   DefaultSignals(),
		threading: conversation.NewThreadingState(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.metrics = newMetricCounters(l.signals)
	l.startedAt = l.now()
	return l
}

// Threading exposes the reply-chain state fed by RecordSent.
func (l *Ledger) Threading() *conversation.ThreadingState {
	return l.threading
}

// Signals returns the signal set the counter schema was built from.
func (l *Ledger) Signals() []Signal {
	out := make([]Signal, len(l.signals))
	copy(out, l.signals)
	return out
}

// RecordSent notes a successful send and appends its Message-ID to the thread.
func (l *Ledger) RecordSent(messageID string) {
	l.mu.Lock()
	l.sent++
	l.lastSendAt = l.now()
	l.hasSent = true
	l.cycleSample = nil
	l.mu.Unlock()

	l.threading.Record(messageID)
}

// RecordReceived notes an inbound message.
func (l *Ledger) RecordReceived() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.received++
}

// RecordResponseTime appends the seconds elapsed since the last send. It returns false
// when nothing was sent yet, which is a valid state rather than an error.
func (l *Ledger) RecordResponseTime() (float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.hasSent {
		return 0, false
	}
	elapsed := l.now().Sub(l.lastSendAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	l.responseTimes = append(l.responseTimes, elapsed)
	sample := elapsed
	l.cycleSample = &sample
	return elapsed, true
}

// Sent returns the number of recorded sends.
func (l *Ledger) Sent() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sent
}

// Received returns the number of recorded receipts.
func (l *Ledger) Received() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.received
}

// ResponseTimes returns a copy of the response time series in seconds.
func (l *Ledger) ResponseTimes() []float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]float64, len(l.responseTimes))
	copy(out, l.responseTimes)
	return out
}

// AverageResponseTime returns the mean response time in seconds.
func (l *Ledger) AverageResponseTime() (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return average(l.responseTimes)
}

// Performance returns a copy of the performance counters.
func (l *Ledger) Performance() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.metrics.Performance.snapshot()
}

// Strengths returns a copy of the strength counters.
func (l *Ledger) Strengths() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.metrics.Strengths.snapshot()
}

// Issues returns a copy of the issue counters.
func (l *Ledger) Issues() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.metrics.Issues.snapshot()
}

func average(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}
