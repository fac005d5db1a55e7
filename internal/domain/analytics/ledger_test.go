package analytics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLedger_ResponseTimeWithoutSend(t *testing.T) {
	l := NewLedger()
	_, ok := l.RecordResponseTime()
	assert.False(t, ok)
	assert.Empty(t, l.ResponseTimes())

	_, ok = l.AverageResponseTime()
	assert.False(t, ok)
}

func TestLedger_ResponseTimeMeasuresSinceLastSend(t *testing.T) {
	clock := newFakeClock()
	l := NewLedger(WithClock(clock.Now))

	l.RecordSent("<a@example.com>")
	clock.Advance(200 * time.Second)
	l.RecordReceived()
	got, ok := l.RecordResponseTime()
	require.True(t, ok)
	assert.InDelta(t, 200, got, 0.001)

	l.RecordSent("<b@example.com>")
	clock.Advance(100 * time.Second)
	l.RecordReceived()
	got, ok = l.RecordResponseTime()
	require.True(t, ok)
	assert.InDelta(t, 100, got, 0.001)

	avg, ok := l.AverageResponseTime()
	require.True(t, ok)
	assert.InDelta(t, 150, avg, 0.001)
	assert.Equal(t, 2, l.Sent())
	assert.Equal(t, 2, l.Received())
}

func TestLedger_RecordSentFeedsThreading(t *testing.T) {
	l := NewLedger()
	ids := []string{"<1@x>", "<2@x>", "<3@x>"}
	for _, id := range ids {
		l.RecordSent(id)
	}

	inReplyTo, refs := l.Threading().Headers()
	assert.Equal(t, "<3@x>", inReplyTo)
	assert.Equal(t, ids, refs)
	assert.Equal(t, len(ids), l.Sent())
}

func TestLedger_CountersOnlyGrow(t *testing.T) {
	l := NewLedger()
	s := NewScorer(l)

	before := l.Performance()
	for i := 0; i < 5; i++ {
		s.Analyze("Here is your itinerary with a local guide.", "When do you travel?")
		after := l.Performance()
		for name, v := range before {
			assert.GreaterOrEqual(t, after[name], v, name)
		}
		before = after
	}
}

func TestLedger_SchemaIsFixed(t *testing.T) {
	l := NewLedger()
	l.metrics.Performance.add("not_a_counter", 3)
	_, ok := l.Performance()["not_a_counter"]
	assert.False(t, ok)

	assert.Contains(t, l.Performance(), PerfQuestionsAnswered)
	assert.Contains(t, l.Strengths(), StrengthQuickResponses)
	assert.Contains(t, l.Issues(), IssueLocalKnowledgeGaps)
}

func TestLedger_ConcurrentReaders(t *testing.T) {
	l := NewLedger()
	s := NewScorer(l)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			l.RecordSent("")
			l.RecordReceived()
			l.RecordResponseTime()
			s.Analyze("price and plan", "What is the cost?")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = l.Summary()
			_ = l.Score()
		}
	}()
	wg.Wait()
	assert.Equal(t, 100, l.Received())
}

func TestCount_Label(t *testing.T) {
	assert.Equal(t, "Quick Responses", Count{Name: StrengthQuickResponses}.Label())
	assert.Equal(t, "Local Knowledge Gaps", Count{Name: IssueLocalKnowledgeGaps}.Label())
}
