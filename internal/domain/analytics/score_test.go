package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	richReply = "Here is your customized itinerary with premium upgrades. The price is $2000, " +
		"dates are flexible and we include local culture. Could you confirm?"
	twoQuestions = "When do you travel? What is your budget?"
)

func quickCycle(t *testing.T, clock *fakeClock, l *Ledger) {
	t.Helper()
	l.RecordSent("<id@x>")
	clock.Advance(100 * time.Second)
	l.RecordReceived()
	_, ok := l.RecordResponseTime()
	require.True(t, ok)
}

func TestScore_ZeroWithoutReceipts(t *testing.T) {
	l := NewLedger()
	NewScorer(l).Analyze(richReply, twoQuestions)
	l.RecordSent("<id@x>")
	assert.Zero(t, l.Score())
}

func TestScore_Bands(t *testing.T) {
	clock := newFakeClock()
	l := NewLedger(WithClock(clock.Now))
	quickCycle(t, clock, l)
	NewScorer(l).Analyze(richReply, twoQuestions)

	// speed 25 + questions 25 + secondary 15 + personalization 4 + business 15
	assert.InDelta(t, 84, l.Score(), 0.001)
}

func TestScore_CappedAtMax(t *testing.T) {
	clock := newFakeClock()
	l := NewLedger(WithClock(clock.Now))
	quickCycle(t, clock, l)
	s := NewScorer(l)
	for i := 0; i < 10; i++ {
		s.Analyze(richReply, twoQuestions)
	}
	assert.Equal(t, MaxScore, l.Score())
}

func TestScore_StaysInRange(t *testing.T) {
	clock := newFakeClock()
	l := NewLedger(WithClock(clock.Now))
	s := NewScorer(l)
	texts := []string{"ok", richReply, "", "price?", "local plan for your family"}
	for i := 0; i < 20; i++ {
		l.RecordSent("")
		clock.Advance(time.Duration(i*137) * time.Second)
		l.RecordReceived()
		l.RecordResponseTime()
		s.Analyze(texts[i%len(texts)], twoQuestions)

		score := l.Score()
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, MaxScore)
	}
}

func TestSpeedBand(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		want    float64
	}{
		{"no samples", nil, 0},
		{"under five minutes", []float64{120}, 25},
		{"under fifteen minutes", []float64{600}, 20},
		{"under thirty minutes", []float64{1200}, 15},
		{"slow", []float64{3600}, 5},
		{"averaged", []float64{100, 1100}, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, speedBand(tt.samples))
		})
	}
}

func TestSummary_Recommendations(t *testing.T) {
	l := NewLedger()
	l.RecordReceived()
	NewScorer(l).Analyze("ok.", "")

	s := l.Summary()
	assert.Equal(t, []string{
		"Personalize responses to client's specific needs",
		"Always consider and mention budget constraints",
		"Show more local expertise and cultural knowledge",
	}, s.Recommendations)
	assert.Empty(t, s.Strengths)
	assert.NotEmpty(t, s.Issues)
}

func TestSummary_ExcellentWhenNoIssues(t *testing.T) {
	clock := newFakeClock()
	l := NewLedger(WithClock(clock.Now))
	quickCycle(t, clock, l)
	NewScorer(l).Analyze(richReply, twoQuestions)

	s := l.Summary()
	assert.Equal(t, []string{excellentPerformance}, s.Recommendations)
	assert.Empty(t, s.Issues)
	assert.Equal(t, 1, s.EmailsSent)
	assert.Equal(t, 1, s.EmailsReceived)
	assert.InDelta(t, 100, s.FastestResponseSecs, 0.001)
	assert.InDelta(t, 100, s.SlowestResponseSecs, 0.001)
	assert.InDelta(t, 100, s.TotalElapsedSeconds, 0.001)
}

func TestReport_Sections(t *testing.T) {
	clock := newFakeClock()
	l := NewLedger(WithClock(clock.Now))
	quickCycle(t, clock, l)
	NewScorer(l).Analyze(richReply, twoQuestions)

	report := l.Report("Wandero")
	assert.Contains(t, report, "WANDERO PERFORMANCE ANALYSIS")
	assert.Contains(t, report, "Emails received from Wandero: 1")
	assert.Contains(t, report, "OVERALL PERFORMANCE SCORE: 84.0/100")
	assert.Contains(t, report, "Quick Responses: 1 times")
	assert.Contains(t, report, "No significant issues identified")
	assert.Contains(t, report, "Excellent performance!")
}
