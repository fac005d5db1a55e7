package analytics

import "math"

// Score band ceilings. They add up to MaxScore.
const (
	MaxScore = 100.0

	speedBandMax           = 25.0
	questionBandMax        = 25.0
	secondaryBandMax       = 15.0
	personalizationBandMax = 20.0
	businessBandMax        = 15.0

	pointsPerPersonalization = 4.0
)

// Score derives the 0..100 performance score from the current state. It is zero until
// something has been received and has no side effects.
func (l *Ledger) Score() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.scoreLocked()
}

func (l *Ledger) scoreLocked() float64 {
	if l.received == 0 {
		return 0
	}
	perf := l.metrics.Performance
	score := speedBand(l.responseTimes) +
		questionBand(perf) +
		secondaryBand(perf) +
		personalizationBand(perf) +
		businessBand(perf)
	return math.Min(MaxScore, score)
}

func speedBand(responseTimes []float64) float64 {
	avg, ok := average(responseTimes)
	if !ok {
		return 0
	}
	switch {
	case avg < 5*60:
		return speedBandMax
	case avg < 15*60:
		return 20
	case avg < 30*60:
		return 15
	default:
		return 5
	}
}

func questionBand(perf *Counters) float64 {
	var score float64
	if perf.Get(PerfQuestionsAnswered) > perf.Get(PerfQuestionsIgnored) {
		score += 15
	}
	if perf.Get(PerfProposalsOffered) > 0 {
		score += 10
	}
	return math.Min(questionBandMax, score)
}

func secondaryBand(perf *Counters) float64 {
	return math.Min(secondaryBandMax, presencePoints(perf, 5,
		PerfFollowUpQuestions,
		PerfDateFlexibility,
		PerfSpecificDetails,
	))
}

func personalizationBand(perf *Counters) float64 {
	return math.Min(personalizationBandMax, float64(perf.Get(PerfPersonalization))*pointsPerPersonalization)
}

func businessBand(perf *Counters) float64 {
	return math.Min(businessBandMax, presencePoints(perf, 5,
		PerfBudgetConsidered,
		PerfUpsellAttempts,
		PerfLocalKnowledge,
	))
}

func presencePoints(perf *Counters, points float64, names ...string) float64 {
	var score float64
	for _, name := range names {
		if perf.Get(name) > 0 {
			score += points
		}
	}
	return score
}
