package analytics

import (
	"strings"
	"unicode"
)

const (
	// answeredThreshold is the answered/asked ratio at which a reply counts as complete.
	answeredThreshold = 0.8

	quickResponseSeconds = 300.0
	slowResponseSeconds  = 1800.0
)

// Scorer runs the signal checks against inbound messages and writes the results into
// the Ledger it is bound to. It holds no state of its own.
type Scorer struct {
	ledger *Ledger
}

// NewScorer binds a scorer to a ledger.
func NewScorer(ledger *Ledger) *Scorer {
	return &Scorer{ledger: ledger}
}

// Analyze scores one inbound message. preceding is the client message it replies to,
// or "" when there is none. It never fails; empty text simply matches nothing.
func (s *Scorer) Analyze(inbound, preceding string) {
	lowered := strings.ToLower(inbound)

	l := s.ledger
	l.mu.Lock()
	defer l.mu.Unlock()
	m := l.metrics

	if strings.TrimSpace(preceding) != "" {
		asked, answered := QuestionCoverage(preceding, lowered)
		if asked > 0 {
			if float64(answered) >= float64(asked)*answeredThreshold {
				m.Performance.add(PerfQuestionsAnswered, answered)
				m.Strengths.add(StrengthDetailedAnswers, 1)
			} else {
				m.Performance.add(PerfQuestionsIgnored, asked-answered)
				m.Issues.add(IssueIncompleteAnswers, 1)
			}
		}
	}

	for _, signal := range l.signals {
		if signal.Present(lowered) {
			for _, name := range signal.Performance {
				m.Performance.add(name, 1)
			}
			m.Strengths.add(signal.Strength, 1)
			continue
		}
		m.Issues.add(signal.Issue, 1)
	}

	if l.cycleSample != nil {
		switch sample := *l.cycleSample; {
		case sample < quickResponseSeconds:
			m.Strengths.add(StrengthQuickResponses, 1)
		case sample > slowResponseSeconds:
			m.Issues.add(IssueSlowResponses, 1)
		}
	}
}

// QuestionCoverage splits preceding on '?' and counts how many of the resulting
// questions share at least one word with the inbound text. Text after the last '?' is
// not a question. inbound is matched case-insensitively.
func QuestionCoverage(preceding, inbound string) (asked, answered int) {
	lowered := strings.ToLower(inbound)
	segments := strings.Split(strings.ToLower(preceding), "?")
	// The final segment follows the last question mark.
	for _, segment := range segments[:len(segments)-1] {
		words := questionWords(segment)
		if len(words) == 0 {
			continue
		}
		asked++
		for _, w := range words {
			if strings.Contains(lowered, w) {
				answered++
				break
			}
		}
	}
	return asked, answered
}

func questionWords(segment string) []string {
	return strings.FieldsFunc(segment, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '$'
	})
}
