package analytics

import (
	"fmt"
	"strings"
)

// Summary is a read-only snapshot of a ledger.
type Summary struct {
	TotalElapsedSeconds float64        `json:"total_elapsed_seconds"`
	EmailsSent          int            `json:"emails_sent"`
	EmailsReceived      int            `json:"emails_received"`
	Responses           int            `json:"responses"`
	AvgResponseSeconds  float64        `json:"avg_response_seconds"`
	FastestResponseSecs float64        `json:"fastest_response_seconds"`
	SlowestResponseSecs float64        `json:"slowest_response_seconds"`
	Score               float64        `json:"score"`
	Strengths           []Count        `json:"strengths"`
	Issues              []Count        `json:"issues"`
	Performance         map[string]int `json:"performance"`
	Recommendations     []string       `json:"recommendations"`
}

// recommendations maps an issue to the advice printed when it was seen at least once.
var recommendations = []struct {
	issue  string
	advice string
}{
	{IssueSlowResponses, "Improve response time - clients expect faster replies"},
	{IssueIncompleteAnswers, "Answer all client questions thoroughly"},
	{IssuePoorPersonalization, "Personalize responses to client's specific needs"},
	{IssueBudgetIgnored, "Always consider and mention budget constraints"},
	{IssueLocalKnowledgeGaps, "Show more local expertise and cultural knowledge"},
}

const excellentPerformance = "Excellent performance! Keep up the great work!"

// Summary snapshots the ledger. It has no side effects.
func (l *Ledger) Summary() Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Summary{
		TotalElapsedSeconds: l.now().Sub(l.startedAt).Seconds(),
		EmailsSent:          l.sent,
		EmailsReceived:      l.received,
		Responses:           len(l.responseTimes),
		Score:               l.scoreLocked(),
		Strengths:           l.metrics.Strengths.nonZero(),
		Issues:              l.metrics.Issues.nonZero(),
		Performance:         l.metrics.Performance.snapshot(),
	}
	if avg, ok := average(l.responseTimes); ok {
		s.AvgResponseSeconds = avg
		s.FastestResponseSecs = l.responseTimes[0]
		s.SlowestResponseSecs = l.responseTimes[0]
		for _, v := range l.responseTimes[1:] {
			if v < s.FastestResponseSecs {
				s.FastestResponseSecs = v
			}
			if v > s.SlowestResponseSecs {
				s.SlowestResponseSecs = v
			}
		}
	}

	for _, r := range recommendations {
		if l.metrics.Issues.Get(r.issue) > 0 {
			s.Recommendations = append(s.Recommendations, r.advice)
		}
	}
	if !l.metrics.Issues.anyNonZero() {
		s.Recommendations = append(s.Recommendations, excellentPerformance)
	}
	return s
}

// Report renders the summary as the human-readable end-of-conversation analysis.
func (l *Ledger) Report(counterpart string) string {
	return RenderReport(l.Summary(), counterpart)
}

// RenderReport formats a summary. counterpart names the scored party in headings.
func RenderReport(s Summary, counterpart string) string {
	if counterpart == "" {
		counterpart = "Counterpart"
	}
	name := strings.ToUpper(counterpart)
	rule := strings.Repeat("=", 50)

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n%s PERFORMANCE ANALYSIS\n%s\n", rule, name, rule)

	b.WriteString("\nBASIC METRICS:\n")
	fmt.Fprintf(&b, "  • Total conversation time: %.1f minutes\n", s.TotalElapsedSeconds/60)
	fmt.Fprintf(&b, "  • Emails sent by client: %d\n", s.EmailsSent)
	fmt.Fprintf(&b, "  • Emails received from %s: %d\n", counterpart, s.EmailsReceived)
	fmt.Fprintf(&b, "  • Average response time: %.1f minutes\n", s.AvgResponseSeconds/60)
	if s.Responses > 0 {
		fmt.Fprintf(&b, "  • Fastest response: %.1f minutes\n", s.FastestResponseSecs/60)
		fmt.Fprintf(&b, "  • Slowest response: %.1f minutes\n", s.SlowestResponseSecs/60)
	}

	fmt.Fprintf(&b, "\nOVERALL PERFORMANCE SCORE: %.1f/100\n", s.Score)

	fmt.Fprintf(&b, "\n%s STRENGTHS:\n", name)
	writeCounts(&b, s.Strengths, "No significant strengths identified")

	fmt.Fprintf(&b, "\n%s ISSUES:\n", name)
	writeCounts(&b, s.Issues, "No significant issues identified")

	b.WriteString("\nPERFORMANCE BREAKDOWN:\n")
	fmt.Fprintf(&b, "  • Questions answered: %d\n", s.Performance[PerfQuestionsAnswered])
	fmt.Fprintf(&b, "  • Questions ignored: %d\n", s.Performance[PerfQuestionsIgnored])
	fmt.Fprintf(&b, "  • Proposals offered: %d\n", s.Performance[PerfProposalsOffered])
	fmt.Fprintf(&b, "  • Follow-up questions asked: %d\n", s.Performance[PerfFollowUpQuestions])
	fmt.Fprintf(&b, "  • Upsell attempts: %d\n", s.Performance[PerfUpsellAttempts])

	b.WriteString("\nRECOMMENDATIONS:\n")
	for _, r := range s.Recommendations {
		fmt.Fprintf(&b, "  • %s\n", r)
	}

	fmt.Fprintf(&b, "\n%s\n", rule)
	return b.String()
}

func writeCounts(b *strings.Builder, counts []Count, empty string) {
	if len(counts) == 0 {
		fmt.Fprintf(b, "  • %s\n", empty)
		return
	}
	for _, c := range counts {
		fmt.Fprintf(b, "  • %s: %d times\n", c.Label(), c.Count)
	}
}
