// Package analytics scores the counterpart's side of a simulated conversation.
//
// A Ledger accumulates timing and counter state for one conversation and a Scorer
// feeds it by running keyword heuristics over each inbound email. The heuristics are
// lexical on purpose: false positives and negatives are expected.
package analytics

import "strings"

// Performance counter names.
const (
	PerfQuestionsAnswered = "questions_answered"
	PerfQuestionsIgnored  = "questions_ignored"
	PerfProposalsOffered  = "proposals_offered"
	PerfPersonalization   = "personalization_level"
	PerfFollowUpQuestions = "follow_up_questions"
	PerfUpsellAttempts    = "upsell_attempts"
	PerfSpecificDetails   = "specific_details_provided"
	PerfBudgetConsidered  = "budget_consideration"
	PerfDateFlexibility   = "date_flexibility"
	PerfLocalKnowledge    = "local_knowledge"
)

// Strength counter names.
const (
	StrengthQuickResponses        = "quick_responses"
	StrengthDetailedAnswers       = "detailed_answers"
	StrengthGoodQuestions         = "good_questions"
	StrengthPersonalizedOffers    = "personalized_offers"
	StrengthBudgetAware           = "budget_aware"
	StrengthFlexibleDates         = "flexible_dates"
	StrengthLocalExpertise        = "local_expertise"
	StrengthComprehensivePlanning = "comprehensive_planning"
	StrengthUpsellOpportunities   = "upsell_opportunities"
)

// Issue counter names.
const (
	IssueMissingInformation  = "missing_information"
	IssueSlowResponses       = "slow_responses"
	IssueIncompleteAnswers   = "incomplete_answers"
	IssuePoorPersonalization = "poor_personalization"
	IssueLackOfSpecifics     = "lack_of_specifics"
	IssueMissedUpsell        = "missed_upsell"
	IssueBudgetIgnored       = "budget_ignored"
	IssueDateIssues          = "date_issues"
	IssueLocalKnowledgeGaps  = "local_knowledge_gaps"
)

// Signal is one keyword-presence check. On a match the Strength counter and every
// Performance counter are incremented; otherwise the Issue counter is.
type Signal struct {
	Name        string
	Vocabulary  []string
	Performance []string
	Strength    string
	Issue       string

	// Match overrides the vocabulary check. It receives lowercased text.
	Match func(lowered string) bool
}

// Present reports whether the signal fires for already-lowercased text.
func (s Signal) Present(lowered string) bool {
	if s.Match != nil {
		return s.Match(lowered)
	}
	return ContainsAny(lowered, s.Vocabulary)
}

// ContainsAny reports whether text contains at least one of the terms.
func ContainsAny(text string, terms []string) bool {
	for _, term := range terms {
		if term != "" && strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// DefaultSignals returns the travel-planning signal set in evaluation order.
func DefaultSignals() []Signal {
	return []Signal{
		{
			Name:        "proposal",
			Vocabulary:  []string{"proposal", "offer", "package", "itinerary", "plan"},
			Performance: []string{PerfProposalsOffered},
			Strength:    StrengthComprehensivePlanning,
			Issue:       IssueLackOfSpecifics,
		},
		{
			Name:        "personalization",
			Vocabulary:  []string{"your", "based on", "specifically", "customized"},
			Performance: []string{PerfPersonalization},
			Strength:    StrengthPersonalizedOffers,
			Issue:       IssuePoorPersonalization,
		},
		{
			Name:        "follow_up_questions",
			Vocabulary:  []string{"could you", "would you", "do you", "what about", "when"},
			Performance: []string{PerfFollowUpQuestions},
			Strength:    StrengthGoodQuestions,
			Issue:       IssueMissingInformation,
		},
		{
			Name:        "upsell",
			Vocabulary:  []string{"premium", "upgrade", "additional", "extra", "luxury"},
			Performance: []string{PerfUpsellAttempts},
			Strength:    StrengthUpsellOpportunities,
			Issue:       IssueMissedUpsell,
		},
		{
			Name:        "budget",
			Vocabulary:  []string{"$", "dollar", "euro", "price", "cost", "budget"},
			Performance: []string{PerfSpecificDetails, PerfBudgetConsidered},
			Strength:    StrengthBudgetAware,
			Issue:       IssueBudgetIgnored,
		},
		{
			Name:        "date_flexibility",
			Vocabulary:  []string{"alternative", "different dates", "flexible", "change"},
			Performance: []string{PerfDateFlexibility},
			Strength:    StrengthFlexibleDates,
			Issue:       IssueDateIssues,
		},
		{
			Name:        "local_knowledge",
			Vocabulary:  []string{"local", "authentic", "traditional", "culture", "custom"},
			Performance: []string{PerfLocalKnowledge},
			Strength:    StrengthLocalExpertise,
			Issue:       IssueLocalKnowledgeGaps,
		},
	}
}

// schema collects every counter name the signal set and the built-in checks can touch.
func schema(signals []Signal) (performance, strengths, issues []string) {
	performance = []string{PerfQuestionsAnswered, PerfQuestionsIgnored}
	strengths = []string{StrengthQuickResponses, StrengthDetailedAnswers}
	issues = []string{IssueSlowResponses, IssueIncompleteAnswers}
	for _, s := range signals {
		performance = append(performance, s.Performance...)
		if s.Strength != "" {
			strengths = append(strengths, s.Strength)
		}
		if s.Issue != "" {
			issues = append(issues, s.Issue)
		}
	}
	return performance, strengths, issues
}
