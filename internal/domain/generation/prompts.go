package generation

import (
	"fmt"
	"strings"

	"github.com/janhq/client-sim/internal/domain/conversation"
)

const (
	initialSystemPrompt = "You are a realistic client planning a trip. Write natural, conversational emails " +
		"signed with a real first name, never a placeholder like [Your Name]. Be specific and authentic."
	replySystemPrompt    = "You are a realistic client planning a trip. Be natural, conversational, and authentic in your responses."
	followUpSystemPrompt = "You are a client who forgot to mention something important. Write a natural follow-up email."

	// followUpWindow is how many trailing messages the follow-up prompt sees.
	followUpWindow = 4
)

// humanTone is shared by every user prompt.
var humanTone = []string{
	`Do not include "Subject:" or any other email header in the body, only the email text`,
	"Sound human: small typos, informal wording and the odd forgotten detail are fine",
	"Don't be too perfect, write what a real person would actually send",
}

func initialPrompt(brief conversation.Brief) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a client planning a trip to %s. Write a first email to %s, a travel planning service, asking for help planning the trip.\n\n",
		brief.Country, brief.Counterpart())
	fmt.Fprintf(&b, "Company context: %s in %s\n\n", brief.CompanyName, brief.Country)
	writeInstructions(&b, append([]string{
		"Write a natural, realistic first email",
		"Mention the basics: number of travellers, rough dates, what you want to see",
		fmt.Sprintf("Ask specifically for help with a trip to %s and name real cities, regions or attractions there", brief.Country),
		"Be friendly and excited about the trip, but keep it short",
		`Use casual phrases like "hey", "thanks so much" or "that sounds great"`,
	}, humanTone...))
	b.WriteString("\nWrite the email:")
	return b.String()
}

func replyPrompt(brief conversation.Brief, history []conversation.Message, latest conversation.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a realistic client planning a trip to %s, emailing %s, a travel planning service.\n\n",
		brief.Country, brief.Counterpart())
	fmt.Fprintf(&b, "Company context: %s in %s\n\n", brief.CompanyName, brief.Country)
	b.WriteString("Conversation so far:\n")
	writeTranscript(&b, brief, history, "\n\n")
	fmt.Fprintf(&b, "\nLatest email from %s:\n%s\n\n", brief.Counterpart(), latest.Body)
	writeInstructions(&b, append([]string{
		"Answer like a real client would: give requested information (sometimes forgetting a detail), ask clarifying questions, request changes or confirm plans",
		"Ask about concrete things such as prices, dates and locations",
		fmt.Sprintf("If asked for information, give realistic details about travelling in %s", brief.Country),
		"If you received a proposal, either confirm it or ask for specific changes",
		fmt.Sprintf("Keep the focus on %s: specific cities, regions or attractions", brief.Country),
		"Keep it concise and show genuine interest",
	}, humanTone...))
	fmt.Fprintf(&b, "\nWrite your reply to %s's latest email:", brief.Counterpart())
	return b.String()
}

func followUpPrompt(brief conversation.Brief, history []conversation.Message) string {
	if len(history) > followUpWindow {
		history = history[len(history)-followUpWindow:]
	}
	var b strings.Builder
	b.WriteString("Based on the conversation below, write a short follow-up email in which the client remembers something they forgot to mention.\n\n")
	b.WriteString("Conversation so far:\n")
	writeTranscript(&b, brief, history, "\n")
	b.WriteString("\n")
	writeInstructions(&b, append([]string{
		`Open with something like "Oops, I forgot to mention..." or "By the way..."`,
		"Add one realistic forgotten detail: dietary restrictions, accessibility needs or a special request",
		`Keep it brief and casual, "hey", "btw" and "thanks" are fine`,
	}, humanTone...))
	b.WriteString("\nWrite the follow-up email:")
	return b.String()
}

func writeTranscript(b *strings.Builder, brief conversation.Brief, history []conversation.Message, sep string) {
	for _, msg := range history {
		fmt.Fprintf(b, "%s: %s%s", brief.Label(msg.Sender), msg.Body, sep)
	}
}

func writeInstructions(b *strings.Builder, lines []string) {
	b.WriteString("Instructions:\n")
	for i, line := range lines {
		fmt.Fprintf(b, "%d. %s\n", i+1, line)
	}
}
