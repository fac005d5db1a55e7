// Package generation writes the client persona's emails through a chat completion
// backend and falls back to canned text when the backend fails.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/janhq/client-sim/internal/domain/conversation"
)

// ErrEmptyCompletion is returned by completers that got a response without text.
var ErrEmptyCompletion = errors.New("completion returned no text")

// Completer runs one chat completion and returns the trimmed assistant text.
type Completer interface {
	Complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error)
}

// Kind names which email is being generated.
type Kind string

const (
	KindInitial  Kind = "initial"
	KindReply    Kind = "reply"
	KindFollowUp Kind = "follow_up"
)

// Config holds the sampling parameters per email kind.
type Config struct {
	Model             string
	Temperature       float32
	InitialMaxTokens  int
	ReplyMaxTokens    int
	FollowUpMaxTokens int
}

// DefaultConfig mirrors what the persona was tuned with.
func DefaultConfig() Config {
	return Config{
		Model:             "gpt-4o-mini",
		Temperature:       0.8,
		InitialMaxTokens:  200,
		ReplyMaxTokens:    300,
		FollowUpMaxTokens: 150,
	}
}

const fallbackReply = "Thank you for your email. I'll get back to you soon with more details."

func fallbackInitial(country string) string {
	return fmt.Sprintf("Hello! I'm planning a trip and would love your help with organizing everything. "+
		"We're a group of 4 people looking to visit %s next month. Could you help us plan the perfect itinerary?", country)
}

// Service generates client emails. It never returns an error: failures degrade to a
// fallback text, or to no follow-up at all.
type Service struct {
	completer  Completer
	config     Config
	brief      conversation.Brief
	log        zerolog.Logger
	onFallback func(Kind)
}

// Option configures a Service.
type Option func(*Service)

// WithFallbackHook is called each time a fallback replaces a completion.
func WithFallbackHook(fn func(Kind)) Option {
	return func(s *Service) {
		s.onFallback = fn
	}
}

// NewService creates a generation service for one brief.
func NewService(completer Completer, config Config, brief conversation.Brief, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		completer: completer,
		config:    config,
		brief:     brief,
		log:       log.With().Str("component", "generation").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initial writes the opening email for brief.
func (s *Service) Initial(ctx context.Context, brief conversation.Brief) string {
	text, err := s.complete(ctx, initialSystemPrompt, initialPrompt(brief), s.config.InitialMaxTokens)
	if err != nil {
		s.fallback(KindInitial, err)
		return fallbackInitial(brief.Country)
	}
	return text
}

// Reply answers latest given the whole history.
func (s *Service) Reply(ctx context.Context, history []conversation.Message, latest conversation.Message) string {
	text, err := s.complete(ctx, replySystemPrompt, replyPrompt(s.brief, history, latest), s.config.ReplyMaxTokens)
	if err != nil {
		s.fallback(KindReply, err)
		return fallbackReply
	}
	return text
}

// FollowUp writes a "forgot to mention" email from the tail of history. The second
// result is false when nothing should be sent.
func (s *Service) FollowUp(ctx context.Context, history []conversation.Message) (string, bool) {
	text, err := s.complete(ctx, followUpSystemPrompt, followUpPrompt(s.brief, history), s.config.FollowUpMaxTokens)
	if err != nil {
		s.fallback(KindFollowUp, err)
		return "", false
	}
	return text, true
}

func (s *Service) complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if s.completer == nil {
		return "", errors.New("no completer configured")
	}
	text, err := s.completer.Complete(ctx, openai.ChatCompletionRequest{
		Model: s.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: s.config.Temperature,
	})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

func (s *Service) fallback(kind Kind, err error) {
	s.log.Warn().Err(err).Str("kind", string(kind)).Msg("generation failed, using fallback")
	if s.onFallback != nil {
		s.onFallback(kind)
	}
}
