// Package telemetry scrubs personal data from email text before it is logged or
// exposed through the status API.
package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// PIILevel defines how much of an email body survives sanitization.
type PIILevel string

const (
	// PIILevelRedacted replaces every body with a placeholder
	PIILevelRedacted PIILevel = "redacted"
	// PIILevelStandard hashes addresses and phone numbers, drops card and SSN numbers
	PIILevelStandard PIILevel = "standard"
	// PIILevelFull performs no sanitization
	PIILevelFull PIILevel = "full"
)

const redacted = "[REDACTED]"

// ParseLevel maps a config value to a level, defaulting to standard.
func ParseLevel(raw string) PIILevel {
	switch PIILevel(strings.ToLower(strings.TrimSpace(raw))) {
	case PIILevelRedacted, "none":
		return PIILevelRedacted
	case PIILevelFull:
		return PIILevelFull
	default:
		return PIILevelStandard
	}
}

type piiPattern struct {
	label  string
	re     *regexp.Regexp
	hashed bool
}

// Sanitizer handles PII detection and sanitization for email text
type Sanitizer struct {
	level    PIILevel
	salt     string
	maxChars int

	// applied in order; card and SSN run before phone so their digits are gone first
	patterns []piiPattern
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithMaxChars truncates sanitized bodies to n runes. 0 disables truncation.
func WithMaxChars(n int) Option {
	return func(s *Sanitizer) {
		if n >= 0 {
			s.maxChars = n
		}
	}
}

// NewSanitizer creates a sanitizer. salt keeps hashes stable within one deployment.
func NewSanitizer(level PIILevel, salt string, opts ...Option) *Sanitizer {
	s := &Sanitizer{
		level: level,
		salt:  salt,
		patterns: []piiPattern{
			{label: "EMAIL", re: regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), hashed: true},
			{label: "CC", re: regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`)},
			{label: "SSN", re: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
			{label: "PHONE", re: regexp.MustCompile(`(?:\+\d{1,3}[-.\s]?)?\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`), hashed: true},
			{label: "IP", re: regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), hashed: true},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Level returns the configured level.
func (s *Sanitizer) Level() PIILevel {
	return s.level
}

// Body sanitizes an email body according to the configured level.
func (s *Sanitizer) Body(input string) string {
	if input == "" {
		return ""
	}
	switch s.level {
	case PIILevelRedacted:
		return redacted
	case PIILevelFull:
		return s.truncate(input)
	default:
		return s.truncate(s.hashPII(input))
	}
}

// Address sanitizes a single email address.
func (s *Sanitizer) Address(addr string) string {
	if addr == "" {
		return ""
	}
	switch s.level {
	case PIILevelRedacted:
		return redacted
	case PIILevelFull:
		return addr
	default:
		return fmt.Sprintf("[EMAIL:%s]", s.hash(strings.ToLower(strings.TrimSpace(addr))))
	}
}

// hashPII detects and replaces PII in the input string
func (s *Sanitizer) hashPII(input string) string {
	result := input
	for _, p := range s.patterns {
		p := p
		result = p.re.ReplaceAllStringFunc(result, func(match string) string {
			if p.hashed {
				return fmt.Sprintf("[%s:%s]", p.label, s.hash(match))
			}
			return fmt.Sprintf("[%s:REDACTED]", p.label)
		})
	}
	return result
}

func (s *Sanitizer) truncate(input string) string {
	if s.maxChars <= 0 || utf8.RuneCountInString(input) <= s.maxChars {
		return input
	}
	runes := []rune(input)
	return fmt.Sprintf("%s... (%d chars)", string(runes[:s.maxChars]), len(runes))
}

// hash creates a short SHA-256 hash with the salt
func (s *Sanitizer) hash(data string) string {
	h := sha256.New()
	h.Write([]byte(data + s.salt))
	return hex.EncodeToString(h.Sum(nil))[:8]
}
