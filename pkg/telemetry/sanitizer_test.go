package telemetry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw      string
		expected PIILevel
	}{
		{"redacted", PIILevelRedacted},
		{"none", PIILevelRedacted},
		{"FULL", PIILevelFull},
		{"standard", PIILevelStandard},
		{"", PIILevelStandard},
		{"bogus", PIILevelStandard},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.raw))
		})
	}
}

func TestNewSanitizer(t *testing.T) {
	s := NewSanitizer(PIILevelStandard, "salt-1", WithMaxChars(40))
	require.NotNil(t, s)
	assert.Equal(t, PIILevelStandard, s.Level())
	assert.Equal(t, "salt-1", s.salt)
	assert.Equal(t, 40, s.maxChars)
}

func TestBody_Redacted(t *testing.T) {
	s := NewSanitizer(PIILevelRedacted, "salt")
	assert.Equal(t, "[REDACTED]", s.Body("My email is john@example.com"))
	assert.Equal(t, "", s.Body(""))
}

func TestBody_Full(t *testing.T) {
	s := NewSanitizer(PIILevelFull, "salt")
	input := "My email is john@example.com"
	assert.Equal(t, input, s.Body(input))
}

func TestBody_Standard_Email(t *testing.T) {
	s := NewSanitizer(PIILevelStandard, "salt")
	result := s.Body("Reach me at john.doe@example.com before we fly to Lima")

	assert.NotContains(t, result, "john.doe@example.com")
	assert.Contains(t, result, "[EMAIL:")
	assert.Contains(t, result, "before we fly to Lima")
}

func TestBody_Standard_Phone(t *testing.T) {
	s := NewSanitizer(PIILevelStandard, "salt")

	tests := []struct {
		name  string
		input string
	}{
		{"dashes", "Call me at 555-123-4567"},
		{"dots", "Call me at 555.123.4567"},
		{"spaces", "Call me at 555 123 4567"},
		{"no separator", "Call me at 5551234567"},
		{"country code", "Call me at +1 555-123-4567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Body(tt.input)
			assert.NotContains(t, result, "4567")
			assert.Contains(t, result, "[PHONE:")
			assert.Contains(t, result, "Call me at")
		})
	}
}

func TestBody_Standard_CardAndSSN(t *testing.T) {
	s := NewSanitizer(PIILevelStandard, "salt")

	for _, card := range []string{"4532 1234 5678 9010", "4532-1234-5678-9010", "4532123456789010"} {
		result := s.Body("Deposit card: " + card)
		assert.NotContains(t, result, "4532")
		assert.Contains(t, result, "[CC:REDACTED]")
	}

	result := s.Body("Passport backup SSN 123-45-6789")
	assert.NotContains(t, result, "123-45-6789")
	assert.Contains(t, result, "[SSN:REDACTED]")
}

func TestBody_Standard_KeepsTravelDetails(t *testing.T) {
	s := NewSanitizer(PIILevelStandard, "salt")
	input := "We are 4 people, arriving 2024-07-12, budget around $3500 for 10 days."
	assert.Equal(t, input, s.Body(input))
}

func TestBody_Truncates(t *testing.T) {
	s := NewSanitizer(PIILevelFull, "salt", WithMaxChars(10))
	result := s.Body(strings.Repeat("a", 25))
	assert.Equal(t, strings.Repeat("a", 10)+"... (25 chars)", result)

	short := "short"
	assert.Equal(t, short, s.Body(short))
}

func TestBody_TruncatesOnRunes(t *testing.T) {
	s := NewSanitizer(PIILevelFull, "salt", WithMaxChars(3))
	result := s.Body("¡Hola Perú!")
	assert.True(t, strings.HasPrefix(result, "¡Ho"))
}

func TestAddress(t *testing.T) {
	tests := []struct {
		name     string
		level    PIILevel
		addr     string
		expected string
	}{
		{"redacted", PIILevelRedacted, "agent@wandero.example", "[REDACTED]"},
		{"full", PIILevelFull, "agent@wandero.example", "agent@wandero.example"},
		{"empty", PIILevelStandard, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewSanitizer(tt.level, "salt").Address(tt.addr))
		})
	}
}

func TestAddress_StandardIsStable(t *testing.T) {
	s := NewSanitizer(PIILevelStandard, "salt")
	a := s.Address("Agent@Wandero.example")
	b := s.Address(" agent@wandero.example ")
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "[EMAIL:"))
}

func TestHash_SaltSpecific(t *testing.T) {
	s1 := NewSanitizer(PIILevelStandard, "salt-1")
	s2 := NewSanitizer(PIILevelStandard, "salt-2")

	assert.Equal(t, s1.hash("test@example.com"), s1.hash("test@example.com"))
	assert.NotEqual(t, s1.hash("test@example.com"), s2.hash("test@example.com"))
	assert.Len(t, s1.hash("x"), 8)
}

func TestBody_MultiplePII(t *testing.T) {
	s := NewSanitizer(PIILevelStandard, "salt")
	input := "Contact John at john@example.com or 555-123-4567. His SSN is 123-45-6789."
	result := s.Body(input)

	assert.NotContains(t, result, "john@example.com")
	assert.NotContains(t, result, "555-123-4567")
	assert.NotContains(t, result, "123-45-6789")
	assert.Contains(t, result, "[EMAIL:")
	assert.Contains(t, result, "[PHONE:")
	assert.Contains(t, result, "[SSN:REDACTED]")
	assert.Contains(t, result, "Contact John at")
}

func BenchmarkBody(b *testing.B) {
	s := NewSanitizer(PIILevelStandard, "salt")
	input := strings.Repeat("Contact me at john@example.com or call 555-123-4567. ", 10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Body(input)
	}
}
