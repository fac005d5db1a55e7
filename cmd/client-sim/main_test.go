package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/client-sim/internal/config"
	"github.com/janhq/client-sim/internal/domain/analytics"
	"github.com/janhq/client-sim/internal/domain/simulator"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"clean", nil, 0},
		{"interrupted", context.Canceled, 0},
		{"retries exhausted", fmt.Errorf("%w after 6 attempts: smtp down", simulator.ErrRetriesExhausted), 2},
		{"no reply", simulator.ErrNoReply, 1},
		{"other", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestApplyRunFlags(t *testing.T) {
	cfg := &config.Config{}
	cfg.Conversation.MaxRounds = 50
	cfg.Conversation.PollInterval = 2 * time.Minute

	require.NoError(t, runCmd.Flags().Set("rounds", "4"))
	require.NoError(t, runCmd.Flags().Set("poll-interval", "15s"))
	t.Cleanup(func() {
		_ = runCmd.Flags().Set("rounds", "0")
		_ = runCmd.Flags().Set("poll-interval", "0s")
	})

	require.NoError(t, applyRunFlags(runCmd, cfg))
	assert.Equal(t, 4, cfg.Conversation.MaxRounds)
	assert.Equal(t, 15*time.Second, cfg.Conversation.PollInterval)
}

func TestNewSettings(t *testing.T) {
	cfg := &config.Config{}
	cfg.Mail.CounterpartAddress = "agent@wandero.example"
	cfg.Mail.Subject = "Trip Planning Request"
	cfg.Mail.MessageIDDomain = "wandero-simulator"
	cfg.Conversation = config.ConversationConfig{
		CompanyName:         "Andes Trails",
		Country:             "Peru",
		PollInterval:        time.Minute,
		MaxRounds:           7,
		RetryDelay:          3 * time.Second,
		MaxSendRetries:      4,
		MaxPollFailures:     9,
		FollowUpProbability: 0.2,
		FollowUpMinRounds:   1,
		FollowUpDelayMin:    time.Second,
		FollowUpDelayMax:    2 * time.Second,
	}

	s := newSettings(cfg)
	assert.Equal(t, "agent@wandero.example", s.To)
	assert.Equal(t, "Peru", s.Brief.Country)
	assert.Equal(t, "Wandero", s.Brief.Counterpart())
	assert.Equal(t, 7, s.MaxRounds)
	assert.Equal(t, 4, s.Retry.MaxRetries)
	assert.Equal(t, 3*time.Second, s.Retry.Delay)
	assert.Equal(t, 9, s.MaxPollFailures)
	assert.InDelta(t, 0.2, s.FollowUpProbability, 1e-9)
}

func TestConfigCommands(t *testing.T) {
	t.Setenv("EMAIL_PASSWORD", "app-password")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"version"}, version},
		{[]string{"config", "schema"}, "client-sim configuration"},
		{[]string{"config", "show"}, "********"},
	}
	for _, tt := range tests {
		t.Run(tt.args[len(tt.args)-1], func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetArgs(tt.args)
			t.Cleanup(func() {
				rootCmd.SetOut(nil)
				rootCmd.SetArgs(nil)
			})

			require.NoError(t, rootCmd.Execute())
			assert.Contains(t, out.String(), tt.want)
			assert.NotContains(t, out.String(), "app-password")
		})
	}
}

func TestPrintResult(t *testing.T) {
	color.NoColor = true

	var out bytes.Buffer
	printResult(&out, &simulator.Result{
		Rounds:  3,
		Summary: analytics.Summary{Score: 64},
		Report:  "WANDERO PERFORMANCE ANALYSIS",
	})
	assert.Equal(t, "WANDERO PERFORMANCE ANALYSIS\nFinal score: 64.0/100 after 3 rounds\n", out.String())

	out.Reset()
	printResult(&out, nil)
	assert.Empty(t, out.String())
}
