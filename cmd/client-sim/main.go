package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/janhq/client-sim/internal/config"
	"github.com/janhq/client-sim/internal/domain/simulator"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		code := 1
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			code = exitErr.code
		}
		os.Exit(code)
	}
}

// exitError carries a process exit status out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

var rootCmd = &cobra.Command{
	Use:   "client-sim",
	Short: "Simulated travel client that emails a travel agency and grades its replies",
	Long: `client-sim plays a prospective client planning a trip. It emails the agency,
waits for each reply, answers it, and scores how the agency responded.

Examples:
  client-sim run
  client-sim run --rounds 5 --poll-interval 30s
  client-sim config show
  client-sim config schema`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		for _, err := range config.LoadEnvFiles() {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one conversation and print the performance report",
	RunE:  runConversation,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration inspection commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML (secrets masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Parse()
		if err != nil {
			return err
		}
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := config.Schema()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSchemaCmd)

	runCmd.Flags().Int("rounds", 0, "Maximum receive/reply rounds (overrides MAX_ROUNDS)")
	runCmd.Flags().Duration("poll-interval", 0, "Inbox poll interval (overrides POLL_INTERVAL)")
}

func runConversation(cmd *cobra.Command, args []string) error {
	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			app.log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	result, runErr := app.Start(ctx)
	printResult(cmd.OutOrStdout(), result)
	if code := exitCode(runErr); code != 0 {
		return &exitError{code: code, err: runErr}
	}
	return nil
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	rounds, err := cmd.Flags().GetInt("rounds")
	if err != nil {
		return err
	}
	if rounds > 0 {
		cfg.Conversation.MaxRounds = rounds
	}
	interval, err := cmd.Flags().GetDuration("poll-interval")
	if err != nil {
		return err
	}
	if interval > 0 {
		cfg.Conversation.PollInterval = interval
	}
	return nil
}

// printResult writes the report followed by a colored score line.
func printResult(w io.Writer, result *simulator.Result) {
	if result == nil {
		return
	}
	fmt.Fprintln(w, result.Report)

	score := color.New(color.FgRed, color.Bold)
	switch {
	case result.Summary.Score >= 70:
		score = color.New(color.FgGreen, color.Bold)
	case result.Summary.Score >= 40:
		score = color.New(color.FgYellow, color.Bold)
	}
	score.Fprintf(w, "Final score: %.1f/100 after %d rounds\n", result.Summary.Score, result.Rounds)
}
