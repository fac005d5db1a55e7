package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/janhq/client-sim/internal/config"
	"github.com/janhq/client-sim/internal/domain/conversation"
	"github.com/janhq/client-sim/internal/domain/generation"
	"github.com/janhq/client-sim/internal/domain/retry"
	"github.com/janhq/client-sim/internal/domain/simulator"
	"github.com/janhq/client-sim/internal/infrastructure/llmprovider"
	"github.com/janhq/client-sim/internal/infrastructure/logger"
	"github.com/janhq/client-sim/internal/infrastructure/mailer"
	"github.com/janhq/client-sim/internal/infrastructure/metrics"
	"github.com/janhq/client-sim/internal/interfaces/httpserver"
	"github.com/janhq/client-sim/pkg/observability"
	"github.com/janhq/client-sim/pkg/observability/middleware"
	"github.com/janhq/client-sim/pkg/telemetry"
)

// Application runs one conversation next to the optional status API.
type Application struct {
	orchestrator *simulator.Orchestrator
	httpServer   *httpserver.HttpServer
	telemetry    *observability.Provider
	log          zerolog.Logger
}

func NewApplication(orchestrator *simulator.Orchestrator, httpServer *httpserver.HttpServer, telemetry *observability.Provider, log zerolog.Logger) *Application {
	return &Application{
		orchestrator: orchestrator,
		httpServer:   httpServer,
		telemetry:    telemetry,
		log:          log,
	}
}

// Start runs the conversation to completion. The status API is shut down once the
// conversation ends.
func (a *Application) Start(ctx context.Context) (*simulator.Result, error) {
	eg, egCtx := errgroup.WithContext(ctx)
	serverCtx, stopServer := context.WithCancel(egCtx)
	defer stopServer()

	var result *simulator.Result
	eg.Go(func() error {
		defer stopServer()
		res, err := a.orchestrator.Run(egCtx)
		result = res
		return err
	})
	if a.httpServer != nil {
		eg.Go(func() error {
			return a.httpServer.Run(serverCtx)
		})
	}

	err := eg.Wait()
	return result, err
}

// Shutdown flushes telemetry exporters.
func (a *Application) Shutdown(ctx context.Context) error {
	if a.telemetry == nil {
		return nil
	}
	return a.telemetry.Shutdown(ctx)
}

// buildApplication wires the application by hand; wire.go declares the same graph.
func buildApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.New(cfg)

	provider, err := newTelemetry(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sanitizer := newSanitizer(cfg)
	recorder := metrics.NewRecorder()

	transport, err := newMailer(cfg, sanitizer, log)
	if err != nil {
		return nil, err
	}
	completer := newCompleter(cfg)
	generator := newGenerator(cfg, completer, recorder, log)

	orchestrator, err := newOrchestrator(cfg, transport, generator, recorder, provider, sanitizer, log)
	if err != nil {
		return nil, err
	}
	httpServer := newHTTPServer(cfg, orchestrator, completer, sanitizer, provider, log)

	return NewApplication(orchestrator, httpServer, provider, log), nil
}

func newTelemetry(ctx context.Context, cfg *config.Config) (*observability.Provider, error) {
	obsCfg := observability.DefaultConfig(cfg.ServiceName)
	obsCfg.ServiceVersion = version
	obsCfg.Environment = cfg.Environment
	obsCfg.TracingEnabled = cfg.EnableTracing
	obsCfg.MetricsEnabled = cfg.EnableMetrics
	if cfg.OTLPEndpoint != "" {
		obsCfg.OTLPEndpoint = cfg.OTLPEndpoint
	}
	provider, err := observability.Init(ctx, obsCfg)
	if err != nil {
		return nil, fmt.Errorf("initialize observability: %w", err)
	}
	return provider, nil
}

func newSanitizer(cfg *config.Config) *telemetry.Sanitizer {
	return telemetry.NewSanitizer(telemetry.ParseLevel(cfg.PIILevel), cfg.ServiceName, telemetry.WithMaxChars(500))
}

func newMailer(cfg *config.Config, sanitizer *telemetry.Sanitizer, log zerolog.Logger) (*mailer.Mailer, error) {
	return mailer.New(mailer.Config{
		Address:       cfg.Mail.Address,
		Password:      cfg.Mail.Password,
		IMAPHost:      cfg.Mail.IMAPHost,
		IMAPPort:      cfg.Mail.IMAPPort,
		Mailbox:       cfg.Mail.Mailbox,
		SMTPHost:      cfg.Mail.SMTPHost,
		SMTPPort:      cfg.Mail.SMTPPort,
		DialTimeout:   cfg.Mail.DialTimeout,
		SeenCacheSize: cfg.Mail.SeenCacheSize,
		RedactAddress: sanitizer.Address,
	}, log)
}

func newCompleter(cfg *config.Config) *llmprovider.Client {
	return llmprovider.NewClient(llmprovider.Config{
		BaseURL:         cfg.LLM.BaseURL,
		APIKey:          cfg.LLM.APIKey,
		Timeout:         cfg.LLM.Timeout,
		BreakerFailures: cfg.LLM.BreakerFailures,
		BreakerTimeout:  cfg.LLM.BreakerTimeout,
	})
}

func newBrief(cfg *config.Config) conversation.Brief {
	return conversation.Brief{
		CompanyName:     cfg.Conversation.CompanyName,
		Country:         cfg.Conversation.Country,
		CounterpartName: cfg.Conversation.CounterpartName,
	}
}

func newGenerator(cfg *config.Config, completer generation.Completer, recorder *metrics.Recorder, log zerolog.Logger) *generation.Service {
	genCfg := generation.DefaultConfig()
	genCfg.Model = cfg.LLM.Model
	genCfg.Temperature = cfg.LLM.Temperature
	return generation.NewService(completer, genCfg, newBrief(cfg), log,
		generation.WithFallbackHook(func(kind generation.Kind) {
			recorder.GenerationFallback(string(kind))
		}),
	)
}

func newSettings(cfg *config.Config) simulator.Settings {
	conv := cfg.Conversation
	settings := simulator.DefaultSettings()
	settings.Brief = newBrief(cfg)
	settings.To = cfg.Mail.CounterpartAddress
	settings.Subject = cfg.Mail.Subject
	settings.MessageIDDomain = cfg.Mail.MessageIDDomain
	settings.PollInterval = conv.PollInterval
	settings.MaxRounds = conv.MaxRounds
	settings.Retry = retry.Policy{MaxRetries: conv.MaxSendRetries, Delay: conv.RetryDelay}
	settings.MaxPollFailures = conv.MaxPollFailures
	settings.MaxIdlePolls = conv.MaxIdlePolls
	settings.FollowUpProbability = conv.FollowUpProbability
	settings.FollowUpMinRounds = conv.FollowUpMinRounds
	settings.FollowUpDelayMin = conv.FollowUpDelayMin
	settings.FollowUpDelayMax = conv.FollowUpDelayMax
	return settings
}

func newOrchestrator(
	cfg *config.Config,
	transport simulator.Transport,
	generator simulator.Generator,
	recorder simulator.Recorder,
	provider *observability.Provider,
	sanitizer *telemetry.Sanitizer,
	log zerolog.Logger,
) (*simulator.Orchestrator, error) {
	id := simulator.NewID()
	rounds, err := provider.Rounds(id)
	if err != nil {
		return nil, fmt.Errorf("create round instrumenter: %w", err)
	}
	return simulator.New(newSettings(cfg), transport, generator,
		simulator.WithID(id),
		simulator.WithLogger(log),
		simulator.WithRecorder(recorder),
		simulator.WithRoundTracer(rounds),
		simulator.WithRedactor(sanitizer.Body),
		simulator.WithAddressRedactor(sanitizer.Address),
	), nil
}

func newHTTPServer(
	cfg *config.Config,
	orchestrator *simulator.Orchestrator,
	completer *llmprovider.Client,
	sanitizer *telemetry.Sanitizer,
	provider *observability.Provider,
	log zerolog.Logger,
) *httpserver.HttpServer {
	if !cfg.HTTPEnabled {
		return nil
	}
	deps := httpserver.Dependencies{
		"llm": func() string { return completer.State().String() },
	}
	instrument := middleware.HTTPMiddleware(provider.Tracer, provider.Meter, provider.Prefix())
	return httpserver.New(cfg, log, orchestrator, sanitizer.Body, deps, instrument)
}

// exitCode maps a run error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return 0
	case errors.Is(err, simulator.ErrRetriesExhausted):
		return 2
	default:
		return 1
	}
}
