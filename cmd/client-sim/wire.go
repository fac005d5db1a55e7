//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/janhq/client-sim/internal/config"
	"github.com/janhq/client-sim/internal/domain/generation"
	"github.com/janhq/client-sim/internal/domain/simulator"
	"github.com/janhq/client-sim/internal/infrastructure/llmprovider"
	"github.com/janhq/client-sim/internal/infrastructure/logger"
	"github.com/janhq/client-sim/internal/infrastructure/mailer"
	"github.com/janhq/client-sim/internal/infrastructure/metrics"
)

var conversationSet = wire.NewSet(
	newMailer,
	wire.Bind(new(simulator.Transport), new(*mailer.Mailer)),
	newCompleter,
	wire.Bind(new(generation.Completer), new(*llmprovider.Client)),
	newGenerator,
	wire.Bind(new(simulator.Generator), new(*generation.Service)),
	metrics.NewRecorder,
	wire.Bind(new(simulator.Recorder), new(*metrics.Recorder)),
	newOrchestrator,
)

// BuildApplication assembles the simulator with Wire.
func BuildApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	wire.Build(
		logger.New,
		newTelemetry,
		newSanitizer,
		conversationSet,
		newHTTPServer,
		NewApplication,
	)
	return nil, nil
}
