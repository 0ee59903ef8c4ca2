// Package main provides the Conductor dispatcher: it subscribes the workflow
// engine to the event bus and emits schedule ticks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/conductorhq/conductor/pkg/cmd"
	"github.com/conductorhq/conductor/pkg/log"
	"github.com/conductorhq/conductor/pkg/otelhelper"
	"github.com/conductorhq/conductor/pkg/workflow"
)

func main() {
	command := &cli.Command{
		Name:                  "conductor-dispatcher",
		Usage:                 "Run active workflows against incoming analytics events",
		EnableShellCompletion: true,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "dispatcher-id",
				Aliases: []string{"id"},
				Usage:   "Custom dispatcher ID (auto-generated if not provided)",
				Value:   "",
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		}, cmd.EventBusFlags()...),
		Action: run,
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	dispatcherID := command.String("dispatcher-id")
	if dispatcherID == "" {
		dispatcherID = fmt.Sprintf("dispatcher-%s", uuid.New().String()[:8])
	}

	logger := log.WithModule("dispatcher").With("dispatcher_id", dispatcherID)

	logger.InfoContext(ctx, "Initializing Conductor Dispatcher")

	persistence := cmd.NewPersistence(command.String("database-url"))

	defer func() {
		err := persistence.Close(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	bus, err := cmd.NewEventBus(command, logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := bus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	catalog := cmd.NewCatalog(logger, bus)

	tracer, shutdownTracer, err := otelhelper.NewTracer(ctx, "conductor-dispatcher")
	if err != nil {
		logger.WarnContext(ctx, "Tracing disabled", "error", err)
	} else {
		defer func() {
			if err := shutdownTracer(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
			}
		}()
	}

	engine := workflow.NewEngine(persistence, catalog, bus, logger)
	if tracer != nil {
		engine.Executor().WithTracer(tracer)
	}

	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = engine.Start(runCtx)
	if err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	logger.InfoContext(runCtx, "Dispatcher started")

	NewScheduler(persistence, bus, logger).Start(runCtx)

	logger.InfoContext(ctx, "Dispatcher stopped")

	return nil
}
