package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/conductorhq/conductor/pkg/cmd"
	"github.com/conductorhq/conductor/pkg/log"
	"github.com/conductorhq/conductor/pkg/otelhelper"
)

const defaultPort = 9190

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "conductor-api",
		Usage:                 "Create, validate and simulate automation workflows",
		EnableShellCompletion: true,
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
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
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Conductor API")

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

			tracer, shutdownTracer, err := otelhelper.NewTracer(ctx, "conductor-api")
			if err != nil {
				logger.WarnContext(ctx, "Tracing disabled", "error", err)
			} else {
				defer func() {
					if err := shutdownTracer(ctx); err != nil {
						logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
					}
				}()
			}

			api := NewAPI(logger, persistence, catalog, bus, tracer)

			return api.Start(command.Int("port"))
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
