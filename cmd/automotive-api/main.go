package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tirs/Automotive-database-demo/pkg/catalog"
	"github.com/tirs/Automotive-database-demo/pkg/cmd"
	"github.com/tirs/Automotive-database-demo/pkg/log"
	"github.com/tirs/Automotive-database-demo/pkg/otelhelper"
	"github.com/tirs/Automotive-database-demo/pkg/scheduler"
	"github.com/tirs/Automotive-database-demo/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 8000

func main() {
	command := &cli.Command{
		Name:                  "automotive-api",
		Usage:                 "Run the automotive workflow automation API",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Instance store URL (memory://, file://path, postgres://..., redis://...)",
				Value:   "memory://",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "templates-path",
				Usage:   "Directory with additional YAML workflow templates",
				Sources: cli.EnvVars("TEMPLATES_PATH"),
			},
			&cli.DurationFlag{
				Name:    "step-timeout",
				Usage:   "Maximum duration of a single workflow step",
				Value:   workflow.DefaultStepTimeout,
				Sources: cli.EnvVars("STEP_TIMEOUT"),
			},
			&cli.BoolFlag{
				Name:    "strict-wait-config",
				Usage:   "Fail wait steps with an invalid configuration instead of resuming immediately",
				Sources: cli.EnvVars("STRICT_WAIT_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "resume-schedule",
				Usage:   "Cron schedule for resuming due workflow instances",
				Value:   scheduler.DefaultSchedule,
				Sources: cli.EnvVars("RESUME_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OpenTelemetry traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := command.Run(ctx, os.Args)
	if err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	logger := log.WithModule("api")
	logger.InfoContext(ctx, "Initializing automotive workflow API")

	config := Config{
		StepTimeout:      command.Duration("step-timeout"),
		StrictWaitConfig: command.Bool("strict-wait-config"),
		ResumeSchedule:   command.String("resume-schedule"),
	}

	if command.Bool("tracing") {
		tracer, shutdown, err := otelhelper.NewTracer(ctx, "automotive-api")
		if err != nil {
			return err
		}

		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.ErrorContext(ctx, "Failed to shut down tracer provider", "error", err)
			}
		}()

		config.Tracer = tracer
	}

	templates, err := catalog.Load(command.String("templates-path"))
	if err != nil {
		return err
	}

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	api, err := NewAPI(logger, persistence, eventBus, templates, config)
	if err != nil {
		return err
	}

	return api.Start(ctx, command.Int("port"))
}
