// Package main provides the automotive workflow API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/tirs/Automotive-database-demo/pkg/catalog"
	"github.com/tirs/Automotive-database-demo/pkg/conditions"
	"github.com/tirs/Automotive-database-demo/pkg/enrichment"
	"github.com/tirs/Automotive-database-demo/pkg/eventbus"
	"github.com/tirs/Automotive-database-demo/pkg/notifications"
	"github.com/tirs/Automotive-database-demo/pkg/persistence"
	"github.com/tirs/Automotive-database-demo/pkg/scheduler"
	"github.com/tirs/Automotive-database-demo/pkg/web"
	"github.com/tirs/Automotive-database-demo/pkg/workflow"
	"go.opentelemetry.io/otel/trace"
)

const shutdownTimeout = 10 * time.Second

type Config struct {
	StepTimeout      time.Duration
	StrictWaitConfig bool
	ResumeSchedule   string
	// Tracer overrides the global tracer for engine spans.
	Tracer trace.Tracer
}

type API struct {
	logger        *slog.Logger
	persistence   persistence.InstanceStore
	eventBus      eventbus.EventBus
	templates     *catalog.Catalog
	notifications *notifications.Service
	mailer        *notifications.Mailer
	engine        *workflow.Engine
	resumer       *scheduler.Resumer
	validate      *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.InstanceStore,
	eventBus eventbus.EventBus,
	templates *catalog.Catalog,
	config Config,
) (*API, error) {
	notificationService := notifications.NewService(logger, notifications.WithPublisher(eventBus))

	executor := workflow.NewExecutor(workflow.Collaborators{
		Notifier:      notifications.NewDispatcher(eventBus, logger),
		Notifications: notificationService,
		Conditions:    conditions.NewRegistry(logger),
		Enricher:      enrichment.NewService(logger),
	}, logger,
		workflow.WithStepTimeout(config.StepTimeout),
		workflow.WithStrictWaitConfig(config.StrictWaitConfig),
	)

	engineOptions := []workflow.Option{workflow.WithEventBus(eventBus)}
	if config.Tracer != nil {
		engineOptions = append(engineOptions, workflow.WithTracer(config.Tracer))
	}

	engine := workflow.NewEngine(templates, persistence, executor, logger, engineOptions...)

	resumer, err := scheduler.NewResumer(engine, config.ResumeSchedule, logger)
	if err != nil {
		return nil, err
	}

	return &API{
		logger:        logger,
		persistence:   persistence,
		eventBus:      eventBus,
		templates:     templates,
		notifications: notificationService,
		mailer:        notifications.NewMailer(logger),
		engine:        engine,
		resumer:       resumer,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.templates, a.engine, a.notifications, a.persistence, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Automotive Workflow API")
	})

	handlers.Register(app)

	return app
}

// Start subscribes the mailer, starts the resumer and serves HTTP until ctx
// is cancelled.
func (a *API) Start(ctx context.Context, port int) error {
	err := a.mailer.Register(a.eventBus)
	if err != nil {
		return fmt.Errorf("failed to register mailer: %w", err)
	}

	err = a.eventBus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to event bus: %w", err)
	}

	err = a.resumer.Start(ctx)
	if err != nil {
		return err
	}

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := a.resumer.Stop(stopCtx); err != nil {
			a.logger.ErrorContext(ctx, "Failed to stop resumer", "error", err)
		}
	}()

	app := a.App()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			a.logger.ErrorContext(shutdownCtx, "Failed to shut down HTTP server", "error", err)
		}
	}()

	a.logger.InfoContext(ctx, "Automotive workflow API listening",
		"port", port,
		"templates", a.templates.Len())

	return app.Listen(":" + strconv.Itoa(port))
}
