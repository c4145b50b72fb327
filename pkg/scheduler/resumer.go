// Package scheduler resumes workflow instances whose wait step has elapsed.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/workflow"
)

const DefaultSchedule = "@every 1m"

var ErrAlreadyStarted = errors.New("resumer already started")

// Engine is the part of the workflow engine the resumer drives.
type Engine interface {
	DueInstances(ctx context.Context) ([]*models.WorkflowInstance, error)
	Resume(ctx context.Context, id string, opts workflow.ResumeOptions) (*models.ExecutionResult, error)
}

// Resumer polls for due instances on a cron schedule and resumes them one
// at a time. A failing instance is logged and skipped.
type Resumer struct {
	engine   Engine
	schedule string
	logger   *slog.Logger
	cron     *cron.Cron
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
}

func NewResumer(engine Engine, schedule string, logger *slog.Logger) (*Resumer, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	_, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid resume schedule %q: %w", schedule, err)
	}

	return &Resumer{
		engine:   engine,
		schedule: schedule,
		logger:   logger.With("module", "resumer"),
	}, nil
}

func (r *Resumer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil {
		return ErrAlreadyStarted
	}

	r.ctx, r.cancel = context.WithCancel(ctx)

	r.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err := r.cron.AddFunc(r.schedule, func() {
		r.RunOnce(r.ctx)
	})
	if err != nil {
		r.cancel()
		r.cron = nil

		return fmt.Errorf("failed to schedule resumer: %w", err)
	}

	r.cron.Start()
	r.logger.InfoContext(ctx, "Resumer started", "schedule", r.schedule)

	return nil
}

// Stop waits for a running poll to finish.
func (r *Resumer) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron == nil {
		return nil
	}

	r.cancel()

	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	r.cron = nil
	r.logger.InfoContext(ctx, "Resumer stopped")

	return nil
}

// RunOnce resumes every due instance and returns how many were resumed.
func (r *Resumer) RunOnce(ctx context.Context) int {
	due, err := r.engine.DueInstances(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to list due instances", "error", err)

		return 0
	}

	if len(due) > 0 {
		r.logger.InfoContext(ctx, "Resuming due instances", "count", len(due))
	}

	resumed := 0

	for _, instance := range due {
		if ctx.Err() != nil {
			break
		}

		result, err := r.engine.Resume(ctx, instance.ID, workflow.ResumeOptions{ResumedBy: "scheduler"})
		if err != nil {
			// Another caller may have moved the instance on since the listing.
			if workflow.IsConflict(err) {
				r.logger.DebugContext(ctx, "Skipping instance", "instance_id", instance.ID, "reason", err)

				continue
			}

			r.logger.ErrorContext(ctx, "Failed to resume instance", "instance_id", instance.ID, "error", err)

			continue
		}

		resumed++

		r.logger.InfoContext(ctx, "Instance resumed",
			"instance_id", instance.ID,
			"template_id", instance.TemplateID,
			"status", result.Status)
	}

	return resumed
}
