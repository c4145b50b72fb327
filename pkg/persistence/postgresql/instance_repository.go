package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/persistence"
)

const instanceColumns = `
	id, template_id, template_name, vehicle_id, owner_id, trigger_data,
	status, current_step, total_steps, started_at, updated_at, completed_at,
	resumed_at, cancelled_at, execution_log, next_scheduled_step, error_message
`

// InstanceRepository handles workflow instance database operations.
type InstanceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewInstanceRepository creates a new instance repository.
func NewInstanceRepository(db *sql.DB, logger *slog.Logger) *InstanceRepository {
	return &InstanceRepository{db: db, logger: logger}
}

// Save upserts an instance by id.
func (r *InstanceRepository) Save(ctx context.Context, instance *models.WorkflowInstance) error {
	if instance == nil {
		return persistence.NewInstanceError("SaveInstance", "", persistence.ErrNilInstance)
	}

	triggerDataJSON, err := json.Marshal(nonNilMap(instance.TriggerData))
	if err != nil {
		return fmt.Errorf("failed to marshal trigger data: %w", err)
	}

	log := instance.ExecutionLog
	if log == nil {
		log = []models.StepExecutionRecord{}
	}

	executionLogJSON, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to marshal execution log: %w", err)
	}

	var (
		nextStep sql.NullString
		nextFor  *time.Time
	)

	if instance.NextScheduledStep != nil {
		nextStepJSON, err := json.Marshal(instance.NextScheduledStep)
		if err != nil {
			return fmt.Errorf("failed to marshal next scheduled step: %w", err)
		}

		nextStep = sql.NullString{String: string(nextStepJSON), Valid: true}
		nextFor = &instance.NextScheduledStep.ScheduledFor
	}

	query := `
		INSERT INTO workflow_instances (
			id, template_id, template_name, vehicle_id, owner_id, trigger_data,
			status, current_step, total_steps, started_at, updated_at, completed_at,
			resumed_at, cancelled_at, execution_log, next_scheduled_step,
			next_scheduled_for, error_message
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			current_step = EXCLUDED.current_step,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at,
			resumed_at = EXCLUDED.resumed_at,
			cancelled_at = EXCLUDED.cancelled_at,
			execution_log = EXCLUDED.execution_log,
			next_scheduled_step = EXCLUDED.next_scheduled_step,
			next_scheduled_for = EXCLUDED.next_scheduled_for,
			error_message = EXCLUDED.error_message
	`

	_, err = r.db.ExecContext(ctx, query,
		instance.ID,
		instance.TemplateID,
		instance.TemplateName,
		nullString(instance.VehicleID),
		nullString(instance.OwnerID),
		triggerDataJSON,
		instance.Status,
		instance.CurrentStep,
		instance.TotalSteps,
		instance.StartedAt,
		instance.UpdatedAt,
		instance.CompletedAt,
		instance.ResumedAt,
		instance.CancelledAt,
		executionLogJSON,
		nextStep,
		nextFor,
		nullString(instance.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to save instance: %w", err)
	}

	return nil
}

// GetByID retrieves an instance by its id.
func (r *InstanceRepository) GetByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM workflow_instances WHERE id = $1`

	instance, err := r.scanInstance(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewInstanceError("InstanceByID", id, persistence.ErrInstanceNotFound)
		}

		return nil, fmt.Errorf("failed to scan instance: %w", err)
	}

	return instance, nil
}

// List returns instances matching opts ordered by start time.
func (r *InstanceRepository) List(ctx context.Context, opts persistence.ListInstancesOptions) ([]*models.WorkflowInstance, error) {
	var (
		conditions []string
		args       []any
	)

	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}

	if opts.TemplateID != "" {
		args = append(args, opts.TemplateID)
		conditions = append(conditions, "template_id = $"+strconv.Itoa(len(args)))
	}

	if opts.VehicleID != "" {
		args = append(args, opts.VehicleID)
		conditions = append(conditions, "vehicle_id = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + instanceColumns + ` FROM workflow_instances`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY started_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query instances: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	instances := []*models.WorkflowInstance{}

	for rows.Next() {
		instance, err := r.scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}

		instances = append(instances, instance)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate instances: %w", err)
	}

	return instances, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *InstanceRepository) scanInstance(row rowScanner) (*models.WorkflowInstance, error) {
	var (
		instance                            models.WorkflowInstance
		vehicleID, ownerID, errorMessage    sql.NullString
		completedAt, resumedAt, cancelledAt sql.NullTime
		triggerDataJSON, executionLogJSON   []byte
		nextStepJSON                        []byte
	)

	err := row.Scan(
		&instance.ID,
		&instance.TemplateID,
		&instance.TemplateName,
		&vehicleID,
		&ownerID,
		&triggerDataJSON,
		&instance.Status,
		&instance.CurrentStep,
		&instance.TotalSteps,
		&instance.StartedAt,
		&instance.UpdatedAt,
		&completedAt,
		&resumedAt,
		&cancelledAt,
		&executionLogJSON,
		&nextStepJSON,
		&errorMessage,
	)
	if err != nil {
		return nil, err
	}

	instance.VehicleID = vehicleID.String
	instance.OwnerID = ownerID.String
	instance.Error = errorMessage.String
	instance.CompletedAt = timePtr(completedAt)
	instance.ResumedAt = timePtr(resumedAt)
	instance.CancelledAt = timePtr(cancelledAt)

	err = json.Unmarshal(triggerDataJSON, &instance.TriggerData)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger data: %w", err)
	}

	err = json.Unmarshal(executionLogJSON, &instance.ExecutionLog)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution log: %w", err)
	}

	if len(nextStepJSON) > 0 {
		var next models.NextScheduledStep

		err = json.Unmarshal(nextStepJSON, &next)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal next scheduled step: %w", err)
		}

		instance.NextScheduledStep = &next
	}

	return &instance, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}

	v := t.Time

	return &v
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}

	return m
}
