package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tirs/Automotive-database-demo/pkg/catalog"
	"github.com/tirs/Automotive-database-demo/pkg/conditions"
	"github.com/tirs/Automotive-database-demo/pkg/enrichment"
	"github.com/tirs/Automotive-database-demo/pkg/mocks"
	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/notifications"
	"github.com/tirs/Automotive-database-demo/pkg/persistence/memory"
	"github.com/tirs/Automotive-database-demo/pkg/web"
	"github.com/tirs/Automotive-database-demo/pkg/workflow"
)

var startTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	clock := func() time.Time { return startTime }

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	store := memory.NewPersistence()
	notificationService := notifications.NewService(logger, notifications.WithClock(clock))

	executor := workflow.NewExecutor(workflow.Collaborators{
		Notifier:      notifications.NewDispatcher(bus, logger),
		Notifications: notificationService,
		Conditions:    conditions.NewRegistry(logger),
		Enricher:      enrichment.NewService(logger, enrichment.WithClock(clock)),
	}, logger)

	engine := workflow.NewEngine(catalog.NewDefault(), store, executor, logger,
		workflow.WithClock(clock), workflow.WithEventBus(bus))

	handlers := web.NewAPIHandlers(
		catalog.NewDefault(),
		engine,
		notificationService,
		store,
		validator.New(validator.WithRequiredStructEnabled()),
	)

	app := fiber.New()
	handlers.Register(app)

	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()

	var value T
	require.NoError(t, json.Unmarshal(data, &value))

	return value
}

func problemType(t *testing.T, data []byte) string {
	t.Helper()

	problem := decode[map[string]any](t, data)

	kind, _ := problem["type"].(string)

	return kind
}

func trigger(t *testing.T, app *fiber.App, templateID string) *models.ExecutionResult {
	t.Helper()

	status, body := doRequest(t, app, http.MethodPost, "/api/workflows/trigger", map[string]any{
		"template_id":  templateID,
		"vehicle_id":   "vehicle-1",
		"owner_id":     "owner-1",
		"trigger_data": map[string]any{"vin": "4T1BF1FK5MU000004"},
	})
	require.Equal(t, http.StatusOK, status, string(body))

	result := decode[models.ExecutionResult](t, body)

	return &result
}

func TestAPIHandlers_Templates(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/api/workflows/templates", nil)
	require.Equal(t, http.StatusOK, status)

	templates := decode[[]map[string]any](t, body)
	require.Len(t, templates, 5)
	assert.Equal(t, "wf-001", templates[0]["id"])
	assert.Equal(t, "wf-005", templates[4]["id"])

	status, body = doRequest(t, app, http.MethodGet, "/api/workflows/templates/wf-003", nil)
	require.Equal(t, http.StatusOK, status)

	template := decode[map[string]any](t, body)
	assert.Equal(t, "Service Due Reminder Sequence", template["name"])
	assert.Len(t, template["steps"], 5)

	status, body = doRequest(t, app, http.MethodGet, "/api/workflows/templates/wf-999", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "template_not_found", problemType(t, body))
}

func TestAPIHandlers_TriggerWorkflow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
		expectedType   string
		validateResult func(t *testing.T, result models.ExecutionResult)
	}{
		{
			name:           "completes without waits",
			requestBody:    map[string]any{"template_id": "wf-004", "vehicle_id": "vehicle-1"},
			expectedStatus: http.StatusOK,
			validateResult: func(t *testing.T, result models.ExecutionResult) {
				t.Helper()
				assert.Equal(t, models.InstanceStatusCompleted, result.Status)
				assert.Equal(t, 3, result.StepsCompleted)
				assert.Equal(t, 3, result.TotalSteps)
				assert.Len(t, result.ExecutionLog, 3)
				assert.Nil(t, result.NextScheduledStep)
			},
		},
		{
			name:           "suspends at a wait",
			requestBody:    map[string]any{"template_id": "wf-003", "vehicle_id": "vehicle-1"},
			expectedStatus: http.StatusOK,
			validateResult: func(t *testing.T, result models.ExecutionResult) {
				t.Helper()
				assert.Equal(t, models.InstanceStatusRunning, result.Status)
				assert.Equal(t, 1, result.StepsCompleted)
				assert.Len(t, result.ExecutionLog, 2)
				require.NotNil(t, result.NextScheduledStep)
				assert.Equal(t, 1, result.NextScheduledStep.StepIndex)
			},
		},
		{
			name:           "unknown template",
			requestBody:    map[string]any{"template_id": "wf-999"},
			expectedStatus: http.StatusNotFound,
			expectedType:   "template_not_found",
		},
		{
			name:           "missing template id",
			requestBody:    map[string]any{"vehicle_id": "vehicle-1"},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "invalid json",
			requestBody:    "not an object",
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := setupTestApp(t)

			status, body := doRequest(t, app, http.MethodPost, "/api/workflows/trigger", tt.requestBody)
			require.Equal(t, tt.expectedStatus, status, string(body))

			if tt.expectedType != "" {
				assert.Equal(t, tt.expectedType, problemType(t, body))
			}

			if tt.validateResult != nil {
				tt.validateResult(t, decode[models.ExecutionResult](t, body))
			}
		})
	}
}

func TestAPIHandlers_Instances(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	running := trigger(t, app, "wf-003")
	completed := trigger(t, app, "wf-004")

	status, body := doRequest(t, app, http.MethodGet, "/api/workflows/instances", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.WorkflowInstance](t, body), 2)

	status, body = doRequest(t, app, http.MethodGet, "/api/workflows/instances?status=completed", nil)
	require.Equal(t, http.StatusOK, status)

	instances := decode[[]models.WorkflowInstance](t, body)
	require.Len(t, instances, 1)
	assert.Equal(t, completed.InstanceID, instances[0].ID)

	status, body = doRequest(t, app, http.MethodGet, "/api/workflows/instances?status=sleeping", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", problemType(t, body))

	status, body = doRequest(t, app, http.MethodGet, "/api/workflows/instances/"+running.InstanceID, nil)
	require.Equal(t, http.StatusOK, status)

	instance := decode[models.WorkflowInstance](t, body)
	assert.Equal(t, "wf-003", instance.TemplateID)
	assert.Equal(t, models.InstanceStatusRunning, instance.Status)
	assert.Equal(t, "vehicle-1", instance.VehicleID)

	status, body = doRequest(t, app, http.MethodGet, "/api/workflows/instances/inst-missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "instance_not_found", problemType(t, body))
}

func TestAPIHandlers_ResumeInstance(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	started := trigger(t, app, "wf-001")
	require.Equal(t, models.InstanceStatusRunning, started.Status)

	target := "/api/workflows/instances/" + started.InstanceID + "/resume"

	status, body := doRequest(t, app, http.MethodPost, target, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "resume_not_due", problemType(t, body))

	status, body = doRequest(t, app, http.MethodPost, target+"?force=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", problemType(t, body))

	status, body = doRequest(t, app, http.MethodPost, target+"?force=true", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	result := decode[models.ExecutionResult](t, body)
	assert.Equal(t, models.InstanceStatusCompleted, result.Status)
	assert.Equal(t, 3, result.StepsCompleted)
	assert.Len(t, result.ExecutionLog, 3)

	status, body = doRequest(t, app, http.MethodPost, target+"?force=true", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", problemType(t, body))

	status, _ = doRequest(t, app, http.MethodPost, "/api/workflows/instances/inst-missing/resume", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_PauseAndCancel(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	started := trigger(t, app, "wf-003")
	base := "/api/workflows/instances/" + started.InstanceID

	status, body := doRequest(t, app, http.MethodPost, base+"/pause", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, models.InstanceStatusPaused, decode[models.WorkflowInstance](t, body).Status)

	status, body = doRequest(t, app, http.MethodPost, base+"/pause", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", problemType(t, body))

	status, body = doRequest(t, app, http.MethodPost, base+"/cancel", web.CancelInstanceRequest{Reason: "owner sold the vehicle"})
	require.Equal(t, http.StatusOK, status, string(body))

	cancelled := decode[models.WorkflowInstance](t, body)
	assert.Equal(t, models.InstanceStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Nil(t, cancelled.NextScheduledStep)

	status, _ = doRequest(t, app, http.MethodPost, base+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = doRequest(t, app, http.MethodPost, "/api/workflows/instances/inst-missing/pause", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_Demo(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/api/workflows/demo", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	demo := decode[web.DemoResponse](t, body)
	require.NotNil(t, demo.TemplateUsed)
	assert.Equal(t, "wf-001", demo.TemplateUsed.ID)
	require.NotNil(t, demo.ExecutionResult)
	assert.Equal(t, models.InstanceStatusRunning, demo.ExecutionResult.Status)
	assert.Equal(t, 0, demo.ExecutionResult.StepsCompleted)
	assert.NotEmpty(t, demo.Note)

	status, body = doRequest(t, app, http.MethodGet, "/api/workflows/instances/"+demo.ExecutionResult.InstanceID, nil)
	require.Equal(t, http.StatusOK, status)

	instance := decode[models.WorkflowInstance](t, body)
	assert.Equal(t, "demo-vehicle-001", instance.VehicleID)
	assert.Equal(t, "demo-owner-001", instance.OwnerID)
	assert.Equal(t, "demo_api", instance.TriggerData["source"])
}

func TestAPIHandlers_DemoAll(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/api/workflows/demo/all", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	demo := decode[web.DemoAllResponse](t, body)
	assert.Equal(t, 5, demo.WorkflowsExecuted)
	require.Len(t, demo.Results, 5)

	expected := map[string]models.InstanceStatus{
		"Post-Service Follow-up":        models.InstanceStatusRunning,
		"Service Due Reminder Sequence": models.InstanceStatusRunning,
		"Recall Notification":           models.InstanceStatusCompleted,
		"New Vehicle Onboarding":        models.InstanceStatusCompleted,
	}

	for _, run := range demo.Results {
		assert.Empty(t, run.Error, run.Template)
		require.NotNil(t, run.Result, run.Template)
		assert.NotEmpty(t, run.Category)

		if want, ok := expected[run.Template]; ok {
			assert.Equal(t, want, run.Result.Status, run.Template)
		}
	}

	status, body = doRequest(t, app, http.MethodGet, "/api/workflows/instances", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.WorkflowInstance](t, body), 5)
}

func TestAPIHandlers_Notifications(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	trigger(t, app, "wf-004")

	status, body := doRequest(t, app, http.MethodGet, "/api/notifications?vehicle_id=vehicle-1", nil)
	require.Equal(t, http.StatusOK, status)

	listed := decode[[]models.Notification](t, body)
	require.Len(t, listed, 1)
	assert.Equal(t, "recall_notice", listed[0].NotificationType)
	assert.Equal(t, models.NotificationPriorityUrgent, listed[0].Priority)
	assert.Equal(t, models.NotificationStatusUnread, listed[0].Status)

	id := listed[0].ID

	status, body = doRequest(t, app, http.MethodPost, "/api/notifications/"+id+"/read", nil)
	require.Equal(t, http.StatusOK, status)

	read := decode[models.Notification](t, body)
	assert.Equal(t, models.NotificationStatusRead, read.Status)
	require.NotNil(t, read.ReadAt)
	assert.True(t, read.ReadAt.Equal(startTime))

	status, body = doRequest(t, app, http.MethodPost, "/api/notifications/"+id+"/dismiss", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.NotificationStatusDismissed, decode[models.Notification](t, body).Status)

	status, body = doRequest(t, app, http.MethodGet, "/api/notifications?status=unread", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]models.Notification](t, body))

	status, body = doRequest(t, app, http.MethodPost, "/api/notifications/notif-missing/read", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "notification_not_found", problemType(t, body))

	status, _ = doRequest(t, app, http.MethodGet, "/api/notifications?priority=extreme", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, app, http.MethodGet, "/api/notifications?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPIHandlers_NotificationSummary(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)
	trigger(t, app, "wf-004")
	trigger(t, app, "wf-004")

	status, body := doRequest(t, app, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, status)

	listed := decode[[]models.Notification](t, body)
	require.Len(t, listed, 2)

	status, _ = doRequest(t, app, http.MethodPost, "/api/notifications/"+listed[0].ID+"/read", nil)
	require.Equal(t, http.StatusOK, status)

	status, body = doRequest(t, app, http.MethodGet, "/api/notifications/summary", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	summary := decode[notifications.Summary](t, body)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, map[models.NotificationStatus]int{
		models.NotificationStatusUnread: 1,
		models.NotificationStatusRead:   1,
	}, summary.ByStatus)
	assert.Equal(t, map[models.NotificationPriority]int{models.NotificationPriorityUrgent: 2}, summary.ByPriority)
	assert.Equal(t, map[string]int{"safety": 2}, summary.ByCategory)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)

	health := decode[map[string]any](t, body)
	assert.Equal(t, "healthy", health["status"])
}
