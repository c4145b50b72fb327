package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tirs/Automotive-database-demo/pkg/catalog"
	"github.com/tirs/Automotive-database-demo/pkg/cmd"
	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/persistence/file"
	"github.com/tirs/Automotive-database-demo/pkg/persistence/memory"
)

func setupTestAPI(t *testing.T) *API {
	t.Helper()

	eventBus, err := cmd.NewEventBus("gochannel", slog.Default())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = eventBus.Close()
	})

	api, err := NewAPI(slog.Default(), file.NewPersistence(t.TempDir()), eventBus, catalog.NewDefault(), Config{
		StepTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	return api
}

func get(t *testing.T, app *fiber.App, target string) (int, []byte) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, body
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestAPI(t).App()

	status, body := get(t, app, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Automotive Workflow API", string(body))
}

func TestAPI_HealthCheck(t *testing.T) {
	app := setupTestAPI(t).App()

	status, body := get(t, app, "/livez")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", string(body))

	status, body = get(t, app, "/health")
	assert.Equal(t, http.StatusOK, status)

	var health map[string]any
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "healthy", health["status"])
}

func TestAPI_TemplatesAndDemo(t *testing.T) {
	app := setupTestAPI(t).App()

	status, body := get(t, app, "/api/workflows/templates")
	require.Equal(t, http.StatusOK, status)

	var templates []models.WorkflowTemplate
	require.NoError(t, json.Unmarshal(body, &templates))
	assert.Len(t, templates, 5)

	status, body = get(t, app, "/api/workflows/demo")
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = get(t, app, "/api/workflows/instances?status=running")
	require.Equal(t, http.StatusOK, status)

	var instances []models.WorkflowInstance
	require.NoError(t, json.Unmarshal(body, &instances))
	require.Len(t, instances, 1)
	assert.Equal(t, "wf-001", instances[0].TemplateID)
}

func TestAPI_InvalidResumeSchedule(t *testing.T) {
	_, err := NewAPI(slog.Default(), memory.NewPersistence(), nil, catalog.NewDefault(), Config{
		ResumeSchedule: "whenever",
	})
	require.Error(t, err)
}
