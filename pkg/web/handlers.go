// Package web provides HTTP handlers and REST API endpoints for workflow automation.
package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/notifications"
	"github.com/tirs/Automotive-database-demo/pkg/persistence"
	"github.com/tirs/Automotive-database-demo/pkg/workflow"
)

// TemplateCatalog lists and resolves workflow templates.
type TemplateCatalog interface {
	ListTemplates() []*models.WorkflowTemplate
	GetTemplate(id string) (*models.WorkflowTemplate, error)
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type APIHandlers struct {
	templates     TemplateCatalog
	engine        *workflow.Engine
	notifications *notifications.Service
	store         HealthChecker
	validator     *validator.Validate
}

func NewAPIHandlers(
	templates TemplateCatalog,
	engine *workflow.Engine,
	notificationService *notifications.Service,
	store HealthChecker,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		templates:     templates,
		engine:        engine,
		notifications: notificationService,
		store:         store,
		validator:     validator,
	}
}

// Register mounts every route on the router.
func (h *APIHandlers) Register(router fiber.Router) {
	w := router.Group("/api/workflows")
	w.Get("/templates", h.ListTemplates)
	w.Get("/templates/:id", h.GetTemplate)
	w.Post("/trigger", h.TriggerWorkflow)
	w.Get("/instances", h.ListInstances)
	w.Get("/instances/:id", h.GetInstance)
	w.Post("/instances/:id/resume", h.ResumeInstance)
	w.Post("/instances/:id/pause", h.PauseInstance)
	w.Post("/instances/:id/cancel", h.CancelInstance)
	w.Get("/demo", h.Demo)
	w.Get("/demo/all", h.DemoAll)

	n := router.Group("/api/notifications")
	n.Get("/", h.ListNotifications)
	n.Get("/summary", h.NotificationSummary)
	n.Get("/:id", h.GetNotification)
	n.Post("/:id/read", h.MarkNotificationRead)
	n.Post("/:id/dismiss", h.DismissNotification)

	router.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) ListTemplates(c fiber.Ctx) error {
	return c.JSON(h.templates.ListTemplates())
}

func (h *APIHandlers) GetTemplate(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Template ID is required")
	}

	template, err := h.templates.GetTemplate(id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(template)
}

func (h *APIHandlers) TriggerWorkflow(c fiber.Ctx) error {
	var req workflow.TriggerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.engine.Trigger(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) ListInstances(c fiber.Ctx) error {
	opts := persistence.ListInstancesOptions{
		TemplateID: c.Query("template_id"),
		VehicleID:  c.Query("vehicle_id"),
	}

	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseInstanceStatus(raw)
		if err != nil {
			return badRequest(c, "Invalid query parameters: "+err.Error())
		}

		opts.Status = &status
	}

	instances, err := h.engine.ListInstances(c.Context(), opts)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(instances)
}

func (h *APIHandlers) GetInstance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	instance, err := h.engine.GetInstance(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(instance)
}

func (h *APIHandlers) ResumeInstance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	opts := workflow.ResumeOptions{ResumedBy: "api"}

	if raw := c.Query("force"); raw != "" {
		force, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "Invalid force parameter: must be a boolean")
		}

		opts.Force = force
	}

	result, err := h.engine.Resume(c.Context(), id, opts)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) PauseInstance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	instance, err := h.engine.Pause(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(instance)
}

func (h *APIHandlers) CancelInstance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	var req CancelInstanceRequest

	// The body is optional.
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}

		if err := h.validator.Struct(req); err != nil {
			return badRequest(c, err.Error())
		}
	}

	instance, err := h.engine.Cancel(c.Context(), id, req.Reason)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(instance)
}

// Demo triggers the first template in the catalog for a demo vehicle.
func (h *APIHandlers) Demo(c fiber.Ctx) error {
	templates := h.templates.ListTemplates()
	if len(templates) == 0 {
		return notFound(c, "No templates available")
	}

	template := templates[0]

	result, err := h.engine.Trigger(c.Context(), workflow.TriggerRequest{
		TemplateID:  template.ID,
		VehicleID:   demoVehicleID,
		OwnerID:     demoOwnerID,
		TriggerData: demoTriggerData(),
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(DemoResponse{
		TemplateUsed:    template,
		ExecutionResult: result,
		Note:            "This demonstrates automated workflow execution",
	})
}

// DemoAll triggers every template once. A template that cannot be triggered
// is reported in its entry instead of failing the request.
func (h *APIHandlers) DemoAll(c fiber.Ctx) error {
	templates := h.templates.ListTemplates()
	runs := make([]DemoRun, 0, len(templates))

	for _, template := range templates {
		result, err := h.engine.Trigger(c.Context(), workflow.TriggerRequest{
			TemplateID:  template.ID,
			VehicleID:   "demo-vehicle-" + template.ID,
			OwnerID:     "demo-owner-" + template.ID,
			TriggerData: demoTriggerData(),
		})
		if err != nil {
			runs = append(runs, DemoRun{Template: template.Name, Error: err.Error()})

			continue
		}

		runs = append(runs, DemoRun{
			Template: template.Name,
			Category: template.Category,
			Result:   result,
		})
	}

	return c.JSON(DemoAllResponse{
		WorkflowsExecuted: len(runs),
		Results:           runs,
	})
}

func (h *APIHandlers) ListNotifications(c fiber.Ctx) error {
	opts := notifications.ListOptions{
		VehicleID: c.Query("vehicle_id"),
		OwnerID:   c.Query("owner_id"),
		Status:    models.NotificationStatus(c.Query("status")),
		Priority:  models.NotificationPriority(c.Query("priority")),
	}

	if opts.Priority != "" && !opts.Priority.Valid() {
		return badRequest(c, "Invalid priority parameter: must be low, medium, high or urgent")
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return badRequest(c, "Invalid limit parameter: must be a positive integer")
		}

		opts.Limit = limit
	}

	return c.JSON(h.notifications.List(c.Context(), opts))
}

func (h *APIHandlers) NotificationSummary(c fiber.Ctx) error {
	return c.JSON(h.notifications.Summary(c.Context()))
}

func (h *APIHandlers) GetNotification(c fiber.Ctx) error {
	notification, err := h.notifications.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(notification)
}

func (h *APIHandlers) MarkNotificationRead(c fiber.Ctx) error {
	notification, err := h.notifications.MarkRead(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(notification)
}

func (h *APIHandlers) DismissNotification(c fiber.Ctx) error {
	notification, err := h.notifications.Dismiss(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(notification)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	templateCount := len(h.templates.ListTemplates())
	templatesOk := templateCount > 0

	storeCheck := "ok"
	storeErr := h.store.HealthCheck(c.Context())

	if storeErr != nil {
		storeCheck = storeErr.Error()
	}

	status := "unhealthy"
	message := "Automotive workflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if templatesOk && storeErr == nil {
		status = "healthy"
		message = "Automotive workflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"templates": fiber.Map{"count": templateCount},
			"store":     storeCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
