package web

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
	"github.com/tirs/Automotive-database-demo/pkg/notifications"
	"github.com/tirs/Automotive-database-demo/pkg/workflow"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("conflict").
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps engine and notification errors to problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors

	switch {
	case errors.Is(err, workflow.ErrTemplateNotFound):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("template_not_found").
			WithDetail(err.Error())

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case errors.Is(err, workflow.ErrInstanceNotFound):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("instance_not_found").
			WithDetail(err.Error())

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case errors.Is(err, notifications.ErrNotificationNotFound):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("notification_not_found").
			WithDetail(err.Error())

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case errors.Is(err, workflow.ErrResumeNotDue):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("resume_not_due").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case workflow.IsConflict(err):
		return conflict(c, err.Error())

	case errors.As(err, &validationErrors):
		return badRequest(c, err.Error())

	default:
		return internalError(c, err)
	}
}
