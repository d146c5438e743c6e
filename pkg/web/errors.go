package web

import (
	"errors"

	"github.com/chantierpro/automation/pkg/persistence"
	"github.com/chantierpro/automation/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// Problem types returned in the "type" member.
const (
	problemValidation        = "validation_error"
	problemConflict          = "conflict"
	problemRuleNotFound      = "rule_not_found"
	problemExecutionNotFound = "execution_not_found"
	problemInternal          = "internal_error"
)

func writeProblem(c fiber.Ctx, status int, kind, detail string) error {
	problem := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(kind).
		WithDetail(detail)

	return c.Status(status).JSON(problem)
}

func badRequest(c fiber.Ctx, detail string) error {
	return writeProblem(c, fiber.StatusBadRequest, problemValidation, detail)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType(problemInternal).
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps service and persistence errors to problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	var serviceErr *services.ServiceError

	switch {
	case errors.As(err, &serviceErr) && services.IsValidationError(err):
		return badRequest(c, serviceErr.Detail())
	case services.IsValidationError(err), errors.Is(err, persistence.ErrInvalidID):
		return badRequest(c, err.Error())
	case services.IsConflictError(err):
		return writeProblem(c, fiber.StatusConflict, problemConflict, err.Error())
	case persistence.IsRuleNotFound(err):
		return writeProblem(c, fiber.StatusNotFound, problemRuleNotFound, "rule not found")
	case persistence.IsExecutionNotFound(err):
		return writeProblem(c, fiber.StatusNotFound, problemExecutionNotFound, "execution not found")
	default:
		return internalError(c, err)
	}
}
