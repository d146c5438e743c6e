// Package web provides HTTP handlers for rule administration, event intake
// and execution monitoring.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/chantierpro/automation/pkg/models"
	"github.com/chantierpro/automation/pkg/services"
	"github.com/chantierpro/automation/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// Dispatcher runs the workflows of one event occurrence.
type Dispatcher interface {
	ExecuteWorkflows(ctx context.Context, event models.EventName, ectx models.EventContext) ([]models.ExecutionSummary, error)
}

type APIHandlers struct {
	rules      *services.Rules
	executions *services.Executions
	dispatcher Dispatcher
	validator  *validator.Validate
	logger     *slog.Logger
}

func NewAPIHandlers(
	rules *services.Rules,
	executions *services.Executions,
	dispatcher Dispatcher,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		rules:      rules,
		executions: executions,
		dispatcher: dispatcher,
		validator:  validator,
		logger:     logger.With("module", "web"),
	}
}

// Register mounts every route on app.
func (h *APIHandlers) Register(app *fiber.App) {
	app.Get("/health", h.HealthCheck)

	r := app.Group("/rules")
	r.Get("/", h.GetRules)
	r.Post("/", h.CreateRule)
	r.Get("/:id", h.GetRule)
	r.Post("/:id/activate", h.ActivateRule)
	r.Post("/:id/deactivate", h.DeactivateRule)

	app.Post("/events/:event", h.DispatchEvent)

	e := app.Group("/executions")
	e.Get("/", h.GetExecutions)
	e.Get("/:id", h.GetExecution)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.rules.HealthCheck(c.Context())

	response := HealthResponse{
		Status:    "unhealthy",
		Message:   "ChantierPro automation is unhealthy",
		Checkers:  map[string]string{"repository": repositoryCheck},
		Timestamp: time.Now().UTC(),
	}

	httpStatus := http.StatusInternalServerError

	if ok {
		response.Status = "healthy"
		response.Message = "ChantierPro automation is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(response)
}

func (h *APIHandlers) GetRules(c fiber.Ctx) error {
	var query ListRulesQuery
	if err := c.Bind().Query(&query); err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	if err := h.validator.Struct(query); err != nil {
		return badRequest(c, err.Error())
	}

	req := services.ListRulesRequest{Event: query.Event}

	if query.Active != "" {
		active, err := strconv.ParseBool(query.Active)
		if err != nil {
			return badRequest(c, "Invalid active filter: "+err.Error())
		}

		req.Active = &active
	}

	rules, err := h.rules.List(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"rules":       rules,
		"total_count": len(rules),
	})
}

func (h *APIHandlers) CreateRule(c fiber.Ctx) error {
	rule, err := h.rules.Create(c.Context(), c.Body())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(rule)
}

func (h *APIHandlers) GetRule(c fiber.Ctx) error {
	rule, err := h.rules.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(rule)
}

func (h *APIHandlers) ActivateRule(c fiber.Ctx) error {
	rule, err := h.rules.Activate(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(rule)
}

func (h *APIHandlers) DeactivateRule(c fiber.Ctx) error {
	rule, err := h.rules.Deactivate(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(rule)
}

// DispatchEvent runs the workflows of the event named in the path against the
// event context in the body. An empty body is an empty context.
func (h *APIHandlers) DispatchEvent(c fiber.Ctx) error {
	event := models.EventName(c.Params("event"))

	var ectx models.EventContext

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&ectx); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	summaries, err := h.dispatcher.ExecuteWorkflows(c.Context(), event, ectx)
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidEvent) {
			return badRequest(c, err.Error())
		}

		h.logger.ErrorContext(c.Context(), "dispatch failed", "event", event, "error", err)

		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(DispatchResponse{
		Event:      event,
		Matched:    len(summaries),
		Executions: summaries,
	})
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	var query ListExecutionsQuery
	if err := c.Bind().Query(&query); err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	if err := h.validator.Struct(query); err != nil {
		return badRequest(c, err.Error())
	}

	executions, err := h.executions.List(c.Context(), services.ListExecutionsRequest{
		RuleID: query.RuleID,
		Status: query.Status,
		Limit:  query.Limit,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions":  executions,
		"total_count": len(executions),
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.executions.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}
