package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/conductorhq/conductor/pkg/models"
	"github.com/conductorhq/conductor/pkg/registry"
	"github.com/conductorhq/conductor/pkg/workflow"
)

type APIHandlers struct {
	engine    *workflow.Engine
	catalog   *registry.Registry
	validator *validator.Validate
}

func NewAPIHandlers(engine *workflow.Engine, catalog *registry.Registry, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		engine:    engine,
		catalog:   catalog,
		validator: validator,
	}
}

// GetCatalog returns the trigger/action palette for the graph editor.
func (h *APIHandlers) GetCatalog(c fiber.Ctx) error {
	return c.JSON(CatalogResponse{
		Triggers: h.catalog.TriggerComponents(),
		Actions:  h.catalog.ActionComponents(),
	})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	var status *models.WorkflowStatus

	if statusStr := c.Query("status"); statusStr != "" {
		s := models.WorkflowStatus(statusStr)
		status = &s
	}

	workflows, err := h.engine.ListWorkflows(c.Context(), status)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows, "count": len(workflows)})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	wf, err := h.engine.GetWorkflow(c.Context(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(wf)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	req, err := h.bindSaveRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.engine.CreateWorkflow(c.Context(), req.toWorkflow(""))
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateWorkflow replaces the workflow definition and its node/edge sets.
func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	req, err := h.bindSaveRequest(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.engine.UpdateWorkflow(c.Context(), req.toWorkflow(id))
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	err := h.engine.DeleteWorkflow(c.Context(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ValidateWorkflow lints a graph without saving it, for editor feedback.
func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	var req ValidateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	return c.JSON(h.engine.Validate(req.Nodes, req.Edges))
}

// SimulateWorkflow runs one workflow against an operator-supplied trigger
// firing, regardless of workflow status.
func (h *APIHandlers) SimulateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req SimulateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.engine.Simulate(c.Context(), id, req.TriggerType, req.Payload)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(SimulateWorkflowResponse{
		Status:      result.Status,
		DurationMs:  result.DurationMs,
		Context:     result.Context,
		NodeResults: result.NodeResults,
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	catalogCheck, catalogOk := h.catalog.HealthCheck()

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if catalogOk {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"catalog": catalogCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) bindSaveRequest(c fiber.Ctx) (*SaveWorkflowRequest, error) {
	var req SaveWorkflowRequest

	if err := c.Bind().JSON(&req); err != nil {
		return nil, errInvalidJSON
	}

	if err := h.validator.Struct(req); err != nil {
		return nil, err
	}

	return &req, nil
}
