package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/conductorhq/conductor/pkg/eventbus"
	"github.com/conductorhq/conductor/pkg/models"
	"github.com/conductorhq/conductor/pkg/persistence"
	"github.com/conductorhq/conductor/pkg/registry"
)

const eventSource = "workflow-engine"

// Engine owns workflow CRUD, validation, simulation and live dispatch. The
// catalog is read-only after startup and safely shared across concurrent
// executions; graph storage is externally owned behind the persistence
// interfaces.
type Engine struct {
	persistence persistence.Persistence
	catalog     *registry.Registry
	bus         eventbus.EventBus
	executor    *Executor
	logger      *slog.Logger
}

func NewEngine(
	store persistence.Persistence,
	catalog *registry.Registry,
	bus eventbus.EventBus,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		persistence: store,
		catalog:     catalog,
		bus:         bus,
		executor:    NewExecutor(catalog),
		logger:      logger.With("module", "workflow_engine"),
	}
}

// Executor exposes the engine's executor for tuning (timeout, tracer).
func (e *Engine) Executor() *Executor {
	return e.executor
}

// Validate lints a graph without saving it.
func (e *Engine) Validate(nodes []*models.WorkflowNode, edges []*models.WorkflowEdge) *ValidationResult {
	return Validate(e.catalog, nodes, edges)
}

// CreateWorkflow persists a new workflow with whole-graph semantics. The
// workflow starts in draft unless an explicit status is requested; active
// is only granted when validation reports no errors.
func (e *Engine) CreateWorkflow(ctx context.Context, wf *models.Workflow) (*models.Workflow, error) {
	err := e.checkStatusGate(wf)
	if err != nil {
		return nil, err
	}

	created, err := e.persistence.WorkflowRepository().Create(ctx, wf)
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "Workflow created", "workflow_id", created.ID, "status", created.Status)

	return created, nil
}

// UpdateWorkflow replaces the workflow's definition, nodes and edges
// wholesale. The incoming version must match the persisted one.
func (e *Engine) UpdateWorkflow(ctx context.Context, wf *models.Workflow) (*models.Workflow, error) {
	err := e.checkStatusGate(wf)
	if err != nil {
		return nil, err
	}

	updated, err := e.persistence.WorkflowRepository().Update(ctx, wf)
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "Workflow updated", "workflow_id", updated.ID, "version", updated.Version)

	return updated, nil
}

func (e *Engine) checkStatusGate(wf *models.Workflow) error {
	if wf.Status == "" {
		wf.Status = models.WorkflowStatusDraft
	}

	if !wf.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, wf.Status)
	}

	if wf.Status != models.WorkflowStatusActive {
		return nil
	}

	result := Validate(e.catalog, wf.Nodes, wf.Edges)
	if result.HasErrors() {
		return fmt.Errorf("%w: %d issue(s)", ErrWorkflowInvalid, len(result.Issues))
	}

	return nil
}

func (e *Engine) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	return e.persistence.WorkflowRepository().GetByID(ctx, id)
}

func (e *Engine) ListWorkflows(ctx context.Context, status *models.WorkflowStatus) ([]*models.Workflow, error) {
	if status != nil && !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *status)
	}

	return e.persistence.WorkflowRepository().List(ctx, status)
}

func (e *Engine) DeleteWorkflow(ctx context.Context, id string) error {
	return e.persistence.WorkflowRepository().Delete(ctx, id)
}

// Simulate runs one named workflow against an operator-supplied trigger type
// and payload, regardless of workflow status. The simulation flag is set on
// the context; whether actions mute their side effects is each action's
// contract, not enforced here.
func (e *Engine) Simulate(ctx context.Context, workflowID, triggerType string, payload map[string]any) (*models.ExecutionResult, error) {
	factory, err := e.catalog.TriggerFactory(triggerType)
	if err != nil {
		return nil, err
	}

	wf, err := e.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	triggerNode := findTriggerNode(wf, triggerType)
	if triggerNode == nil {
		return nil, fmt.Errorf("%w: %q", ErrTriggerNotInWorkflow, triggerType)
	}

	trigger, err := factory.Create(triggerNode.Config)
	if err != nil {
		return nil, err
	}

	triggerData, err := trigger.ResolveContext(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve trigger context: %w", err)
	}

	result := e.executor.Run(ctx, e.logger, wf, triggerNode, triggerData, true)

	err = e.persistence.ExecutionRepository().Save(ctx, result)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to save simulation record",
			"workflow_id", workflowID, "execution_id", result.ExecutionID, "error", err)
	}

	return result, nil
}

// Dispatch fans one analytics event out to every active workflow whose graph
// contains a matching trigger node. Workflows are execution-independent: they
// run concurrently and no cross-workflow ordering is guaranteed.
func (e *Engine) Dispatch(ctx context.Context, event *models.AnalyticsEvent) error {
	status := models.WorkflowStatusActive

	workflows, err := e.persistence.WorkflowRepository().List(ctx, &status)
	if err != nil {
		return fmt.Errorf("failed to list active workflows: %w", err)
	}

	var wg sync.WaitGroup

	for _, wf := range workflows {
		triggerNode := e.matchTriggerNode(ctx, wf, event)
		if triggerNode == nil {
			continue
		}

		wg.Add(1)

		go func(wf *models.Workflow, triggerNode *models.WorkflowNode) {
			defer wg.Done()
			e.runLive(ctx, wf, triggerNode, event)
		}(wf, triggerNode)
	}

	wg.Wait()

	return nil
}

// matchTriggerNode returns the first trigger node (by node id) whose catalog
// trigger matches the event, or nil. Nodes whose declared event category
// differs are skipped without instantiating the trigger.
func (e *Engine) matchTriggerNode(ctx context.Context, wf *models.Workflow, event *models.AnalyticsEvent) *models.WorkflowNode {
	var match *models.WorkflowNode

	for _, node := range wf.TriggerNodes() {
		factory, err := e.catalog.TriggerFactory(node.Type)
		if err != nil {
			// The graph may reference a trigger removed from the catalog.
			e.logger.WarnContext(ctx, "Skipping unresolvable trigger node",
				"workflow_id", wf.ID, "node_id", node.ID, "error", err)

			continue
		}

		if factory.EventCategory() != event.Category {
			continue
		}

		trigger, err := factory.Create(node.Config)
		if err != nil {
			e.logger.WarnContext(ctx, "Skipping trigger node with invalid config",
				"workflow_id", wf.ID, "node_id", node.ID, "error", err)

			continue
		}

		if !trigger.Matches(event) {
			continue
		}

		if match == nil || node.ID < match.ID {
			match = node
		}
	}

	return match
}

func (e *Engine) runLive(ctx context.Context, wf *models.Workflow, triggerNode *models.WorkflowNode, event *models.AnalyticsEvent) {
	trigger, err := e.catalog.CreateTrigger(triggerNode.Type, triggerNode.Config)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to resolve trigger",
			"workflow_id", wf.ID, "node_id", triggerNode.ID, "error", err)

		return
	}

	triggerData, err := trigger.ResolveContext(event.Payload)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to resolve trigger context",
			"workflow_id", wf.ID, "node_id", triggerNode.ID, "error", err)

		return
	}

	result := e.executor.Run(ctx, e.logger, wf, triggerNode, triggerData, false)

	err = e.persistence.ExecutionRepository().Save(ctx, result)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to save execution record",
			"workflow_id", wf.ID, "execution_id", result.ExecutionID, "error", err)
	}

	e.publishOutcome(ctx, event, result)
}

// publishOutcome re-publishes the execution outcome as a new analytics
// event, enabling workflow chaining.
func (e *Engine) publishOutcome(ctx context.Context, cause *models.AnalyticsEvent, result *models.ExecutionResult) {
	name := "completed"
	if result.Status == models.ExecutionStatusFailed {
		name = "failed"
	}

	outcome := models.NewAnalyticsEvent(eventSource, models.CategoryWorkflowExecution, name, map[string]any{
		"workflow_id":    result.WorkflowID,
		"execution_id":   result.ExecutionID,
		"status":         string(result.Status),
		"duration_ms":    result.DurationMs,
		"cause_event_id": cause.EventID,
	})

	err := e.bus.Publish(ctx, outcome)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish execution outcome",
			"execution_id", result.ExecutionID, "error", err)
	}
}

// Start subscribes the engine to the event bus for live dispatch.
func (e *Engine) Start(ctx context.Context) error {
	e.bus.On(func(ctx context.Context, event *models.AnalyticsEvent) error {
		return e.Dispatch(ctx, event)
	})

	return e.bus.Subscribe(ctx)
}

func findTriggerNode(wf *models.Workflow, triggerType string) *models.WorkflowNode {
	var match *models.WorkflowNode

	for _, node := range wf.TriggerNodes() {
		if node.Type != triggerType {
			continue
		}

		if match == nil || node.ID < match.ID {
			match = node
		}
	}

	return match
}
