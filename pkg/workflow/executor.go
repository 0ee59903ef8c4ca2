package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/conductorhq/conductor/pkg/models"
	"github.com/conductorhq/conductor/pkg/otelhelper"
	"github.com/conductorhq/conductor/pkg/registry"
	"github.com/conductorhq/conductor/pkg/template"
)

const defaultActionTimeout = 30 * time.Second

// Executor performs one walk of a workflow graph per trigger firing.
//
// The walk is breadth-first from the trigger node with a fan-in barrier: a
// node with multiple incoming edges runs only once, after all its surviving
// predecessors have completed. Back-edges found by a DFS from the trigger
// are excluded from the barrier, so cyclic graphs degrade to
// visit-once-per-run instead of deadlocking. A failed action halts
// propagation along its outgoing edges only; sibling branches continue.
type Executor struct {
	catalog       *registry.Registry
	actionTimeout time.Duration
	tracer        trace.Tracer
}

func NewExecutor(catalog *registry.Registry) *Executor {
	return &Executor{
		catalog:       catalog,
		actionTimeout: defaultActionTimeout,
	}
}

// WithActionTimeout overrides the per-node timeout. An action that exceeds
// it is recorded as failed with a timeout reason.
func (e *Executor) WithActionTimeout(timeout time.Duration) *Executor {
	if timeout > 0 {
		e.actionTimeout = timeout
	}

	return e
}

// WithTracer enables spans around the run and each node execution.
func (e *Executor) WithTracer(tracer trace.Tracer) *Executor {
	e.tracer = tracer

	return e
}

// Run walks the workflow graph from triggerNode. It never mutates the graph
// and never returns an error for action failures: those are captured in the
// result so partial success stays observable.
func (e *Executor) Run(
	ctx context.Context,
	logger *slog.Logger,
	wf *models.Workflow,
	triggerNode *models.WorkflowNode,
	triggerData map[string]any,
	simulation bool,
) *models.ExecutionResult {
	startedAt := time.Now().UTC()

	executionCtx := &models.ExecutionContext{
		ID:          "exec-" + uuid.New().String(),
		WorkflowID:  wf.ID,
		TriggerType: triggerNode.Type,
		TriggerData: triggerData,
		NodeOutputs: make(map[string]any),
		Metadata:    make(map[string]any),
		Simulation:  simulation,
	}

	result := &models.ExecutionResult{
		ExecutionID: executionCtx.ID,
		WorkflowID:  wf.ID,
		Status:      models.ExecutionStatusRunning,
		Context:     executionCtx,
		NodeResults: make(map[string]*models.NodeResult),
		StartedAt:   startedAt,
	}

	logger = logger.With(
		"module", "workflow_executor",
		"workflow_id", wf.ID,
		"execution_id", executionCtx.ID,
		"trigger_type", triggerNode.Type,
		"simulation", simulation,
	)
	logger.InfoContext(ctx, "Starting workflow execution")

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
			attribute.String(otelhelper.WorkflowIDKey, wf.ID),
			attribute.String(otelhelper.ExecutionIDKey, executionCtx.ID),
			attribute.String(otelhelper.TriggerTypeKey, triggerNode.Type),
			attribute.Bool(otelhelper.SimulationKey, simulation),
		)

		defer func() {
			if result.Status == models.ExecutionStatusFailed {
				otelhelper.SetError(span, errors.New("workflow execution failed"),
					attribute.String(otelhelper.WorkflowIDKey, wf.ID))
			}

			span.End()
		}()
	}

	walk := newGraphWalk(wf, triggerNode)
	e.runWalk(ctx, logger, walk, executionCtx, result)

	result.Status = models.ExecutionStatusSucceeded

	for _, nodeResult := range result.NodeResults {
		if nodeResult.Status == models.ActionStatusFailed {
			result.Status = models.ExecutionStatusFailed

			break
		}
	}

	result.FinishedAt = time.Now().UTC()
	result.DurationMs = result.FinishedAt.Sub(startedAt).Milliseconds()

	logger.InfoContext(ctx, "Workflow execution finished",
		"status", result.Status, "duration_ms", result.DurationMs)

	return result
}

// graphWalk holds the per-run traversal state.
type graphWalk struct {
	wf       *models.Workflow
	nodeByID map[string]*models.WorkflowNode

	// outgoing forward edges per node, deterministic order.
	outgoing map[string][]*models.WorkflowEdge

	// pending counts unresolved incoming forward edges (the fan-in barrier).
	pending   map[string]int
	surviving map[string]int

	trigger *models.WorkflowNode
	visited map[string]bool
	ready   []string
}

func newGraphWalk(wf *models.Workflow, triggerNode *models.WorkflowNode) *graphWalk {
	w := &graphWalk{
		wf:        wf,
		nodeByID:  make(map[string]*models.WorkflowNode, len(wf.Nodes)),
		outgoing:  make(map[string][]*models.WorkflowEdge),
		pending:   make(map[string]int),
		surviving: make(map[string]int),
		trigger:   triggerNode,
		visited:   make(map[string]bool),
	}

	for _, node := range wf.Nodes {
		w.nodeByID[node.ID] = node
	}

	edges := make([]*models.WorkflowEdge, 0, len(wf.Edges))

	for _, edge := range wf.Edges {
		if w.nodeByID[edge.SourceNodeID] == nil || w.nodeByID[edge.TargetNodeID] == nil {
			continue
		}

		edges = append(edges, edge)
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].SourceNodeID != edges[j].SourceNodeID {
			return edges[i].SourceNodeID < edges[j].SourceNodeID
		}

		return edges[i].TargetNodeID < edges[j].TargetNodeID
	})

	adjacency := make(map[string][]*models.WorkflowEdge)
	for _, edge := range edges {
		adjacency[edge.SourceNodeID] = append(adjacency[edge.SourceNodeID], edge)
	}

	// DFS from the trigger: keep forward/cross edges, drop back-edges so the
	// fan-in barrier cannot deadlock on a cycle.
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := map[string]int{}

	var visit func(nodeID string)
	visit = func(nodeID string) {
		color[nodeID] = gray

		for _, edge := range adjacency[nodeID] {
			target := edge.TargetNodeID

			if color[target] == gray {
				continue // back-edge
			}

			w.outgoing[nodeID] = append(w.outgoing[nodeID], edge)
			w.pending[target]++

			if color[target] == white {
				visit(target)
			}
		}

		color[nodeID] = black
	}

	visit(triggerNode.ID)

	return w
}

func (e *Executor) runWalk(
	ctx context.Context,
	logger *slog.Logger,
	walk *graphWalk,
	executionCtx *models.ExecutionContext,
	result *models.ExecutionResult,
) {
	// The trigger is a completed root; its outgoing edges resolve first.
	walk.visited[walk.trigger.ID] = true
	e.resolveOutgoing(ctx, logger, walk, walk.trigger.ID, true, executionCtx, result)

	for len(walk.ready) > 0 {
		sort.Strings(walk.ready)
		nodeID := walk.ready[0]
		walk.ready = walk.ready[1:]

		if walk.visited[nodeID] {
			continue
		}

		walk.visited[nodeID] = true

		node := walk.nodeByID[nodeID]
		survived := e.executeNode(ctx, logger, node, executionCtx, result)

		e.resolveOutgoing(ctx, logger, walk, nodeID, survived, executionCtx, result)
	}
}

// resolveOutgoing finalizes every forward edge leaving nodeID. An edge
// survives when its source survived and its condition (if any) holds. A
// target whose barrier clears with no surviving edge is pruned, which
// cascades to its own outgoing edges.
func (e *Executor) resolveOutgoing(
	ctx context.Context,
	logger *slog.Logger,
	walk *graphWalk,
	nodeID string,
	nodeSurvived bool,
	executionCtx *models.ExecutionContext,
	result *models.ExecutionResult,
) {
	for _, edge := range walk.outgoing[nodeID] {
		edgeSurvived := nodeSurvived

		if edgeSurvived && edge.Condition != nil {
			holds, err := evaluateCondition(edge.Condition, executionCtx)
			if err != nil {
				logger.WarnContext(ctx, "Edge condition failed to evaluate, pruning branch",
					"source_node_id", edge.SourceNodeID,
					"target_node_id", edge.TargetNodeID,
					"error", err)

				holds = false
			}

			edgeSurvived = holds
		}

		target := edge.TargetNodeID
		walk.pending[target]--

		if edgeSurvived {
			walk.surviving[target]++
		}

		if walk.pending[target] > 0 || walk.visited[target] {
			continue
		}

		if walk.surviving[target] > 0 {
			walk.ready = append(walk.ready, target)

			continue
		}

		// Every incoming branch was pruned; the node never runs and the
		// pruning cascades downstream.
		walk.visited[target] = true
		e.resolveOutgoing(ctx, logger, walk, target, false, executionCtx, result)
	}
}

// executeNode runs one visited node and reports whether propagation along
// its outgoing edges continues.
func (e *Executor) executeNode(
	ctx context.Context,
	logger *slog.Logger,
	node *models.WorkflowNode,
	executionCtx *models.ExecutionContext,
	result *models.ExecutionResult,
) bool {
	switch node.Kind {
	case models.NodeKindCondition:
		return e.executeConditionNode(ctx, logger, node, executionCtx, result)
	case models.NodeKindAction:
		return e.executeActionNode(ctx, logger, node, executionCtx, result)
	case models.NodeKindTrigger:
		// Secondary trigger nodes are roots of other firings; they do not
		// run mid-walk and do not propagate.
		return false
	default:
		return false
	}
}

func (e *Executor) executeConditionNode(
	ctx context.Context,
	logger *slog.Logger,
	node *models.WorkflowNode,
	executionCtx *models.ExecutionContext,
	result *models.ExecutionResult,
) bool {
	started := time.Now()

	expression, _ := node.Config["expression"].(string)
	language, _ := node.Config["language"].(string)

	holds, err := evaluateCondition(&models.ConditionalExpression{
		Language:   language,
		Expression: expression,
	}, executionCtx)
	if err != nil {
		logger.WarnContext(ctx, "Condition node failed to evaluate",
			"node_id", node.ID, "error", err)

		result.NodeResults[node.ID] = &models.NodeResult{
			NodeID:     node.ID,
			Status:     models.ActionStatusFailed,
			Error:      err.Error(),
			DurationMs: time.Since(started).Milliseconds(),
		}

		return false
	}

	result.NodeResults[node.ID] = &models.NodeResult{
		NodeID:     node.ID,
		Status:     models.ActionStatusSuccess,
		Output:     map[string]any{"result": holds},
		DurationMs: time.Since(started).Milliseconds(),
	}
	executionCtx.NodeOutputs[node.ID] = map[string]any{"result": holds}

	return holds
}

func (e *Executor) executeActionNode(
	ctx context.Context,
	logger *slog.Logger,
	node *models.WorkflowNode,
	executionCtx *models.ExecutionContext,
	result *models.ExecutionResult,
) bool {
	logger = logger.With("node_id", node.ID, "action_type", node.Type)
	started := time.Now()

	nodeResult := &models.NodeResult{NodeID: node.ID, Status: models.ActionStatusFailed}
	result.NodeResults[node.ID] = nodeResult

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.node",
			attribute.String(otelhelper.NodeIDKey, node.ID),
			attribute.String(otelhelper.NodeTypeKey, node.Type),
		)

		defer func() {
			if nodeResult.Status == models.ActionStatusFailed {
				reason := nodeResult.Error
				if reason == "" {
					reason = "action reported failure"
				}

				otelhelper.SetError(span, errors.New(reason),
					attribute.String(otelhelper.NodeIDKey, node.ID))
			}

			span.End()
		}()
	}

	defer func() {
		nodeResult.DurationMs = time.Since(started).Milliseconds()
	}()

	// Catalog entries can disappear after a graph was authored; surface
	// that as a failed node, not a crash.
	action, err := e.catalog.CreateAction(node.Type, node.Config)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to resolve action", "error", err)
		nodeResult.Error = err.Error()

		return false
	}

	actionCtx, cancel := context.WithTimeout(ctx, e.actionTimeout)
	defer cancel()

	actionResult, err := runAction(actionCtx, action, executionCtx, logger)

	switch {
	case err != nil:
		if errors.Is(actionCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("action timed out after %s", e.actionTimeout)
		}

		logger.ErrorContext(ctx, "Action failed", "error", err)
		nodeResult.Error = err.Error()

		return false
	case actionResult.Status == models.ActionStatusFailed:
		logger.WarnContext(ctx, "Action reported failure")
		nodeResult.Status = models.ActionStatusFailed
		nodeResult.Output = actionResult.Output
		executionCtx.NodeOutputs[node.ID] = actionResult.Output

		return false
	default:
		nodeResult.Status = actionResult.Status
		nodeResult.Output = actionResult.Output
		executionCtx.NodeOutputs[node.ID] = actionResult.Output

		return true
	}
}

// runAction invokes the action and converts a stalled run into a timeout
// error once the per-node deadline expires.
func runAction(
	ctx context.Context,
	action actionRunner,
	executionCtx *models.ExecutionContext,
	logger *slog.Logger,
) (*models.ActionResult, error) {
	type outcome struct {
		result *models.ActionResult
		err    error
	}

	done := make(chan outcome, 1)

	go func() {
		result, err := action.Run(ctx, executionCtx, logger)
		done <- outcome{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}

		if out.result == nil {
			return &models.ActionResult{Status: models.ActionStatusSuccess}, nil
		}

		return out.result, nil
	}
}

type actionRunner interface {
	Run(ctx context.Context, executionCtx *models.ExecutionContext, logger *slog.Logger) (*models.ActionResult, error)
}

// evaluateCondition renders the expression against the execution context and
// interprets the result as a boolean. A nil or empty condition holds.
func evaluateCondition(cond *models.ConditionalExpression, executionCtx *models.ExecutionContext) (bool, error) {
	if cond == nil || cond.Expression == "" {
		return true, nil
	}

	interpreter := models.GetConditional(*cond)
	if interpreter == nil {
		return false, fmt.Errorf("unsupported conditional language %q", cond.Language)
	}

	rendered, err := template.RenderWithContext(cond.Expression, executionCtx)
	if err != nil {
		return false, err
	}

	return interpreter.Evaluate(rendered)
}
