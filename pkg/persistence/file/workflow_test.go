package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conductorhq/conductor/pkg/models"
	"github.com/conductorhq/conductor/pkg/persistence"
)

func sampleWorkflow(name string, status models.WorkflowStatus) *models.Workflow {
	return &models.Workflow{
		Name:   name,
		Status: status,
		Nodes: []*models.WorkflowNode{
			{ID: "node-trigger", Kind: models.NodeKindTrigger, Type: "trigger:order"},
			{ID: "node-log", Kind: models.NodeKindAction, Type: "log", Config: map[string]any{"message": "hi"}},
		},
		Edges: []*models.WorkflowEdge{
			{SourceNodeID: "node-trigger", TargetNodeID: "node-log"},
		},
	}
}

func TestWorkflowRepository_CreateAndGet(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	created, err := repo.Create(context.Background(), sampleWorkflow("notifier", models.WorkflowStatusDraft))
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1), created.Version)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "notifier", got.Name)
	require.Len(t, got.Nodes, 2)
	assert.Equal(t, "node-trigger", got.Nodes[0].ID)
}

func TestWorkflowRepository_GetByID_NotFound(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	_, err := repo.GetByID(context.Background(), "wf-missing")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_Update_ReplacesGraphAndBumpsVersion(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	created, err := repo.Create(context.Background(), sampleWorkflow("notifier", models.WorkflowStatusDraft))
	require.NoError(t, err)

	replacement := sampleWorkflow("notifier", models.WorkflowStatusActive)
	replacement.ID = created.ID
	replacement.Version = created.Version
	replacement.Nodes = replacement.Nodes[:1]
	replacement.Edges = nil

	updated, err := repo.Update(context.Background(), replacement)
	require.NoError(t, err)

	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.CreatedAt) || updated.UpdatedAt.Equal(created.CreatedAt))

	got, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Nodes, 1)
	assert.Empty(t, got.Edges)
}

func TestWorkflowRepository_Update_VersionConflict(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	created, err := repo.Create(context.Background(), sampleWorkflow("notifier", models.WorkflowStatusDraft))
	require.NoError(t, err)

	stale := sampleWorkflow("stale", models.WorkflowStatusDraft)
	stale.ID = created.ID
	stale.Version = created.Version + 5

	_, err = repo.Update(context.Background(), stale)
	require.Error(t, err)
	assert.True(t, persistence.IsVersionConflict(err))

	var wfErr *persistence.WorkflowError

	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, "Update", wfErr.Op)
	assert.Equal(t, created.ID, wfErr.WorkflowID)
}

func TestWorkflowRepository_List(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	draft := sampleWorkflow("draft", models.WorkflowStatusDraft)
	draft.ID = "wf-b"
	active := sampleWorkflow("active", models.WorkflowStatusActive)
	active.ID = "wf-a"

	_, err := repo.Create(context.Background(), draft)
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), active)
	require.NoError(t, err)

	all, err := repo.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "wf-a", all[0].ID)
	assert.Equal(t, "wf-b", all[1].ID)

	status := models.WorkflowStatusActive

	filtered, err := repo.List(context.Background(), &status)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "wf-a", filtered[0].ID)
}

func TestWorkflowRepository_ListEmptyRoot(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	workflows, err := repo.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, workflows)
}

func TestWorkflowRepository_Delete(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	created, err := repo.Create(context.Background(), sampleWorkflow("notifier", models.WorkflowStatusDraft))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), created.ID))

	_, err = repo.GetByID(context.Background(), created.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))

	err = repo.Delete(context.Background(), created.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestExecutionRepository_SaveAndList(t *testing.T) {
	repo := NewExecutionRepository(t.TempDir())

	first := &models.ExecutionResult{
		ExecutionID: "exec-1",
		WorkflowID:  "wf-1",
		Status:      models.ExecutionStatusSucceeded,
		StartedAt:   time.Now().UTC().Add(-time.Minute),
		NodeResults: map[string]*models.NodeResult{
			"node-log": {NodeID: "node-log", Status: models.ActionStatusSuccess},
		},
	}
	second := &models.ExecutionResult{
		ExecutionID: "exec-2",
		WorkflowID:  "wf-1",
		Status:      models.ExecutionStatusFailed,
		StartedAt:   time.Now().UTC(),
	}
	other := &models.ExecutionResult{
		ExecutionID: "exec-3",
		WorkflowID:  "wf-2",
		Status:      models.ExecutionStatusSucceeded,
		StartedAt:   time.Now().UTC(),
	}

	require.NoError(t, repo.Save(context.Background(), first))
	require.NoError(t, repo.Save(context.Background(), second))
	require.NoError(t, repo.Save(context.Background(), other))

	got, err := repo.GetByID(context.Background(), "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSucceeded, got.Status)
	require.Contains(t, got.NodeResults, "node-log")

	records, err := repo.ListByWorkflow(context.Background(), "wf-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "exec-1", records[0].ExecutionID)
	assert.Equal(t, "exec-2", records[1].ExecutionID)
}

func TestExecutionRepository_GetByID_NotFound(t *testing.T) {
	repo := NewExecutionRepository(t.TempDir())

	_, err := repo.GetByID(context.Background(), "exec-missing")
	require.Error(t, err)
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestPersistence_HealthCheck(t *testing.T) {
	dir := t.TempDir()

	p := NewPersistence(dir)
	assert.NoError(t, p.HealthCheck(context.Background()))

	missing := NewPersistence(dir + "/does-not-exist")
	assert.Error(t, missing.HealthCheck(context.Background()))
}

func TestNewPersistence_StripsFileScheme(t *testing.T) {
	dir := t.TempDir()

	p := NewPersistence("file://" + dir)
	assert.NoError(t, p.HealthCheck(context.Background()))
}
