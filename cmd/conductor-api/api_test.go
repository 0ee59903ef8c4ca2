package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conductorhq/conductor/pkg/cmd"
	"github.com/conductorhq/conductor/pkg/eventbus"
	"github.com/conductorhq/conductor/pkg/models"
	"github.com/conductorhq/conductor/pkg/persistence/file"
)

func setupTestApp(tempDir string) *fiber.App {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.NewMemoryEventBus(logger)
	catalog := cmd.NewCatalog(logger, bus)
	persistence := file.NewPersistence(tempDir)

	api := NewAPI(logger, persistence, catalog, bus, nil)

	return api.App()
}

func jsonRequest(method, target string, body any) *http.Request {
	var reader io.Reader

	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return req
}

func saveRequestBody(name, status string) map[string]any {
	return map[string]any{
		"definition": map[string]any{
			"name":   name,
			"status": status,
		},
		"nodes": []map[string]any{
			{
				"id":     "node-trigger",
				"kind":   "trigger",
				"type":   "trigger:order",
				"config": map[string]any{"events": []string{"completed"}},
			},
			{
				"id":     "node-log",
				"kind":   "action",
				"type":   "log",
				"config": map[string]any{"message": "order {{ .trigger_data.order_id }}"},
			},
		},
		"edges": []map[string]any{
			{"source_node_id": "node-trigger", "target_node_id": "node-log"},
		},
	}
}

func createWorkflow(t *testing.T, app *fiber.App, name, status string) *models.Workflow {
	t.Helper()

	resp, err := app.Test(jsonRequest(http.MethodPost, "/workflows", saveRequestBody(name, status)))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := &models.Workflow{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(created))

	return created
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t.TempDir())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Conductor API", string(body))
}

func TestAPI_GetCatalog(t *testing.T) {
	app := setupTestApp(t.TempDir())

	resp, err := app.Test(jsonRequest(http.MethodGet, "/catalog", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var catalog struct {
		Triggers []models.RegisteredComponent `json:"triggers"`
		Actions  []models.RegisteredComponent `json:"actions"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&catalog))

	require.Len(t, catalog.Triggers, 4)
	require.Len(t, catalog.Actions, 4)

	// Sorted by type for stable palettes.
	assert.Equal(t, "trigger:customer", catalog.Triggers[0].Type)
	assert.Equal(t, "http_request", catalog.Actions[0].Type)
	assert.NotNil(t, catalog.Triggers[0].Schema)
}

func TestAPI_CreateWorkflow(t *testing.T) {
	app := setupTestApp(t.TempDir())

	created := createWorkflow(t, app, "order notifier", "draft")

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.WorkflowStatusDraft, created.Status)
	assert.Equal(t, int64(1), created.Version)
	assert.Len(t, created.Nodes, 2)
}

func TestAPI_CreateWorkflow_InvalidBody(t *testing.T) {
	app := setupTestApp(t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/workflows", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_CreateWorkflow_ShortName(t *testing.T) {
	app := setupTestApp(t.TempDir())

	body := saveRequestBody("ab", "draft")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/workflows", body))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_CreateWorkflow_ActiveWithBrokenGraph(t *testing.T) {
	app := setupTestApp(t.TempDir())

	body := map[string]any{
		"definition": map[string]any{"name": "broken workflow", "status": "active"},
		"nodes": []map[string]any{
			{"id": "node-a", "kind": "action", "type": "action:unknown"},
		},
	}

	resp, err := app.Test(jsonRequest(http.MethodPost, "/workflows", body))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "json")
}

func TestAPI_GetWorkflows_FiltersByStatus(t *testing.T) {
	app := setupTestApp(t.TempDir())

	createWorkflow(t, app, "draft one", "draft")
	createWorkflow(t, app, "active one", "active")

	resp, err := app.Test(jsonRequest(http.MethodGet, "/workflows?status=active", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Workflows []models.Workflow `json:"workflows"`
		Count     int               `json:"count"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	assert.Equal(t, 1, listing.Count)
	require.Len(t, listing.Workflows, 1)
	assert.Equal(t, "active one", listing.Workflows[0].Name)
}

func TestAPI_GetWorkflows_UnknownStatus(t *testing.T) {
	app := setupTestApp(t.TempDir())

	resp, err := app.Test(jsonRequest(http.MethodGet, "/workflows?status=launched", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_GetWorkflow_NotFound(t *testing.T) {
	app := setupTestApp(t.TempDir())

	resp, err := app.Test(jsonRequest(http.MethodGet, "/workflows/wf-missing", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_UpdateWorkflow_ReplacesGraph(t *testing.T) {
	app := setupTestApp(t.TempDir())

	created := createWorkflow(t, app, "notifier", "draft")

	body := saveRequestBody("notifier updated", "draft")
	body["definition"].(map[string]any)["version"] = created.Version

	resp, err := app.Test(jsonRequest(http.MethodPut, "/workflows/"+created.ID, body))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	updated := &models.Workflow{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(updated))
	assert.Equal(t, "notifier updated", updated.Name)
	assert.Equal(t, created.Version+1, updated.Version)
}

func TestAPI_UpdateWorkflow_StaleVersionConflicts(t *testing.T) {
	app := setupTestApp(t.TempDir())

	created := createWorkflow(t, app, "notifier", "draft")

	body := saveRequestBody("first writer", "draft")
	body["definition"].(map[string]any)["version"] = created.Version

	resp, err := app.Test(jsonRequest(http.MethodPut, "/workflows/"+created.ID, body))
	require.NoError(t, err)

	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// A second writer with the original version must get a conflict.
	stale := saveRequestBody("second writer", "draft")
	stale["definition"].(map[string]any)["version"] = created.Version

	resp, err = app.Test(jsonRequest(http.MethodPut, "/workflows/"+created.ID, stale))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_DeleteWorkflow(t *testing.T) {
	app := setupTestApp(t.TempDir())

	created := createWorkflow(t, app, "notifier", "draft")

	resp, err := app.Test(jsonRequest(http.MethodDelete, "/workflows/"+created.ID, nil))
	require.NoError(t, err)

	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodGet, "/workflows/"+created.ID, nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_ValidateWorkflow(t *testing.T) {
	app := setupTestApp(t.TempDir())

	body := map[string]any{
		"nodes": []map[string]any{
			{"id": "node-a", "kind": "action", "type": "action:unknown"},
		},
	}

	resp, err := app.Test(jsonRequest(http.MethodPost, "/workflows/validate", body))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Status string `json:"status"`
		Issues []struct {
			Severity string `json:"severity"`
			Message  string `json:"message"`
		} `json:"issues"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "error", result.Status)
	assert.NotEmpty(t, result.Issues)
}

func TestAPI_SimulateWorkflow(t *testing.T) {
	app := setupTestApp(t.TempDir())

	created := createWorkflow(t, app, "notifier", "draft")

	body := map[string]any{
		"trigger_type": "trigger:order",
		"payload":      map[string]any{"order_id": "order-7"},
	}

	resp, err := app.Test(jsonRequest(http.MethodPost, "/workflows/"+created.ID+"/simulate", body))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Status      string                        `json:"status"`
		Context     *models.ExecutionContext      `json:"context"`
		NodeResults map[string]*models.NodeResult `json:"node_results"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "succeeded", result.Status)
	require.NotNil(t, result.Context)
	assert.True(t, result.Context.Simulation)
	require.Contains(t, result.NodeResults, "node-log")
	assert.Equal(t, models.ActionStatusSuccess, result.NodeResults["node-log"].Status)
}

func TestAPI_SimulateWorkflow_UnknownTrigger(t *testing.T) {
	app := setupTestApp(t.TempDir())

	created := createWorkflow(t, app, "notifier", "draft")

	body := map[string]any{"trigger_type": "trigger:unknown"}

	resp, err := app.Test(jsonRequest(http.MethodPost, "/workflows/"+created.ID+"/simulate", body))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_HealthCheck(t *testing.T) {
	app := setupTestApp(t.TempDir())

	resp, err := app.Test(jsonRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status string `json:"status"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)
}
