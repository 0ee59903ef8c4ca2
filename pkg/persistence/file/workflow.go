package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conductorhq/conductor/pkg/models"
	"github.com/conductorhq/conductor/pkg/persistence"
)

const workflowDirPerm = 0o755

// WorkflowRepository stores each workflow as workflows/<id>.json.
type WorkflowRepository struct {
	root string
	mu   sync.RWMutex
}

func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: filepath.Join(root, "workflows")}
}

func (r *WorkflowRepository) path(id string) string {
	return filepath.Join(r.root, id+".json")
}

func (r *WorkflowRepository) Create(_ context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	if _, err := os.Stat(r.path(workflow.ID)); err == nil {
		return nil, persistence.NewWorkflowError("Create", workflow.ID, persistence.ErrWorkflowAlreadyExists)
	}

	now := time.Now().UTC()
	workflow.Version = 1
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	err := r.write(workflow)
	if err != nil {
		return nil, persistence.NewWorkflowError("Create", workflow.ID, err)
	}

	return workflow, nil
}

// Update performs a whole-graph replacement. The incoming workflow must
// carry the version it was read at; a mismatch is a conflict.
func (r *WorkflowRepository) Update(_ context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.read(workflow.ID)
	if err != nil {
		return nil, persistence.NewWorkflowError("Update", workflow.ID, err)
	}

	if workflow.Version != existing.Version {
		return nil, persistence.NewWorkflowError("Update", workflow.ID,
			fmt.Errorf("%w: have %d, want %d", persistence.ErrVersionConflict, workflow.Version, existing.Version))
	}

	workflow.Version = existing.Version + 1
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	err = r.write(workflow)
	if err != nil {
		return nil, persistence.NewWorkflowError("Update", workflow.ID, err)
	}

	return workflow, nil
}

func (r *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workflow, err := r.read(id)
	if err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return workflow, nil
}

func (r *WorkflowRepository) List(_ context.Context, status *models.WorkflowStatus) ([]*models.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.Workflow{}, nil
		}

		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		workflow, err := r.read(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}

		if status != nil && workflow.Status != *status {
			continue
		}

		workflows = append(workflows, workflow)
	}

	sort.Slice(workflows, func(i, j int) bool { return workflows[i].ID < workflows[j].ID })

	return workflows, nil
}

func (r *WorkflowRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.Remove(r.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
		}

		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}

func (r *WorkflowRepository) read(id string) (*models.Workflow, error) {
	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrWorkflowNotFound
		}

		return nil, err
	}

	workflow := &models.Workflow{}

	err = json.Unmarshal(data, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to decode workflow %s: %w", id, err)
	}

	return workflow, nil
}

func (r *WorkflowRepository) write(workflow *models.Workflow) error {
	err := os.MkdirAll(r.root, workflowDirPerm)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(r.path(workflow.ID), data, 0o644)
}
