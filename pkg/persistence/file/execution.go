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

	"github.com/conductorhq/conductor/pkg/models"
	"github.com/conductorhq/conductor/pkg/persistence"
)

// ExecutionRepository stores each execution record as
// executions/<execution id>.json.
type ExecutionRepository struct {
	root string
	mu   sync.RWMutex
}

func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: filepath.Join(root, "executions")}
}

func (r *ExecutionRepository) path(id string) string {
	return filepath.Join(r.root, id+".json")
}

func (r *ExecutionRepository) Save(_ context.Context, result *models.ExecutionResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.MkdirAll(r.root, workflowDirPerm)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(r.path(result.ExecutionID), data, 0o644)
}

func (r *ExecutionRepository) GetByID(_ context.Context, executionID string) (*models.ExecutionResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.read(executionID)
}

func (r *ExecutionRepository) ListByWorkflow(_ context.Context, workflowID string) ([]*models.ExecutionResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.ExecutionResult{}, nil
		}

		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	results := make([]*models.ExecutionResult, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		result, err := r.read(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}

		if result.WorkflowID != workflowID {
			continue
		}

		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].StartedAt.Before(results[j].StartedAt) })

	return results, nil
}

func (r *ExecutionRepository) read(executionID string) (*models.ExecutionResult, error) {
	data, err := os.ReadFile(r.path(executionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, err
	}

	result := &models.ExecutionResult{}

	err = json.Unmarshal(data, result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode execution %s: %w", executionID, err)
	}

	return result, nil
}
