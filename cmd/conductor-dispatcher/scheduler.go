package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/conductorhq/conductor/pkg/eventbus"
	"github.com/conductorhq/conductor/pkg/models"
	"github.com/conductorhq/conductor/pkg/persistence"
	"github.com/conductorhq/conductor/pkg/triggers/schedule"
)

const defaultRefreshInterval = time.Minute

// Scheduler publishes time.schedule tick events for every distinct cron
// expression found on schedule trigger nodes of active workflows. Workflows
// never register cron entries themselves; they match ticks by expression.
type Scheduler struct {
	persistence persistence.Persistence
	bus         eventbus.EventBus
	logger      *slog.Logger

	refreshInterval time.Duration

	mu      sync.Mutex
	runner  *cron.Cron
	entries map[string]cron.EntryID
}

func NewScheduler(store persistence.Persistence, bus eventbus.EventBus, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		persistence:     store,
		bus:             bus,
		logger:          logger.With("module", "scheduler"),
		refreshInterval: defaultRefreshInterval,
		runner:          cron.New(),
		entries:         make(map[string]cron.EntryID),
	}
}

// Start loads the schedule set, begins ticking and refreshes the set
// periodically until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.refresh(ctx)
	s.runner.Start()

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			<-s.runner.Stop().Done()

			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

// refresh reconciles cron entries against the schedule expressions currently
// referenced by active workflows.
func (s *Scheduler) refresh(ctx context.Context) {
	expressions, err := s.activeExpressions(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load schedule expressions", "error", err)

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for expr, entryID := range s.entries {
		if _, ok := expressions[expr]; ok {
			continue
		}

		s.runner.Remove(entryID)
		delete(s.entries, expr)

		s.logger.InfoContext(ctx, "Schedule removed", "expression", expr)
	}

	for expr := range expressions {
		if _, ok := s.entries[expr]; ok {
			continue
		}

		entryID, err := s.runner.AddFunc(expr, s.tickFunc(ctx, expr))
		if err != nil {
			s.logger.ErrorContext(ctx, "Skipping invalid schedule expression",
				"expression", expr, "error", err)

			continue
		}

		s.entries[expr] = entryID

		s.logger.InfoContext(ctx, "Schedule registered", "expression", expr)
	}
}

func (s *Scheduler) activeExpressions(ctx context.Context) (map[string]struct{}, error) {
	status := models.WorkflowStatusActive

	workflows, err := s.persistence.WorkflowRepository().List(ctx, &status)
	if err != nil {
		return nil, err
	}

	expressions := make(map[string]struct{})

	for _, wf := range workflows {
		for _, node := range wf.TriggerNodes() {
			if node.Type != schedule.TriggerType {
				continue
			}

			expr, ok := node.Config["cron"].(string)
			if !ok || expr == "" {
				continue
			}

			expressions[expr] = struct{}{}
		}
	}

	return expressions, nil
}

func (s *Scheduler) tickFunc(ctx context.Context, expr string) func() {
	return func() {
		event := models.NewAnalyticsEvent("scheduler", models.CategorySchedule, "tick", map[string]any{
			"schedule": expr,
			"fired_at": time.Now().UTC().Format(time.RFC3339),
		})

		err := s.bus.Publish(ctx, event)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish schedule tick",
				"expression", expr, "error", err)
		}
	}
}
