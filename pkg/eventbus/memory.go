package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/conductorhq/conductor/pkg/models"
)

// MemoryEventBus delivers events synchronously to listeners in registration
// order. There is no network hop, so there is no retry: a listener error is
// logged and must not prevent other listeners from receiving the event.
type MemoryEventBus struct {
	mu        sync.RWMutex
	listeners []Listener
	logger    *slog.Logger
}

func NewMemoryEventBus(logger *slog.Logger) *MemoryEventBus {
	return &MemoryEventBus{
		logger: logger.With("module", "eventbus", "driver", DriverMemory),
	}
}

func (b *MemoryEventBus) Publish(ctx context.Context, event *models.AnalyticsEvent) error {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, listener := range listeners {
		b.dispatch(ctx, listener, event)
	}

	return nil
}

func (b *MemoryEventBus) dispatch(ctx context.Context, listener Listener, event *models.AnalyticsEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "Listener panicked",
				"event_id", event.EventID, "panic", fmt.Sprintf("%v", r))
		}
	}()

	err := listener(ctx, event)
	if err != nil {
		b.logger.ErrorContext(ctx, "Listener failed",
			"event_id", event.EventID, "category", event.Category, "error", err)
	}
}

func (b *MemoryEventBus) On(listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners = append(b.listeners, listener)
}

// Subscribe is a no-op: delivery happens synchronously inside Publish.
func (b *MemoryEventBus) Subscribe(_ context.Context) error {
	return nil
}

func (b *MemoryEventBus) Close() error {
	return nil
}
