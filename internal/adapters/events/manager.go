package events

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
)

// Manager fans version events out to observers synchronously, in the order
// they subscribed. A failing observer never stops delivery to the rest.
type Manager struct {
	logger *slog.Logger

	mu        sync.RWMutex
	observers []ports.Observer
}

var _ ports.NotifierPort = (*Manager)(nil)

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		logger: logger.With("component", "event-manager"),
	}
}

func (m *Manager) Subscribe(observer ports.Observer) {
	if observer == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, observer)
}

func (m *Manager) ObserverCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.observers)
}

func (m *Manager) Publish(ctx context.Context, event domain.VersionEvent) []error {
	m.mu.RLock()
	observers := make([]ports.Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.RUnlock()

	var failures []error
	for i, observer := range observers {
		if err := m.safeNotify(ctx, observer, event); err != nil {
			m.logger.Warn("observer failed",
				"observer", i,
				"event_type", event.Type,
				"document_name", event.DocumentName,
				"version_id", event.VersionID,
				"error", err)
			failures = append(failures, err)
		}
	}
	return failures
}

func (m *Manager) safeNotify(ctx context.Context, observer ports.Observer, event domain.VersionEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("observer panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("observer panicked: %v", r)
		}
	}()
	return observer.Notify(ctx, event)
}
