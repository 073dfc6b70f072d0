package events

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
)

type MetricsObserver struct {
	versionsSaved    atomic.Int64
	versionsRestored atomic.Int64
	lastActivity     atomic.Int64
}

var _ ports.Observer = (*MetricsObserver)(nil)

func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

func (m *MetricsObserver) Notify(ctx context.Context, event domain.VersionEvent) error {
	switch event.Type {
	case domain.EventVersionSaved:
		m.versionsSaved.Add(1)
	case domain.EventVersionRestored:
		m.versionsRestored.Add(1)
	}
	m.lastActivity.Store(time.Now().UnixNano())
	return nil
}

func (m *MetricsObserver) Metrics() domain.ListenerMetrics {
	metrics := domain.ListenerMetrics{
		VersionsSaved:    m.versionsSaved.Load(),
		VersionsRestored: m.versionsRestored.Load(),
	}
	if ns := m.lastActivity.Load(); ns != 0 {
		metrics.LastActivity = time.Unix(0, ns).UTC()
	}
	return metrics
}
