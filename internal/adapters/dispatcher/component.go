package dispatcher

import (
	"sync"
	"sync/atomic"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
)

type component struct {
	worker       ports.Worker
	capabilities domain.CapabilitySet
	reentrant    bool

	// exec serializes Execute for non-reentrant workers.
	exec   sync.Mutex
	active atomic.Int32
}

func newComponent(worker ports.Worker) *component {
	return &component{
		worker:       worker,
		capabilities: worker.Capabilities(),
		reentrant:    worker.Reentrant(),
	}
}

func (c *component) handles(operation string, componentType domain.ComponentType) bool {
	return c.capabilities.Handles(componentType, operation)
}

func (c *component) tryAcquire() bool {
	if c.reentrant {
		c.active.Add(1)
		return true
	}
	if !c.exec.TryLock() {
		return false
	}
	c.active.Add(1)
	return true
}

func (c *component) release() {
	c.active.Add(-1)
	if !c.reentrant {
		c.exec.Unlock()
	}
}

func (c *component) info() domain.ComponentInfo {
	return domain.ComponentInfo{
		ID:            c.worker.ID(),
		ComponentType: c.capabilities.ComponentType,
		Operations:    c.capabilities.OperationList(),
		Reentrant:     c.reentrant,
		Busy:          c.active.Load() > 0,
	}
}
