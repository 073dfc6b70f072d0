package ports

import (
	"context"

	"github.com/eleven-am/prpflow/internal/domain"
)

type Worker interface {
	ID() string
	Capabilities() domain.CapabilitySet
	// Reentrant reports whether Execute may run concurrently on this worker.
	Reentrant() bool
	Execute(ctx context.Context, request domain.TaskRequest) (map[string]interface{}, error)
}

// Mediator is the back-channel a worker uses to report progress.
type Mediator interface {
	Notify(sender, event string, data map[string]interface{})
}

type WorkerConstructor func(id string, mediator Mediator) Worker

type RegistryPort interface {
	Register(tag string, constructor WorkerConstructor)
	Create(tag, id string, mediator Mediator) (Worker, bool)
	Types() []string
}
