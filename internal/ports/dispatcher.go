package ports

import (
	"context"
	"time"

	"github.com/eleven-am/prpflow/internal/domain"
)

type DispatcherPort interface {
	Mediator

	RegisterComponent(worker Worker) error
	UnregisterComponent(id string) error
	FindCapableComponent(operation string, componentType domain.ComponentType) (Worker, bool)

	Submit(ctx context.Context, request domain.TaskRequest) (string, error)
	GetResult(ctx context.Context, taskID string, timeout time.Duration) (*domain.TaskResult, error)
	TaskState(taskID string) (domain.TaskState, bool)

	Start(ctx context.Context) error
	Stop() error
	Stats() domain.DispatcherStats
}
