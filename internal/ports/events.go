package ports

import (
	"context"

	"github.com/eleven-am/prpflow/internal/domain"
)

type Observer interface {
	Notify(ctx context.Context, event domain.VersionEvent) error
}

type ObserverFunc func(ctx context.Context, event domain.VersionEvent) error

func (f ObserverFunc) Notify(ctx context.Context, event domain.VersionEvent) error {
	return f(ctx, event)
}

type NotifierPort interface {
	Subscribe(observer Observer)
	// Publish delivers event to every observer in registration order and
	// returns the failures it contained.
	Publish(ctx context.Context, event domain.VersionEvent) []error
	ObserverCount() int
}
