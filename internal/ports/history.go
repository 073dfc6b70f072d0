package ports

import (
	"context"

	"github.com/eleven-am/prpflow/internal/domain"
)

type HistoryStore interface {
	SaveExecutionState(ctx context.Context, documentName string, state domain.ExecutionState) (string, error)
	GetExecutionHistory(ctx context.Context, documentName string) ([]domain.ExecutionRecord, error)
	Close() error
}
