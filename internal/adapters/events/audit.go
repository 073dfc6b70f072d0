package events

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
	"github.com/hashicorp/go-hclog"
)

// AuditObserver appends one JSON line per version event to a file and syncs
// it before Notify returns.
type AuditObserver struct {
	mu     sync.Mutex
	file   *os.File
	logger hclog.Logger
	closed bool
}

var _ ports.Observer = (*AuditObserver)(nil)

func NewAuditObserver(path string) (*AuditObserver, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "prpflow-audit",
		Level:      hclog.Info,
		Output:     file,
		JSONFormat: true,
		TimeFormat: "2006-01-02T15:04:05.000000Z07:00",
	})

	return &AuditObserver{file: file, logger: logger}, nil
}

func (a *AuditObserver) Notify(ctx context.Context, event domain.VersionEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return fmt.Errorf("audit log closed")
	}

	args := []interface{}{
		"event_type", string(event.Type),
		"document_name", event.DocumentName,
		"version_id", event.VersionID,
		"checksum", event.Checksum,
		"occurred_at", event.OccurredAt,
	}
	if len(event.Metadata) > 0 {
		args = append(args, "metadata", event.Metadata)
	}
	a.logger.Info(string(event.Type), args...)

	if err := a.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync audit log: %w", err)
	}
	return nil
}

func (a *AuditObserver) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true
	return a.file.Close()
}
