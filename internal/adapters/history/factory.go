package history

import (
	"fmt"
	"log/slog"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
)

func New(cfg *domain.Config, storage ports.StoragePort, logger *slog.Logger) (ports.HistoryStore, error) {
	switch cfg.History.Backend {
	case domain.HistoryBackendBadger, "":
		return NewBadgerStore(storage, logger), nil
	case domain.HistoryBackendSQLite:
		return NewSQLiteStore(cfg.HistoryDBPath(), logger)
	default:
		return nil, domain.NewConfigError("history.backend", fmt.Errorf("unknown backend %q", cfg.History.Backend))
	}
}
