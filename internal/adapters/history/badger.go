package history

import (
	"context"
	"log/slog"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
)

// BadgerStore keeps execution records next to snapshots in the shared
// key/value store. Closing it does not close the underlying storage.
type BadgerStore struct {
	storage ports.StoragePort
	logger  *slog.Logger
}

var _ ports.HistoryStore = (*BadgerStore)(nil)

func NewBadgerStore(storage ports.StoragePort, logger *slog.Logger) *BadgerStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &BadgerStore{
		storage: storage,
		logger:  logger.With("component", "history", "backend", "badger"),
	}
}

func (s *BadgerStore) SaveExecutionState(ctx context.Context, documentName string, state domain.ExecutionState) (string, error) {
	if err := domain.ValidateDocumentName(documentName); err != nil {
		return "", err
	}

	sequence, err := s.storage.NextSequence(domain.HistorySequence)
	if err != nil {
		return "", err
	}

	record, err := domain.NewExecutionRecord(documentName, state, sequence)
	if err != nil {
		return "", err
	}

	data, err := record.ToBytes()
	if err != nil {
		return "", domain.NewStorageError(domain.StorageErrWrite, "encode", record.ExecutionID, err)
	}

	if err := s.storage.Put(domain.HistoryKey(documentName, sequence), data); err != nil {
		s.logger.Error("failed to append execution record", "document_name", documentName, "error", err)
		return "", err
	}

	s.logger.Debug("execution recorded",
		"document_name", documentName,
		"execution_id", record.ExecutionID,
		"status", record.Status)
	return record.ExecutionID, nil
}

func (s *BadgerStore) GetExecutionHistory(ctx context.Context, documentName string) ([]domain.ExecutionRecord, error) {
	if err := domain.ValidateDocumentName(documentName); err != nil {
		return nil, err
	}

	entries, err := s.storage.ListByPrefix(domain.HistoryDocumentPrefix(documentName), true)
	if err != nil {
		return nil, err
	}

	records := make([]domain.ExecutionRecord, 0, len(entries))
	for _, entry := range entries {
		record, err := domain.ExecutionRecordFromBytes(entry.Value)
		if err != nil {
			return nil, domain.NewStorageError(domain.StorageErrCorrupted, "decode", entry.Key, err)
		}
		records = append(records, *record)
	}
	return records, nil
}

func (s *BadgerStore) Close() error {
	return nil
}
