package versions

import (
	"context"
	"log/slog"
	"sort"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
)

type Store struct {
	storage  ports.StoragePort
	notifier ports.NotifierPort
	logger   *slog.Logger
}

var _ ports.VersionStorePort = (*Store)(nil)

func NewStore(storage ports.StoragePort, notifier ports.NotifierPort, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		storage:  storage,
		notifier: notifier,
		logger:   logger.With("component", "version-store"),
	}
}

func (s *Store) AddObserver(observer ports.Observer) {
	s.notifier.Subscribe(observer)
}

func (s *Store) SaveVersion(ctx context.Context, documentName, content string, metadata map[string]interface{}) (*domain.Snapshot, error) {
	if err := domain.ValidateDocumentName(documentName); err != nil {
		return nil, err
	}

	sequence, err := s.storage.NextSequence(domain.SnapshotSequence)
	if err != nil {
		return nil, err
	}

	snapshot, err := domain.NewSnapshot(documentName, content, metadata, sequence)
	if err != nil {
		return nil, err
	}

	data, err := snapshot.ToBytes()
	if err != nil {
		return nil, domain.NewStorageError(domain.StorageErrWrite, "encode", snapshot.VersionID, err)
	}

	key := domain.SnapshotKey(documentName, sequence)
	err = s.storage.RunInTransaction(func(tx ports.Transaction) error {
		if err := tx.Put(key, data); err != nil {
			return err
		}
		return tx.Put(domain.SnapshotIndexKey(snapshot.VersionID), []byte(key))
	})
	if err != nil {
		s.logger.Error("failed to persist snapshot", "document_name", documentName, "error", err)
		return nil, err
	}

	s.logger.Debug("version saved",
		"document_name", documentName,
		"version_id", snapshot.VersionID,
		"sequence", sequence,
		"size", len(content))

	s.notifier.Publish(ctx, domain.NewVersionEvent(domain.EventVersionSaved, snapshot))
	return snapshot, nil
}

func (s *Store) ListVersions(ctx context.Context, documentName string) ([]domain.VersionSummary, error) {
	if err := domain.ValidateDocumentName(documentName); err != nil {
		return nil, err
	}

	snapshots, err := s.loadAll(documentName)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.VersionSummary, 0, len(snapshots))
	for _, snapshot := range snapshots {
		summaries = append(summaries, snapshot.Summary())
	}
	return summaries, nil
}

func (s *Store) RestoreVersion(ctx context.Context, documentName, versionID string) (*domain.Snapshot, error) {
	if err := domain.ValidateDocumentName(documentName); err != nil {
		return nil, err
	}

	snapshot, err := s.lookup(documentName, versionID)
	if err != nil {
		return nil, err
	}

	if err := snapshot.Verify(); err != nil {
		s.logger.Error("snapshot failed integrity check",
			"document_name", documentName,
			"version_id", versionID,
			"error", err)
		return nil, err
	}

	s.logger.Info("version restored", "document_name", documentName, "version_id", versionID)
	s.notifier.Publish(ctx, domain.NewVersionEvent(domain.EventVersionRestored, snapshot))
	return snapshot, nil
}

func (s *Store) LatestVersion(ctx context.Context, documentName string) (*domain.Snapshot, error) {
	if err := domain.ValidateDocumentName(documentName); err != nil {
		return nil, err
	}

	snapshots, err := s.loadAll(documentName)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, domain.NewNotFoundError("version", documentName)
	}
	return snapshots[0], nil
}

func (s *Store) lookup(documentName, versionID string) (*domain.Snapshot, error) {
	key, exists, err := s.storage.Get(domain.SnapshotIndexKey(versionID))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NewNotFoundError("version", versionID)
	}

	data, exists, err := s.storage.Get(string(key))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NewNotFoundError("version", versionID)
	}

	snapshot, err := domain.SnapshotFromBytes(data)
	if err != nil {
		return nil, domain.NewStorageError(domain.StorageErrCorrupted, "decode", string(key), err)
	}
	if snapshot.DocumentName != documentName {
		return nil, domain.NewNotFoundError("version", versionID)
	}
	return snapshot, nil
}

// loadAll returns every snapshot of a document, newest first.
func (s *Store) loadAll(documentName string) ([]*domain.Snapshot, error) {
	entries, err := s.storage.ListByPrefix(domain.SnapshotDocumentPrefix(documentName), true)
	if err != nil {
		return nil, err
	}

	snapshots := make([]*domain.Snapshot, 0, len(entries))
	for _, entry := range entries {
		snapshot, err := domain.SnapshotFromBytes(entry.Value)
		if err != nil {
			return nil, domain.NewStorageError(domain.StorageErrCorrupted, "decode", entry.Key, err)
		}
		snapshots = append(snapshots, snapshot)
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		if !snapshots[i].Timestamp.Equal(snapshots[j].Timestamp) {
			return snapshots[i].Timestamp.After(snapshots[j].Timestamp)
		}
		return snapshots[i].Sequence > snapshots[j].Sequence
	})
	return snapshots, nil
}
