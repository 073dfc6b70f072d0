package ports

import (
	"context"

	"github.com/eleven-am/prpflow/internal/domain"
)

type VersionStorePort interface {
	SaveVersion(ctx context.Context, documentName, content string, metadata map[string]interface{}) (*domain.Snapshot, error)
	ListVersions(ctx context.Context, documentName string) ([]domain.VersionSummary, error)
	RestoreVersion(ctx context.Context, documentName, versionID string) (*domain.Snapshot, error)
	LatestVersion(ctx context.Context, documentName string) (*domain.Snapshot, error)
	AddObserver(observer Observer)
}
