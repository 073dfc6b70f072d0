package versions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/eleven-am/prpflow/internal/adapters/events"
	"github.com/eleven-am/prpflow/internal/adapters/storage"
	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupVersionStore(t *testing.T) (*Store, *storage.BadgerStore) {
	t.Helper()
	db, err := storage.Open(storage.Options{InMemory: true}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewStore(db, events.NewManager(testLogger()), testLogger()), db
}

func withVersionStore(fn func(store *Store) bool) bool {
	db, err := storage.Open(storage.Options{InMemory: true}, testLogger())
	if err != nil {
		return false
	}
	defer db.Close()

	return fn(NewStore(db, events.NewManager(testLogger()), testLogger()))
}

func TestStore_ConcreteScenario(t *testing.T) {
	store, _ := setupVersionStore(t)
	ctx := context.Background()

	a, err := store.SaveVersion(ctx, "doc1", "hello", map[string]interface{}{"label": "A"})
	require.NoError(t, err)
	assert.Equal(t, domain.Checksum("hello"), a.Checksum)

	b, err := store.SaveVersion(ctx, "doc1", "world", map[string]interface{}{"label": "B"})
	require.NoError(t, err)

	versions, err := store.ListVersions(ctx, "doc1")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, b.VersionID, versions[0].VersionID)
	assert.Equal(t, a.VersionID, versions[1].VersionID)

	restored, err := store.RestoreVersion(ctx, "doc1", a.VersionID)
	require.NoError(t, err)
	assert.Equal(t, "hello", restored.Content)
	assert.Equal(t, "A", restored.Metadata["label"])
}

func TestStore_ListUnknownDocumentIsEmpty(t *testing.T) {
	store, _ := setupVersionStore(t)

	versions, err := store.ListVersions(context.Background(), "never-saved")
	require.NoError(t, err)
	assert.NotNil(t, versions)
	assert.Empty(t, versions)
}

func TestStore_DocumentNamesDoNotCollide(t *testing.T) {
	store, _ := setupVersionStore(t)
	ctx := context.Background()

	_, err := store.SaveVersion(ctx, "a", "one", nil)
	require.NoError(t, err)
	_, err = store.SaveVersion(ctx, "a:b", "two", nil)
	require.NoError(t, err)

	versions, err := store.ListVersions(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestStore_RestoreUnknownOrForeignVersion(t *testing.T) {
	store, _ := setupVersionStore(t)
	ctx := context.Background()

	other, err := store.SaveVersion(ctx, "other", "x", nil)
	require.NoError(t, err)

	_, err = store.RestoreVersion(ctx, "doc1", "does-not-exist")
	assert.True(t, domain.IsNotFound(err))

	_, err = store.RestoreVersion(ctx, "doc1", other.VersionID)
	assert.True(t, domain.IsNotFound(err))
}

func TestStore_RestoreDetectsCorruption(t *testing.T) {
	store, db := setupVersionStore(t)
	ctx := context.Background()

	saved, err := store.SaveVersion(ctx, "doc1", "original", nil)
	require.NoError(t, err)

	tampered := *saved
	tampered.Content = "tampered"
	data, err := tampered.ToBytes()
	require.NoError(t, err)
	require.NoError(t, db.Put(domain.SnapshotKey("doc1", saved.Sequence), data))

	_, err = store.RestoreVersion(ctx, "doc1", saved.VersionID)
	require.Error(t, err)
	assert.True(t, domain.IsIntegrity(err))
}

func TestStore_LatestVersion(t *testing.T) {
	store, _ := setupVersionStore(t)
	ctx := context.Background()

	_, err := store.LatestVersion(ctx, "doc1")
	assert.True(t, domain.IsNotFound(err))

	_, err = store.SaveVersion(ctx, "doc1", "v1", nil)
	require.NoError(t, err)
	v2, err := store.SaveVersion(ctx, "doc1", "v2", nil)
	require.NoError(t, err)

	latest, err := store.LatestVersion(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, v2.VersionID, latest.VersionID)
}

func TestStore_RejectsEmptyName(t *testing.T) {
	store, _ := setupVersionStore(t)

	_, err := store.SaveVersion(context.Background(), "", "content", nil)
	assert.True(t, domain.IsInvalidInput(err))
}

func TestStore_ListenerIsolation(t *testing.T) {
	store, _ := setupVersionStore(t)
	ctx := context.Background()

	var received []domain.VersionEvent
	store.AddObserver(ports.ObserverFunc(func(ctx context.Context, event domain.VersionEvent) error {
		panic("broken listener")
	}))
	store.AddObserver(ports.ObserverFunc(func(ctx context.Context, event domain.VersionEvent) error {
		return errors.New("also broken")
	}))
	store.AddObserver(ports.ObserverFunc(func(ctx context.Context, event domain.VersionEvent) error {
		received = append(received, event)
		return nil
	}))

	snapshot, err := store.SaveVersion(ctx, "doc1", "content", map[string]interface{}{"k": "v"})
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	_, err = store.RestoreVersion(ctx, "doc1", snapshot.VersionID)
	require.NoError(t, err)

	require.Len(t, received, 2)
	assert.Equal(t, domain.EventVersionSaved, received[0].Type)
	assert.Equal(t, snapshot.VersionID, received[0].VersionID)
	assert.Equal(t, snapshot.Checksum, received[0].Checksum)
	assert.Equal(t, "v", received[0].Metadata["k"])
	assert.Equal(t, domain.EventVersionRestored, received[1].Type)
}

func TestStore_StorageFailurePropagates(t *testing.T) {
	store, db := setupVersionStore(t)
	require.NoError(t, db.Close())

	_, err := store.SaveVersion(context.Background(), "doc1", "content", nil)
	require.Error(t, err)
	assert.True(t, domain.IsStorage(err))
}

func TestStore_RoundTripProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("every saved version restores byte-identical content", prop.ForAll(
		func(contents []string) bool {
			return withVersionStore(func(store *Store) bool {
				ctx := context.Background()

				saved := make([]*domain.Snapshot, 0, len(contents))
				for _, content := range contents {
					snapshot, err := store.SaveVersion(ctx, "prop-doc", content, nil)
					if err != nil || snapshot.Checksum != domain.Checksum(content) {
						return false
					}
					saved = append(saved, snapshot)
				}

				for i, snapshot := range saved {
					restored, err := store.RestoreVersion(ctx, "prop-doc", snapshot.VersionID)
					if err != nil || restored.Content != contents[i] {
						return false
					}
				}
				return true
			})
		},
		gen.SliceOf(gen.AnyString()),
	))

	properties.Property("listing is newest first and counts every save", prop.ForAll(
		func(n int) bool {
			return withVersionStore(func(store *Store) bool {
				ctx := context.Background()

				for i := 0; i < n; i++ {
					if _, err := store.SaveVersion(ctx, "prop-doc", fmt.Sprintf("content-%d", i), nil); err != nil {
						return false
					}
				}

				versions, err := store.ListVersions(ctx, "prop-doc")
				if err != nil || len(versions) != n {
					return false
				}
				for i := 1; i < len(versions); i++ {
					prev, cur := versions[i-1], versions[i]
					if cur.Timestamp.After(prev.Timestamp) {
						return false
					}
					if cur.Timestamp.Equal(prev.Timestamp) && cur.Sequence > prev.Sequence {
						return false
					}
				}
				return true
			})
		},
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}

func TestStore_RestoresNonUTF8Content(t *testing.T) {
	store, _ := setupVersionStore(t)
	ctx := context.Background()

	content := "caf\xe9 latin-1"
	saved, err := store.SaveVersion(ctx, "doc", content, nil)
	require.NoError(t, err)

	restored, err := store.RestoreVersion(ctx, "doc", saved.VersionID)
	require.NoError(t, err)
	assert.Equal(t, []byte(content), []byte(restored.Content))
	assert.Equal(t, saved.Checksum, restored.Checksum)
}

func TestStore_ByteRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("arbitrary byte content restores byte-identical", prop.ForAll(
		func(raw []byte) bool {
			return withVersionStore(func(store *Store) bool {
				ctx := context.Background()
				snapshot, err := store.SaveVersion(ctx, "bytes-doc", string(raw), nil)
				if err != nil {
					return false
				}
				restored, err := store.RestoreVersion(ctx, "bytes-doc", snapshot.VersionID)
				return err == nil && restored.Content == string(raw)
			})
		},
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}
