package prpflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigBuilder_Build(t *testing.T) {
	dir := t.TempDir()

	config, err := NewConfigBuilder(dir).
		WithPRPDir(dir + "/PRPs").
		WithMaxWorkers(2).
		WithQueueCapacity(10).
		WithTaskTimeout(time.Minute).
		WithResultTTL(time.Minute, 10*time.Second).
		WithHistoryBackend(HistoryBackendSQLite).
		WithAudit(false, "").
		WithWorkersPerType(2).
		WithRetry(1, 10*time.Millisecond).
		Build()
	require.NoError(t, err)

	assert.Equal(t, dir, config.DataDir)
	assert.Equal(t, 2, config.Dispatcher.MaxWorkers)
	assert.Equal(t, 10, config.Dispatcher.QueueCapacity)
	assert.Equal(t, HistoryBackendSQLite, config.History.Backend)
	assert.False(t, config.Audit.Enabled)
	assert.Equal(t, 1, config.Facade.RetryAttempts)
}

func TestConfigBuilder_RejectsInvalid(t *testing.T) {
	_, err := NewConfigBuilder(t.TempDir()).WithMaxWorkers(0).Build()
	require.Error(t, err)

	_, err = NewConfigBuilder("").Build()
	require.Error(t, err)

	_, err = NewConfigBuilder("").WithInMemoryStorage().WithHistoryBackend(HistoryBackendSQLite).Build()
	require.Error(t, err)
}

func TestSystem_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	config, err := NewConfigBuilder(dir).
		WithPRPDir(dir + "/PRPs").
		WithInMemoryStorage().
		Build()
	require.NoError(t, err)

	var events []VersionEvent
	system, err := New(config, WithObserver(ObserverFunc(func(ctx context.Context, event VersionEvent) error {
		events = append(events, event)
		return nil
	})))
	require.NoError(t, err)
	defer system.Shutdown()

	ctx := context.Background()
	require.NoError(t, system.Initialize(ctx))

	result, err := system.GenerateWithVersioning(ctx, "search", "typescript-env", map[string]interface{}{
		"requirements": []string{"index documents"},
	}, true)
	require.NoError(t, err)
	require.True(t, result.Success)

	versions, err := system.ListPRPVersions(ctx, "search-typescript-env")
	require.NoError(t, err)
	require.Len(t, versions, 1)

	_, err = system.RestorePRPVersion(ctx, "search-typescript-env", "missing")
	assert.True(t, IsNotFound(err))

	require.Len(t, events, 1)
	assert.Equal(t, result.VersionID, events[0].VersionID)
}
