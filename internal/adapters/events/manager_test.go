package events

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
	"github.com/eleven-am/prpflow/internal/xjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockObserver struct {
	mock.Mock
}

func (m *MockObserver) Notify(ctx context.Context, event domain.VersionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func savedEvent(doc string) domain.VersionEvent {
	return domain.VersionEvent{
		Type:         domain.EventVersionSaved,
		DocumentName: doc,
		VersionID:    "v1",
		Checksum:     domain.Checksum("content"),
		Metadata:     map[string]interface{}{"author": "a"},
	}
}

func TestManager_DeliversInRegistrationOrder(t *testing.T) {
	manager := NewManager(testLogger())

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		manager.Subscribe(ports.ObserverFunc(func(ctx context.Context, event domain.VersionEvent) error {
			order = append(order, i)
			return nil
		}))
	}

	failures := manager.Publish(context.Background(), savedEvent("doc1"))
	assert.Empty(t, failures)
	assert.Equal(t, []int{0, 1, 2}, order)
	assert.Equal(t, 3, manager.ObserverCount())
}

func TestManager_IsolatesFailingObservers(t *testing.T) {
	manager := NewManager(testLogger())
	event := savedEvent("doc1")

	failing := &MockObserver{}
	failing.On("Notify", mock.Anything, event).Return(errors.New("disk full"))

	var reached bool
	manager.Subscribe(failing)
	manager.Subscribe(ports.ObserverFunc(func(ctx context.Context, event domain.VersionEvent) error {
		panic("listener bug")
	}))
	manager.Subscribe(ports.ObserverFunc(func(ctx context.Context, event domain.VersionEvent) error {
		reached = true
		return nil
	}))

	failures := manager.Publish(context.Background(), event)

	require.Len(t, failures, 2)
	assert.EqualError(t, failures[0], "disk full")
	assert.Contains(t, failures[1].Error(), "listener bug")
	assert.True(t, reached)
	failing.AssertExpectations(t)
}

func TestManager_SubscribeIgnoresNil(t *testing.T) {
	manager := NewManager(nil)
	manager.Subscribe(nil)
	assert.Equal(t, 0, manager.ObserverCount())
}

func TestMetricsObserver_Counts(t *testing.T) {
	metrics := NewMetricsObserver()
	ctx := context.Background()

	assert.True(t, metrics.Metrics().LastActivity.IsZero())

	require.NoError(t, metrics.Notify(ctx, savedEvent("doc1")))
	require.NoError(t, metrics.Notify(ctx, savedEvent("doc1")))

	restored := savedEvent("doc1")
	restored.Type = domain.EventVersionRestored
	require.NoError(t, metrics.Notify(ctx, restored))

	snapshot := metrics.Metrics()
	assert.Equal(t, int64(2), snapshot.VersionsSaved)
	assert.Equal(t, int64(1), snapshot.VersionsRestored)
	assert.False(t, snapshot.LastActivity.IsZero())
}

func TestMetricsObserver_ConcurrentNotify(t *testing.T) {
	metrics := NewMetricsObserver()
	ctx := context.Background()

	restored := savedEvent("doc1")
	restored.Type = domain.EventVersionRestored

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = metrics.Notify(ctx, savedEvent("doc1"))
		}()
		go func() {
			defer wg.Done()
			_ = metrics.Notify(ctx, restored)
		}()
	}
	wg.Wait()

	snapshot := metrics.Metrics()
	assert.Equal(t, int64(50), snapshot.VersionsSaved)
	assert.Equal(t, int64(50), snapshot.VersionsRestored)
}

func TestAuditObserver_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audit.log")
	audit, err := NewAuditObserver(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, audit.Notify(ctx, savedEvent("doc1")))
	require.NoError(t, audit.Notify(ctx, savedEvent("doc2")))
	require.NoError(t, audit.Close())
	require.NoError(t, audit.Close())

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var docs []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var line map[string]interface{}
		require.NoError(t, xjson.Unmarshal(scanner.Bytes(), &line))
		assert.Equal(t, "version_saved", line["@message"])
		assert.Equal(t, "v1", line["version_id"])
		docs = append(docs, line["document_name"].(string))
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"doc1", "doc2"}, docs)

	assert.Error(t, audit.Notify(ctx, savedEvent("doc3")))
}
