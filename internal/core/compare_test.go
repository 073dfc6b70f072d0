package core

import (
	"testing"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/xjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validationSnapshot(t *testing.T, outcomes map[string]bool) *domain.Snapshot {
	t.Helper()
	checks := make([]interface{}, 0, len(outcomes))
	for command, passed := range outcomes {
		checks = append(checks, map[string]interface{}{"command": command, "passed": passed})
	}
	content, err := xjson.Marshal(map[string]interface{}{"checks": checks})
	require.NoError(t, err)

	snapshot, err := domain.NewSnapshot("validation_go-env", string(content), nil, 1)
	require.NoError(t, err)
	return snapshot
}

func TestCompareOutcomesCoversEveryCheck(t *testing.T) {
	previous := validationSnapshot(t, map[string]bool{
		"go vet":    true,
		"go test":   false,
		"golint":    true,
		"old check": true,
	})

	comparison := compareOutcomes(previous, map[string]bool{
		"go vet":    true,
		"go test":   true,
		"golint":    false,
		"new check": true,
		"new fail":  false,
	})

	assert.Equal(t, previous.VersionID, comparison.PreviousVersionID)
	assert.Equal(t, []string{"golint", "new fail"}, comparison.NewFailures)
	assert.Equal(t, []string{"go test"}, comparison.Resolved)
	assert.Equal(t, []string{"go vet"}, comparison.Unchanged)
	assert.Equal(t, []string{"new check"}, comparison.Added)
	assert.Equal(t, []string{"old check"}, comparison.Removed)
}

func TestCompareOutcomesWithoutPrevious(t *testing.T) {
	comparison := compareOutcomes(nil, map[string]bool{"a": true, "b": false})

	assert.Empty(t, comparison.PreviousVersionID)
	assert.Equal(t, []string{"b"}, comparison.NewFailures)
	assert.Equal(t, []string{"a"}, comparison.Added)
	assert.Empty(t, comparison.Removed)
}
