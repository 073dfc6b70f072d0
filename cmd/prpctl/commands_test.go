package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/xjson"
	"github.com/stretchr/testify/assert"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	viper.Reset()
	return out.String(), err
}

type cliDirs struct {
	data string
	prps string
}

func newCLIDirs(t *testing.T) cliDirs {
	base := t.TempDir()
	return cliDirs{data: filepath.Join(base, "data"), prps: filepath.Join(base, "PRPs")}
}

func (d cliDirs) flags(extra ...string) []string {
	return append(extra, "--data-dir", d.data, "--prp-dir", d.prps, "--log-level", "error")
}

func decode(t *testing.T, out string, v interface{}) {
	t.Helper()
	require.NoError(t, xjson.Unmarshal([]byte(out), v), out)
}

func TestDetectCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/x\n"), 0o644))

	out, err := runCLI(t, "detect", dir, "--json")
	require.NoError(t, err)

	var fields map[string]interface{}
	decode(t, out, &fields)
	assert.Equal(t, "go", fields["Type"])
	assert.Equal(t, "go-env", fields["Name"])
}

func TestGenerateExecuteRollbackFlow(t *testing.T) {
	dirs := newCLIDirs(t)
	feature := filepath.Join(t.TempDir(), "auth.md")
	require.NoError(t, os.WriteFile(feature, []byte(sampleFeature), 0o644))

	out, err := runCLI(t, dirs.flags("generate", feature, "--env", "go-env", "--json")...)
	require.NoError(t, err)

	var generated map[string]interface{}
	decode(t, out, &generated)
	assert.Equal(t, true, generated["success"])
	versionID, _ := generated["version_id"].(string)
	require.NotEmpty(t, versionID)

	prpPath := filepath.Join(dirs.prps, "auth-go-env.md")
	original, err := os.ReadFile(prpPath)
	require.NoError(t, err)
	assert.Contains(t, string(original), "Login endpoint with JWT tokens")

	out, err = runCLI(t, dirs.flags("versions", "list", "auth-go-env", "--json")...)
	require.NoError(t, err)
	var versions []domain.VersionSummary
	decode(t, out, &versions)
	require.Len(t, versions, 1)
	assert.Equal(t, versionID, versions[0].VersionID)

	require.NoError(t, os.WriteFile(prpPath, []byte("## Implementation Tasks\n1. Wipe\n```sh\nrm -rf /\n```\n"), 0o644))

	_, err = runCLI(t, dirs.flags("execute", prpPath, "--env", "go-env", "--json")...)
	require.Error(t, err)

	restored, err := os.ReadFile(prpPath)
	require.NoError(t, err)
	assert.Equal(t, string(original), string(restored))

	out, err = runCLI(t, dirs.flags("history", "auth-go-env", "--json")...)
	require.NoError(t, err)
	var records []domain.ExecutionRecord
	decode(t, out, &records)
	require.Len(t, records, 1)
	assert.Equal(t, domain.ExecutionStatusFailure, records[0].Status)
	assert.Equal(t, versionID, records[0].VersionID)
}

func TestVersionsRestoreToFile(t *testing.T) {
	dirs := newCLIDirs(t)
	feature := filepath.Join(t.TempDir(), "cache.md")
	require.NoError(t, os.WriteFile(feature, []byte("FEATURE:\n- LRU cache\n"), 0o644))

	out, err := runCLI(t, dirs.flags("generate", feature, "--env", "go-env", "--no-write", "--json")...)
	require.NoError(t, err)
	var generated map[string]interface{}
	decode(t, out, &generated)
	versionID := generated["version_id"].(string)

	_, err = os.Stat(filepath.Join(dirs.prps, "cache-go-env.md"))
	assert.True(t, os.IsNotExist(err))

	target := filepath.Join(t.TempDir(), "restored", "cache.md")
	_, err = runCLI(t, dirs.flags("versions", "restore", "cache-go-env", versionID, "-o", target)...)
	require.NoError(t, err)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(content), "LRU cache")

	_, err = runCLI(t, dirs.flags("versions", "restore", "cache-go-env", "missing-id")...)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestValidateRequiresChecks(t *testing.T) {
	dirs := newCLIDirs(t)
	_, err := runCLI(t, dirs.flags("validate")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--check")
}

func TestStatusCommandOmitsProcessCounters(t *testing.T) {
	dirs := newCLIDirs(t)

	out, err := runCLI(t, dirs.flags("status", "--json")...)
	require.NoError(t, err)

	var status map[string]interface{}
	decode(t, out, &status)
	assert.Equal(t, dirs.data, status["data_dir"])
	assert.Equal(t, "badger", status["history_backend"])
	assert.Equal(t, []interface{}{"prp_executor", "prp_generator", "validator"}, status["worker_types"])
	assert.NotContains(t, status, "tasks_completed")
	assert.NotContains(t, status, "listeners")
}

func TestPrintVersionsTable(t *testing.T) {
	var out bytes.Buffer
	checksum := domain.Checksum("hello")
	require.NoError(t, printVersions(&out, []domain.VersionSummary{{
		VersionID: "v-123",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Checksum:  checksum,
		Size:      5,
	}}))

	text := out.String()
	assert.Contains(t, text, "v-123")
	assert.Contains(t, text, "2026-01-02T03:04:05Z")
	assert.Contains(t, text, checksum[:12])
	assert.NotContains(t, text, checksum)
}

func TestPrintKVSortsKeys(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printKV(&out, map[string]interface{}{
		"b": []string{"x", "y"},
		"a": 1,
	}))

	text := out.String()
	assert.Less(t, strings.Index(text, "a"), strings.Index(text, "b"))
	assert.Contains(t, text, "x, y")
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "", display(nil))
	assert.Equal(t, "a, b", display([]string{"a", "b"}))
	assert.Equal(t, "1, two", display([]interface{}{1, "two"}))
	assert.Equal(t, "true", display(true))
}
