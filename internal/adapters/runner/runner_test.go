package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellRunner_CapturesOutput(t *testing.T) {
	r := NewShellRunner(domain.DefaultExecutorConfig(), nil)

	out, err := r.Run(context.Background(), t.TempDir(), "echo hello; echo oops 1>&2")
	require.NoError(t, err)
	assert.Equal(t, 0, out.ExitCode)
	assert.Equal(t, "hello\n", out.Stdout)
	assert.Equal(t, "oops\n", out.Stderr)
	assert.Equal(t, "echo hello; echo oops 1>&2", out.Command)
}

func TestShellRunner_NonZeroExit(t *testing.T) {
	r := NewShellRunner(domain.DefaultExecutorConfig(), nil)

	out, err := r.Run(context.Background(), t.TempDir(), "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, out.ExitCode)
}

func TestShellRunner_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("x"), 0o644))

	r := NewShellRunner(domain.DefaultExecutorConfig(), nil)
	out, err := r.Run(context.Background(), dir, "ls")
	require.NoError(t, err)
	assert.Contains(t, out.Stdout, "marker.txt")
}

func TestShellRunner_Timeout(t *testing.T) {
	config := domain.DefaultExecutorConfig()
	config.CommandTimeout = 50 * time.Millisecond
	r := NewShellRunner(config, nil)

	out, err := r.Run(context.Background(), t.TempDir(), "sleep 5")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, -1, out.ExitCode)
	assert.Less(t, out.Duration, 4*time.Second)
}
