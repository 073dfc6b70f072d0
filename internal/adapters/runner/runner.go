package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
)

const waitDelay = 2 * time.Second

// ShellRunner executes commands through a shell with a per-command timeout.
// A non-zero exit is reported through CommandOutput.ExitCode, not as an error.
type ShellRunner struct {
	shell   string
	timeout time.Duration
	logger  *slog.Logger
}

var _ ports.CommandRunner = (*ShellRunner)(nil)

func NewShellRunner(config domain.ExecutorConfig, logger *slog.Logger) *ShellRunner {
	if logger == nil {
		logger = slog.Default()
	}
	shell := config.Shell
	if shell == "" {
		shell = domain.DefaultExecutorConfig().Shell
	}
	return &ShellRunner{
		shell:   shell,
		timeout: config.CommandTimeout,
		logger:  logger.With("component", "runner"),
	}
}

func (r *ShellRunner) Run(ctx context.Context, dir, command string) (ports.CommandOutput, error) {
	output := ports.CommandOutput{Command: command}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.shell, "-c", command)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	output.Duration = time.Since(start)
	output.Stdout = stdout.String()
	output.Stderr = stderr.String()

	if ctxErr := ctx.Err(); ctxErr != nil {
		output.ExitCode = -1
		r.logger.Warn("command interrupted", "command", command, "duration", output.Duration, "error", ctxErr)
		return output, fmt.Errorf("run %q: %w", command, ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		output.ExitCode = exitErr.ExitCode()
	default:
		output.ExitCode = -1
		return output, fmt.Errorf("run %q: %w", command, err)
	}

	r.logger.Debug("command finished",
		"command", command,
		"exit_code", output.ExitCode,
		"duration", output.Duration)
	return output, nil
}
