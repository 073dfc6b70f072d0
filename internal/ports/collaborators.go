package ports

import (
	"context"
	"time"

	"github.com/eleven-am/prpflow/internal/domain"
)

type Renderer interface {
	Render(ctx context.Context, data domain.RenderContext) (string, error)
}

type EnvironmentDetector interface {
	Detect(path string) (domain.EnvironmentDescriptor, error)
	Supported() []domain.EnvironmentType
}

type CommandValidator interface {
	Validate(command string) []domain.Violation
}

type CommandOutput struct {
	Command  string        `json:"command"`
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	Duration time.Duration `json:"duration"`
}

type CommandRunner interface {
	Run(ctx context.Context, dir, command string) (CommandOutput, error)
}
