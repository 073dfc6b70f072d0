package workers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
)

const (
	StatusCompleted = "completed"
	StatusPartial   = "partial"
)

// Executor carries out a PRP: it extracts the implementation tasks and shell
// commands, vets every command and optionally runs them.
type Executor struct {
	base
	detector  ports.EnvironmentDetector
	validator ports.CommandValidator
	runner    ports.CommandRunner
	config    domain.ExecutorConfig
}

var _ ports.Worker = (*Executor)(nil)

func NewExecutor(id string, mediator ports.Mediator, deps Deps) *Executor {
	return &Executor{
		base:      newBase(id, mediator, deps.logger(), "executor"),
		detector:  deps.Detector,
		validator: deps.Validator,
		runner:    deps.Runner,
		config:    deps.Executor,
	}
}

func (e *Executor) Capabilities() domain.CapabilitySet {
	return domain.NewCapabilitySet(domain.ComponentExecutor, domain.OperationExecutePRP)
}

func (e *Executor) Reentrant() bool {
	return false
}

func (e *Executor) Execute(ctx context.Context, request domain.TaskRequest) (map[string]interface{}, error) {
	params := request.Parameters
	prpPath := domain.StringParam(params, "prp_path", "")
	if prpPath == "" {
		return nil, domain.NewValidationError("prp_path", "cannot be empty")
	}

	raw, err := os.ReadFile(prpPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NewNotFoundError("prp", prpPath)
		}
		return nil, fmt.Errorf("read %s: %w", prpPath, err)
	}

	projectDir := domain.StringParam(params, "project_dir", ".")
	environment := domain.StringParam(params, "environment", "")
	if environment == "" && e.detector != nil {
		if desc, err := e.detector.Detect(projectDir); err == nil {
			environment = desc.Name
		} else {
			e.logger.Debug("environment detection failed", "project_dir", projectDir, "error", err)
		}
	}

	prp, err := parsePRP(string(raw))
	if err != nil {
		return nil, err
	}
	if len(prp.Tasks) == 0 && len(prp.Commands) == 0 {
		return nil, domain.NewValidationError("prp", fmt.Sprintf("%s has no implementation tasks or commands", filepath.Base(prpPath)))
	}

	if err := checkCommands(e.validator, prp.Commands); err != nil {
		e.logger.Warn("prp rejected", "task_id", request.TaskID, "prp_path", prpPath, "error", err)
		return nil, err
	}

	e.notify("started", map[string]interface{}{"task_id": request.TaskID, "tasks": len(prp.Tasks)})

	runCommands := domain.BoolParam(params, "run_commands", e.config.RunCommands)
	status := StatusCompleted
	commands := make([]interface{}, 0, len(prp.Commands))

	for _, cmd := range prp.Commands {
		entry := map[string]interface{}{"command": cmd, "executed": false}
		if runCommands && e.runner != nil {
			output, err := e.runner.Run(ctx, projectDir, cmd)
			if err != nil {
				return nil, err
			}
			entry["executed"] = true
			entry["exit_code"] = output.ExitCode
			entry["stdout"] = tail(output.Stdout)
			entry["stderr"] = tail(output.Stderr)
			entry["duration_ms"] = output.Duration.Milliseconds()
			if output.ExitCode != 0 {
				status = StatusPartial
			}
			e.notify("command_finished", map[string]interface{}{"command": cmd, "exit_code": output.ExitCode})
		}
		commands = append(commands, entry)
	}

	tasks := make([]interface{}, len(prp.Tasks))
	for i, task := range prp.Tasks {
		tasks[i] = task
	}
	tasksCompleted := len(prp.Tasks)
	if status == StatusPartial {
		tasksCompleted = 0
	}

	e.notify("completed", map[string]interface{}{"task_id": request.TaskID, "status": status})

	return map[string]interface{}{
		"status":          status,
		"tasks":           tasks,
		"tasks_completed": tasksCompleted,
		"commands":        commands,
		"environment":     environment,
		"title":           prp.Title,
	}, nil
}

const tailLimit = 4096

func tail(s string) string {
	s = strings.TrimRight(s, "\n")
	if len(s) <= tailLimit {
		return s
	}
	return s[len(s)-tailLimit:]
}
