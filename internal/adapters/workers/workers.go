package workers

import (
	"log/slog"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
)

const (
	TagGenerator = "prp_generator"
	TagExecutor  = "prp_executor"
	TagValidator = "validator"
)

// Deps are the collaborators shared by every built-in worker.
type Deps struct {
	Renderer  ports.Renderer
	Detector  ports.EnvironmentDetector
	Validator ports.CommandValidator
	Runner    ports.CommandRunner
	Executor  domain.ExecutorConfig
	PRPDir    string
	Logger    *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// RegisterBuiltins registers the generator, executor and validator
// constructors under their well-known tags.
func RegisterBuiltins(registry ports.RegistryPort, deps Deps) {
	registry.Register(TagGenerator, func(id string, mediator ports.Mediator) ports.Worker {
		return NewGenerator(id, mediator, deps)
	})
	registry.Register(TagExecutor, func(id string, mediator ports.Mediator) ports.Worker {
		return NewExecutor(id, mediator, deps)
	})
	registry.Register(TagValidator, func(id string, mediator ports.Mediator) ports.Worker {
		return NewValidator(id, mediator, deps)
	})
}

type base struct {
	id       string
	mediator ports.Mediator
	logger   *slog.Logger
}

func newBase(id string, mediator ports.Mediator, logger *slog.Logger, component string) base {
	return base{
		id:       id,
		mediator: mediator,
		logger:   logger.With("component", component, "worker_id", id),
	}
}

func (b base) ID() string {
	return b.id
}

func (b base) notify(event string, data map[string]interface{}) {
	if b.mediator != nil {
		b.mediator.Notify(b.id, event, data)
	}
}

// checkCommands runs every command through the security validator and
// returns the first rejection.
func checkCommands(validator ports.CommandValidator, commands []string) error {
	if validator == nil {
		return nil
	}
	for _, cmd := range commands {
		if violations := validator.Validate(cmd); len(violations) > 0 {
			return &domain.CommandRejectedError{Command: cmd, Violations: violations}
		}
	}
	return nil
}
