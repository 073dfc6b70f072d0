package workers

import (
	"context"
	"strings"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
)

// Validator runs validation checks. Every check is vetted by the security
// validator; approved checks are executed when running is enabled.
type Validator struct {
	base
	validator ports.CommandValidator
	runner    ports.CommandRunner
	config    domain.ExecutorConfig
}

var _ ports.Worker = (*Validator)(nil)

func NewValidator(id string, mediator ports.Mediator, deps Deps) *Validator {
	return &Validator{
		base:      newBase(id, mediator, deps.logger(), "validator"),
		validator: deps.Validator,
		runner:    deps.Runner,
		config:    deps.Executor,
	}
}

func (v *Validator) Capabilities() domain.CapabilitySet {
	return domain.NewCapabilitySet(domain.ComponentValidator,
		domain.OperationValidateImplementation,
		domain.OperationValidateCommand)
}

func (v *Validator) Reentrant() bool {
	return false
}

func (v *Validator) Execute(ctx context.Context, request domain.TaskRequest) (map[string]interface{}, error) {
	params := request.Parameters

	var checks []string
	if request.Operation == domain.OperationValidateCommand {
		if cmd := strings.TrimSpace(domain.StringParam(params, "command", "")); cmd != "" {
			checks = []string{cmd}
		}
	} else {
		checks = domain.StringSliceParam(params, "checks")
	}
	if len(checks) == 0 {
		return nil, domain.NewValidationError("checks", "at least one check is required")
	}

	run := domain.BoolParam(params, "run_commands", v.config.RunCommands)
	dir := domain.StringParam(params, "project_dir", ".")

	allPassed := true
	results := make([]interface{}, 0, len(checks))
	for _, check := range checks {
		entry := map[string]interface{}{"command": check}

		var violations []domain.Violation
		if v.validator != nil {
			violations = v.validator.Validate(check)
		}
		passed := len(violations) == 0

		if len(violations) > 0 {
			rules := make([]interface{}, len(violations))
			for i, violation := range violations {
				rules[i] = violation.Rule
			}
			entry["violations"] = rules
		} else if run && v.runner != nil {
			output, err := v.runner.Run(ctx, dir, check)
			if err != nil {
				return nil, err
			}
			passed = output.ExitCode == 0
			entry["exit_code"] = output.ExitCode
			entry["output"] = tail(output.Stdout + output.Stderr)
		}

		entry["passed"] = passed
		if !passed {
			allPassed = false
		}
		results = append(results, entry)
	}

	v.notify("completed", map[string]interface{}{"task_id": request.TaskID, "passed": allPassed})

	return map[string]interface{}{
		"environment": domain.StringParam(params, "environment", ""),
		"checks":      results,
		"passed":      allPassed,
	}, nil
}
