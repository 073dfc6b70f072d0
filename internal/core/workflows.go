package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/xjson"
)

// GenerateWithVersioning renders a PRP for name in environment. When
// saveVersions is set and generation succeeds the content is stored under
// "{name}-{environment}".
func (s *System) GenerateWithVersioning(ctx context.Context, name, environment string, requirements map[string]interface{}, saveVersions bool) (*Result, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewValidationError("name", "cannot be empty")
	}

	params, err := domain.MergeParameters(map[string]interface{}{
		"complexity": string(domain.ComplexityMedium),
		"write_file": false,
		"output_dir": s.config.PRPDir,
	}, requirements)
	if err != nil {
		return nil, err
	}
	params["feature_name"] = name
	params["environment"] = environment

	task, attempts, err := s.run(ctx, domain.TaskRequest{
		ComponentType: domain.ComponentGenerator,
		Operation:     domain.OperationGeneratePRP,
		Parameters:    params,
		Priority:      priorityParam(params),
	})
	if err != nil {
		return nil, err
	}

	result := &Result{TaskResult: task, Attempts: attempts}
	if !task.Success || !saveVersions {
		return result, nil
	}

	documentName := versionedName(name, environment)
	snapshot, err := s.versions.SaveVersion(ctx, documentName, domain.StringParam(task.Result, "prp_content", ""), map[string]interface{}{
		"feature_name": name,
		"environment":  environment,
		"complexity":   task.Result["complexity"],
		"file_path":    task.Result["file_path"],
		"task_id":      task.TaskID,
		"session_id":   s.sessionID,
	})
	if err != nil {
		return nil, err
	}

	result.DocumentName = documentName
	result.VersionID = snapshot.VersionID
	result.Checksum = snapshot.Checksum

	s.logger.Info("prp generated",
		"document_name", documentName,
		"version_id", snapshot.VersionID,
		"task_id", task.TaskID)
	return result, nil
}

// ExecuteWithRollback executes the PRP at prpPath. The latest snapshot of the
// PRP's document (its file stem) taken before the attempt is the rollback
// target. An execution record is appended whatever the outcome.
func (s *System) ExecuteWithRollback(ctx context.Context, prpPath, environment string, options map[string]interface{}, autoRollback bool) (*Result, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(prpPath) == "" {
		return nil, domain.NewValidationError("prp_path", "cannot be empty")
	}

	documentName := strings.TrimSuffix(filepath.Base(prpPath), filepath.Ext(prpPath))

	target, err := s.versions.LatestVersion(ctx, documentName)
	if err != nil && !domain.IsNotFound(err) {
		return nil, err
	}

	params, err := domain.MergeParameters(map[string]interface{}{
		"run_commands": s.config.Executor.RunCommands,
	}, options)
	if err != nil {
		return nil, err
	}
	params["prp_path"] = prpPath
	params["environment"] = environment

	task, attempts, err := s.run(ctx, domain.TaskRequest{
		ComponentType: domain.ComponentExecutor,
		Operation:     domain.OperationExecutePRP,
		Parameters:    params,
		Priority:      priorityParam(params),
	})
	if err != nil {
		return nil, err
	}

	result := &Result{TaskResult: task, DocumentName: documentName, Attempts: attempts}
	if !task.Success && autoRollback {
		result.Rollback = s.rollback(ctx, documentName, prpPath, target)
	}

	status := domain.ExecutionStatusFailure
	if task.Success {
		status = domain.ExecutionStatusSuccess
		if domain.StringParam(task.Result, "status", "") == "partial" {
			status = domain.ExecutionStatusPartial
		}
	}

	payload := map[string]interface{}{
		"task_id":     task.TaskID,
		"prp_path":    prpPath,
		"environment": environment,
		"attempts":    attempts,
		"session_id":  s.sessionID,
	}
	if task.Success {
		payload["tasks_completed"] = task.Result["tasks_completed"]
	} else {
		payload["error"] = task.Error
	}
	if result.Rollback != nil {
		payload["rollback"] = map[string]interface{}{
			"attempted":  result.Rollback.Attempted,
			"restored":   result.Rollback.Restored,
			"version_id": result.Rollback.VersionID,
			"error":      result.Rollback.Error,
		}
	}

	state := domain.ExecutionState{Status: status, Payload: payload}
	if target != nil {
		state.VersionID = target.VersionID
	}
	executionID, err := s.history.SaveExecutionState(ctx, documentName, state)
	if err != nil {
		return nil, err
	}
	result.ExecutionID = executionID

	s.logger.Info("prp executed",
		"document_name", documentName,
		"status", status,
		"execution_id", executionID,
		"rolled_back", result.Rollback != nil && result.Rollback.Restored)
	return result, nil
}

func (s *System) rollback(ctx context.Context, documentName, prpPath string, target *domain.Snapshot) *Rollback {
	rb := &Rollback{Attempted: true}
	if target == nil {
		rb.Error = domain.NewNotFoundError("snapshot", documentName).Error()
		s.logger.Warn("rollback skipped", "document_name", documentName, "error", rb.Error)
		return rb
	}
	rb.VersionID = target.VersionID

	snapshot, err := s.versions.RestoreVersion(ctx, documentName, target.VersionID)
	if err != nil {
		rb.Error = err.Error()
		s.logger.Error("rollback failed", "document_name", documentName, "version_id", target.VersionID, "error", err)
		return rb
	}

	if err := os.WriteFile(prpPath, []byte(snapshot.Content), 0o644); err != nil {
		rb.Error = fmt.Sprintf("write %s: %v", prpPath, err)
		s.logger.Error("rollback failed", "document_name", documentName, "version_id", target.VersionID, "error", err)
		return rb
	}

	rb.Restored = true
	s.metrics.IncrementRollbacks()
	s.logger.Info("rolled back", "document_name", documentName, "version_id", target.VersionID)
	return rb
}

// ValidateWithHistory runs checks for environment, optionally compares them
// with the previous run, and stores the new output as a snapshot of
// "validation_{environment}". The result only succeeds when every check passed.
func (s *System) ValidateWithHistory(ctx context.Context, environment string, checks []string, compareWithPrevious bool) (*Result, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	documentName := "validation_" + environment

	var previous *domain.Snapshot
	if compareWithPrevious {
		snapshot, err := s.versions.LatestVersion(ctx, documentName)
		if err != nil && !domain.IsNotFound(err) {
			return nil, err
		}
		previous = snapshot
	}

	task, attempts, err := s.run(ctx, domain.TaskRequest{
		ComponentType: domain.ComponentValidator,
		Operation:     domain.OperationValidateImplementation,
		Parameters: map[string]interface{}{
			"environment": environment,
			"checks":      checks,
		},
	})
	if err != nil {
		return nil, err
	}

	result := &Result{TaskResult: task, DocumentName: documentName, Attempts: attempts}
	if !task.Success {
		return result, s.recordValidation(ctx, result, domain.ExecutionStatusFailure)
	}

	current := checkOutcomes(task.Result)
	if compareWithPrevious {
		result.Comparison = compareOutcomes(previous, current)
	}

	content, err := xjson.MarshalIndent(task.Result)
	if err != nil {
		return nil, fmt.Errorf("encode validation output: %w", err)
	}
	passed := domain.BoolParam(task.Result, "passed", false)

	snapshot, err := s.versions.SaveVersion(ctx, documentName, string(content), map[string]interface{}{
		"environment": environment,
		"passed":      passed,
		"task_id":     task.TaskID,
		"session_id":  s.sessionID,
	})
	if err != nil {
		return nil, err
	}
	result.VersionID = snapshot.VersionID
	result.Checksum = snapshot.Checksum

	status := domain.ExecutionStatusSuccess
	if !passed {
		copied := *task
		copied.Success = false
		copied.Error = "one or more validation checks failed"
		result.TaskResult = &copied
		status = domain.ExecutionStatusFailure
	}

	return result, s.recordValidation(ctx, result, status)
}

func (s *System) recordValidation(ctx context.Context, result *Result, status domain.ExecutionStatus) error {
	payload := map[string]interface{}{
		"task_id":    result.TaskID,
		"session_id": s.sessionID,
	}
	if result.Error != "" {
		payload["error"] = result.Error
	}

	executionID, err := s.history.SaveExecutionState(ctx, result.DocumentName, domain.ExecutionState{
		Status:    status,
		Payload:   payload,
		VersionID: result.VersionID,
	})
	if err != nil {
		return err
	}
	result.ExecutionID = executionID
	return nil
}

// run submits request and waits for its result, retrying worker failures up
// to facade.retry_attempts times. Only context cancellation and programming
// errors are returned as errors; everything else is a failure result.
func (s *System) run(ctx context.Context, request domain.TaskRequest) (*domain.TaskResult, int, error) {
	maxAttempts := s.config.Facade.RetryAttempts + 1

	for attempt := 1; ; attempt++ {
		result, err := s.attempt(ctx, request)
		if err != nil {
			return nil, attempt, err
		}
		s.metrics.RecordResult(result)

		if result.Success || attempt >= maxAttempts || !retryable(result.Err()) {
			return result, attempt, nil
		}

		s.metrics.IncrementTasksRetried()
		s.logger.Warn("retrying task",
			"operation", request.Operation,
			"attempt", attempt,
			"error", result.Error)

		if err := sleep(ctx, s.config.Facade.RetryBackoff*time.Duration(attempt)); err != nil {
			return nil, attempt, err
		}
	}
}

func (s *System) attempt(ctx context.Context, request domain.TaskRequest) (*domain.TaskResult, error) {
	taskID, err := s.dispatcher.Submit(ctx, request)
	if err != nil {
		if domain.IsInvalidInput(err) {
			return nil, err
		}
		return domain.NewFailureResult(request.TaskID, "", err, 0), nil
	}

	result, err := s.dispatcher.GetResult(ctx, taskID, s.config.Facade.DefaultTimeout)
	if err != nil {
		if domain.IsTimeout(err) {
			return domain.NewFailureResult(taskID, "", err, 0), nil
		}
		return nil, err
	}
	return result, nil
}

// retryable reports whether a failure may succeed on another attempt.
func retryable(err error) bool {
	if err == nil || !domain.IsWorkerExecution(err) {
		return false
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		domain.IsTimeout(err),
		domain.IsNoCapableWorker(err),
		domain.IsCommandRejected(err),
		domain.IsInvalidInput(err),
		domain.IsNotFound(err):
		return false
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func versionedName(name, environment string) string {
	if environment == "" {
		return name
	}
	return fmt.Sprintf("%s-%s", name, environment)
}

func priorityParam(params map[string]interface{}) domain.Priority {
	priority, err := domain.ParsePriority(domain.StringParam(params, "priority", ""))
	if err != nil {
		return domain.PriorityMedium
	}
	return priority
}
