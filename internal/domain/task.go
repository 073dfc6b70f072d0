package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type ComponentType string

const (
	ComponentGenerator ComponentType = "generator"
	ComponentExecutor  ComponentType = "executor"
	ComponentValidator ComponentType = "validator"
)

func (c ComponentType) Valid() bool {
	switch c {
	case ComponentGenerator, ComponentExecutor, ComponentValidator:
		return true
	default:
		return false
	}
}

func ParseComponentType(s string) (ComponentType, error) {
	c := ComponentType(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", NewValidationError("component_type", fmt.Sprintf("unknown component type %q", s))
	}
	return c, nil
}

const (
	OperationGeneratePRP            = "generate_prp"
	OperationExecutePRP             = "execute_prp"
	OperationValidateImplementation = "validate_implementation"
	OperationValidateCommand        = "validate_command"
)

type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "medium", "":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "critical":
		return PriorityCritical, nil
	default:
		return 0, NewValidationError("priority", fmt.Sprintf("unknown priority %q", s))
	}
}

type TaskState string

const (
	TaskStateSubmitted  TaskState = "submitted"
	TaskStateQueued     TaskState = "queued"
	TaskStateDispatched TaskState = "dispatched"
	TaskStateCompleted  TaskState = "completed"
	TaskStateFailed     TaskState = "failed"
)

func (s TaskState) Terminal() bool {
	return s == TaskStateCompleted || s == TaskStateFailed
}

type TaskRequest struct {
	TaskID        string                 `json:"task_id"`
	ComponentType ComponentType          `json:"component_type"`
	Operation     string                 `json:"operation"`
	Parameters    map[string]interface{} `json:"parameters,omitempty"`
	Priority      Priority               `json:"priority"`
	SubmittedAt   time.Time              `json:"submitted_at"`
}

func (r *TaskRequest) Validate() error {
	if !r.ComponentType.Valid() {
		return NewValidationError("component_type", fmt.Sprintf("unknown component type %q", r.ComponentType))
	}
	if strings.TrimSpace(r.Operation) == "" {
		return NewValidationError("operation", "cannot be empty")
	}
	if !r.Priority.Valid() {
		return NewValidationError("priority", r.Priority.String())
	}
	return nil
}

type TaskResult struct {
	TaskID        string                 `json:"task_id"`
	Success       bool                   `json:"success"`
	Result        map[string]interface{} `json:"result,omitempty"`
	Error         string                 `json:"error,omitempty"`
	ExecutionTime time.Duration          `json:"execution_time"`
	WorkerID      string                 `json:"worker_id,omitempty"`
	CompletedAt   time.Time              `json:"completed_at"`

	err error
}

func NewSuccessResult(taskID, workerID string, result map[string]interface{}, elapsed time.Duration) *TaskResult {
	return &TaskResult{
		TaskID:        taskID,
		Success:       true,
		Result:        result,
		ExecutionTime: elapsed,
		WorkerID:      workerID,
		CompletedAt:   time.Now().UTC(),
	}
}

func NewFailureResult(taskID, workerID string, err error, elapsed time.Duration) *TaskResult {
	return &TaskResult{
		TaskID:        taskID,
		Success:       false,
		Error:         err.Error(),
		ExecutionTime: elapsed,
		WorkerID:      workerID,
		CompletedAt:   time.Now().UTC(),
		err:           err,
	}
}

// Err returns the typed error behind a failed result. It is not serialized.
func (r *TaskResult) Err() error {
	return r.err
}

// CapabilitySet is the closed declaration of what a worker handles: one
// component type and an explicit list of operations.
type CapabilitySet struct {
	ComponentType ComponentType
	Operations    map[string]struct{}
}

func NewCapabilitySet(componentType ComponentType, operations ...string) CapabilitySet {
	ops := make(map[string]struct{}, len(operations))
	for _, op := range operations {
		ops[op] = struct{}{}
	}
	return CapabilitySet{ComponentType: componentType, Operations: ops}
}

func (c CapabilitySet) Handles(componentType ComponentType, operation string) bool {
	if c.ComponentType != componentType {
		return false
	}
	_, ok := c.Operations[operation]
	return ok
}

func (c CapabilitySet) OperationList() []string {
	ops := make([]string, 0, len(c.Operations))
	for op := range c.Operations {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}
