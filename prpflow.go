// Package prpflow versions, executes and validates Product Requirement Prompts
// (PRPs) through a pool of pluggable workers.
//
// Every generated PRP is stored as an immutable, checksummed snapshot so a
// failed execution can roll the document back to its last known-good state.
// Execution attempts are appended to a durable history log, and version
// events fan out to listeners such as the audit log.
//
// Basic usage:
//
//	config, err := prpflow.NewConfigBuilder("./.prpflow").
//	    WithPRPDir("./PRPs").
//	    WithMaxWorkers(4).
//	    Build()
//	if err != nil {
//	    return err
//	}
//
//	system, err := prpflow.New(config)
//	if err != nil {
//	    return err
//	}
//	defer system.Shutdown()
//
//	if err := system.Initialize(ctx); err != nil {
//	    return err
//	}
//
//	result, err := system.GenerateWithVersioning(ctx, "user-auth", "python-env",
//	    map[string]interface{}{"requirements": []string{"login", "logout"}}, true)
package prpflow

import (
	"github.com/eleven-am/prpflow/internal/core"
	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
)

// System is the integrated entry point: it owns the version store, the
// execution history, the worker registry and the dispatcher.
type System = core.System

// Option customises a System at construction time.
type Option = core.Option

// Result is returned by every workflow. It embeds the dispatcher's task
// result and adds the version, execution and rollback details.
type Result = core.Result

// Rollback describes an automatic rollback attempt after a failed execution.
type Rollback = core.Rollback

// Comparison lists how validation checks changed against the previous run.
type Comparison = core.Comparison

// Snapshot is an immutable, checksummed copy of a document.
type Snapshot = domain.Snapshot

// VersionSummary is the listing view of a snapshot.
type VersionSummary = domain.VersionSummary

// ExecutionRecord is one entry of a document's execution history.
type ExecutionRecord = domain.ExecutionRecord

// ExecutionStatus is the outcome recorded for an execution.
type ExecutionStatus = domain.ExecutionStatus

const (
	ExecutionStatusSuccess = domain.ExecutionStatusSuccess
	ExecutionStatusFailure = domain.ExecutionStatusFailure
	ExecutionStatusPartial = domain.ExecutionStatusPartial
)

// TaskRequest is a unit of work submitted to the dispatcher.
type TaskRequest = domain.TaskRequest

// TaskResult is the outcome the dispatcher publishes for a task.
type TaskResult = domain.TaskResult

// Priority orders queued tasks. Higher priorities are dispatched first.
type Priority = domain.Priority

const (
	PriorityLow      = domain.PriorityLow
	PriorityMedium   = domain.PriorityMedium
	PriorityHigh     = domain.PriorityHigh
	PriorityCritical = domain.PriorityCritical
)

// ComponentType is the capability category a worker serves.
type ComponentType = domain.ComponentType

const (
	ComponentGenerator = domain.ComponentGenerator
	ComponentExecutor  = domain.ComponentExecutor
	ComponentValidator = domain.ComponentValidator
)

// CapabilitySet declares the component type and operations a worker handles.
type CapabilitySet = domain.CapabilitySet

// Worker executes tasks for the operations it declares.
type Worker = ports.Worker

// WorkerConstructor builds a worker for a registered type tag.
type WorkerConstructor = ports.WorkerConstructor

// Mediator is the back-channel a worker uses to report progress.
type Mediator = ports.Mediator

// Observer receives version events synchronously.
type Observer = ports.Observer

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc = ports.ObserverFunc

// VersionEvent is delivered to observers when a version is saved or restored.
type VersionEvent = domain.VersionEvent

// SystemStatus is the point-in-time view returned by GetSystemStatus.
type SystemStatus = domain.SystemStatus

// EnvironmentDescriptor describes a detected project environment.
type EnvironmentDescriptor = domain.EnvironmentDescriptor

// New creates a System from config. Call Initialize before running workflows
// and Shutdown to release the stores.
func New(config *Config, opts ...Option) (*System, error) {
	return core.New(config, opts...)
}

// WithObserver subscribes an additional listener to version events.
func WithObserver(observer Observer) Option {
	return core.WithObserver(observer)
}

// WithRenderer replaces the embedded PRP template.
func WithRenderer(renderer ports.Renderer) Option {
	return core.WithRenderer(renderer)
}

// Error helpers.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrIntegrity         = domain.ErrIntegrity
	ErrTimeout           = domain.ErrTimeout
	ErrNoCapableWorker   = domain.ErrNoCapableWorker
	ErrDuplicate         = domain.ErrDuplicate
	ErrStorage           = domain.ErrStorage
	ErrDispatcherStopped = domain.ErrDispatcherStopped
	ErrNotStarted        = domain.ErrNotStarted
	ErrCommandRejected   = domain.ErrCommandRejected

	IsNotFound        = domain.IsNotFound
	IsIntegrity       = domain.IsIntegrity
	IsTimeout         = domain.IsTimeout
	IsNoCapableWorker = domain.IsNoCapableWorker
	IsStorage         = domain.IsStorage
)
