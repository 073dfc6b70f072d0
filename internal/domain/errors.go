package domain

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

var (
	ErrAlreadyStarted    = errors.New("already started")
	ErrNotStarted        = errors.New("not started")
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrTimeout           = errors.New("operation timeout")
	ErrStorage           = errors.New("storage unavailable")
	ErrIntegrity         = errors.New("checksum mismatch")
	ErrNoCapableWorker   = errors.New("no capable worker")
	ErrDuplicate         = errors.New("duplicate identifier")
	ErrWorkerExecution   = errors.New("worker execution failed")
	ErrDispatcherStopped = errors.New("dispatcher stopped")
	ErrQueueFull         = errors.New("task queue full")
	ErrCommandRejected   = errors.New("command rejected by security policy")
)

type StorageErrorType int

const (
	StorageErrUnavailable StorageErrorType = iota
	StorageErrWrite
	StorageErrRead
	StorageErrCorrupted
	StorageErrClosed
)

func (t StorageErrorType) String() string {
	switch t {
	case StorageErrUnavailable:
		return "unavailable"
	case StorageErrWrite:
		return "write"
	case StorageErrRead:
		return "read"
	case StorageErrCorrupted:
		return "corrupted"
	case StorageErrClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type StorageError struct {
	Type StorageErrorType
	Op   string
	Key  string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %s [%s]: %v", e.Type, e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Type, e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

func NewStorageError(errType StorageErrorType, op, key string, err error) *StorageError {
	return &StorageError{Type: errType, Op: op, Key: key, Err: err}
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

type IntegrityError struct {
	DocumentName string
	VersionID    string
	Expected     string
	Actual       string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed for %s@%s: expected checksum %s, computed %s",
		e.DocumentName, e.VersionID, e.Expected, e.Actual)
}

func (e *IntegrityError) Unwrap() error {
	return ErrIntegrity
}

type NoCapableWorkerError struct {
	ComponentType ComponentType
	Operation     string
}

func (e *NoCapableWorkerError) Error() string {
	return fmt.Sprintf("no worker can handle %s/%s", e.ComponentType, e.Operation)
}

func (e *NoCapableWorkerError) Unwrap() error {
	return ErrNoCapableWorker
}

type TimeoutError struct {
	TaskID  string
	Waited  string
	Pending bool
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for task %s", e.Waited, e.TaskID)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

type WorkerExecutionError struct {
	TaskID     string
	WorkerID   string
	Panic      bool
	StackTrace string
	Err        error
}

func (e *WorkerExecutionError) Error() string {
	if e.Panic {
		return fmt.Sprintf("worker %s panicked on task %s: %v", e.WorkerID, e.TaskID, e.Err)
	}
	return fmt.Sprintf("worker %s failed task %s: %v", e.WorkerID, e.TaskID, e.Err)
}

func (e *WorkerExecutionError) Unwrap() []error {
	return []error{ErrWorkerExecution, e.Err}
}

func NewWorkerExecutionError(taskID, workerID string, err error) *WorkerExecutionError {
	return &WorkerExecutionError{TaskID: taskID, WorkerID: workerID, Err: err}
}

func NewWorkerPanicError(taskID, workerID string, recovered interface{}) *WorkerExecutionError {
	return &WorkerExecutionError{
		TaskID:     taskID,
		WorkerID:   workerID,
		Panic:      true,
		StackTrace: string(debug.Stack()),
		Err:        fmt.Errorf("%v", recovered),
	}
}

type DuplicateIDError struct {
	Kind string
	ID   string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s %q already registered", e.Kind, e.ID)
}

func (e *DuplicateIDError) Unwrap() error {
	return ErrDuplicate
}

func NewDuplicateIDError(kind, id string) *DuplicateIDError {
	return &DuplicateIDError{Kind: kind, ID: id}
}

type DuplicateTaskError struct {
	TaskID string
	State  TaskState
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("task %s already exists (%s)", e.TaskID, e.State)
}

func (e *DuplicateTaskError) Unwrap() error {
	return ErrDuplicate
}

func NewDuplicateTaskError(taskID string, state TaskState) *DuplicateTaskError {
	return &DuplicateTaskError{TaskID: taskID, State: state}
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

type CommandRejectedError struct {
	Command    string
	Violations []Violation
}

func (e *CommandRejectedError) Error() string {
	rules := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		rules = append(rules, v.Rule)
	}
	return fmt.Sprintf("command %q rejected: %s", e.Command, strings.Join(rules, ", "))
}

func (e *CommandRejectedError) Unwrap() error {
	return ErrCommandRejected
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

func IsIntegrity(err error) bool {
	return errors.Is(err, ErrIntegrity)
}

func IsNoCapableWorker(err error) bool {
	return errors.Is(err, ErrNoCapableWorker)
}

func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

func IsWorkerExecution(err error) bool {
	return errors.Is(err, ErrWorkerExecution)
}

func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

func IsCommandRejected(err error) bool {
	return errors.Is(err, ErrCommandRejected)
}
