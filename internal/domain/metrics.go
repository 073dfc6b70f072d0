package domain

import (
	"sync/atomic"
	"time"
)

// SystemMetrics counts facade-level outcomes. All fields are updated atomically.
type SystemMetrics struct {
	TasksCompleted int64 `json:"tasks_completed"`
	TasksFailed    int64 `json:"tasks_failed"`
	TasksRetried   int64 `json:"tasks_retried"`
	Rollbacks      int64 `json:"rollbacks"`

	TotalExecutionTimeNs int64 `json:"total_execution_time_ns"`
	ExecutionCount       int64 `json:"execution_count"`
}

func NewSystemMetrics() *SystemMetrics {
	return &SystemMetrics{}
}

func (m *SystemMetrics) RecordResult(result *TaskResult) {
	if result == nil {
		return
	}
	if result.Success {
		atomic.AddInt64(&m.TasksCompleted, 1)
	} else {
		atomic.AddInt64(&m.TasksFailed, 1)
	}
	atomic.AddInt64(&m.TotalExecutionTimeNs, int64(result.ExecutionTime))
	atomic.AddInt64(&m.ExecutionCount, 1)
}

func (m *SystemMetrics) IncrementTasksRetried() {
	atomic.AddInt64(&m.TasksRetried, 1)
}

func (m *SystemMetrics) IncrementRollbacks() {
	atomic.AddInt64(&m.Rollbacks, 1)
}

func (m *SystemMetrics) GetSnapshot() SystemMetrics {
	return SystemMetrics{
		TasksCompleted:       atomic.LoadInt64(&m.TasksCompleted),
		TasksFailed:          atomic.LoadInt64(&m.TasksFailed),
		TasksRetried:         atomic.LoadInt64(&m.TasksRetried),
		Rollbacks:            atomic.LoadInt64(&m.Rollbacks),
		TotalExecutionTimeNs: atomic.LoadInt64(&m.TotalExecutionTimeNs),
		ExecutionCount:       atomic.LoadInt64(&m.ExecutionCount),
	}
}

func (m *SystemMetrics) GetAverageExecutionTime() time.Duration {
	totalNs := atomic.LoadInt64(&m.TotalExecutionTimeNs)
	count := atomic.LoadInt64(&m.ExecutionCount)

	if count == 0 {
		return 0
	}

	return time.Duration(totalNs / count)
}

// SuccessRate is completed / (completed + failed), or 0 before any task finished.
func (m *SystemMetrics) SuccessRate() float64 {
	completed := atomic.LoadInt64(&m.TasksCompleted)
	failed := atomic.LoadInt64(&m.TasksFailed)
	total := completed + failed
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total)
}

type ListenerMetrics struct {
	VersionsSaved    int64     `json:"versions_saved"`
	VersionsRestored int64     `json:"versions_restored"`
	LastActivity     time.Time `json:"last_activity"`
}

type ComponentInfo struct {
	ID            string        `json:"id"`
	ComponentType ComponentType `json:"component_type"`
	Operations    []string      `json:"operations"`
	Reentrant     bool          `json:"reentrant"`
	Busy          bool          `json:"busy"`
}

type DispatcherStats struct {
	Components      int              `json:"components"`
	Queued          int              `json:"queued"`
	InFlight        int              `json:"in_flight"`
	CachedResults   int              `json:"cached_results"`
	Completed       int64            `json:"completed"`
	Failed          int64            `json:"failed"`
	Unroutable      int64            `json:"unroutable"`
	Running         bool             `json:"running"`
	ComponentEvents map[string]int64 `json:"component_events,omitempty"`
	ComponentList   []ComponentInfo  `json:"component_list,omitempty"`
}

type SystemStatus struct {
	SessionID            string          `json:"session_id"`
	Uptime               time.Duration   `json:"uptime"`
	TasksCompleted       int64           `json:"tasks_completed"`
	TasksFailed          int64           `json:"tasks_failed"`
	TasksRetried         int64           `json:"tasks_retried"`
	Rollbacks            int64           `json:"rollbacks"`
	SuccessRate          float64         `json:"success_rate"`
	AverageExecutionTime time.Duration   `json:"average_execution_time"`
	Dispatcher           DispatcherStats `json:"dispatcher"`
	Listeners            ListenerMetrics `json:"listeners"`
	HistoryBackend       HistoryBackend  `json:"history_backend"`
	RegisteredTypes      []string        `json:"registered_types"`
}
