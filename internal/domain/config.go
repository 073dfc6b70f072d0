package domain

import (
	"log/slog"
	"time"
)

type Config struct {
	DataDir string       `json:"data_dir" yaml:"data_dir"`
	PRPDir  string       `json:"prp_dir" yaml:"prp_dir"`
	Logger  *slog.Logger `json:"-" yaml:"-"`

	Storage    StorageConfig    `json:"storage" yaml:"storage"`
	Dispatcher DispatcherConfig `json:"dispatcher" yaml:"dispatcher"`
	History    HistoryConfig    `json:"history" yaml:"history"`
	Audit      AuditConfig      `json:"audit" yaml:"audit"`
	Facade     FacadeConfig     `json:"facade" yaml:"facade"`
	Executor   ExecutorConfig   `json:"executor" yaml:"executor"`
}

type StorageConfig struct {
	InMemory   bool `json:"in_memory" yaml:"in_memory"`
	SyncWrites bool `json:"sync_writes" yaml:"sync_writes"`
}

type DispatcherConfig struct {
	MaxWorkers       int           `json:"max_workers" yaml:"max_workers"`
	QueueCapacity    int           `json:"queue_capacity" yaml:"queue_capacity"`
	TaskTimeout      time.Duration `json:"task_timeout" yaml:"task_timeout"`
	ResultTTL        time.Duration `json:"result_ttl" yaml:"result_ttl"`
	JanitorInterval  time.Duration `json:"janitor_interval" yaml:"janitor_interval"`
	RejectUnroutable bool          `json:"reject_unroutable" yaml:"reject_unroutable"`
}

type HistoryBackend string

const (
	HistoryBackendBadger HistoryBackend = "badger"
	HistoryBackendSQLite HistoryBackend = "sqlite"
)

type HistoryConfig struct {
	Backend HistoryBackend `json:"backend" yaml:"backend"`
}

type AuditConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

type FacadeConfig struct {
	WorkersPerType int           `json:"workers_per_type" yaml:"workers_per_type"`
	DefaultTimeout time.Duration `json:"default_timeout" yaml:"default_timeout"`
	RetryAttempts  int           `json:"retry_attempts" yaml:"retry_attempts"`
	RetryBackoff   time.Duration `json:"retry_backoff" yaml:"retry_backoff"`
}

type ExecutorConfig struct {
	RunCommands    bool          `json:"run_commands" yaml:"run_commands"`
	CommandTimeout time.Duration `json:"command_timeout" yaml:"command_timeout"`
	Shell          string        `json:"shell" yaml:"shell"`
}
