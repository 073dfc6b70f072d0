package domain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func DefaultConfig() *Config {
	return &Config{
		DataDir:    ".prpflow",
		PRPDir:     "PRPs",
		Storage:    DefaultStorageConfig(),
		Dispatcher: DefaultDispatcherConfig(),
		History:    DefaultHistoryConfig(),
		Audit:      DefaultAuditConfig(),
		Facade:     DefaultFacadeConfig(),
		Executor:   DefaultExecutorConfig(),
	}
}

func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		InMemory:   false,
		SyncWrites: true,
	}
}

func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		MaxWorkers:       4,
		QueueCapacity:    1024,
		TaskTimeout:      5 * time.Minute,
		ResultTTL:        10 * time.Minute,
		JanitorInterval:  time.Minute,
		RejectUnroutable: false,
	}
}

func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{Backend: HistoryBackendBadger}
}

func DefaultAuditConfig() AuditConfig {
	return AuditConfig{Enabled: true}
}

func DefaultFacadeConfig() FacadeConfig {
	return FacadeConfig{
		WorkersPerType: 1,
		DefaultTimeout: 30 * time.Second,
		RetryAttempts:  0,
		RetryBackoff:   500 * time.Millisecond,
	}
}

func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		RunCommands:    false,
		CommandTimeout: 2 * time.Minute,
		Shell:          "/bin/sh",
	}
}

// AuditPath resolves the audit log location, defaulting to data_dir/audit.log.
func (c *Config) AuditPath() string {
	if c.Audit.Path != "" {
		return c.Audit.Path
	}
	return filepath.Join(c.DataDir, "audit.log")
}

func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "store")
}

func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" && !c.Storage.InMemory {
		return NewConfigError("data_dir", ErrInvalidInput)
	}
	if strings.TrimSpace(c.PRPDir) == "" {
		return NewConfigError("prp_dir", ErrInvalidInput)
	}

	if c.Dispatcher.MaxWorkers <= 0 {
		return NewConfigError("dispatcher.max_workers", ErrInvalidInput)
	}
	if c.Dispatcher.QueueCapacity < 0 {
		return NewConfigError("dispatcher.queue_capacity", ErrInvalidInput)
	}
	if c.Dispatcher.TaskTimeout < 0 {
		return NewConfigError("dispatcher.task_timeout", ErrInvalidInput)
	}
	if c.Dispatcher.ResultTTL < 0 {
		return NewConfigError("dispatcher.result_ttl", ErrInvalidInput)
	}
	if c.Dispatcher.ResultTTL > 0 && c.Dispatcher.JanitorInterval <= 0 {
		return NewConfigError("dispatcher.janitor_interval", ErrInvalidInput)
	}

	switch c.History.Backend {
	case HistoryBackendBadger, HistoryBackendSQLite:
	default:
		return NewConfigError("history.backend", fmt.Errorf("unknown backend %q", c.History.Backend))
	}
	if c.History.Backend == HistoryBackendSQLite && c.Storage.InMemory {
		return NewConfigError("history.backend", errors.New("sqlite history requires an on-disk data_dir"))
	}

	if c.Facade.WorkersPerType <= 0 {
		return NewConfigError("facade.workers_per_type", ErrInvalidInput)
	}
	if c.Facade.DefaultTimeout <= 0 {
		return NewConfigError("facade.default_timeout", ErrInvalidInput)
	}
	if c.Facade.RetryAttempts < 0 {
		return NewConfigError("facade.retry_attempts", ErrInvalidInput)
	}
	if c.Facade.RetryBackoff < 0 {
		return NewConfigError("facade.retry_backoff", ErrInvalidInput)
	}

	if c.Executor.CommandTimeout <= 0 {
		return NewConfigError("executor.command_timeout", ErrInvalidInput)
	}
	if c.Executor.RunCommands && strings.TrimSpace(c.Executor.Shell) == "" {
		return NewConfigError("executor.shell", ErrInvalidInput)
	}

	return nil
}

type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config field %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() []error {
	return []error{ErrInvalidConfig, e.Err}
}

func NewConfigError(field string, err error) *ConfigError {
	return &ConfigError{
		Field: field,
		Err:   err,
	}
}

// LoadConfigFile decodes a YAML file over DefaultConfig. Durations use Go
// syntax ("30s", "5m").
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, NewConfigError("file", err)
	}
	return cfg, nil
}
