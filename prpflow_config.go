package prpflow

import (
	"log/slog"
	"time"

	"github.com/eleven-am/prpflow/internal/domain"
)

type Config = domain.Config

type StorageConfig = domain.StorageConfig

type DispatcherConfig = domain.DispatcherConfig

type HistoryConfig = domain.HistoryConfig

type AuditConfig = domain.AuditConfig

type FacadeConfig = domain.FacadeConfig

type ExecutorConfig = domain.ExecutorConfig

type HistoryBackend = domain.HistoryBackend

const (
	HistoryBackendBadger HistoryBackend = domain.HistoryBackendBadger
	HistoryBackendSQLite HistoryBackend = domain.HistoryBackendSQLite
)

func DefaultConfig() *Config {
	return domain.DefaultConfig()
}

func DefaultDispatcherConfig() DispatcherConfig {
	return domain.DefaultDispatcherConfig()
}

func DefaultFacadeConfig() FacadeConfig {
	return domain.DefaultFacadeConfig()
}

func DefaultExecutorConfig() ExecutorConfig {
	return domain.DefaultExecutorConfig()
}

// LoadConfigFile reads a YAML config file on top of the defaults.
func LoadConfigFile(path string) (*Config, error) {
	return domain.LoadConfigFile(path)
}

type ConfigBuilder struct {
	config *Config
}

func NewConfigBuilder(dataDir string) *ConfigBuilder {
	config := DefaultConfig()
	config.DataDir = dataDir
	return &ConfigBuilder{config: config}
}

func (cb *ConfigBuilder) WithPRPDir(dir string) *ConfigBuilder {
	cb.config.PRPDir = dir
	return cb
}

func (cb *ConfigBuilder) WithLogger(logger *slog.Logger) *ConfigBuilder {
	cb.config.Logger = logger
	return cb
}

func (cb *ConfigBuilder) WithInMemoryStorage() *ConfigBuilder {
	cb.config.Storage.InMemory = true
	return cb
}

func (cb *ConfigBuilder) WithMaxWorkers(n int) *ConfigBuilder {
	cb.config.Dispatcher.MaxWorkers = n
	return cb
}

func (cb *ConfigBuilder) WithQueueCapacity(n int) *ConfigBuilder {
	cb.config.Dispatcher.QueueCapacity = n
	return cb
}

func (cb *ConfigBuilder) WithTaskTimeout(timeout time.Duration) *ConfigBuilder {
	cb.config.Dispatcher.TaskTimeout = timeout
	return cb
}

func (cb *ConfigBuilder) WithResultTTL(ttl, janitorInterval time.Duration) *ConfigBuilder {
	cb.config.Dispatcher.ResultTTL = ttl
	cb.config.Dispatcher.JanitorInterval = janitorInterval
	return cb
}

func (cb *ConfigBuilder) WithRejectUnroutable(reject bool) *ConfigBuilder {
	cb.config.Dispatcher.RejectUnroutable = reject
	return cb
}

func (cb *ConfigBuilder) WithHistoryBackend(backend HistoryBackend) *ConfigBuilder {
	cb.config.History.Backend = backend
	return cb
}

func (cb *ConfigBuilder) WithAudit(enabled bool, path string) *ConfigBuilder {
	cb.config.Audit.Enabled = enabled
	cb.config.Audit.Path = path
	return cb
}

func (cb *ConfigBuilder) WithWorkersPerType(n int) *ConfigBuilder {
	cb.config.Facade.WorkersPerType = n
	return cb
}

func (cb *ConfigBuilder) WithRetry(attempts int, backoff time.Duration) *ConfigBuilder {
	cb.config.Facade.RetryAttempts = attempts
	cb.config.Facade.RetryBackoff = backoff
	return cb
}

func (cb *ConfigBuilder) WithDefaultTimeout(timeout time.Duration) *ConfigBuilder {
	cb.config.Facade.DefaultTimeout = timeout
	return cb
}

func (cb *ConfigBuilder) WithCommandExecution(run bool, timeout time.Duration) *ConfigBuilder {
	cb.config.Executor.RunCommands = run
	cb.config.Executor.CommandTimeout = timeout
	return cb
}

// Build validates the accumulated configuration.
func (cb *ConfigBuilder) Build() (*Config, error) {
	if err := cb.config.Validate(); err != nil {
		return nil, err
	}
	return cb.config, nil
}
