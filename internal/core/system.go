package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/eleven-am/prpflow/internal/adapters/dispatcher"
	"github.com/eleven-am/prpflow/internal/adapters/environment"
	"github.com/eleven-am/prpflow/internal/adapters/events"
	"github.com/eleven-am/prpflow/internal/adapters/history"
	"github.com/eleven-am/prpflow/internal/adapters/registry"
	"github.com/eleven-am/prpflow/internal/adapters/runner"
	"github.com/eleven-am/prpflow/internal/adapters/security"
	"github.com/eleven-am/prpflow/internal/adapters/storage"
	"github.com/eleven-am/prpflow/internal/adapters/templates"
	"github.com/eleven-am/prpflow/internal/adapters/versions"
	"github.com/eleven-am/prpflow/internal/adapters/workers"
	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
	"github.com/google/uuid"
)

// System wires the version store, history log, worker registry and
// dispatcher behind the PRP workflows.
type System struct {
	config    *domain.Config
	logger    *slog.Logger
	sessionID string
	createdAt time.Time

	storage    *storage.BadgerStore
	notifier   *events.Manager
	versions   ports.VersionStorePort
	history    ports.HistoryStore
	registry   ports.RegistryPort
	dispatcher ports.DispatcherPort

	listenerMetrics *events.MetricsObserver
	audit           *events.AuditObserver
	extraObservers  []ports.Observer
	metrics         *domain.SystemMetrics

	renderer         ports.Renderer
	detector         ports.EnvironmentDetector
	commandValidator ports.CommandValidator
	runner           ports.CommandRunner

	mu          sync.Mutex
	initialized bool
	shutdown    bool
}

func New(config *domain.Config, opts ...Option) (*System, error) {
	if config == nil {
		config = domain.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &System{
		config:    config,
		logger:    logger.With("component", "system"),
		sessionID: uuid.New().String(),
		createdAt: time.Now(),
		metrics:   domain.NewSystemMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.wire(logger); err != nil {
		s.closeResources()
		return nil, err
	}

	s.logger.Info("system created",
		"session_id", s.sessionID,
		"data_dir", config.DataDir,
		"history_backend", config.History.Backend)
	return s, nil
}

func (s *System) wire(logger *slog.Logger) error {
	cfg := s.config

	store, err := storage.Open(storage.Options{
		Dir:        cfg.StorePath(),
		InMemory:   cfg.Storage.InMemory,
		SyncWrites: cfg.Storage.SyncWrites,
	}, logger)
	if err != nil {
		return err
	}
	s.storage = store

	s.notifier = events.NewManager(logger)
	s.listenerMetrics = events.NewMetricsObserver()
	s.notifier.Subscribe(s.listenerMetrics)

	if cfg.Audit.Enabled {
		audit, err := events.NewAuditObserver(cfg.AuditPath())
		if err != nil {
			return err
		}
		s.audit = audit
		s.notifier.Subscribe(audit)
	}
	for _, observer := range s.extraObservers {
		s.notifier.Subscribe(observer)
	}

	s.versions = versions.NewStore(store, s.notifier, logger)

	s.history, err = history.New(cfg, store, logger)
	if err != nil {
		return err
	}

	if s.renderer == nil {
		renderer, err := templates.NewRenderer(logger)
		if err != nil {
			return err
		}
		s.renderer = renderer
	}
	if s.detector == nil {
		s.detector = environment.NewDetector(logger)
	}
	if s.commandValidator == nil {
		s.commandValidator = security.NewValidator(logger)
	}
	if s.runner == nil {
		s.runner = runner.NewShellRunner(cfg.Executor, logger)
	}

	reg := registry.NewManager(logger)
	workers.RegisterBuiltins(reg, workers.Deps{
		Renderer:  s.renderer,
		Detector:  s.detector,
		Validator: s.commandValidator,
		Runner:    s.runner,
		Executor:  cfg.Executor,
		PRPDir:    cfg.PRPDir,
		Logger:    logger,
	})
	s.registry = reg

	s.dispatcher = dispatcher.New(cfg.Dispatcher, logger)
	return nil
}

// RegisterWorkerType adds or replaces a worker constructor. It only affects
// components created by a later Initialize.
func (s *System) RegisterWorkerType(tag string, constructor ports.WorkerConstructor) {
	s.registry.Register(tag, constructor)
}

func (s *System) AddObserver(observer ports.Observer) {
	s.versions.AddObserver(observer)
}

// Initialize creates facade.workers_per_type components for every registered
// worker type and starts the dispatcher.
func (s *System) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return domain.ErrDispatcherStopped
	}
	if s.initialized {
		return domain.ErrAlreadyStarted
	}

	perType := s.config.Facade.WorkersPerType
	if perType <= 0 {
		perType = 1
	}

	for _, tag := range s.registry.Types() {
		for i := 1; i <= perType; i++ {
			id := fmt.Sprintf("%s-%d", tag, i)
			worker, ok := s.registry.Create(tag, id, s.dispatcher)
			if !ok {
				return domain.NewNotFoundError("worker type", tag)
			}
			if err := s.dispatcher.RegisterComponent(worker); err != nil {
				return fmt.Errorf("register %s: %w", id, err)
			}
		}
	}

	if err := s.dispatcher.Start(ctx); err != nil {
		return err
	}
	s.initialized = true

	s.logger.Info("system initialized",
		"worker_types", s.registry.Types(),
		"workers_per_type", perType)
	return nil
}

// Shutdown stops the dispatcher, waiting for in-flight tasks, and closes
// every store. Calling it again is a no-op.
func (s *System) Shutdown() error {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return nil
	}
	s.shutdown = true
	s.mu.Unlock()

	err := s.closeResources()
	s.logger.Info("system shut down", "session_id", s.sessionID, "uptime", time.Since(s.createdAt))
	return err
}

func (s *System) closeResources() error {
	var errs []error
	if s.dispatcher != nil {
		if err := s.dispatcher.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.audit != nil {
		if err := s.audit.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *System) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return domain.ErrDispatcherStopped
	}
	if !s.initialized {
		return domain.ErrNotStarted
	}
	return nil
}

func (s *System) SessionID() string {
	return s.sessionID
}

// Config returns a copy of the validated configuration the system runs with.
func (s *System) Config() domain.Config {
	return *s.config
}

func (s *System) Dispatcher() ports.DispatcherPort {
	return s.dispatcher
}

func (s *System) Detector() ports.EnvironmentDetector {
	return s.detector
}

func (s *System) ListPRPVersions(ctx context.Context, documentName string) ([]domain.VersionSummary, error) {
	return s.versions.ListVersions(ctx, documentName)
}

func (s *System) RestorePRPVersion(ctx context.Context, documentName, versionID string) (*domain.Snapshot, error) {
	return s.versions.RestoreVersion(ctx, documentName, versionID)
}

func (s *System) GetExecutionHistory(ctx context.Context, documentName string) ([]domain.ExecutionRecord, error) {
	return s.history.GetExecutionHistory(ctx, documentName)
}

func (s *System) GetSystemStatus() domain.SystemStatus {
	snapshot := s.metrics.GetSnapshot()

	return domain.SystemStatus{
		SessionID:            s.sessionID,
		Uptime:               time.Since(s.createdAt),
		TasksCompleted:       snapshot.TasksCompleted,
		TasksFailed:          snapshot.TasksFailed,
		TasksRetried:         snapshot.TasksRetried,
		Rollbacks:            snapshot.Rollbacks,
		SuccessRate:          s.metrics.SuccessRate(),
		AverageExecutionTime: s.metrics.GetAverageExecutionTime(),
		Dispatcher:           s.dispatcher.Stats(),
		Listeners:            s.listenerMetrics.Metrics(),
		HistoryBackend:       s.config.History.Backend,
		RegisteredTypes:      s.registry.Types(),
	}
}
