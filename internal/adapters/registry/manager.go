package registry

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/eleven-am/prpflow/internal/ports"
)

// Manager maps worker type tags to constructors. Registering a tag twice
// replaces the earlier constructor.
type Manager struct {
	constructors map[string]ports.WorkerConstructor
	mu           sync.RWMutex
	logger       *slog.Logger
}

var _ ports.RegistryPort = (*Manager)(nil)

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		constructors: make(map[string]ports.WorkerConstructor),
		logger:       logger.With("component", "worker-registry"),
	}
}

func (r *Manager) Register(tag string, constructor ports.WorkerConstructor) {
	if tag == "" || constructor == nil {
		r.logger.Error("ignoring invalid worker registration", "tag", tag)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[tag]; exists {
		r.logger.Warn("overwriting worker constructor", "tag", tag)
	}
	r.constructors[tag] = constructor
	r.logger.Debug("worker type registered", "tag", tag, "total_types", len(r.constructors))
}

func (r *Manager) Create(tag, id string, mediator ports.Mediator) (ports.Worker, bool) {
	r.mu.RLock()
	constructor, exists := r.constructors[tag]
	r.mu.RUnlock()

	if !exists {
		r.logger.Debug("unknown worker type", "tag", tag)
		return nil, false
	}

	worker := constructor(id, mediator)
	if worker == nil {
		r.logger.Error("constructor returned nil worker", "tag", tag, "worker_id", id)
		return nil, false
	}
	return worker, true
}

func (r *Manager) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.constructors))
	for tag := range r.constructors {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
