package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eleven-am/prpflow/internal/domain"
	"github.com/eleven-am/prpflow/internal/ports"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Dispatcher routes task requests to registered workers. Submit enqueues and
// returns at once; a single loop dequeues by priority and hands each task to
// a pooled goroutine once a slot is free. A task whose capable workers are
// all busy stays queued and does not hold a slot.
type Dispatcher struct {
	config domain.DispatcherConfig
	logger *slog.Logger

	componentsMu sync.RWMutex
	components   []*component
	byID         map[string]*component

	queueMu sync.Mutex
	queue   priorityQueue
	wake    chan struct{}

	results *resultTable
	pool    *semaphore.Weighted

	eventsMu sync.Mutex
	events   map[string]int64

	completed  atomic.Int64
	failed     atomic.Int64
	unroutable atomic.Int64
	inFlight   atomic.Int64

	lifecycleMu sync.Mutex
	started     bool
	stopped     bool
	taskCtx     context.Context
	cancel      context.CancelFunc
	loopDone    chan struct{}
	janitorDone chan struct{}
	tasks       sync.WaitGroup
}

var _ ports.DispatcherPort = (*Dispatcher)(nil)

func New(config domain.DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 1
	}

	return &Dispatcher{
		config:  config,
		logger:  logger.With("component", "dispatcher"),
		byID:    make(map[string]*component),
		wake:    make(chan struct{}, 1),
		results: newResultTable(),
		pool:    semaphore.NewWeighted(int64(config.MaxWorkers)),
		events:  make(map[string]int64),
	}
}

func (d *Dispatcher) RegisterComponent(worker ports.Worker) error {
	if worker == nil {
		return domain.NewValidationError("worker", "cannot be nil")
	}
	id := worker.ID()
	if id == "" {
		return domain.NewValidationError("worker.id", "cannot be empty")
	}
	if !worker.Capabilities().ComponentType.Valid() {
		return domain.NewValidationError("worker.capabilities", fmt.Sprintf("unknown component type %q", worker.Capabilities().ComponentType))
	}

	d.componentsMu.Lock()
	defer d.componentsMu.Unlock()

	if _, exists := d.byID[id]; exists {
		return domain.NewDuplicateIDError("component", id)
	}

	c := newComponent(worker)
	d.components = append(d.components, c)
	d.byID[id] = c

	d.signal()

	d.logger.Debug("component registered",
		"worker_id", id,
		"component_type", c.capabilities.ComponentType,
		"operations", c.capabilities.OperationList())
	return nil
}

func (d *Dispatcher) UnregisterComponent(id string) error {
	d.componentsMu.Lock()
	defer d.componentsMu.Unlock()

	if _, exists := d.byID[id]; !exists {
		return domain.NewNotFoundError("component", id)
	}
	delete(d.byID, id)

	for i, c := range d.components {
		if c.worker.ID() == id {
			d.components = append(d.components[:i], d.components[i+1:]...)
			break
		}
	}

	d.signal()

	d.logger.Debug("component unregistered", "worker_id", id)
	return nil
}

func (d *Dispatcher) FindCapableComponent(operation string, componentType domain.ComponentType) (ports.Worker, bool) {
	d.componentsMu.RLock()
	defer d.componentsMu.RUnlock()

	for _, c := range d.components {
		if c.handles(operation, componentType) {
			return c.worker, true
		}
	}
	return nil, false
}

func (d *Dispatcher) capable(operation string, componentType domain.ComponentType) []*component {
	d.componentsMu.RLock()
	defer d.componentsMu.RUnlock()

	var matches []*component
	for _, c := range d.components {
		if c.handles(operation, componentType) {
			matches = append(matches, c)
		}
	}
	return matches
}

func (d *Dispatcher) Submit(ctx context.Context, request domain.TaskRequest) (string, error) {
	if request.TaskID == "" {
		request.TaskID = uuid.New().String()
	}
	if request.Priority == 0 {
		request.Priority = domain.PriorityMedium
	}
	if err := request.Validate(); err != nil {
		return "", err
	}
	request.Parameters = domain.CloneMetadata(request.Parameters)
	request.SubmittedAt = time.Now().UTC()

	if d.isStopped() {
		return "", domain.ErrDispatcherStopped
	}

	if d.config.RejectUnroutable {
		if _, ok := d.FindCapableComponent(request.Operation, request.ComponentType); !ok {
			return "", &domain.NoCapableWorkerError{ComponentType: request.ComponentType, Operation: request.Operation}
		}
	}

	if err := d.results.reserve(request.TaskID); err != nil {
		return "", err
	}

	// The stopped check is repeated under queueMu so a task can never be
	// queued after Stop has drained the queue.
	d.queueMu.Lock()
	if d.isStopped() {
		d.queueMu.Unlock()
		d.results.release(request.TaskID)
		return "", domain.ErrDispatcherStopped
	}
	if d.config.QueueCapacity > 0 && d.queue.len() >= d.config.QueueCapacity {
		d.queueMu.Unlock()
		d.results.release(request.TaskID)
		return "", domain.ErrQueueFull
	}
	d.queue.push(request)
	d.results.setState(request.TaskID, domain.TaskStateQueued)
	d.queueMu.Unlock()

	d.signal()

	d.logger.Debug("task submitted",
		"task_id", request.TaskID,
		"component_type", request.ComponentType,
		"operation", request.Operation,
		"priority", request.Priority.String())
	return request.TaskID, nil
}

func (d *Dispatcher) isStopped() bool {
	d.lifecycleMu.Lock()
	defer d.lifecycleMu.Unlock()
	return d.stopped
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) GetResult(ctx context.Context, taskID string, timeout time.Duration) (*domain.TaskResult, error) {
	slot, exists := d.results.lookup(taskID)
	if !exists {
		return nil, domain.NewNotFoundError("task", taskID)
	}

	select {
	case <-slot.done:
		return d.results.resultOf(slot), nil
	default:
	}

	if timeout <= 0 {
		return nil, &domain.TimeoutError{TaskID: taskID, Waited: "0s", Pending: true}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-slot.done:
		return d.results.resultOf(slot), nil
	case <-timer.C:
		return nil, &domain.TimeoutError{TaskID: taskID, Waited: timeout.String(), Pending: true}
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for task %s: %w", taskID, ctx.Err())
	}
}

func (d *Dispatcher) TaskState(taskID string) (domain.TaskState, bool) {
	return d.results.state(taskID)
}

// Notify is the worker back-channel. Events are counted per sender.
func (d *Dispatcher) Notify(sender, event string, data map[string]interface{}) {
	d.eventsMu.Lock()
	d.events[sender]++
	d.eventsMu.Unlock()

	d.logger.Debug("component event", "worker_id", sender, "event", event, "data", data)
}

func (d *Dispatcher) Start(ctx context.Context) error {
	d.lifecycleMu.Lock()
	defer d.lifecycleMu.Unlock()

	if d.stopped {
		return domain.ErrDispatcherStopped
	}
	if d.started {
		return domain.ErrAlreadyStarted
	}
	d.started = true

	// Only Stop halts the loop; the caller's ctx only carries values.
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.cancel = cancel
	d.taskCtx = context.WithoutCancel(ctx)
	d.loopDone = make(chan struct{})

	go d.loop(loopCtx)

	if d.config.ResultTTL > 0 && d.config.JanitorInterval > 0 {
		d.janitorDone = make(chan struct{})
		go d.janitor(loopCtx)
	}

	d.logger.Info("dispatcher started",
		"max_workers", d.config.MaxWorkers,
		"task_timeout", d.config.TaskTimeout,
		"result_ttl", d.config.ResultTTL)
	return nil
}

func (d *Dispatcher) Stop() error {
	d.lifecycleMu.Lock()
	if d.stopped {
		d.lifecycleMu.Unlock()
		return nil
	}
	d.stopped = true
	started := d.started
	cancel := d.cancel
	loopDone := d.loopDone
	janitorDone := d.janitorDone
	d.lifecycleMu.Unlock()

	if started {
		cancel()
		<-loopDone
		if janitorDone != nil {
			<-janitorDone
		}
	}

	d.logger.Debug("waiting for in-flight tasks", "in_flight", d.inFlight.Load())
	d.tasks.Wait()

	d.queueMu.Lock()
	leftover := d.queue.drain()
	d.queueMu.Unlock()

	for _, item := range leftover {
		d.finish(domain.NewFailureResult(item.request.TaskID, "", domain.ErrDispatcherStopped, 0))
	}

	d.logger.Info("dispatcher stopped", "abandoned_tasks", len(leftover))
	return nil
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer close(d.loopDone)

	for {
		if err := d.pool.Acquire(ctx, 1); err != nil {
			return
		}

		item, c, ok := d.next(ctx)
		if !ok {
			d.pool.Release(1)
			return
		}

		d.inFlight.Add(1)
		d.tasks.Add(1)
		go d.run(item.request, c)
	}
}

// next blocks until a queued task can be dispatched or ctx is done. The
// returned component is already acquired; it is nil for an unroutable task.
func (d *Dispatcher) next(ctx context.Context) (*queuedTask, *component, bool) {
	for {
		if ctx.Err() != nil {
			return nil, nil, false
		}

		var claimed *component
		d.queueMu.Lock()
		item, ok := d.queue.popFirst(func(item *queuedTask) bool {
			c, routable := d.claim(item.request)
			if !routable {
				return true
			}
			claimed = c
			return c != nil
		})
		d.queueMu.Unlock()
		if ok {
			return item, claimed, true
		}

		select {
		case <-ctx.Done():
			return nil, nil, false
		case <-d.wake:
		}
	}
}

func (d *Dispatcher) run(request domain.TaskRequest, c *component) {
	defer func() {
		d.inFlight.Add(-1)
		d.pool.Release(1)
		d.tasks.Done()
	}()

	if c == nil {
		d.unroutable.Add(1)
		err := &domain.NoCapableWorkerError{ComponentType: request.ComponentType, Operation: request.Operation}
		d.logger.Warn("no capable worker", "task_id", request.TaskID, "error", err)
		d.finish(domain.NewFailureResult(request.TaskID, "", err, 0))
		return
	}
	defer func() {
		c.release()
		d.signal()
	}()

	workerID := c.worker.ID()
	d.results.setState(request.TaskID, domain.TaskStateDispatched)

	ctx := d.taskCtx
	if d.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.TaskTimeout)
		defer cancel()
	}

	start := time.Now()
	output, err := d.execute(ctx, c.worker, request)
	elapsed := time.Since(start)

	if err != nil {
		d.logger.Warn("task failed",
			"task_id", request.TaskID,
			"worker_id", workerID,
			"duration", elapsed,
			"error", err)
		d.finish(domain.NewFailureResult(request.TaskID, workerID, err, elapsed))
		return
	}

	d.logger.Debug("task completed", "task_id", request.TaskID, "worker_id", workerID, "duration", elapsed)
	d.finish(domain.NewSuccessResult(request.TaskID, workerID, output, elapsed))
}

// claim acquires the first idle capable worker in registration order.
// routable is false when no registered worker handles the request at all.
func (d *Dispatcher) claim(request domain.TaskRequest) (c *component, routable bool) {
	candidates := d.capable(request.Operation, request.ComponentType)
	if len(candidates) == 0 {
		return nil, false
	}

	for _, candidate := range candidates {
		if candidate.tryAcquire() {
			return candidate, true
		}
	}
	return nil, true
}

func (d *Dispatcher) execute(ctx context.Context, worker ports.Worker, request domain.TaskRequest) (output map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			panicErr := domain.NewWorkerPanicError(request.TaskID, worker.ID(), r)
			d.logger.Error("worker panicked",
				"task_id", request.TaskID,
				"worker_id", worker.ID(),
				"panic", r,
				"stack", panicErr.StackTrace)
			output, err = nil, panicErr
		}
	}()

	output, err = worker.Execute(ctx, request)
	if err != nil {
		return nil, domain.NewWorkerExecutionError(request.TaskID, worker.ID(), err)
	}
	return output, nil
}

func (d *Dispatcher) finish(result *domain.TaskResult) {
	if !d.results.publish(result) {
		return
	}
	if result.Success {
		d.completed.Add(1)
	} else {
		d.failed.Add(1)
	}
}

func (d *Dispatcher) janitor(ctx context.Context) {
	defer close(d.janitorDone)

	ticker := time.NewTicker(d.config.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := d.results.evictOlderThan(time.Now().Add(-d.config.ResultTTL)); evicted > 0 {
				d.logger.Debug("evicted expired results", "count", evicted)
			}
		}
	}
}

func (d *Dispatcher) Stats() domain.DispatcherStats {
	d.componentsMu.RLock()
	components := make([]domain.ComponentInfo, 0, len(d.components))
	for _, c := range d.components {
		components = append(components, c.info())
	}
	d.componentsMu.RUnlock()

	d.queueMu.Lock()
	queued := d.queue.len()
	d.queueMu.Unlock()

	d.eventsMu.Lock()
	events := make(map[string]int64, len(d.events))
	for k, v := range d.events {
		events[k] = v
	}
	d.eventsMu.Unlock()

	d.lifecycleMu.Lock()
	running := d.started && !d.stopped
	d.lifecycleMu.Unlock()

	return domain.DispatcherStats{
		Components:      len(components),
		Queued:          queued,
		InFlight:        int(d.inFlight.Load()),
		CachedResults:   d.results.cached(),
		Completed:       d.completed.Load(),
		Failed:          d.failed.Load(),
		Unroutable:      d.unroutable.Load(),
		Running:         running,
		ComponentEvents: events,
		ComponentList:   components,
	}
}
