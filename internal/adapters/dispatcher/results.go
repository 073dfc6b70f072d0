package dispatcher

import (
	"sync"
	"time"

	"github.com/eleven-am/prpflow/internal/domain"
)

type resultSlot struct {
	state       domain.TaskState
	result      *domain.TaskResult
	done        chan struct{}
	completedAt time.Time
}

// resultTable tracks every accepted task until its result is evicted.
// A slot's done channel is closed exactly once, when the result is published.
type resultTable struct {
	mu    sync.RWMutex
	slots map[string]*resultSlot
}

func newResultTable() *resultTable {
	return &resultTable{slots: make(map[string]*resultSlot)}
}

func (t *resultTable) reserve(taskID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if slot, exists := t.slots[taskID]; exists {
		return domain.NewDuplicateTaskError(taskID, slot.state)
	}
	t.slots[taskID] = &resultSlot{
		state: domain.TaskStateSubmitted,
		done:  make(chan struct{}),
	}
	return nil
}

func (t *resultTable) release(taskID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.slots, taskID)
}

func (t *resultTable) setState(taskID string, state domain.TaskState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if slot, exists := t.slots[taskID]; exists && !slot.state.Terminal() {
		slot.state = state
	}
}

func (t *resultTable) state(taskID string) (domain.TaskState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	slot, exists := t.slots[taskID]
	if !exists {
		return "", false
	}
	return slot.state, true
}

// publish stores the result and wakes every waiter. Later publishes for the
// same task are ignored so the first result stays the cached one.
func (t *resultTable) publish(result *domain.TaskResult) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, exists := t.slots[result.TaskID]
	if !exists || slot.state.Terminal() {
		return false
	}

	slot.result = result
	slot.completedAt = time.Now()
	if result.Success {
		slot.state = domain.TaskStateCompleted
	} else {
		slot.state = domain.TaskStateFailed
	}
	close(slot.done)
	return true
}

func (t *resultTable) lookup(taskID string) (*resultSlot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	slot, exists := t.slots[taskID]
	return slot, exists
}

func (t *resultTable) resultOf(slot *resultSlot) *domain.TaskResult {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slot.result
}

func (t *resultTable) evictOlderThan(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for id, slot := range t.slots {
		if slot.state.Terminal() && slot.completedAt.Before(cutoff) {
			delete(t.slots, id)
			evicted++
		}
	}
	return evicted
}

func (t *resultTable) cached() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, slot := range t.slots {
		if slot.state.Terminal() {
			count++
		}
	}
	return count
}
