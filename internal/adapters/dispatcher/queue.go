package dispatcher

import (
	"container/heap"

	"github.com/eleven-am/prpflow/internal/domain"
)

type queuedTask struct {
	request  domain.TaskRequest
	sequence uint64
}

// taskHeap orders by priority, highest first, then by submission order.
type taskHeap []*queuedTask

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].request.Priority != h[j].request.Priority {
		return h[i].request.Priority > h[j].request.Priority
	}
	return h[i].sequence < h[j].sequence
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x interface{}) {
	*h = append(*h, x.(*queuedTask))
}

func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

type priorityQueue struct {
	items taskHeap
	next  uint64
}

func (q *priorityQueue) push(request domain.TaskRequest) {
	q.next++
	heap.Push(&q.items, &queuedTask{request: request, sequence: q.next})
}

func (q *priorityQueue) pop() (*queuedTask, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	return heap.Pop(&q.items).(*queuedTask), true
}

// popFirst removes and returns the highest-ordered task accepted by accept.
// Rejected tasks stay queued with their original sequence.
func (q *priorityQueue) popFirst(accept func(*queuedTask) bool) (*queuedTask, bool) {
	var skipped []*queuedTask
	defer func() {
		for _, item := range skipped {
			heap.Push(&q.items, item)
		}
	}()

	for len(q.items) > 0 {
		item := heap.Pop(&q.items).(*queuedTask)
		if accept(item) {
			return item, true
		}
		skipped = append(skipped, item)
	}
	return nil, false
}

func (q *priorityQueue) len() int {
	return len(q.items)
}

func (q *priorityQueue) drain() []*queuedTask {
	var drained []*queuedTask
	for {
		item, ok := q.pop()
		if !ok {
			return drained
		}
		drained = append(drained, item)
	}
}
