package scheduler

import (
	"container/heap"
	"sync"

	"github.com/fastdsl/core/internal/task"
)

// pendingQueue is the shared pending-work set workers draw from. Tasks
// are ordered by priority, descending, with submission order breaking
// ties so equal-priority work stays FIFO.
type pendingQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  taskHeap
	closed bool
	seq    uint64
}

func newPendingQueue() *pendingQueue {
	q := &pendingQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push enqueues t, reporting false once the queue has been closed.
func (q *pendingQueue) push(t *task.Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.seq++
	heap.Push(&q.items, &queued{task: t, seq: q.seq})
	q.cond.Signal()
	return true
}

// pop blocks until a task is available and returns it. After close, pop
// keeps draining queued tasks and returns false only once the queue is
// both closed and empty.
func (q *pendingQueue) pop() (*task.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	item := heap.Pop(&q.items).(*queued)
	return item.task, true
}

// close stops accepting new tasks and wakes all waiting workers.
func (q *pendingQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

func (q *pendingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

type queued struct {
	task *task.Task
	seq  uint64
}

type taskHeap []*queued

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].task.Priority() != h[j].task.Priority() {
		return h[i].task.Priority() > h[j].task.Priority()
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(*queued)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
