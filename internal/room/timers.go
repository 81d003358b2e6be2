package room

import (
	"container/heap"
	"sync"
	"time"
)

// TimerKind names what a timer does when it fires.
type TimerKind string

const (
	TimerReminder TimerKind = "reminder"
	TimerClose    TimerKind = "close"
)

// Timer is one pending fire. It carries ids only; the room is looked up again
// when the timer fires.
type Timer struct {
	TenantID string
	RoomID   string
	Kind     TimerKind
	At       time.Time

	seq uint64
}

// Timers is a min-heap of pending fires ordered by time, then by schedule
// order. It is safe for concurrent use.
type Timers struct {
	mu   sync.Mutex
	h    timerHeap
	seq  uint64
	wake chan struct{}
}

// NewTimers creates an empty queue.
func NewTimers() *Timers {
	return &Timers{wake: make(chan struct{}, 1)}
}

// Schedule queues t and wakes the driver.
func (q *Timers) Schedule(t Timer) {
	q.mu.Lock()
	q.seq++
	t.seq = q.seq
	heap.Push(&q.h, t)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Next returns the time of the earliest pending fire.
func (q *Timers) Next() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.h) == 0 {
		return time.Time{}, false
	}
	return q.h[0].At, true
}

// PopDue removes and returns every fire due at or before now, in order.
func (q *Timers) PopDue(now time.Time) []Timer {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []Timer
	for len(q.h) > 0 && !q.h[0].At.After(now) {
		due = append(due, heap.Pop(&q.h).(Timer)) //nolint:forcetypeassert // heap only holds Timer
	}
	return due
}

// Cancel drops every pending fire of a room and returns how many it dropped.
func (q *Timers) Cancel(tenantID, roomID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.h[:0]
	for _, t := range q.h {
		if t.TenantID != tenantID || t.RoomID != roomID {
			kept = append(kept, t)
		}
	}
	n := len(q.h) - len(kept)
	q.h = kept
	heap.Init(&q.h)
	return n
}

// Pending returns a copy of the queued fires in firing order.
func (q *Timers) Pending() []Timer {
	q.mu.Lock()
	cp := make(timerHeap, len(q.h))
	copy(cp, q.h)
	q.mu.Unlock()

	out := make([]Timer, 0, len(cp))
	for cp.Len() > 0 {
		out = append(out, heap.Pop(&cp).(Timer)) //nolint:forcetypeassert // heap only holds Timer
	}
	return out
}

// Len returns the number of pending fires.
func (q *Timers) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h)
}

// Wake signals when the earliest deadline may have changed.
func (q *Timers) Wake() <-chan struct{} {
	return q.wake
}

type timerHeap []Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if !h[i].At.Equal(h[j].At) {
		return h[i].At.Before(h[j].At)
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) { *h = append(*h, x.(Timer)) } //nolint:forcetypeassert // heap.Interface

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	*h = old[:n-1]
	return t
}
