// Package loop is the engine's single cooperative thread: a time-ordered
// queue of callbacks, each registration returning a cancellable handle.
//
// Every callback runs with the loop lock held, so callbacks and functions
// passed to Do never run concurrently. Callbacks must not call Do.
package loop

import (
	"container/heap"
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrNotVirtual is returned by Advance on a loop driven by a real clock.
var ErrNotVirtual = errors.New("loop: clock cannot be advanced")

// Task is a handle to a scheduled callback.
type Task struct {
	loop      *Loop
	at        time.Time
	period    time.Duration
	fn        func()
	seq       uint64
	index     int
	cancelled bool
}

// Cancel removes the task. It is safe to call more than once and from
// within the task's own callback. It must be called on the loop.
func (t *Task) Cancel() {
	if t == nil || t.cancelled {
		return
	}
	t.cancelled = true
	if t.index >= 0 {
		heap.Remove(&t.loop.tasks, t.index)
	}
}

// Active reports whether the task can still fire.
func (t *Task) Active() bool {
	return t != nil && !t.cancelled
}

// Loop runs callbacks in time order against a clockwork clock.
type Loop struct {
	mu     sync.Mutex
	clock  clockwork.Clock
	tasks  taskHeap
	seq    uint64
	wake   chan struct{}
	logger *log.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets where contained callback panics are logged.
func WithLogger(l *log.Logger) Option {
	return func(lp *Loop) {
		lp.logger = l
	}
}

// New returns a loop on clock. Pass clockwork.NewFakeClock() to drive it
// with Advance.
func New(clock clockwork.Clock, opts ...Option) *Loop {
	l := &Loop{
		clock:  clock,
		wake:   make(chan struct{}, 1),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now is the loop clock's current time.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// Do runs fn on the loop.
func (l *Loop) Do(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn()
	l.notify()
}

// After schedules fn once, d from now. It must be called on the loop.
func (l *Loop) After(d time.Duration, fn func()) *Task {
	return l.schedule(d, 0, fn)
}

// Every schedules fn every period, first firing one period from now. It
// must be called on the loop.
func (l *Loop) Every(period time.Duration, fn func()) *Task {
	if period <= 0 {
		period = time.Millisecond
	}
	return l.schedule(period, period, fn)
}

func (l *Loop) schedule(d, period time.Duration, fn func()) *Task {
	t := &Task{
		loop:   l,
		at:     l.clock.Now().Add(max(d, 0)),
		period: period,
		fn:     fn,
		index:  -1,
	}
	l.push(t)
	l.notify()
	return t
}

func (l *Loop) push(t *Task) {
	l.seq++
	t.seq = l.seq
	heap.Push(&l.tasks, t)
}

// Pending counts queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

func (l *Loop) notify() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) next() (time.Time, bool) {
	if len(l.tasks) == 0 {
		return time.Time{}, false
	}
	return l.tasks[0].at, true
}

// runDue fires every task due at or before now, in time then
// registration order. Periodic tasks are re-queued before their callback
// runs so the callback may cancel them.
func (l *Loop) runDue(now time.Time) {
	for len(l.tasks) > 0 && !l.tasks[0].at.After(now) {
		t := heap.Pop(&l.tasks).(*Task)
		if t.period > 0 {
			t.at = t.at.Add(t.period)
			for !t.at.After(now) {
				// missed ticks are skipped, not replayed
				t.at = t.at.Add(t.period)
			}
			l.push(t)
		} else {
			t.cancelled = true
		}
		l.invoke(t)
	}
}

func (l *Loop) invoke(t *Task) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Printf("loop: task panicked: %v", r)
		}
	}()
	t.fn()
}

// Run drives the loop in real time until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.mu.Lock()
		at, ok := l.next()
		l.mu.Unlock()

		var (
			timer  clockwork.Timer
			expiry <-chan time.Time
		)
		if ok {
			timer = l.clock.NewTimer(at.Sub(l.clock.Now()))
			expiry = timer.Chan()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case <-l.wake:
		case <-expiry:
		}
		if timer != nil {
			timer.Stop()
		}

		l.mu.Lock()
		l.runDue(l.clock.Now())
		l.mu.Unlock()
	}
}

// Advance moves a fake clock forward by d, stopping at every task on the
// way so each fires at its exact scheduled time.
func (l *Loop) Advance(d time.Duration) error {
	fc, ok := l.clock.(clockwork.FakeClock)
	if !ok {
		return ErrNotVirtual
	}

	target := l.clock.Now().Add(d)
	for {
		l.mu.Lock()
		at, ok := l.next()
		if !ok || at.After(target) {
			l.mu.Unlock()
			break
		}
		if gap := at.Sub(l.clock.Now()); gap > 0 {
			fc.Advance(gap)
		}
		l.runDue(l.clock.Now())
		l.mu.Unlock()
	}
	if rest := target.Sub(l.clock.Now()); rest > 0 {
		fc.Advance(rest)
	}
	return nil
}

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
