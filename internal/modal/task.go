// Package modal gives blocking-call semantics over asynchronous,
// callback-driven UI constructs.
//
// The host runtime only notifies completion of a dialog or sub-screen
// through callbacks delivered on the dispatch loop. A Task bridges that
// gap: it runs a trigger function that presents the construct and returns
// immediately, then reenters the dispatch loop so every pending and newly
// arriving event keeps being serviced, including the very callback that
// will eventually complete the task. From the caller's point of view the
// whole thing is one blocking call, while the UI stays responsive.
//
// Every triggering path must guarantee exactly one eventual Complete call,
// including cancel and back-out paths; there is no separate cancel
// primitive, and a task that is never completed never returns.
package modal

import (
	"sync"

	"github.com/dshills/screenloop/internal/host"
	"github.com/dshills/screenloop/internal/logging"
)

// Task is a single synchronous-modal bridge producing a result of type E.
// Create one immediately before triggering the asynchronous construct; it
// is not reusable after Execute returns.
type Task[E any] struct {
	loop   *host.Loop
	logger *logging.Logger

	mu        sync.Mutex
	completed bool
	result    E

	extras map[string]any
}

// NewTask creates a task bound to the given dispatch loop.
func NewTask[E any](loop *host.Loop) *Task[E] {
	return &Task[E]{
		loop:   loop,
		logger: logging.Default().WithComponent("modal"),
		extras: make(map[string]any),
	}
}

// Extras is a mutable key-value bag for passing context between the
// triggering code and its callbacks. Access it from the dispatch
// goroutine only.
func (t *Task[E]) Extras() map[string]any {
	return t.extras
}

// Execute runs the trigger and blocks until Complete is called.
//
// trigger is expected to present the asynchronous construct, register its
// callbacks, and return immediately; it must not block. If trigger panics,
// the panic propagates and the loop is never reentered. Otherwise Execute
// reenters the dispatch loop, servicing events in arrival order (nested
// tasks included) until one of the dispatched callbacks calls Complete,
// and returns the completed value.
//
// Execute must be called on the dispatch goroutine, from within a thunk
// the loop is servicing.
func (t *Task[E]) Execute(trigger func()) E {
	trigger()

	t.loop.RunNested(t.isDone)

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Complete records the task's result and unblocks Execute. Only the first
// call counts; later calls are ignored with a diagnostic. Safe to call
// from incidental goroutines: the wake-up is posted through the loop.
func (t *Task[E]) Complete(value E) {
	t.mu.Lock()
	if t.completed {
		t.mu.Unlock()
		t.logger.Warn("completion signaled more than once; ignoring")
		return
	}
	t.result = value
	t.completed = true
	t.mu.Unlock()

	// Wake the nested loop in case it is idle waiting for work.
	t.loop.Post(func() {})
}

// Completed reports whether the task has received its completion signal.
func (t *Task[E]) Completed() bool {
	return t.isDone()
}

func (t *Task[E]) isDone() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// Present creates a task, hands it to trigger, and blocks until the task
// completes. It is the one-shot form of the bridge:
//
//	confirmed := modal.Present(loop, func(task *modal.Task[bool]) {
//		showDialog(onYes: func() { task.Complete(true) },
//			onNo: func() { task.Complete(false) })
//	})
func Present[E any](loop *host.Loop, trigger func(task *Task[E])) E {
	task := NewTask[E](loop)
	return task.Execute(func() { trigger(task) })
}
