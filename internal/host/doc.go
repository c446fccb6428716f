// Package host implements the single-threaded dispatch loop that drives a
// screenloop application.
//
// All UI work executes as thunks on one dispatch goroutine. External event
// producers (terminal backends, timers, completion callbacks arriving on
// incidental goroutines) hand work to the loop with Post; the loop services
// the queue in arrival order.
//
// The loop is reentrant: a thunk may call RunNested to keep servicing the
// queue without returning, which is how the modal bridge gives blocking-call
// semantics over callback-driven UI constructs. Nested invocations may stack
// arbitrarily deep; each RunNested frame exits when its own predicate is
// satisfied, innermost first.
package host
