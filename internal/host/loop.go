package host

import (
	"context"
	"sync"

	"github.com/dshills/screenloop/internal/logging"
)

// DefaultQueueSize is the default capacity of the loop's work queue.
const DefaultQueueSize = 256

// Source produces work for the loop from an external event stream.
// Start must return promptly; delivery happens on the source's own
// goroutine(s), which hand thunks to the loop via the post function.
type Source interface {
	Start(post func(func())) error
	Stop()
}

// Loop is the single-threaded dispatch loop.
// Thunks posted to the loop execute one at a time on the goroutine that
// called Run, in the order they were posted.
type Loop struct {
	queue    chan func()
	stopCh   chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	sources []Source
	running bool

	logger *logging.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithQueueSize sets the work queue capacity.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.queue = make(chan func(), n)
		}
	}
}

// WithLogger sets the loop's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// NewLoop creates a new dispatch loop.
func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		queue:  make(chan func(), DefaultQueueSize),
		stopCh: make(chan struct{}),
		logger: logging.Default().WithComponent("host"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AddSource registers an external event source.
// Sources added before Run are started by Run; sources added while the
// loop is running are started immediately.
func (l *Loop) AddSource(s Source) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sources = append(l.sources, s)
	if l.running {
		return s.Start(l.Post)
	}
	return nil
}

// Post enqueues a thunk for execution on the dispatch goroutine.
// Safe to call from any goroutine. Post blocks if the queue is full and
// returns silently if the loop has been stopped.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	select {
	case l.queue <- fn:
	case <-l.stopCh:
	}
}

// Run executes the top-level dispatch loop on the calling goroutine.
// It starts all registered sources, then services the queue until Stop is
// called or the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	l.running = true
	sources := make([]Source, len(l.sources))
	copy(sources, l.sources)
	l.mu.Unlock()

	for _, s := range sources {
		if err := s.Start(l.Post); err != nil {
			l.Stop()
			return err
		}
	}

	l.logger.Debug("dispatch loop started")

	for {
		select {
		case fn := <-l.queue:
			fn()
		case <-l.stopCh:
			l.logger.Debug("dispatch loop stopped")
			return nil
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		}
	}
}

// RunNested services the queue on the calling goroutine until done reports
// true. It must be called from within a thunk already executing on the
// dispatch goroutine; the effect is a nested invocation of the loop, so
// unrelated events continue to be serviced while the caller waits.
//
// done is checked before each wait and after every thunk. Whoever makes
// done become true must also post a thunk (even a no-op) so a loop blocked
// waiting for work wakes up and observes it.
func (l *Loop) RunNested(done func() bool) {
	for !done() {
		select {
		case fn := <-l.queue:
			fn()
		case <-l.stopCh:
			return
		}
	}
}

// Stop signals the loop to exit and stops all sources.
// Stop is idempotent and safe to call from any goroutine. Nested frames
// observe the stop and unwind without servicing further work.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)

		l.mu.Lock()
		sources := make([]Source, len(l.sources))
		copy(sources, l.sources)
		l.running = false
		l.mu.Unlock()

		for _, s := range sources {
			s.Stop()
		}
	})
}

// Stopped reports whether Stop has been called.
func (l *Loop) Stopped() bool {
	select {
	case <-l.stopCh:
		return true
	default:
		return false
	}
}
