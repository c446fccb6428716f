package host_test

import (
	"context"
	"testing"
	"time"

	"github.com/dshills/screenloop/internal/host"
)

// runLoop starts a loop on a background goroutine and returns a stop
// function that waits for it to exit.
func runLoop(t *testing.T, loop *host.Loop) func() {
	t.Helper()
	doneCh := make(chan struct{})
	go func() {
		_ = loop.Run(context.Background())
		close(doneCh)
	}()
	return func() {
		loop.Stop()
		select {
		case <-doneCh:
		case <-time.After(2 * time.Second):
			t.Fatal("loop did not stop")
		}
	}
}

func TestLoopExecutesInPostOrder(t *testing.T) {
	loop := host.NewLoop()
	stop := runLoop(t, loop)
	defer stop()

	var got []int
	done := make(chan struct{})
	for i := 1; i <= 3; i++ {
		i := i
		loop.Post(func() { got = append(got, i) })
	}
	loop.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("posted work did not run")
	}

	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("execution order = %v, want [1 2 3]", got)
	}
}

func TestRunNestedServicesQueueUntilDone(t *testing.T) {
	loop := host.NewLoop()
	stop := runLoop(t, loop)
	defer stop()

	result := make(chan []string, 1)
	loop.Post(func() {
		var order []string
		finished := false

		// Work posted before and during the nested frame must all be
		// serviced while the caller waits.
		loop.Post(func() { order = append(order, "unrelated") })
		loop.Post(func() {
			order = append(order, "completion")
			finished = true
			loop.Post(func() {})
		})

		loop.RunNested(func() bool { return finished })
		order = append(order, "after-wait")
		result <- order
	})

	select {
	case order := <-result:
		want := []string{"unrelated", "completion", "after-wait"}
		if len(order) != len(want) {
			t.Fatalf("order = %v, want %v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("order = %v, want %v", order, want)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("nested frame did not unwind")
	}
}

func TestRunNestedNests(t *testing.T) {
	loop := host.NewLoop()
	stop := runLoop(t, loop)
	defer stop()

	result := make(chan []string, 1)
	loop.Post(func() {
		var order []string
		outerDone := false

		loop.Post(func() {
			innerDone := false
			loop.Post(func() {
				order = append(order, "inner-complete")
				innerDone = true
				loop.Post(func() {})
			})
			loop.RunNested(func() bool { return innerDone })
			order = append(order, "inner-unwound")

			loop.Post(func() {
				order = append(order, "outer-complete")
				outerDone = true
				loop.Post(func() {})
			})
		})

		loop.RunNested(func() bool { return outerDone })
		order = append(order, "outer-unwound")
		result <- order
	})

	select {
	case order := <-result:
		want := []string{"inner-complete", "inner-unwound", "outer-complete", "outer-unwound"}
		if len(order) != len(want) {
			t.Fatalf("order = %v, want %v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("order = %v, want %v", order, want)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("nested frames did not unwind")
	}
}

func TestStopUnwindsNestedFrames(t *testing.T) {
	loop := host.NewLoop()
	stop := runLoop(t, loop)

	entered := make(chan struct{})
	unwound := make(chan struct{})
	loop.Post(func() {
		close(entered)
		loop.RunNested(func() bool { return false })
		close(unwound)
	})

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("thunk never ran")
	}

	stop()

	select {
	case <-unwound:
	case <-time.After(2 * time.Second):
		t.Fatal("nested frame did not observe stop")
	}
}

func TestPostAfterStopIsDropped(t *testing.T) {
	loop := host.NewLoop()
	loop.Stop()

	// Must return promptly instead of blocking on a dead loop.
	done := make(chan struct{})
	go func() {
		loop.Post(func() {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Post blocked after Stop")
	}

	if !loop.Stopped() {
		t.Error("Stopped() = false after Stop")
	}
}

type fakeSource struct {
	started chan struct{}
	stopped chan struct{}
}

func (s *fakeSource) Start(post func(func())) error {
	close(s.started)
	post(func() {})
	return nil
}

func (s *fakeSource) Stop() { close(s.stopped) }

func TestSourcesStartAndStopWithLoop(t *testing.T) {
	loop := host.NewLoop()
	src := &fakeSource{
		started: make(chan struct{}),
		stopped: make(chan struct{}),
	}
	if err := loop.AddSource(src); err != nil {
		t.Fatalf("AddSource() error = %v", err)
	}

	stop := runLoop(t, loop)

	select {
	case <-src.started:
	case <-time.After(2 * time.Second):
		t.Fatal("source was not started")
	}

	stop()

	select {
	case <-src.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("source was not stopped")
	}
}
