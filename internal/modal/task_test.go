package modal_test

import (
	"context"
	"testing"
	"time"

	"github.com/dshills/screenloop/internal/host"
	"github.com/dshills/screenloop/internal/modal"
)

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

// onLoop runs fn on the dispatch goroutine and waits for it to finish.
func onLoop(t *testing.T, loop *host.Loop, fn func()) {
	t.Helper()
	done := make(chan struct{})
	loop.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("work on loop did not finish")
	}
}

func TestExecuteReturnsCompletedValue(t *testing.T) {
	loop := host.NewLoop()
	stop := runLoop(t, loop)
	defer stop()

	onLoop(t, loop, func() {
		task := modal.NewTask[string](loop)
		got := task.Execute(func() {
			// The "dialog callback" arrives through the same loop the
			// bridge is blocking inside.
			loop.Post(func() { task.Complete("answer") })
		})
		if got != "answer" {
			t.Errorf("Execute() = %q, want answer", got)
		}
		if !task.Completed() {
			t.Error("task not marked completed")
		}
	})
}

func TestUnrelatedEventsServicedDuringWait(t *testing.T) {
	loop := host.NewLoop()
	stop := runLoop(t, loop)
	defer stop()

	onLoop(t, loop, func() {
		unrelated := 0
		task := modal.NewTask[int](loop)
		got := task.Execute(func() {
			for i := 0; i < 5; i++ {
				loop.Post(func() { unrelated++ })
			}
			loop.Post(func() { task.Complete(7) })
		})
		if got != 7 {
			t.Errorf("Execute() = %d, want 7", got)
		}
		if unrelated != 5 {
			t.Errorf("unrelated events serviced = %d, want 5", unrelated)
		}
	})
}

func TestNestedTasksCompleteInnermostFirst(t *testing.T) {
	loop := host.NewLoop()
	stop := runLoop(t, loop)
	defer stop()

	onLoop(t, loop, func() {
		var order []string

		outer := modal.NewTask[string](loop)
		outerResult := outer.Execute(func() {
			loop.Post(func() {
				inner := modal.NewTask[string](loop)
				innerResult := inner.Execute(func() {
					loop.Post(func() { inner.Complete("inner-value") })
				})
				order = append(order, "inner:"+innerResult)
				loop.Post(func() { outer.Complete("outer-value") })
			})
		})
		order = append(order, "outer:"+outerResult)

		if len(order) != 2 || order[0] != "inner:inner-value" || order[1] != "outer:outer-value" {
			t.Errorf("order = %v, want inner completes before outer resumes", order)
		}
	})
}

func TestDoubleCompleteKeepsFirstValue(t *testing.T) {
	loop := host.NewLoop()
	stop := runLoop(t, loop)
	defer stop()

	onLoop(t, loop, func() {
		task := modal.NewTask[int](loop)
		got := task.Execute(func() {
			loop.Post(func() {
				task.Complete(1)
				task.Complete(2)
			})
		})
		if got != 1 {
			t.Errorf("Execute() = %d, want the first completion value", got)
		}
	})
}

func TestCompleteFromOtherGoroutine(t *testing.T) {
	loop := host.NewLoop()
	stop := runLoop(t, loop)
	defer stop()

	onLoop(t, loop, func() {
		task := modal.NewTask[string](loop)
		got := task.Execute(func() {
			// Background delivery mechanisms may complete off-thread.
			go task.Complete("from-elsewhere")
		})
		if got != "from-elsewhere" {
			t.Errorf("Execute() = %q, want from-elsewhere", got)
		}
	})
}

func TestTriggerPanicPropagatesWithoutReentry(t *testing.T) {
	loop := host.NewLoop()
	stop := runLoop(t, loop)
	defer stop()

	onLoop(t, loop, func() {
		task := modal.NewTask[int](loop)
		func() {
			defer func() {
				if recover() == nil {
					t.Error("expected trigger panic to propagate")
				}
			}()
			task.Execute(func() { panic("trigger failed") })
		}()

		// The loop must still be serviceable: no leaked nested frame.
		ran := false
		probe := modal.NewTask[bool](loop)
		got := probe.Execute(func() {
			loop.Post(func() {
				ran = true
				probe.Complete(true)
			})
		})
		if !got || !ran {
			t.Error("loop not serviceable after trigger panic")
		}
	})
}

func TestExtrasCarryContext(t *testing.T) {
	loop := host.NewLoop()
	stop := runLoop(t, loop)
	defer stop()

	onLoop(t, loop, func() {
		task := modal.NewTask[string](loop)
		task.Extras()["filename"] = "notes.txt"

		got := task.Execute(func() {
			loop.Post(func() {
				name := task.Extras()["filename"].(string)
				task.Complete("saved:" + name)
			})
		})
		if got != "saved:notes.txt" {
			t.Errorf("Execute() = %q, want saved:notes.txt", got)
		}
	})
}

func TestPresentShorthand(t *testing.T) {
	loop := host.NewLoop()
	stop := runLoop(t, loop)
	defer stop()

	onLoop(t, loop, func() {
		got := modal.Present(loop, func(task *modal.Task[bool]) {
			loop.Post(func() { task.Complete(true) })
		})
		if !got {
			t.Error("Present() = false, want true")
		}
	})
}
