// Package backend adapts a tcell terminal into a host event source,
// converting terminal input into screenloop events and providing the
// minimal drawing surface the built-in dialogs need.
package backend

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/screenloop/internal/event"
	"github.com/dshills/screenloop/internal/logging"
)

// sourceName tags events produced by this backend.
const sourceName = "terminal"

// Options configures the terminal backend.
type Options struct {
	// MouseEnabled controls whether mouse and motion events are reported.
	MouseEnabled bool
}

// Terminal is a tcell-backed host.Source. A reader goroutine polls the
// terminal and posts converted events into the dispatch loop.
type Terminal struct {
	mu     sync.Mutex
	screen tcell.Screen
	opts   Options
	logger *logging.Logger

	bindings map[rune]string

	onMotion  func(event.Motion)
	onCommand func(event.Command)
	onResize  func(width, height int)

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewTerminal creates a terminal backend over a fresh tcell screen.
func NewTerminal(opts Options) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	if opts.MouseEnabled {
		screen.EnableMouse()
	}
	return &Terminal{
		screen:   screen,
		opts:     opts,
		logger:   logging.Default().WithComponent("backend"),
		bindings: make(map[rune]string),
		stopCh:   make(chan struct{}),
	}, nil
}

// NewTerminalWithScreen creates a backend over an existing screen,
// typically a tcell simulation screen in tests. The screen must already
// be initialized.
func NewTerminalWithScreen(screen tcell.Screen, opts Options) *Terminal {
	return &Terminal{
		screen:   screen,
		opts:     opts,
		logger:   logging.Default().WithComponent("backend"),
		bindings: make(map[rune]string),
		stopCh:   make(chan struct{}),
	}
}

// Bind maps a rune key press to a command identifier. Key presses with no
// binding are dropped.
func (t *Terminal) Bind(r rune, commandID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bindings[r] = commandID
}

// OnMotion sets the callback for pointer motion events. The callback runs
// on the dispatch goroutine.
func (t *Terminal) OnMotion(fn func(event.Motion)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMotion = fn
}

// OnCommand sets the callback for command events. The callback runs on
// the dispatch goroutine.
func (t *Terminal) OnCommand(fn func(event.Command)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onCommand = fn
}

// OnResize sets the callback for terminal resize events.
func (t *Terminal) OnResize(fn func(width, height int)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onResize = fn
}

// Start implements host.Source. It launches the reader goroutine, which
// polls the terminal and posts converted events through post.
func (t *Terminal) Start(post func(func())) error {
	t.wg.Add(1)
	go t.readEvents(post)
	return nil
}

// Stop implements host.Source. It wakes the reader and releases the
// terminal.
func (t *Terminal) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
		_ = t.screen.PostEvent(tcell.NewEventInterrupt(nil))
		t.wg.Wait()
		t.screen.Fini()
	})
}

// readEvents is the reader goroutine body.
func (t *Terminal) readEvents(post func(func())) {
	defer t.wg.Done()

	for {
		select {
		case <-t.stopCh:
			return
		default:
		}

		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}

		switch e := ev.(type) {
		case *tcell.EventInterrupt:
			// Stop() wake-up.

		case *tcell.EventMouse:
			if !t.opts.MouseEnabled {
				continue
			}
			x, y := e.Position()
			motion := event.NewMotion(sourceName, float64(x), float64(y))
			post(func() {
				if fn := t.motionCallback(); fn != nil {
					fn(motion)
				}
			})

		case *tcell.EventKey:
			if e.Key() != tcell.KeyRune {
				continue
			}
			id, ok := t.binding(e.Rune())
			if !ok {
				continue
			}
			cmd := event.NewCommand(sourceName, id)
			post(func() {
				if fn := t.commandCallback(); fn != nil {
					fn(cmd)
				}
			})

		case *tcell.EventResize:
			w, h := e.Size()
			post(func() {
				if fn := t.resizeCallback(); fn != nil {
					fn(w, h)
				}
			})
		}
	}
}

func (t *Terminal) binding(r rune) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.bindings[r]
	return id, ok
}

func (t *Terminal) motionCallback() func(event.Motion) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.onMotion
}

func (t *Terminal) commandCallback() func(event.Command) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.onCommand
}

func (t *Terminal) resizeCallback() func(int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.onResize
}

// Size returns the terminal dimensions.
func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.screen.Size()
}

// Clear erases the terminal contents.
func (t *Terminal) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Clear()
}

// DrawText writes a string starting at (x, y) with the default style.
func (t *Terminal) DrawText(x, y int, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, r := range text {
		t.screen.SetContent(x+i, y, r, nil, tcell.StyleDefault)
	}
}

// Show flushes pending drawing to the terminal.
func (t *Terminal) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Show()
}

// Suspend releases the terminal so an external program can use it, e.g.
// while an externally launched activity runs.
func (t *Terminal) Suspend() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.screen.Suspend()
}

// Resume reclaims the terminal after Suspend.
func (t *Terminal) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.screen.Resume()
}
