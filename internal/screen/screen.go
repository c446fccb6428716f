// Package screen orchestrates the presentation of UI screens on top of the
// dispatch loop: synchronous screen presentation with results, lifecycle
// hooks, and convention-based routing of command and motion events to the
// active screen.
package screen

import (
	"github.com/dshills/screenloop/internal/dispatch"
)

// Screen is a presentable UI surface. It exposes a capability table built
// once at construction; dispatch consults the table to route events, and a
// screen with no handler for an event is simply skipped, never an error.
type Screen interface {
	dispatch.Receiver
}

// Initializer is implemented by screens that accept presentation
// arguments. Initialize runs on the dispatch goroutine after the screen is
// pushed, with the argument list the presenter registered.
type Initializer interface {
	Initialize(args []any)
}

// Pauser is implemented by screens that want to be told when they stop
// being the active screen (another screen was presented over them).
type Pauser interface {
	Pause()
}

// Resumer is implemented by screens that want to be told when they become
// the active screen again (the screen above them finished).
type Resumer interface {
	Resume()
}

// Presenter is the external collaborator that actually shows and hides
// screens; rendering is outside this package's scope.
type Presenter interface {
	ScreenPresented(s Screen)
	ScreenDismissed(s Screen)
}

// Injection is a lifecycle hook attached to the manager independent of any
// screen, e.g. by a widget that must suspend background work while the
// application is paused. Hooks are identified by pointer; remove the same
// *Injection that was added.
type Injection struct {
	OnPause  func()
	OnResume func()
}
