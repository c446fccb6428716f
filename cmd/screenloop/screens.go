package main

import (
	"fmt"

	"github.com/dshills/screenloop/internal/backend"
	"github.com/dshills/screenloop/internal/dispatch"
	"github.com/dshills/screenloop/internal/event"
	"github.com/dshills/screenloop/internal/screen"
)

// drawable is implemented by demo screens that render themselves.
type drawable interface {
	Draw(term *backend.Terminal)
}

// termPresenter draws screens as they are presented and resumed.
type termPresenter struct {
	term *backend.Terminal
}

func (p *termPresenter) ScreenPresented(s screen.Screen) {
	if d, ok := s.(drawable); ok {
		p.term.Clear()
		d.Draw(p.term)
		p.term.Show()
	}
}

func (p *termPresenter) ScreenDismissed(screen.Screen) {}

// rootScreen is the demo's main screen. Its capability table is built once
// here; key presses arrive as command events and are routed by the
// <id>Clicked convention, pointer motion by the onMove handler.
type rootScreen struct {
	table  *dispatch.HandlerTable
	mgr    *screen.Manager
	term   *backend.Terminal
	status string
	saved  int
}

func newRootScreen(mgr *screen.Manager, term *backend.Terminal) *rootScreen {
	s := &rootScreen{
		table: dispatch.NewHandlerTable(),
		mgr:   mgr,
		term:  term,
	}

	dispatch.On1(s.table, "saveClicked", func(event.Command) (any, error) {
		// The confirmation blocks here while the loop keeps running:
		// the dialog's own key events are serviced by the nested frame.
		if confirm(mgr, "Save changes?") {
			s.saved++
			s.status = fmt.Sprintf("saved (%d)", s.saved)
		} else {
			s.status = "save cancelled"
		}
		s.redraw()
		return nil, nil
	})

	dispatch.On(s.table, "helpClicked", func() (any, error) {
		result := mgr.Present(newHelpScreen(mgr), "screenloop demo")
		s.status = fmt.Sprintf("help returned %v", result)
		s.redraw()
		return nil, nil
	})

	dispatch.On(s.table, "quitClicked", func() (any, error) {
		mgr.Finish(nil)
		return nil, nil
	})

	// Only the two-scalar shape is registered, so motion dispatch goes
	// through the XY transformer.
	dispatch.On2(s.table, "onMove", func(x, y float64) (any, error) {
		s.status = fmt.Sprintf("pointer at %.0f,%.0f", x, y)
		s.redraw()
		return nil, nil
	})

	return s
}

func (s *rootScreen) Handlers() *dispatch.HandlerTable { return s.table }

func (s *rootScreen) Resume() { s.redraw() }

func (s *rootScreen) Draw(term *backend.Terminal) {
	term.DrawText(2, 1, "screenloop demo")
	term.DrawText(2, 3, "s: save   h: help   q: quit")
	term.DrawText(2, 5, s.status)
}

func (s *rootScreen) redraw() {
	s.term.Clear()
	s.Draw(s.term)
	s.term.Show()
}

// confirm presents a yes/no dialog and blocks, reentrantly, until
// answered. Both answers finish the dialog, so the nested frame always
// unwinds.
func confirm(mgr *screen.Manager, question string) bool {
	result := mgr.Present(newConfirmScreen(mgr, question))
	confirmed, ok := result.(bool)
	return ok && confirmed
}

// confirmScreen is a modal yes/no dialog.
type confirmScreen struct {
	table    *dispatch.HandlerTable
	question string
}

func newConfirmScreen(mgr *screen.Manager, question string) *confirmScreen {
	s := &confirmScreen{
		table:    dispatch.NewHandlerTable(),
		question: question,
	}

	dispatch.On(s.table, "yesClicked", func() (any, error) {
		mgr.Finish(true)
		return nil, nil
	})
	dispatch.On(s.table, "noClicked", func() (any, error) {
		mgr.Finish(false)
		return nil, nil
	})

	return s
}

func (s *confirmScreen) Handlers() *dispatch.HandlerTable { return s.table }

func (s *confirmScreen) Draw(term *backend.Terminal) {
	term.DrawText(4, 3, s.question)
	term.DrawText(4, 5, "y: yes   n: no")
}

// helpScreen is a sub-screen presented synchronously with arguments; it
// finishes with a result the presenter receives as Present's return value.
type helpScreen struct {
	table *dispatch.HandlerTable
	title string
}

func newHelpScreen(mgr *screen.Manager) *helpScreen {
	s := &helpScreen{table: dispatch.NewHandlerTable()}

	dispatch.On(s.table, "backClicked", func() (any, error) {
		mgr.Finish("dismissed")
		return nil, nil
	})

	return s
}

func (s *helpScreen) Handlers() *dispatch.HandlerTable { return s.table }

// Initialize receives the arguments registered by Present.
func (s *helpScreen) Initialize(args []any) {
	if len(args) > 0 {
		if title, ok := args[0].(string); ok {
			s.title = title
		}
	}
}

func (s *helpScreen) Draw(term *backend.Terminal) {
	term.DrawText(2, 1, "help: "+s.title)
	term.DrawText(2, 3, "move the mouse on the main screen to see motion dispatch")
	term.DrawText(2, 5, "b: back")
}
