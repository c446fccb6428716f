package screen

import (
	"github.com/dshills/screenloop/internal/correlate"
	"github.com/dshills/screenloop/internal/dispatch"
	"github.com/dshills/screenloop/internal/event"
	"github.com/dshills/screenloop/internal/host"
	"github.com/dshills/screenloop/internal/logging"
	"github.com/dshills/screenloop/internal/modal"
)

// stackEntry is one presented screen together with the bridge waiting for
// its result and the correlator session holding its arguments.
type stackEntry struct {
	screen  Screen
	task    *modal.Task[correlate.Token]
	session uint64
}

// Manager owns the screen stack and routes events to the active screen.
// All Manager methods except construction must run on the dispatch
// goroutine.
type Manager struct {
	loop      *host.Loop
	store     *correlate.Store
	presenter Presenter
	logger    *logging.Logger

	stack      []*stackEntry
	injections map[*Injection]struct{}
	instance   map[string]any

	motion map[string]*dispatch.Dispatcher
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithPresenter sets the collaborator notified when screens appear and
// disappear.
func WithPresenter(p Presenter) ManagerOption {
	return func(m *Manager) {
		m.presenter = p
	}
}

// WithStore sets the correlation store. Defaults to the process-wide one.
func WithStore(s *correlate.Store) ManagerOption {
	return func(m *Manager) {
		m.store = s
	}
}

// NewManager creates a screen manager driving the given loop.
func NewManager(loop *host.Loop, opts ...ManagerOption) *Manager {
	m := &Manager{
		loop:       loop,
		store:      correlate.Default(),
		logger:     logging.Default().WithComponent("screen"),
		injections: make(map[*Injection]struct{}),
		instance:   make(map[string]any),
		motion:     make(map[string]*dispatch.Dispatcher),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Top returns the active screen, or nil if none is presented.
func (m *Manager) Top() Screen {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1].screen
}

// Depth returns the number of presented screens.
func (m *Manager) Depth() int {
	return len(m.stack)
}

// Present pushes a screen and blocks, reentrantly, until that screen calls
// Finish. The argument list crosses the navigation boundary through the
// correlator; the presented screen's Initialize receives whatever the
// token still resolves to. The return value is the result the screen
// finished with, or nil if it finished without one.
func (m *Manager) Present(s Screen, args ...any) any {
	session := m.store.BeginSession()
	argToken := m.store.RegisterArguments(args...)

	resultToken := modal.Present(m.loop, func(task *modal.Task[correlate.Token]) {
		if top := m.Top(); top != nil {
			if p, ok := top.(Pauser); ok {
				p.Pause()
			}
		}

		m.stack = append(m.stack, &stackEntry{screen: s, task: task, session: session})
		m.logger.Debug("screen presented, depth=%d", len(m.stack))

		if init, ok := s.(Initializer); ok {
			initArgs, _ := m.store.TakeArguments(argToken)
			init.Initialize(initArgs)
		}
		if m.presenter != nil {
			m.presenter.ScreenPresented(s)
		}
	})

	result, _ := m.store.TakeResult(resultToken)
	return result
}

// Finish dismisses the active screen, passing result back to the Present
// call that pushed it. Finishing with no meaningful result (a cancel, a
// back-out) is Finish(nil); there is no separate cancel path.
func (m *Manager) Finish(result any) {
	if len(m.stack) == 0 {
		m.logger.Warn("finish with no presented screen")
		return
	}

	top := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]

	m.store.ReclaimSession(top.session)

	if m.presenter != nil {
		m.presenter.ScreenDismissed(top.screen)
	}
	if next := m.Top(); next != nil {
		if r, ok := next.(Resumer); ok {
			r.Resume()
		}
	}
	m.logger.Debug("screen finished, depth=%d", len(m.stack))

	top.task.Complete(m.store.RegisterResult(result))
}

// PresentActivity launches an externally managed construct and blocks
// until the finish callback runs. The launch function must arrange for
// finish to be called exactly once on every exit path.
func (m *Manager) PresentActivity(launch func(finish func(result any))) any {
	return modal.Present(m.loop, func(task *modal.Task[any]) {
		launch(task.Complete)
	})
}

// instanceStarterKey marks the pending-starter token in instance data so
// it survives a save/restore cycle.
const instanceStarterKey = "screenloop.startedActivity"

// StartActivityForResult registers a pending handler for an external
// callback that may arrive after this screen has been rebuilt. The token
// is recorded in instance data and handed to launch for embedding in the
// outgoing request payload.
func (m *Manager) StartActivityForResult(starter correlate.StarterFunc, launch func(token correlate.Token)) {
	token := m.store.RegisterStarter(starter)
	m.instance[instanceStarterKey] = token
	launch(token)
}

// HandleActivityResult routes an external callback payload to the pending
// handler registered for token. The handler runs exactly once; an unknown
// token reports false and nothing runs.
func (m *Manager) HandleActivityResult(token correlate.Token, payload any) bool {
	delete(m.instance, instanceStarterKey)
	return m.store.TakeAndDispatch(token, payload)
}

// PendingActivityToken returns the starter token recorded in instance
// data, if a started activity is awaiting its callback.
func (m *Manager) PendingActivityToken() (correlate.Token, bool) {
	v, ok := m.instance[instanceStarterKey]
	if !ok {
		return correlate.None, false
	}
	token, ok := v.(correlate.Token)
	return token, ok
}

// AddInjection attaches a lifecycle hook.
func (m *Manager) AddInjection(inj *Injection) {
	if inj == nil {
		return
	}
	m.injections[inj] = struct{}{}
}

// RemoveInjection detaches a lifecycle hook.
func (m *Manager) RemoveInjection(inj *Injection) {
	delete(m.injections, inj)
}

// RunPauseInjections invokes every attached pause hook.
func (m *Manager) RunPauseInjections() {
	for inj := range m.injections {
		if inj.OnPause != nil {
			inj.OnPause()
		}
	}
}

// RunResumeInjections invokes every attached resume hook.
func (m *Manager) RunResumeInjections() {
	for inj := range m.injections {
		if inj.OnResume != nil {
			inj.OnResume()
		}
	}
}

// InstanceData is the manager's transient key-value state, preserved
// across save/restore but not across process exit.
func (m *Manager) InstanceData() map[string]any {
	return m.instance
}

// SaveInstanceState snapshots instance data for the host to persist.
func (m *Manager) SaveInstanceState() map[string]any {
	out := make(map[string]any, len(m.instance))
	for k, v := range m.instance {
		out[k] = v
	}
	return out
}

// RestoreInstanceState replaces instance data from a saved snapshot.
// A nil snapshot leaves current state untouched.
func (m *Manager) RestoreInstanceState(saved map[string]any) {
	if saved == nil {
		return
	}
	m.instance = make(map[string]any, len(saved))
	for k, v := range saved {
		m.instance[k] = v
	}
}

// DispatchCommand routes a command event to the active screen by the
// <id>Clicked convention. A missing handler is not an error; handler
// errors surface to the caller untouched.
func (m *Manager) DispatchCommand(cmd event.Command) (bool, error) {
	top := m.Top()
	if top == nil {
		return false, nil
	}
	return dispatch.InvokeCommand(top, cmd)
}

// DispatchMotion routes a motion event to the active screen under the
// given handler name, unpacking to (x, y) when the screen only handles
// the two-scalar shape.
func (m *Manager) DispatchMotion(name string, mo event.Motion) (bool, error) {
	top := m.Top()
	if top == nil {
		return false, nil
	}

	d, ok := m.motion[name]
	if !ok {
		d = dispatch.NewMotionDispatcher(name)
		m.motion[name] = d
	}
	_, invoked, err := d.Invoke(top, mo)
	return invoked, err
}
