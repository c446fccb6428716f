package dispatch

import (
	"github.com/dshills/screenloop/internal/event"
)

// InvokeCommand routes a command event to the receiver's conventional
// handler: <ID>Clicked(event.Command) if registered, otherwise
// <ID>Clicked() with no arguments. It reports whether a handler ran and
// passes through the handler's error, if any.
func InvokeCommand(r Receiver, cmd event.Command) (bool, error) {
	name := event.HandlerName(cmd.ID)

	oneArg := New(name)
	if oneArg.SupportedBy(r, cmd) {
		_, invoked, err := oneArg.Invoke(r, cmd)
		return invoked, err
	}

	_, invoked, err := New(name).Invoke(r)
	return invoked, err
}
