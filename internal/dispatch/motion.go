package dispatch

import (
	"reflect"

	"github.com/dshills/screenloop/internal/event"
)

// XYTransformer adapts a one-argument motion payload into the two-scalar
// shape (x, y float64), so a receiver can handle motion without depending
// on the event type itself.
func XYTransformer() *Transformer {
	return NewTransformer(
		func(args []any) []any {
			m := args[0].(event.Motion)
			return []any{m.X, m.Y}
		},
		reflect.TypeOf((*float64)(nil)).Elem(), reflect.TypeOf((*float64)(nil)).Elem(),
	)
}

// NewMotionDispatcher creates a dispatcher for a motion-style event. The
// XY transformer is pre-registered, so a handler taking the raw
// event.Motion is preferred, and one taking (x, y float64) is the fallback.
func NewMotionDispatcher(name string) *Dispatcher {
	return New(name, XYTransformer())
}
