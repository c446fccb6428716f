package dispatch

// Dispatcher routes a single named event to whichever handler a receiver's
// capability table satisfies. It owns its transformers and holds no
// receiver-specific state; one dispatcher may be applied to any number of
// receivers.
type Dispatcher struct {
	name         string
	transformers []*Transformer
}

// New creates a dispatcher for the given event name with the given
// transformers in priority order.
func New(name string, transformers ...*Transformer) *Dispatcher {
	return &Dispatcher{name: name, transformers: transformers}
}

// Name returns the event name this dispatcher routes.
func (d *Dispatcher) Name() string {
	return d.name
}

// AddTransformer appends a transformer. Transformers added earlier win ties.
func (d *Dispatcher) AddTransformer(tr *Transformer) {
	d.transformers = append(d.transformers, tr)
}

// candidate is a resolved (transformer, handler) pair. A nil transformer
// means the identity shape matched.
type candidate struct {
	tr *Transformer
	fn Handler
}

// resolve finds the first viable candidate for the receiver and raw
// argument list. The identity shape is always considered first; after
// that, transformers are tried in registration order. First match wins:
// the tie-break is registration order, never signature specificity.
func (d *Dispatcher) resolve(table *HandlerTable, args []any) (candidate, bool) {
	if fn, ok := table.lookup(d.name, typesOf(args)); ok {
		return candidate{fn: fn}, true
	}
	for _, tr := range d.transformers {
		if fn, ok := table.lookup(d.name, tr.target); ok {
			return candidate{tr: tr, fn: fn}, true
		}
	}
	return candidate{}, false
}

// SupportedBy reports whether the receiver can handle this event with the
// given arguments, directly or through a transformer.
func (d *Dispatcher) SupportedBy(r Receiver, args ...any) bool {
	if r == nil {
		return false
	}
	_, ok := d.resolve(r.Handlers(), args)
	return ok
}

// Invoke resolves and calls the receiver's handler for this event.
//
// invoked reports whether a handler ran; a receiver with no matching
// handler is not an error. When a handler runs, result and err are exactly
// what it returned, and a panic raised by the handler propagates to the
// caller unwrapped.
func (d *Dispatcher) Invoke(r Receiver, args ...any) (result any, invoked bool, err error) {
	if r == nil {
		return nil, false, nil
	}
	c, ok := d.resolve(r.Handlers(), args)
	if !ok {
		return nil, false, nil
	}

	callArgs := args
	if c.tr != nil {
		callArgs = c.tr.Transform(args)
	}

	result, err = c.fn(callArgs)
	return result, true, err
}
