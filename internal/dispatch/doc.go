// Package dispatch routes UI events to handlers by name and argument shape.
//
// Handlers are not discovered by runtime introspection of a receiver's
// method set. Instead each receiver carries an explicit capability table
// (HandlerTable) populated once, at construction time, through typed
// registration helpers. Dispatching an event is then a lookup keyed by
// (name, exact parameter-type list).
//
// A Dispatcher is built from an event name and an ordered list of argument
// transformers. Resolution considers the untransformed argument shape first,
// then each transformer in registration order, and invokes the first
// candidate the receiver's table satisfies. Registration order is the
// tie-break; a handler matching the raw shape always beats any transformed
// shape. A receiver with no matching handler is not an error: dispatch
// simply reports that nothing was invoked.
//
// Handler failures are never swallowed. A panic raised by an invoked
// handler propagates to the dispatch caller unwrapped, and an error
// returned by a handler is passed through untouched.
package dispatch
