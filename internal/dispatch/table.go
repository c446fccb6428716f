package dispatch

import (
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Handler is the stored, invocable form of a registered handler.
// args always match the parameter types the handler was registered with.
type Handler func(args []any) (any, error)

// entry pairs a handler with its exact parameter-type list.
type entry struct {
	params []reflect.Type
	fn     Handler
}

// HandlerTable is a receiver's capability table: the set of (name,
// parameter-type list) pairs it can handle. Tables are populated once at
// receiver construction and consulted on every dispatch.
type HandlerTable struct {
	mu       sync.RWMutex
	handlers map[string][]entry // name -> entries in registration order
}

// NewHandlerTable creates an empty capability table.
func NewHandlerTable() *HandlerTable {
	return &HandlerTable{
		handlers: make(map[string][]entry),
	}
}

// Receiver is anything that exposes a capability table.
type Receiver interface {
	Handlers() *HandlerTable
}

// register adds a handler under the given name and parameter types.
// A later registration with an identical signature replaces the earlier one.
func (t *HandlerTable) register(name string, params []reflect.Type, fn Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := t.handlers[name]
	for i := range entries {
		if sameParams(entries[i].params, params) {
			entries[i].fn = fn
			return
		}
	}
	t.handlers[name] = append(entries, entry{params: params, fn: fn})
}

// lookup returns the handler registered under name with exactly the given
// parameter types, in order and count. No widening or interface
// satisfaction is applied; the match is exact type identity.
func (t *HandlerTable) lookup(name string, types []reflect.Type) (Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, e := range t.handlers[name] {
		if sameParams(e.params, types) {
			return e.fn, true
		}
	}
	return nil, false
}

// Has reports whether a handler is registered under name with exactly the
// given parameter types.
func (t *HandlerTable) Has(name string, types ...reflect.Type) bool {
	_, ok := t.lookup(name, types)
	return ok
}

// Names returns all registered handler names, sorted.
func (t *HandlerTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.handlers))
	for name := range t.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered handler signatures.
func (t *HandlerTable) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, entries := range t.handlers {
		n += len(entries)
	}
	return n
}

// Unregister removes all handlers registered under name.
func (t *HandlerTable) Unregister(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handlers, name)
}

// On registers a no-argument handler.
func On(t *HandlerTable, name string, fn func() (any, error)) {
	t.register(name, nil, func([]any) (any, error) {
		return fn()
	})
}

// On1 registers a one-argument handler. The parameter type is captured at
// registration time; no reflection runs during dispatch.
func On1[A any](t *HandlerTable, name string, fn func(A) (any, error)) {
	params := []reflect.Type{reflect.TypeOf((*A)(nil)).Elem()}
	t.register(name, params, func(args []any) (any, error) {
		return fn(args[0].(A))
	})
}

// On2 registers a two-argument handler.
func On2[A, B any](t *HandlerTable, name string, fn func(A, B) (any, error)) {
	params := []reflect.Type{reflect.TypeOf((*A)(nil)).Elem(), reflect.TypeOf((*B)(nil)).Elem()}
	t.register(name, params, func(args []any) (any, error) {
		return fn(args[0].(A), args[1].(B))
	})
}

// OnRaw registers a handler with an explicit parameter-type list and an
// untyped handler function. Used by bridges (e.g. scripted handlers) that
// cannot express their signature statically.
func OnRaw(t *HandlerTable, name string, params []reflect.Type, fn Handler) {
	t.register(name, params, fn)
}

// sameParams reports whether two parameter-type lists are identical in
// order and count.
func sameParams(a, b []reflect.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// typesOf returns the dynamic types of the given argument values.
// A nil argument has no dynamic type and never matches a registered
// parameter.
func typesOf(args []any) []reflect.Type {
	if len(args) == 0 {
		return nil
	}
	types := make([]reflect.Type, len(args))
	for i, a := range args {
		types[i] = reflect.TypeOf(a)
	}
	return types
}

// sigString renders a parameter-type list for diagnostics.
func sigString(types []reflect.Type) string {
	parts := make([]string, len(types))
	for i, t := range types {
		if t == nil {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
