package dispatch

import (
	"fmt"
	"reflect"
)

// TransformFunc maps one argument list shape to another. It must be a pure
// data mapping with no side effects.
type TransformFunc func(args []any) []any

// Transformer adapts a raw event payload to a different argument shape a
// receiver's handler may expect. A transformer declares its target
// parameter-type list up front; Transform output always matches that list
// in order and count.
//
// Transformers never dispatch. They only inspect a receiver's capability
// table to decide support.
type Transformer struct {
	target []reflect.Type
	fn     TransformFunc
}

// NewTransformer creates a transformer with the given target parameter
// types and transform function.
func NewTransformer(fn TransformFunc, target ...reflect.Type) *Transformer {
	return &Transformer{target: target, fn: fn}
}

// Target returns the transformer's declared parameter-type list.
func (tr *Transformer) Target() []reflect.Type {
	return tr.target
}

// SupportedBy reports whether the receiver's table has a handler under
// name whose parameters exactly match this transformer's target signature.
func (tr *Transformer) SupportedBy(table *HandlerTable, name string) bool {
	return table.Has(name, tr.target...)
}

// Transform applies the argument mapping. It panics if the transform
// function violates the declared target signature; that is a programming
// error in the transformer, not a dispatch failure.
func (tr *Transformer) Transform(args []any) []any {
	out := tr.fn(args)
	if len(out) != len(tr.target) {
		panic(fmt.Sprintf("dispatch: transformer produced %d args, declared %s",
			len(out), sigString(tr.target)))
	}
	for i, v := range out {
		if got := reflect.TypeOf(v); got != tr.target[i] {
			panic(fmt.Sprintf("dispatch: transformer arg %d is %v, declared %v",
				i, got, tr.target[i]))
		}
	}
	return out
}
