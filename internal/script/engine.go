// Package script lets command handlers be written in Lua. Functions named
// by the <id>Clicked convention in a loaded script are registered into a
// receiver's capability table and dispatched like any other handler.
package script

import (
	"fmt"
	"reflect"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/screenloop/internal/dispatch"
	"github.com/dshills/screenloop/internal/event"
	"github.com/dshills/screenloop/internal/logging"
)

// handlerSuffix is the command-handler naming convention.
const handlerSuffix = "Clicked"

// Engine owns a Lua state holding scripted handlers. The state is not
// goroutine-safe; handlers always run on the dispatch goroutine, which is
// the only place dispatch invokes them.
type Engine struct {
	state  *lua.LState
	logger *logging.Logger
}

// NewEngine creates an engine with a fresh Lua state.
func NewEngine() *Engine {
	return &Engine{
		state:  lua.NewState(),
		logger: logging.Default().WithComponent("script"),
	}
}

// Close releases the Lua state.
func (e *Engine) Close() {
	e.state.Close()
}

// LoadFile executes a Lua file, defining its global functions.
func (e *Engine) LoadFile(path string) error {
	if err := e.state.DoFile(path); err != nil {
		return fmt.Errorf("loading script %s: %w", path, err)
	}
	return nil
}

// LoadString executes Lua source, defining its global functions.
func (e *Engine) LoadString(src string) error {
	if err := e.state.DoString(src); err != nil {
		return fmt.Errorf("loading script: %w", err)
	}
	return nil
}

// RegisterCommandHandlers scans the script's globals for functions named
// <id>Clicked and registers each into the table under both the
// one-argument (event.Command) and zero-argument shapes. Returns the
// number of handler names registered.
func (e *Engine) RegisterCommandHandlers(t *dispatch.HandlerTable) int {
	n := 0
	globals := e.state.G.Global
	globals.ForEach(func(k, v lua.LValue) {
		name, ok := k.(lua.LString)
		if !ok || !strings.HasSuffix(string(name), handlerSuffix) {
			return
		}
		fn, ok := v.(*lua.LFunction)
		if !ok {
			return
		}

		handlerName := string(name)
		dispatch.OnRaw(t, handlerName,
			[]reflect.Type{reflect.TypeOf((*event.Command)(nil)).Elem()},
			func(args []any) (any, error) {
				cmd := args[0].(event.Command)
				return e.call(fn, e.commandToLua(cmd))
			})
		e.logger.Debug("registered scripted handler %s", handlerName)
		n++
	})
	return n
}

// call invokes a Lua function with the given arguments and converts its
// first return value back to Go.
func (e *Engine) call(fn *lua.LFunction, args ...lua.LValue) (any, error) {
	err := e.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...)
	if err != nil {
		return nil, err
	}

	ret := e.state.Get(-1)
	e.state.Pop(1)
	return toGoValue(ret), nil
}

// commandToLua renders a command event as a Lua table.
func (e *Engine) commandToLua(cmd event.Command) *lua.LTable {
	t := e.state.NewTable()
	t.RawSetString("id", lua.LString(cmd.ID))
	t.RawSetString("source", lua.LString(cmd.Meta.Source))
	t.RawSetString("event_id", lua.LString(cmd.Meta.ID))
	return t
}

// toGoValue converts a scalar Lua value to its Go equivalent. Tables and
// functions are outside what a handler result carries and convert to nil.
func toGoValue(lv lua.LValue) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	default:
		return nil
	}
}
