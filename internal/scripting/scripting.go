// Package scripting loads a Lua init file that populates the command
// registry by turning `mudgate.register("name", function(args) ... end)`
// calls into commands.Registry entries.
package scripting

import (
	"fmt"

	glua "github.com/yuin/gopher-lua"

	"github.com/drake/mudgate/internal/commands"
)

// Engine owns a single Lua VM for the lifetime of a session.
type Engine struct {
	l        *glua.LState
	registry *commands.Registry
}

// New creates an Engine wired to populate registry. It registers the
// `mudgate` global table with a `register(name, fn)` function before
// any script runs.
func New(registry *commands.Registry) *Engine {
	e := &Engine{l: glua.NewState(), registry: registry}
	e.installAPI()
	return e
}

// Close releases the Lua VM.
func (e *Engine) Close() {
	e.l.Close()
}

// LoadFile runs a Lua script, typically the user's init file
// (config.ScriptingConfig.InitFile). An empty path is a no-op so
// scripting remains optional.
func (e *Engine) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	if err := e.l.DoFile(path); err != nil {
		return fmt.Errorf("scripting: loading %s: %w", path, err)
	}
	return nil
}

func (e *Engine) installAPI() {
	mod := e.l.NewTable()
	e.l.SetGlobal("mudgate", mod)
	e.l.SetField(mod, "register", e.l.NewFunction(e.luaRegister))
}

// luaRegister implements mudgate.register(name, fn): fn is kept as a
// Lua closure and invoked, with the command's argument string pushed
// as its sole parameter, every time that command word is classified.
func (e *Engine) luaRegister(l *glua.LState) int {
	name := l.CheckString(1)
	fn := l.CheckFunction(2)

	e.registry.Register(name, func(args string) error {
		l.Push(fn)
		l.Push(glua.LString(args))
		if err := l.PCall(1, 0, nil); err != nil {
			return fmt.Errorf("scripting: command %q: %w", name, err)
		}
		return nil
	})
	return 0
}
