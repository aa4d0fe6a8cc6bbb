// Package script drives a content.Content from sandboxed Lua.
//
// Scripts see a global table doc:
//
//	doc.insert(offset, text)
//	doc.remove(offset, length)
//	doc.undo()                     -- raises when there is nothing to undo
//	doc.redo()
//	local p = doc.position(offset) -- forward bias
//	local b = doc.backward_position(offset)
//	doc.offset(p)                  -- same as p:offset()
//	doc.release(p)                 -- same as p:release()
//	doc.text()
//	doc.length()
//
// Offsets are zero-based character offsets, as in Go. Failing operations
// raise a Lua error whose message names the failure, so scripts can use
// pcall to assert on rejections.
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/doccontent/internal/content"
)

// DefaultTimeout bounds a single script execution.
const DefaultTimeout = 5 * time.Second

const positionType = "doccontent.position"

// ErrClosed indicates use of a closed Engine.
var ErrClosed = errors.New("script engine closed")

// Engine is a Lua state bound to one document.
//
// gopher-lua states are not goroutine-safe; Engine serializes its calls.
type Engine struct {
	mu     sync.Mutex
	L      *lua.LState
	doc    *content.Content
	out    io.Writer
	limit  time.Duration
	closed bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithOutput redirects print.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.out = w
	}
}

// WithTimeout sets the per-execution timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.limit = d
	}
}

// New creates an Engine operating on doc.
func New(doc *content.Content, opts ...Option) *Engine {
	e := &Engine{
		doc:   doc,
		out:   io.Discard,
		limit: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(e.L)
	e.install()
	return e
}

// openSafeLibraries opens only libraries without file or process access.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

// Document returns the bound document.
func (e *Engine) Document() *content.Content {
	return e.doc
}

// DoString runs code.
func (e *Engine) DoString(ctx context.Context, code string) error {
	return e.run(ctx, "<string>", func() error { return e.L.DoString(code) })
}

// DoFile runs the script at path.
func (e *Engine) DoFile(ctx context.Context, path string) error {
	return e.run(ctx, path, func() error { return e.L.DoFile(path) })
}

func (e *Engine) run(ctx context.Context, source string, fn func() error) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	if e.limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.limit)
		defer cancel()
	}
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic in %s: %v", source, r)
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("script %s: %w", source, err)
	}
	return nil
}

// Close releases the Lua state.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		e.L.Close()
	}
}

func (e *Engine) install() {
	L := e.L

	mt := L.NewTypeMetatable(positionType)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"offset":  e.luaOffset,
		"release": e.luaRelease,
		"bias":    e.luaBias,
	}))
	L.SetField(mt, "__tostring", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(checkPosition(L, 1).String()))
		return 1
	}))

	doc := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"insert":            e.luaInsert,
		"remove":            e.luaRemove,
		"undo":              e.luaUndo,
		"redo":              e.luaRedo,
		"position":          e.luaPosition(content.Forward),
		"backward_position": e.luaPosition(content.Backward),
		"offset":            e.luaOffset,
		"release":           e.luaRelease,
		"text":              e.luaText,
		"length":            e.luaLength,
		"can_undo":          e.luaCanUndo,
		"can_redo":          e.luaCanRedo,
	})
	L.SetGlobal("doc", doc)

	L.SetGlobal("print", L.NewFunction(e.luaPrint))
}

func raise(L *lua.LState, err error) int {
	L.RaiseError("%s", err.Error())
	return 0
}

func checkPosition(L *lua.LState, n int) *content.Position {
	ud := L.CheckUserData(n)
	p, ok := ud.Value.(*content.Position)
	if !ok {
		L.ArgError(n, "position expected")
		return nil
	}
	return p
}

func (e *Engine) luaInsert(L *lua.LState) int {
	if err := e.doc.Insert(L.CheckInt(1), L.CheckString(2)); err != nil {
		return raise(L, err)
	}
	return 0
}

func (e *Engine) luaRemove(L *lua.LState) int {
	if err := e.doc.Remove(L.CheckInt(1), L.CheckInt(2)); err != nil {
		return raise(L, err)
	}
	return 0
}

func (e *Engine) luaUndo(L *lua.LState) int {
	if err := e.doc.Undo(); err != nil {
		return raise(L, err)
	}
	return 0
}

func (e *Engine) luaRedo(L *lua.LState) int {
	if err := e.doc.Redo(); err != nil {
		return raise(L, err)
	}
	return 0
}

func (e *Engine) luaPosition(bias content.Bias) lua.LGFunction {
	return func(L *lua.LState) int {
		p, err := e.doc.CreatePositionWithBias(L.CheckInt(1), bias)
		if err != nil {
			return raise(L, err)
		}
		ud := L.NewUserData()
		ud.Value = p
		L.SetMetatable(ud, L.GetTypeMetatable(positionType))
		L.Push(ud)
		return 1
	}
}

func (e *Engine) luaOffset(L *lua.LState) int {
	L.Push(lua.LNumber(checkPosition(L, 1).Offset()))
	return 1
}

func (e *Engine) luaRelease(L *lua.LState) int {
	if err := checkPosition(L, 1).Release(); err != nil {
		return raise(L, err)
	}
	return 0
}

func (e *Engine) luaBias(L *lua.LState) int {
	L.Push(lua.LString(checkPosition(L, 1).Bias().String()))
	return 1
}

func (e *Engine) luaText(L *lua.LState) int {
	L.Push(lua.LString(e.doc.Text()))
	return 1
}

func (e *Engine) luaLength(L *lua.LState) int {
	L.Push(lua.LNumber(e.doc.Length()))
	return 1
}

func (e *Engine) luaCanUndo(L *lua.LState) int {
	L.Push(lua.LBool(e.doc.CanUndo()))
	return 1
}

func (e *Engine) luaCanRedo(L *lua.LState) int {
	L.Push(lua.LBool(e.doc.CanRedo()))
	return 1
}

func (e *Engine) luaPrint(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	fmt.Fprintln(e.out, strings.Join(parts, "\t"))
	return 0
}
