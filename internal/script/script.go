// Package script runs Lua macros that emit control events.
//
// The state is sandboxed: only the base, table, string and math libraries
// are opened and the file loaders are removed. Every emitting function
// blocks until the sink has accepted the event.
package script

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pion/logging"
	lua "github.com/yuin/gopher-lua"

	rclog "remotecontrol/internal/logging"
	"remotecontrol/internal/navigation"
)

// Sink receives each control event a script emits.
type Sink func(s *navigation.Structure) error

// ErrClosed is returned by a Runner used after Close.
var ErrClosed = errors.New("script: runner closed")

// Runner owns one Lua state. It is not safe for concurrent use.
type Runner struct {
	L    *lua.LState
	sink Sink
	log  logging.LeveledLogger
	ctx  context.Context

	// last pointer position, used by button and scroll events
	x, y float64

	sleep  func(ctx context.Context, d time.Duration) error
	closed bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithSleep replaces the clock used by sleep().
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Runner) { r.sleep = fn }
}

func New(ctx context.Context, sink Sink, logger logging.LeveledLogger, opts ...Option) *Runner {
	r := &Runner{
		sink:  sink,
		log:   rclog.OrDiscard(logger, rclog.ScopeScript),
		ctx:   ctx,
		sleep: sleepCtx,
	}
	for _, opt := range opts {
		opt(r)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetContext(ctx)
	r.L = L

	r.register(map[string]lua.LGFunction{
		"move":      r.luaMove,
		"press":     r.luaButton(true),
		"release":   r.luaButton(false),
		"click":     r.luaClick,
		"scroll":    r.luaScroll,
		"key_down":  r.luaKey(true),
		"key_up":    r.luaKey(false),
		"tap":       r.luaTap,
		"type_text": r.luaTypeText,
		"sleep":     r.luaSleep,
		"event":     r.luaEvent,
		"log":       r.luaLog,
	})
	return r
}

func (r *Runner) register(funcs map[string]lua.LGFunction) {
	for name, fn := range funcs {
		r.L.SetGlobal(name, r.L.NewFunction(fn))
	}
}

// RunString executes Lua source.
func (r *Runner) RunString(code string) error {
	if r.closed {
		return ErrClosed
	}
	return r.L.DoString(code)
}

// RunFile executes the Lua file at path.
func (r *Runner) RunFile(path string) error {
	if r.closed {
		return ErrClosed
	}
	return r.L.DoFile(path)
}

func (r *Runner) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.L.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// emit hands s to the sink and raises a Lua error if it refuses.
func (r *Runner) emit(L *lua.LState, s *navigation.Structure) {
	r.log.Tracef("emit %#v", s)
	if err := r.sink(s); err != nil {
		L.RaiseError("send %s: %v", eventName(s), err)
	}
}

func eventName(s *navigation.Structure) string {
	name, _ := s.Event()
	return name
}

// checkButton accepts 1-3 or "left", "middle", "right". Other numbers pass
// through so the receiver can decide what to do with them.
func checkButton(L *lua.LState, n int) int32 {
	switch v := L.Get(n).(type) {
	case lua.LNumber:
		return int32(v)
	case lua.LString:
		switch string(v) {
		case "left":
			return 1
		case "middle":
			return 2
		case "right":
			return 3
		}
		L.ArgError(n, fmt.Sprintf("unknown button %q", string(v)))
	case *lua.LNilType:
		return 1
	default:
		L.TypeError(n, lua.LTNumber)
	}
	return 0
}

func (r *Runner) luaMove(L *lua.LState) int {
	r.x = float64(L.CheckNumber(1))
	r.y = float64(L.CheckNumber(2))
	r.emit(L, navigation.MouseMove(r.x, r.y))
	return 0
}

func (r *Runner) luaButton(press bool) lua.LGFunction {
	return func(L *lua.LState) int {
		b := checkButton(L, 1)
		r.emit(L, navigation.MouseButton(b, press, r.x, r.y))
		return 0
	}
}

func (r *Runner) luaClick(L *lua.LState) int {
	b := checkButton(L, 1)
	r.emit(L, navigation.MouseButton(b, true, r.x, r.y))
	r.emit(L, navigation.MouseButton(b, false, r.x, r.y))
	return 0
}

func (r *Runner) luaScroll(L *lua.LState) int {
	dx := float64(L.CheckNumber(1))
	dy := float64(L.OptNumber(2, 0))
	r.emit(L, navigation.MouseScroll(r.x, r.y, dx, dy))
	return 0
}

func (r *Runner) luaKey(press bool) lua.LGFunction {
	return func(L *lua.LState) int {
		r.emit(L, navigation.Key(L.CheckString(1), press))
		return 0
	}
}

func (r *Runner) luaTap(L *lua.LState) int {
	key := L.CheckString(1)
	r.emit(L, navigation.Key(key, true))
	r.emit(L, navigation.Key(key, false))
	return 0
}

// luaTypeText taps every character of its argument in order. Newlines
// become Enter.
func (r *Runner) luaTypeText(L *lua.LState) int {
	for _, c := range L.CheckString(1) {
		key := string(c)
		switch c {
		case '\n':
			key = "Enter"
		case '\t':
			key = "Tab"
		}
		r.emit(L, navigation.Key(key, true))
		r.emit(L, navigation.Key(key, false))
	}
	return 0
}

func (r *Runner) luaSleep(L *lua.LState) int {
	ms := L.CheckNumber(1)
	if ms < 0 {
		L.ArgError(1, "negative duration")
	}
	if err := r.sleep(r.ctx, time.Duration(float64(ms)*float64(time.Millisecond))); err != nil {
		L.RaiseError("sleep: %v", err)
	}
	return 0
}

// luaEvent sends a raw control event built from a table. String keys with
// string, number or boolean values become fields; anything else is an
// error.
func (r *Runner) luaEvent(L *lua.LState) int {
	tbl := L.CheckTable(1)
	s := navigation.New(navigation.Name)
	var bad string
	tbl.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			bad = fmt.Sprintf("non-string key %s", k.String())
			return
		}
		switch v := v.(type) {
		case lua.LString:
			s.Set(string(key), string(v))
		case lua.LNumber:
			s.Set(string(key), float64(v))
		case lua.LBool:
			s.Set(string(key), bool(v))
		default:
			bad = fmt.Sprintf("field %q has type %s", string(key), v.Type())
		}
	})
	if bad != "" {
		L.ArgError(1, bad)
	}
	r.emit(L, s)
	return 0
}

func (r *Runner) luaLog(L *lua.LState) int {
	r.log.Infof("%s", L.CheckString(1))
	return 0
}
