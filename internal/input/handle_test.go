package input

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
)

type call struct {
	op  string
	arg any
	dir Direction
}

// recorder is a Driver that records every call.
type recorder struct {
	mu     sync.Mutex
	calls  []call
	keyErr error
	err    error
}

func (r *recorder) record(c call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}

func (r *recorder) MoveMouse(x, y int32) error {
	r.record(call{op: "move", arg: [2]int32{x, y}})
	return r.err
}

func (r *recorder) Button(b Button, d Direction) error {
	r.record(call{op: "button", arg: b, dir: d})
	return r.err
}

func (r *recorder) Scroll(axis Axis, delta int32) error {
	r.record(call{op: "scroll", arg: Scroll{Axis: axis, Delta: delta}})
	return r.err
}

func (r *recorder) Key(k KeySymbol, d Direction) error {
	r.record(call{op: "key", arg: k, dir: d})
	if r.keyErr != nil {
		return r.keyErr
	}
	return r.err
}

func (r *recorder) snapshot() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

func TestHandleReleasesModifiersOnInit(t *testing.T) {
	rec := &recorder{}
	h := NewHandle(func() (Driver, error) { return rec, nil }, nil)
	if err := h.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	calls := rec.snapshot()
	if len(calls) != len(Modifiers) {
		t.Fatalf("got %d calls after init, want %d", len(calls), len(Modifiers))
	}
	for i, k := range Modifiers {
		c := calls[i]
		if c.op != "key" || c.arg != Named(k) || c.dir != Release {
			t.Errorf("call %d = %+v, want release of %s", i, c, k)
		}
	}
}

func TestHandleReleaseFailureDoesNotAbort(t *testing.T) {
	rec := &recorder{keyErr: errors.New("key was not pressed")}
	h := NewHandle(func() (Driver, error) { return rec, nil }, nil)
	if err := h.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := len(rec.snapshot()); got != len(Modifiers) {
		t.Errorf("got %d release attempts, want %d", got, len(Modifiers))
	}
}

func TestHandleConcurrentFirstUse(t *testing.T) {
	var constructed atomic.Int32
	rec := &recorder{}
	h := NewHandle(func() (Driver, error) {
		constructed.Add(1)
		return rec, nil
	}, nil)

	const callers = 32
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- h.Execute(MouseMove{X: int32(i), Y: int32(i)})
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Execute: %v", err)
		}
	}
	if n := constructed.Load(); n != 1 {
		t.Errorf("driver constructed %d times, want 1", n)
	}

	calls := rec.snapshot()
	if len(calls) != len(Modifiers)+callers {
		t.Fatalf("got %d calls, want %d", len(calls), len(Modifiers)+callers)
	}
	// Every caller observed the backend after the modifier reset.
	for i := range Modifiers {
		if calls[i].op != "key" || calls[i].dir != Release {
			t.Errorf("call %d = %+v, want modifier release first", i, calls[i])
		}
	}
	for _, c := range calls[len(Modifiers):] {
		if c.op != "move" {
			t.Errorf("unexpected call %+v after init", c)
		}
	}
}

func TestHandleConstructionFailureIsPermanent(t *testing.T) {
	var attempts int
	h := NewHandle(func() (Driver, error) {
		attempts++
		return nil, errors.New("no display")
	}, nil)

	for i := 0; i < 3; i++ {
		err := h.Execute(MouseMove{})
		if !errors.Is(err, ErrBackendUnavailable) {
			t.Fatalf("Execute err = %v, want ErrBackendUnavailable", err)
		}
	}
	if attempts != 1 {
		t.Errorf("factory called %d times, want 1", attempts)
	}
}

func TestHandleDispatch(t *testing.T) {
	rec := &recorder{}
	h := NewHandle(func() (Driver, error) { return rec, nil }, nil)
	if err := h.Init(); err != nil {
		t.Fatal(err)
	}
	skip := len(rec.snapshot())

	actions := []Action{
		MouseMove{X: 3, Y: -3},
		MouseButton{Button: ButtonRight, Direction: Press},
		Scroll{Axis: Vertical, Delta: -5},
		KeyStroke{Key: Printable('A'), Direction: Release},
	}
	for _, a := range actions {
		if err := h.Execute(a); err != nil {
			t.Fatalf("Execute(%s): %v", a, err)
		}
	}

	want := []call{
		{op: "move", arg: [2]int32{3, -3}},
		{op: "button", arg: ButtonRight, dir: Press},
		{op: "scroll", arg: Scroll{Axis: Vertical, Delta: -5}},
		{op: "key", arg: Printable('A'), dir: Release},
	}
	got := rec.snapshot()[skip:]
	if len(got) != len(want) {
		t.Fatalf("got %d calls, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestHandleDriverErrorIsReturned(t *testing.T) {
	sentinel := errors.New("synthetic input denied")
	rec := &recorder{}
	h := NewHandle(func() (Driver, error) { return rec, nil }, nil)
	if err := h.Init(); err != nil {
		t.Fatal(err)
	}
	rec.err = sentinel

	err := h.Execute(MouseButton{Button: ButtonLeft, Direction: Press})
	if !errors.Is(err, sentinel) {
		t.Errorf("Execute err = %v, want wrapped %v", err, sentinel)
	}
}

func TestNewFactory(t *testing.T) {
	f, err := NewFactory(DriverLog, "", nil)
	if err != nil {
		t.Fatalf("NewFactory(log): %v", err)
	}
	d, err := f()
	if err != nil {
		t.Fatalf("log factory: %v", err)
	}
	if err := d.Key(Named(F5), Press); err != nil {
		t.Errorf("LogDriver.Key: %v", err)
	}

	if _, err := NewFactory("uinput", "", nil); err == nil {
		t.Error("NewFactory(uinput) succeeded, want error")
	}
}

func TestKeySymbolString(t *testing.T) {
	tests := []struct {
		k    KeySymbol
		want string
	}{
		{Named(Escape), "Escape"},
		{Named(F1), "F1"},
		{Named(F20), "F20"},
		{Printable('A'), "'A'"},
		{Printable('é'), "'é'"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if FunctionKey(0) != NoKey || FunctionKey(21) != NoKey || FunctionKey(12) != F12 {
		t.Error("FunctionKey range mapping is wrong")
	}
}

func TestHandleClampsScroll(t *testing.T) {
	rec := &recorder{}
	h := NewHandle(func() (Driver, error) { return rec, nil }, nil)

	actions := []Action{
		Scroll{Axis: Vertical, Delta: math.MaxInt32},
		Scroll{Axis: Horizontal, Delta: math.MinInt32},
		Scroll{Axis: Vertical, Delta: -3},
	}
	for _, a := range actions {
		if err := h.Execute(a); err != nil {
			t.Fatalf("Execute(%s): %v", a, err)
		}
	}

	calls := rec.snapshot()[len(Modifiers):]
	want := []Scroll{
		{Axis: Vertical, Delta: MaxScrollSteps},
		{Axis: Horizontal, Delta: -MaxScrollSteps},
		{Axis: Vertical, Delta: -3},
	}
	if len(calls) != len(want) {
		t.Fatalf("got %d driver calls, want %d", len(calls), len(want))
	}
	for i, c := range calls {
		if c.op != "scroll" || c.arg != want[i] {
			t.Errorf("call %d = %+v, want %v", i, c, want[i])
		}
	}
}

func resetDefault() {
	defaultMu.Lock()
	defaultFactory = robotgoFactory
	defaultLogger = nil
	defaultHandle = nil
	defaultMu.Unlock()
}

func TestDefaultUsesConfiguredFactory(t *testing.T) {
	resetDefault()
	t.Cleanup(resetDefault)

	var constructed atomic.Int32
	rec := &recorder{}
	err := SetDefaultFactory(func() (Driver, error) {
		constructed.Add(1)
		return rec, nil
	}, nil)
	if err != nil {
		t.Fatalf("SetDefaultFactory: %v", err)
	}

	const callers = 16
	var wg sync.WaitGroup
	handles := make(chan *Handle, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := Default()
			if err := h.Execute(MouseMove{X: 1, Y: 1}); err != nil {
				t.Errorf("Execute: %v", err)
			}
			handles <- h
		}()
	}
	wg.Wait()
	close(handles)

	first := Default()
	for h := range handles {
		if h != first {
			t.Fatal("Default returned different handles")
		}
	}
	if n := constructed.Load(); n != 1 {
		t.Errorf("driver constructed %d times, want 1", n)
	}
	if got := len(rec.snapshot()); got != len(Modifiers)+callers {
		t.Errorf("got %d driver calls, want %d", got, len(Modifiers)+callers)
	}

	if err := SetDefaultFactory(func() (Driver, error) { return rec, nil }, nil); !errors.Is(err, ErrDefaultInUse) {
		t.Errorf("SetDefaultFactory after use = %v, want ErrDefaultInUse", err)
	}
}
