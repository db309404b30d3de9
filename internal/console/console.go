// Package console turns terminal mouse and keyboard activity into control
// events.
package console

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/pion/logging"

	"remotecontrol/internal/input"
	rclog "remotecontrol/internal/logging"
	"remotecontrol/internal/navigation"
	"remotecontrol/internal/translate"
)

// Sink receives each control event.
type Sink func(s *navigation.Structure) error

// Console reads events from a tcell screen. Cell coordinates are multiplied
// by ScaleX and ScaleY to get pointer coordinates.
type Console struct {
	screen tcell.Screen
	sink   Sink
	log    logging.LeveledLogger

	ScaleX, ScaleY float64

	buttons tcell.ButtonMask
	x, y    float64
	sent    int
}

func New(screen tcell.Screen, sink Sink, logger logging.LeveledLogger) *Console {
	return &Console{
		screen: screen,
		sink:   sink,
		log:    rclog.OrDiscard(logger, "console"),
		ScaleX: 1,
		ScaleY: 1,
	}
}

// Run initializes the screen and forwards events until Ctrl-Q, ctx
// cancellation or a sink error.
func (c *Console) Run(ctx context.Context) error {
	if err := c.screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer c.screen.Fini()
	c.screen.EnableMouse(tcell.MouseMotionEvents)
	c.draw("")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		c.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	for {
		ev := c.screen.PollEvent()
		if ev == nil {
			return nil
		}
		switch ev := ev.(type) {
		case *tcell.EventInterrupt:
			return ctx.Err()
		case *tcell.EventResize:
			c.screen.Sync()
			c.draw("")
			continue
		case *tcell.EventKey:
			if isQuit(ev) {
				return nil
			}
		}
		for _, s := range c.Convert(ev) {
			if err := c.sink(s); err != nil {
				return fmt.Errorf("send: %w", err)
			}
			c.log.Debugf("sent %#v", s)
			c.sent++
			c.draw(s.GoString())
		}
	}
}

func isQuit(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyCtrlQ {
		return true
	}
	return ev.Key() == tcell.KeyRune && ev.Modifiers()&tcell.ModCtrl != 0 && (ev.Rune() == 'q' || ev.Rune() == 'Q')
}

func (c *Console) draw(last string) {
	c.screen.Clear()
	lines := []string{
		"remotecontrol console: Ctrl-Q quits",
		fmt.Sprintf("scale %.2fx%.2f, %d events sent", c.ScaleX, c.ScaleY, c.sent),
		last,
	}
	for row, line := range lines {
		for col, r := range []rune(line) {
			c.screen.SetContent(col, row, r, nil, tcell.StyleDefault)
		}
	}
	c.screen.Show()
}

// Convert maps one terminal event to zero or more control events.
func (c *Console) Convert(ev tcell.Event) []*navigation.Structure {
	switch ev := ev.(type) {
	case *tcell.EventMouse:
		return c.convertMouse(ev)
	case *tcell.EventKey:
		return convertKey(ev)
	}
	return nil
}

// tcell numbers buttons by role: Button1 primary, Button2 secondary,
// Button3 middle.
var mouseButtons = []struct {
	mask   tcell.ButtonMask
	button int32
}{
	{tcell.Button1, 1},
	{tcell.Button3, 2},
	{tcell.Button2, 3},
}

var wheels = []struct {
	mask   tcell.ButtonMask
	dx, dy float64
}{
	{tcell.WheelUp, 0, -1},
	{tcell.WheelDown, 0, 1},
	{tcell.WheelLeft, -1, 0},
	{tcell.WheelRight, 1, 0},
}

func (c *Console) convertMouse(ev *tcell.EventMouse) []*navigation.Structure {
	var out []*navigation.Structure
	col, row := ev.Position()
	x, y := float64(col)*c.ScaleX, float64(row)*c.ScaleY
	if x != c.x || y != c.y {
		c.x, c.y = x, y
		out = append(out, navigation.MouseMove(x, y))
	}

	mask := ev.Buttons()
	for _, b := range mouseButtons {
		was, is := c.buttons&b.mask != 0, mask&b.mask != 0
		if was != is {
			out = append(out, navigation.MouseButton(b.button, is, x, y))
		}
	}
	for _, w := range wheels {
		if mask&w.mask != 0 {
			out = append(out, navigation.MouseScroll(x, y, w.dx, w.dy))
		}
	}
	c.buttons = mask & (tcell.Button1 | tcell.Button2 | tcell.Button3)
	return out
}

var namedKeys = map[tcell.Key]input.NamedKey{
	tcell.KeyBackspace:  input.Backspace,
	tcell.KeyBackspace2: input.Backspace,
	tcell.KeyDelete:     input.Delete,
	tcell.KeyTab:        input.Tab,
	tcell.KeyEnter:      input.Return,
	tcell.KeyEscape:     input.Escape,
	tcell.KeyPgUp:       input.PageUp,
	tcell.KeyPgDn:       input.PageDown,
	tcell.KeyEnd:        input.End,
	tcell.KeyHome:       input.Home,
	tcell.KeyLeft:       input.LeftArrow,
	tcell.KeyUp:         input.UpArrow,
	tcell.KeyRight:      input.RightArrow,
	tcell.KeyDown:       input.DownArrow,
}

func init() {
	for n := 1; n <= 20; n++ {
		namedKeys[tcell.KeyF1+tcell.Key(n-1)] = input.FunctionKey(n)
	}
}

// keyName returns the control event key name for ev and the modifiers that
// must be held around it. Terminals report no key releases, so every key
// becomes a tap.
func keyName(ev *tcell.EventKey) (string, tcell.ModMask, bool) {
	mods := ev.Modifiers()
	if ev.Key() == tcell.KeyRune {
		r := ev.Rune()
		// the rune is already shifted
		mods &^= tcell.ModShift
		if r == ' ' {
			return translate.KeyName(input.Named(input.Space)), mods, true
		}
		return string(r), mods, true
	}
	if k, ok := namedKeys[ev.Key()]; ok {
		return translate.KeyName(input.Named(k)), mods, true
	}
	if ev.Key() >= tcell.KeyCtrlA && ev.Key() <= tcell.KeyCtrlZ {
		r := rune('a' + ev.Key() - tcell.KeyCtrlA)
		return string(r), mods | tcell.ModCtrl, true
	}
	return "", 0, false
}

var modifierKeys = []struct {
	mask tcell.ModMask
	key  input.NamedKey
}{
	{tcell.ModCtrl, input.Control},
	{tcell.ModAlt, input.Alt},
	{tcell.ModMeta, input.Meta},
	{tcell.ModShift, input.Shift},
}

func convertKey(ev *tcell.EventKey) []*navigation.Structure {
	name, mods, ok := keyName(ev)
	if !ok {
		return nil
	}
	var held []string
	for _, m := range modifierKeys {
		if mods&m.mask != 0 {
			held = append(held, translate.KeyName(input.Named(m.key)))
		}
	}

	out := make([]*navigation.Structure, 0, 2+2*len(held))
	for _, h := range held {
		out = append(out, navigation.Key(h, true))
	}
	out = append(out, navigation.Key(name, true), navigation.Key(name, false))
	for i := len(held) - 1; i >= 0; i-- {
		out = append(out, navigation.Key(held[i], false))
	}
	return out
}
