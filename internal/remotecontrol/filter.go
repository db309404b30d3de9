package remotecontrol

import (
	"errors"
	"sync"

	"github.com/pion/logging"

	rclog "remotecontrol/internal/logging"
	"remotecontrol/internal/pipeline"
)

// ErrNotLinked is returned when a buffer arrives before a downstream peer
// has been linked.
var ErrNotLinked = errors.New("filter: pad not linked")

// Filter is an element with one sink and one source pad. Buffers, queries
// and downstream events pass through untouched. Navigation events arriving
// on the source pad are replayed as input and stop here; anything it does
// not act on continues upstream.
type Filter struct {
	exec Executor
	log  logging.LeveledLogger

	mu         sync.RWMutex
	upstream   pipeline.Pad
	downstream pipeline.Pad
}

func NewFilter(exec Executor, logger logging.LeveledLogger) *Filter {
	return &Filter{exec: exec, log: rclog.OrDiscard(logger, rclog.ScopeRemoteControl)}
}

// LinkUpstream sets the peer of the sink pad, which receives events and
// queries travelling upstream.
func (f *Filter) LinkUpstream(p pipeline.Pad) {
	f.mu.Lock()
	f.upstream = p
	f.mu.Unlock()
}

// LinkDownstream sets the peer of the source pad, which receives buffers,
// downstream events and queries.
func (f *Filter) LinkDownstream(p pipeline.Pad) {
	f.mu.Lock()
	f.downstream = p
	f.mu.Unlock()
}

func (f *Filter) peers() (up, down pipeline.Pad) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.upstream, f.downstream
}

// SinkPad is what the upstream element pushes into.
func (f *Filter) SinkPad() pipeline.Pad {
	return pipeline.PadFuncs{Buffer: f.Chain, Event: f.SinkEvent, Q: f.SinkQuery}
}

// SrcPad is what the downstream element pushes events and queries into.
// Buffers never travel upstream, so the pad drops them.
func (f *Filter) SrcPad() pipeline.Pad {
	return pipeline.PadFuncs{Event: f.SrcEvent, Q: f.SrcQuery}
}

func (f *Filter) Chain(buf *pipeline.Buffer) error {
	_, down := f.peers()
	if down == nil {
		return ErrNotLinked
	}
	return down.PushBuffer(buf)
}

func (f *Filter) SinkEvent(ev *pipeline.Event) bool {
	f.log.Tracef("sink event: %s", ev)
	if ev.Type == pipeline.EventNavigation {
		f.log.Infof("Received navigation event: %#v", ev.Structure)
	}
	if _, down := f.peers(); down != nil {
		down.PushEvent(ev)
	}
	return true
}

func (f *Filter) SinkQuery(q *pipeline.Query) bool {
	f.log.Tracef("sink query: %s", q.Type)
	if _, down := f.peers(); down != nil {
		return down.Query(q)
	}
	return false
}

func (f *Filter) SrcQuery(q *pipeline.Query) bool {
	f.log.Tracef("src query: %s", q.Type)
	if up, _ := f.peers(); up != nil {
		return up.Query(q)
	}
	return false
}

// SrcEvent handles an event travelling upstream. A malformed navigation
// event is logged and dropped; the element keeps running.
func (f *Filter) SrcEvent(ev *pipeline.Event) bool {
	if ev.Type != pipeline.EventNavigation || ev.Structure == nil {
		f.log.Debugf("Not a navigation event: %s", ev)
		return f.forward(ev)
	}

	switch replay(f.exec, f.log, ev.Structure) {
	case pass:
		return f.forward(ev)
	case malformed:
		return false
	}
	return true
}

func (f *Filter) forward(ev *pipeline.Event) bool {
	up, _ := f.peers()
	if up == nil {
		return false
	}
	return up.PushEvent(ev)
}
