// Package pipeline holds the minimal element plumbing the inline filter sits
// in: buffers flow downstream, navigation and other upstream events flow
// back, and queries travel either way.
package pipeline

import (
	"fmt"
	"time"

	"remotecontrol/internal/navigation"
)

// Buffer is one unit of media data.
type Buffer struct {
	Data     []byte
	Duration time.Duration
}

// Query asks a peer for information. The answering pad fills Result.
type Query struct {
	Type   string
	Result any
}

// Query types.
const (
	QueryAudioFormat = "audio-format"
	QueryLatency     = "latency"
)

// AudioFormat answers QueryAudioFormat.
type AudioFormat struct {
	MimeType    string
	ClockRate   uint32
	Channels    uint16
	FrameLength time.Duration
}

type EventType int

const (
	// EventNavigation carries a control event travelling upstream.
	EventNavigation EventType = iota
	// EventUpstream is any other custom upstream event.
	EventUpstream
	EventEOS
)

func (t EventType) String() string {
	switch t {
	case EventNavigation:
		return "navigation"
	case EventUpstream:
		return "custom-upstream"
	case EventEOS:
		return "eos"
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

type Event struct {
	Type      EventType
	Structure *navigation.Structure
}

// NewNavigationEvent wraps a control event for upstream travel.
func NewNavigationEvent(s *navigation.Structure) *Event {
	return &Event{Type: EventNavigation, Structure: s}
}

func (e *Event) String() string {
	if e.Structure == nil {
		return e.Type.String()
	}
	return fmt.Sprintf("%s: %#v", e.Type, e.Structure)
}

// Pad is the peer side of a link. PushEvent and Query report whether the
// peer handled them.
type Pad interface {
	PushBuffer(buf *Buffer) error
	PushEvent(ev *Event) bool
	Query(q *Query) bool
}

// PadFuncs adapts plain functions to a Pad. Nil functions drop buffers and
// report events and queries as unhandled.
type PadFuncs struct {
	Buffer func(buf *Buffer) error
	Event  func(ev *Event) bool
	Q      func(q *Query) bool
}

func (p PadFuncs) PushBuffer(buf *Buffer) error {
	if p.Buffer == nil {
		return nil
	}
	return p.Buffer(buf)
}

func (p PadFuncs) PushEvent(ev *Event) bool {
	if p.Event == nil {
		return false
	}
	return p.Event(ev)
}

func (p PadFuncs) Query(q *Query) bool {
	if p.Q == nil {
		return false
	}
	return p.Q(q)
}
