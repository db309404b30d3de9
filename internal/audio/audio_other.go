//go:build !linux || !cgo

package audio

import (
	"github.com/pion/logging"

	"remotecontrol/internal/pipeline"
)

// Source is a placeholder on platforms without PulseAudio.
type Source struct {
	log logging.LeveledLogger
}

func NewSource(logger logging.LeveledLogger) (*Source, error) {
	return nil, ErrUnavailable
}

func (s *Source) Run(out pipeline.Pad, stop <-chan struct{}) { <-stop }

func (s *Source) PushBuffer(buf *pipeline.Buffer) error { return ErrNoSink }

func (s *Source) PushEvent(ev *pipeline.Event) bool { return dropUpstream(s.log, ev) }

func (s *Source) Query(q *pipeline.Query) bool { return answer(q) }

func (s *Source) Close() {}
