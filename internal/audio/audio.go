// Package audio captures desktop audio and feeds it, Opus encoded, into the
// media pipeline.
package audio

import (
	"errors"
	"time"

	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"

	"remotecontrol/internal/pipeline"
)

const (
	sampleRate    = 48000
	channels      = 2
	frameDuration = 20 * time.Millisecond
	frameSize     = sampleRate * 20 / 1000 // 960 samples per channel
)

var (
	// ErrNoSink is returned when something pushes buffers into a source.
	ErrNoSink = errors.New("audio source accepts no buffers")
	// ErrUnavailable means audio capture is not supported on this platform.
	ErrUnavailable = errors.New("audio capture unavailable")
)

// Capturer is a running audio source. It is the upstream peer of whatever
// it feeds.
type Capturer interface {
	pipeline.Pad
	Run(out pipeline.Pad, stop <-chan struct{})
	Close()
}

var _ Capturer = (*Source)(nil)

// Format is what every Source produces.
var Format = pipeline.AudioFormat{
	MimeType:    webrtc.MimeTypeOpus,
	ClockRate:   sampleRate,
	Channels:    channels,
	FrameLength: frameDuration,
}

// answer fills format queries and reports anything else as unhandled.
func answer(q *pipeline.Query) bool {
	if q.Type != pipeline.QueryAudioFormat {
		return false
	}
	f := Format
	q.Result = &f
	return true
}

// dropUpstream logs events that reached the head of the pipeline unhandled.
func dropUpstream(log logging.LeveledLogger, ev *pipeline.Event) bool {
	log.Debugf("dropping upstream event: %s", ev)
	return false
}
