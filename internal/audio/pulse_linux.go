//go:build linux && cgo

package audio

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/hraban/opus"
	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
	"github.com/pion/logging"

	"remotecontrol/internal/pipeline"
)

// Source records the monitor of the default PulseAudio sink and pushes one
// Opus buffer per frame downstream. It is also the upstream end of the
// pipeline: it answers format queries and drops stray upstream events.
type Source struct {
	client  *pulse.Client
	stream  *pulse.RecordStream
	encoder *opus.Encoder
	log     logging.LeveledLogger
	once    sync.Once
}

// pcmCollector implements pulse.Writer and buffers raw PCM from PulseAudio.
type pcmCollector struct {
	mu     sync.Mutex
	buf    []int16
	format byte
}

func (p *pcmCollector) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// S16LE
	n := len(data) / 2
	for i := 0; i < n; i++ {
		p.buf = append(p.buf, int16(binary.LittleEndian.Uint16(data[i*2:i*2+2])))
	}
	return len(data), nil
}

func (p *pcmCollector) Format() byte {
	return p.format
}

// drain returns exactly count samples, or nil if fewer are buffered.
func (p *pcmCollector) drain(count int) []int16 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.buf) < count {
		return nil
	}
	out := make([]int16, count)
	copy(out, p.buf[:count])
	p.buf = p.buf[count:]
	return out
}

func NewSource(logger logging.LeveledLogger) (*Source, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("remotecontrol"),
	)
	if err != nil {
		return nil, fmt.Errorf("pulse connect: %w", err)
	}

	enc, err := opus.NewEncoder(sampleRate, channels, opus.AppAudio)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("opus encoder: %w", err)
	}

	return &Source{client: client, encoder: enc, log: logger}, nil
}

// Run records until stop is closed. Buffers the downstream peer rejects
// are dropped.
func (s *Source) Run(out pipeline.Pad, stop <-chan struct{}) {
	collector := &pcmCollector{format: proto.FormatInt16LE}

	sink, err := s.client.DefaultSink()
	if err != nil {
		s.log.Errorf("failed to get default sink: %v", err)
		return
	}

	stream, err := s.client.NewRecord(
		collector,
		pulse.RecordMonitor(sink),
		pulse.RecordStereo,
		pulse.RecordSampleRate(sampleRate),
		pulse.RecordBufferFragmentSize(uint32(frameSize*channels*2)),
	)
	if err != nil {
		s.log.Errorf("failed to create record stream: %v", err)
		return
	}
	s.stream = stream
	stream.Start()
	s.log.Infof("recording monitor of %s", sink.Name())

	opusBuf := make([]byte, 4000)
	samplesPerFrame := frameSize * channels

	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	var pushFails int
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			pcm := collector.drain(samplesPerFrame)
			if pcm == nil {
				continue
			}

			n, err := s.encoder.Encode(pcm, opusBuf)
			if err != nil {
				s.log.Warnf("opus encode: %v", err)
				continue
			}

			buf := &pipeline.Buffer{
				Data:     make([]byte, n),
				Duration: frameDuration,
			}
			copy(buf.Data, opusBuf[:n])

			if err := out.PushBuffer(buf); err != nil {
				pushFails++
				if pushFails <= 5 {
					s.log.Debugf("push buffer: %v", err)
				}
			}
		}
	}
}

func (s *Source) PushBuffer(buf *pipeline.Buffer) error { return ErrNoSink }

func (s *Source) PushEvent(ev *pipeline.Event) bool { return dropUpstream(s.log, ev) }

func (s *Source) Query(q *pipeline.Query) bool { return answer(q) }

func (s *Source) Close() {
	s.once.Do(func() {
		if s.stream != nil {
			s.stream.Stop()
		}
		s.client.Close()
	})
}
