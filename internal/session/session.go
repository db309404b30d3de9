package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"

	rclog "remotecontrol/internal/logging"
	"remotecontrol/internal/navigation"
	"remotecontrol/internal/pipeline"
)

// InputLabel is the data channel carrying JSON control events.
const InputLabel = "input"

// ErrClosed is returned when writing to a closed session.
var ErrClosed = errors.New("session closed")

// NavigationSink receives every control event arriving from the peer.
type NavigationSink func(ev *pipeline.Event)

type Config struct {
	ID string
	// Audio is the format of the audio track. Nil means no audio track.
	Audio         *pipeline.AudioFormat
	Navigation    NavigationSink
	LoggerFactory logging.LoggerFactory
}

// Session is one WebRTC peer. It is the downstream end of the media
// pipeline and the source of navigation events travelling upstream.
type Session struct {
	ID         string
	PC         *webrtc.PeerConnection
	AudioTrack *webrtc.TrackLocalStaticSample
	Stop       chan struct{}

	nav    NavigationSink
	log    logging.LeveledLogger
	closed bool
	mu     sync.Mutex
}

func NewSession(cfg Config) (*Session, error) {
	lf := cfg.LoggerFactory
	if lf == nil {
		lf = logging.NewDefaultLoggerFactory()
	}

	me := &webrtc.MediaEngine{}
	if cfg.Audio != nil {
		if err := me.RegisterCodec(webrtc.RTPCodecParameters{
			RTPCodecCapability: audioCapability(cfg.Audio),
			PayloadType:        111,
		}, webrtc.RTPCodecTypeAudio); err != nil {
			return nil, fmt.Errorf("register %s: %w", cfg.Audio.MimeType, err)
		}
	}

	se := webrtc.SettingEngine{LoggerFactory: lf}
	api := webrtc.NewAPI(webrtc.WithMediaEngine(me), webrtc.WithSettingEngine(se))

	config := webrtc.Configuration{
		// LAN only, no STUN/TURN
	}

	pc, err := api.NewPeerConnection(config)
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	sess := &Session{
		ID:   cfg.ID,
		PC:   pc,
		Stop: make(chan struct{}),
		nav:  cfg.Navigation,
		log:  lf.NewLogger(rclog.ScopeSession),
	}

	if cfg.Audio != nil {
		audioTrack, err := webrtc.NewTrackLocalStaticSample(audioCapability(cfg.Audio), "audio", "remotecontrol")
		if err != nil {
			pc.Close()
			return nil, fmt.Errorf("create audio track: %w", err)
		}
		if _, err = pc.AddTrack(audioTrack); err != nil {
			pc.Close()
			return nil, fmt.Errorf("add audio track: %w", err)
		}
		sess.AudioTrack = audioTrack
	}

	// Data channels are created by the client; we handle them via OnDataChannel
	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != InputLabel {
			sess.log.Debugf("ignoring data channel %q", dc.Label())
			return
		}
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			sess.HandleMessage(msg.Data)
		})
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		sess.log.Infof("peer connection state: %s", state.String())
		if state == webrtc.PeerConnectionStateFailed ||
			state == webrtc.PeerConnectionStateDisconnected ||
			state == webrtc.PeerConnectionStateClosed {
			sess.Close()
		}
	})

	return sess, nil
}

func audioCapability(f *pipeline.AudioFormat) webrtc.RTPCodecCapability {
	return webrtc.RTPCodecCapability{
		MimeType:  f.MimeType,
		ClockRate: f.ClockRate,
		Channels:  f.Channels,
	}
}

// HandleMessage decodes one data channel message and hands it to the
// navigation sink.
func (s *Session) HandleMessage(data []byte) {
	if s.nav == nil || s.IsClosed() {
		return
	}
	st, err := navigation.Parse(data)
	if err != nil {
		s.log.Warnf("bad control message: %v", err)
		return
	}
	s.nav(pipeline.NewNavigationEvent(st))
}

// PushBuffer writes an audio sample to the peer.
func (s *Session) PushBuffer(buf *pipeline.Buffer) error {
	if s.IsClosed() {
		return ErrClosed
	}
	if s.AudioTrack == nil {
		return nil
	}
	return s.AudioTrack.WriteSample(media.Sample{
		Data:     buf.Data,
		Duration: buf.Duration,
	})
}

// PushEvent receives downstream events. EOS closes the session.
func (s *Session) PushEvent(ev *pipeline.Event) bool {
	s.log.Debugf("downstream event: %s", ev)
	if ev.Type == pipeline.EventEOS {
		s.Close()
	}
	return true
}

func (s *Session) Query(q *pipeline.Query) bool { return false }

func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.Stop)
	s.mu.Unlock()

	s.PC.Close()
	s.log.Infof("session %s closed", s.ID)
}

func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
