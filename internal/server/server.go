package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kbinani/screenshot"
	"github.com/pion/logging"

	"remotecontrol/internal/audio"
	"remotecontrol/internal/input"
	rclog "remotecontrol/internal/logging"
	"remotecontrol/internal/pipeline"
	"remotecontrol/internal/remotecontrol"
	"remotecontrol/internal/session"
)

// AudioFactory starts an audio source.
type AudioFactory func(logger logging.LeveledLogger) (audio.Capturer, error)

// GrabFunc returns a still of the controlled desktop.
type GrabFunc func() (image.Image, error)

// Config holds all server configuration.
type Config struct {
	Token string
	Addr  string

	// InlineFilter routes data channel events through the filter element
	// sitting in the audio path instead of the standalone handler.
	InlineFilter bool
	// AllowWS enables the /ws control transport.
	AllowWS bool
	// Audio starts desktop audio capture and adds an audio track to
	// every session.
	Audio bool

	OfferTimeout   time.Duration
	AllowedOrigins []string
	AuthFailLimit  int
	AuthFailWindow time.Duration

	TLSCert string
	TLSKey  string
	TLS     *tls.Config

	// Input performs control events. Nil uses the process-wide handle,
	// input.Default.
	Input         remotecontrol.Executor
	NewAudio      AudioFactory
	Grab          GrabFunc
	LoggerFactory logging.LoggerFactory
}

type Server struct {
	cfg Config
	lf  logging.LoggerFactory
	log logging.LeveledLogger

	filter   *remotecontrol.Filter
	handler  *remotecontrol.Handler
	limiter  *authLimiter
	upgrader websocket.Upgrader

	mu        sync.Mutex
	sess      *session.Session
	audio     audio.Capturer
	audioStop chan struct{}
}

func New(cfg Config) *Server {
	lf := cfg.LoggerFactory
	if lf == nil {
		lf = logging.NewDefaultLoggerFactory()
	}
	if cfg.OfferTimeout <= 0 {
		cfg.OfferTimeout = 10 * time.Second
	}
	if cfg.NewAudio == nil {
		cfg.NewAudio = func(l logging.LeveledLogger) (audio.Capturer, error) {
			src, err := audio.NewSource(l)
			if err != nil {
				return nil, err
			}
			return src, nil
		}
	}
	if cfg.Grab == nil {
		cfg.Grab = func() (image.Image, error) { return screenshot.CaptureDisplay(0) }
	}

	var handler *remotecontrol.Handler
	if cfg.Input == nil {
		remotecontrol.SetDefaultLogger(lf.NewLogger(rclog.ScopeRemoteControl))
		handler = remotecontrol.DefaultHandler()
		cfg.Input = input.Default()
	} else {
		handler = remotecontrol.NewHandler(cfg.Input, lf.NewLogger(rclog.ScopeRemoteControl))
	}

	s := &Server{
		cfg:     cfg,
		lf:      lf,
		log:     lf.NewLogger(rclog.ScopeServer),
		filter:  remotecontrol.NewFilter(cfg.Input, lf.NewLogger(rclog.ScopeRemoteControl)),
		handler: handler,
		limiter: newAuthLimiter(cfg.AuthFailLimit, cfg.AuthFailWindow),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originAllowed,
	}
	// Without an audio source the filter's upstream peer only sees events
	// the filter chose not to act on.
	s.filter.LinkUpstream(pipeline.PadFuncs{
		Event: func(ev *pipeline.Event) bool {
			s.log.Debugf("unhandled upstream event: %s", ev)
			return false
		},
	})
	return s
}

// Start brings up the parts of the pipeline that outlive sessions.
// Audio failures are not fatal.
func (s *Server) Start() {
	if !s.cfg.Audio {
		return
	}
	src, err := s.cfg.NewAudio(s.lf.NewLogger(rclog.ScopeAudio))
	if err != nil {
		s.log.Warnf("audio capture init failed (continuing without audio): %v", err)
		return
	}
	stop := make(chan struct{})

	s.mu.Lock()
	s.audio = src
	s.audioStop = stop
	s.mu.Unlock()

	s.filter.LinkUpstream(src)
	go src.Run(s.filter.SinkPad(), stop)
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /whep", s.handleWHEPOffer)
	mux.HandleFunc("PATCH /whep/{id}", s.handleWHEPPatch)
	mux.HandleFunc("DELETE /whep/{id}", s.handleWHEPDelete)
	mux.HandleFunc("OPTIONS /whep", s.handleWHEPOptions)
	mux.HandleFunc("OPTIONS /whep/{id}", s.handleWHEPOptions)
	mux.HandleFunc("GET /debug/frame", s.handleDebugFrame)
	if s.cfg.AllowWS {
		mux.HandleFunc("GET /ws", s.handleWS)
	}
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts the server
// down and tears down the active session.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.Start()

	hs := &http.Server{
		Addr:      s.cfg.Addr,
		Handler:   s.Handler(),
		TLSConfig: s.cfg.TLS,
	}
	scheme := "http"
	if s.cfg.TLS != nil || s.cfg.TLSCert != "" {
		scheme = "https"
	}
	s.log.Infof("starting remotecontrol on %s://%s (inline filter %v, audio %v, ws %v)",
		scheme, s.cfg.Addr, s.cfg.InlineFilter, s.cfg.Audio, s.cfg.AllowWS)

	errCh := make(chan error, 1)
	go func() {
		var err error
		switch {
		case s.cfg.TLSCert != "":
			err = hs.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
		case s.cfg.TLS != nil:
			err = hs.ListenAndServeTLS("", "")
		default:
			err = hs.ListenAndServe()
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		s.Teardown()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := hs.Shutdown(shutdownCtx)
	s.Teardown()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Teardown shuts down the active session and the audio source.
// It acquires the lock internally.
func (s *Server) Teardown() {
	s.mu.Lock()
	s.teardownLocked()
	if s.audio != nil {
		close(s.audioStop)
		s.audio.Close()
		s.audio = nil
	}
	s.mu.Unlock()
}

// navigationSink picks where data channel events go.
func (s *Server) navigationSink() session.NavigationSink {
	if s.cfg.InlineFilter {
		src := s.filter.SrcPad()
		return func(ev *pipeline.Event) { src.PushEvent(ev) }
	}
	return s.handler.Handle
}

// audioFormat asks upstream through the filter what the audio track
// should carry. Nil means no audio.
func (s *Server) audioFormat() *pipeline.AudioFormat {
	q := &pipeline.Query{Type: pipeline.QueryAudioFormat}
	if !s.filter.SrcPad().Query(q) {
		return nil
	}
	f, _ := q.Result.(*pipeline.AudioFormat)
	return f
}

func (s *Server) handleDebugFrame(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}

	img, err := s.cfg.Grab()
	if err != nil {
		http.Error(w, fmt.Sprintf("grab failed: %v", err), 500)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		s.log.Warnf("debug frame encode: %v", err)
	}
}

func (s *Server) teardownLocked() {
	if s.sess != nil {
		s.filter.LinkDownstream(nil)
		s.sess.PushEvent(&pipeline.Event{Type: pipeline.EventEOS})
		s.sess = nil
	}
}
