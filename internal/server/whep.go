package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"

	"remotecontrol/internal/session"
)

func (s *Server) handleWHEPOptions(w http.ResponseWriter, r *http.Request) {
	s.setCORS(w, r)
	w.Header().Set("Access-Control-Allow-Methods", "POST, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.WriteHeader(204)
}

func (s *Server) handleWHEPOffer(w http.ResponseWriter, r *http.Request) {
	s.setCORS(w, r)
	if !s.authorize(w, r) {
		return
	}

	// Single session: tear down existing
	s.mu.Lock()
	s.teardownLocked()
	s.mu.Unlock()

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || len(body) == 0 {
		http.Error(w, "bad request", 400)
		return
	}

	offer := webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  string(body),
	}

	sessionID := uuid.New().String()
	sess, err := session.NewSession(session.Config{
		ID:            sessionID,
		Audio:         s.audioFormat(),
		Navigation:    s.navigationSink(),
		LoggerFactory: s.lf,
	})
	if err != nil {
		s.log.Errorf("session create error: %v", err)
		http.Error(w, "internal error", 500)
		return
	}

	if err := sess.PC.SetRemoteDescription(offer); err != nil {
		sess.Close()
		s.log.Warnf("set remote desc error: %v", err)
		http.Error(w, "bad SDP offer", 400)
		return
	}

	answer, err := sess.PC.CreateAnswer(nil)
	if err != nil {
		sess.Close()
		s.log.Errorf("create answer error: %v", err)
		http.Error(w, "internal error", 500)
		return
	}

	gatherComplete := webrtc.GatheringCompletePromise(sess.PC)
	if err := sess.PC.SetLocalDescription(answer); err != nil {
		sess.Close()
		s.log.Errorf("set local desc error: %v", err)
		http.Error(w, "internal error", 500)
		return
	}

	select {
	case <-gatherComplete:
	case <-time.After(s.cfg.OfferTimeout):
		sess.Close()
		s.log.Warnf("ICE gathering timed out after %s", s.cfg.OfferTimeout)
		http.Error(w, "ICE gathering timed out", 504)
		return
	case <-r.Context().Done():
		sess.Close()
		return
	}

	s.mu.Lock()
	s.teardownLocked()
	s.sess = sess
	s.filter.LinkDownstream(sess)
	s.mu.Unlock()

	s.log.Infof("session %s started", sessionID)

	w.Header().Set("Content-Type", "application/sdp")
	w.Header().Set("Location", fmt.Sprintf("/whep/%s", sessionID))
	w.WriteHeader(201)
	w.Write([]byte(sess.PC.LocalDescription().SDP))
}

func (s *Server) handleWHEPPatch(w http.ResponseWriter, r *http.Request) {
	s.setCORS(w, r)
	if !s.authorize(w, r) {
		return
	}

	sess := s.session(r.PathValue("id"))
	if sess == nil {
		http.Error(w, "not found", 404)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		http.Error(w, "bad request", 400)
		return
	}

	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "a=candidate:") {
			continue
		}
		if err := sess.PC.AddICECandidate(webrtc.ICECandidateInit{
			Candidate: strings.TrimPrefix(line, "a="),
		}); err != nil {
			s.log.Warnf("add ice candidate error: %v", err)
		}
	}

	w.WriteHeader(204)
}

func (s *Server) handleWHEPDelete(w http.ResponseWriter, r *http.Request) {
	s.setCORS(w, r)
	if !s.authorize(w, r) {
		return
	}

	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil || s.sess.ID != id {
		http.Error(w, "not found", 404)
		return
	}

	s.teardownLocked()
	w.WriteHeader(200)
}

func (s *Server) session(id string) *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil || s.sess.ID != id {
		return nil
	}
	return s.sess
}
