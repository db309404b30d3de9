package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsMaxMessage = 4096
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// handleWS reads JSON control events, one per text frame, and replays
// them through the standalone handler.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r) {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("ws: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ip := clientIP(r)
	s.log.Infof("ws: control client connected from %s", ip)

	conn.SetReadLimit(wsMaxMessage)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warnf("ws: read error from %s: %v", ip, err)
			}
			break
		}
		if messageType != websocket.TextMessage {
			s.log.Debugf("ws: ignoring non-text message")
			continue
		}
		s.handler.HandleJSON(data)
	}
	s.log.Infof("ws: control client %s disconnected", ip)
}
