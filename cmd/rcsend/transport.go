package main

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"remotecontrol/internal/navigation"
)

const writeWait = 5 * time.Second

// wsSender writes each control event as one text frame.
type wsSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func dial(url, token string, insecure bool) (*wsSender, error) {
	d := *websocket.DefaultDialer
	if insecure {
		d.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := d.Dial(url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (HTTP %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &wsSender{conn: conn}, nil
}

func (w *wsSender) Send(s *navigation.Structure) error {
	data, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (w *wsSender) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return w.conn.Close()
}

// printSender writes one JSON event per line instead of sending.
type printSender struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printSender) Send(s *navigation.Structure) error {
	data, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err = fmt.Fprintf(p.w, "%s\n", data)
	return err
}

func (p *printSender) Close() error { return nil }
