package server

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"

	"remotecontrol/internal/audio"
	"remotecontrol/internal/input"
	"remotecontrol/internal/navigation"
	"remotecontrol/internal/pipeline"
)

const testToken = "secret"

type recordingExecutor struct {
	mu      sync.Mutex
	actions []input.Action
	notify  chan struct{}
}

func newRecordingExecutor() *recordingExecutor {
	return &recordingExecutor{notify: make(chan struct{}, 64)}
}

func (e *recordingExecutor) Execute(a input.Action) error {
	e.mu.Lock()
	e.actions = append(e.actions, a)
	e.mu.Unlock()
	e.notify <- struct{}{}
	return nil
}

func (e *recordingExecutor) wait(t *testing.T, n int) []input.Action {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-e.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for %d actions", n)
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]input.Action(nil), e.actions...)
}

func newTestServer(t *testing.T, mod func(*Config)) (*Server, *httptest.Server, *recordingExecutor) {
	t.Helper()
	exec := newRecordingExecutor()
	lf := logging.NewDefaultLoggerFactory()
	lf.DefaultLogLevel = logging.LogLevelDisabled
	cfg := Config{
		Token:         testToken,
		AllowWS:       true,
		AuthFailLimit: 3,
		Input:         exec,
		LoggerFactory: lf,
		Grab: func() (image.Image, error) {
			return image.NewRGBA(image.Rect(0, 0, 4, 3)), nil
		},
	}
	if mod != nil {
		mod(&cfg)
	}
	srv := New(cfg)
	srv.Start()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Teardown()
	})
	return srv, ts, exec
}

func request(t *testing.T, method, url, token string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAuthRequired(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)

	if resp := request(t, "GET", ts.URL+"/debug/frame", "", nil); resp.StatusCode != 401 {
		t.Errorf("no token: status %d, want 401", resp.StatusCode)
	}
	if resp := request(t, "GET", ts.URL+"/debug/frame", "wrong", nil); resp.StatusCode != 401 {
		t.Errorf("wrong token: status %d, want 401", resp.StatusCode)
	}
	if resp := request(t, "GET", ts.URL+"/debug/frame?token="+testToken, "", nil); resp.StatusCode != 200 {
		t.Errorf("query token: status %d, want 200", resp.StatusCode)
	}
}

func TestEmptyTokenDeniesEverything(t *testing.T) {
	_, ts, _ := newTestServer(t, func(c *Config) { c.Token = "" })
	if resp := request(t, "GET", ts.URL+"/debug/frame", "", nil); resp.StatusCode != 401 {
		t.Errorf("status %d, want 401", resp.StatusCode)
	}
}

func TestAuthFailLimit(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	for i := 0; i < 3; i++ {
		request(t, "GET", ts.URL+"/debug/frame", "wrong", nil)
	}
	if resp := request(t, "GET", ts.URL+"/debug/frame", testToken, nil); resp.StatusCode != 429 {
		t.Errorf("after limit: status %d, want 429", resp.StatusCode)
	}
}

func TestAuthLimiterWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	l := newAuthLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	l.fail("a")
	l.fail("a")
	if !l.blocked("a") {
		t.Fatal("not blocked after 2 failures")
	}
	if l.blocked("b") {
		t.Error("other client blocked")
	}
	now = now.Add(2 * time.Minute)
	if l.blocked("a") {
		t.Error("still blocked after the window")
	}
}

func TestDebugFrame(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	resp := request(t, "GET", ts.URL+"/debug/frame", testToken, nil)
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type %q", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Errorf("bounds = %v", b)
	}
}

func TestDebugFrameGrabError(t *testing.T) {
	_, ts, _ := newTestServer(t, func(c *Config) {
		c.Grab = func() (image.Image, error) { return nil, errors.New("no display") }
	})
	if resp := request(t, "GET", ts.URL+"/debug/frame", testToken, nil); resp.StatusCode != 500 {
		t.Errorf("status %d, want 500", resp.StatusCode)
	}
}

func TestCORS(t *testing.T) {
	_, ts, _ := newTestServer(t, func(c *Config) {
		c.AllowedOrigins = []string{"https://viewer.example"}
	})

	req, _ := http.NewRequest("OPTIONS", ts.URL+"/whep", nil)
	req.Header.Set("Origin", "https://viewer.example")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 204 {
		t.Errorf("status %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://viewer.example" {
		t.Errorf("allow origin = %q", got)
	}

	req.Header.Set("Origin", "https://evil.example")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow origin for unlisted origin = %q", got)
	}
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func TestWebSocketControl(t *testing.T) {
	_, ts, exec := newTestServer(t, nil)

	header := http.Header{"Authorization": {"Bearer " + testToken}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msgs := []string{
		`{"event":"mouse-move","pointer_x":10.7,"pointer_y":20.2}`,
		`garbage`,
		`{"event":"key-press","key":"a"}`,
	}
	for _, m := range msgs {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	got := exec.wait(t, 2)
	want0 := input.MouseMove{X: 10, Y: 20}
	want1 := input.KeyStroke{Key: input.Printable('a'), Direction: input.Press}
	if got[0] != input.Action(want0) || got[1] != input.Action(want1) {
		t.Errorf("actions = %v", got)
	}
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err == nil {
		t.Fatal("dial succeeded without token")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Errorf("response = %v, want 401", resp)
	}
}

func TestWebSocketDisabled(t *testing.T) {
	_, ts, _ := newTestServer(t, func(c *Config) { c.AllowWS = false })
	if resp := request(t, "GET", ts.URL+"/ws", testToken, nil); resp.StatusCode != 404 && resp.StatusCode != 405 {
		t.Errorf("status %d, want 404 or 405", resp.StatusCode)
	}
}

// fakeAudio answers format queries like a real source and records the
// events that reach it.
type fakeAudio struct {
	mu     sync.Mutex
	events []*pipeline.Event
	out    chan pipeline.Pad
}

func (a *fakeAudio) Run(out pipeline.Pad, stop <-chan struct{}) {
	a.out <- out
	<-stop
}

func (a *fakeAudio) PushBuffer(*pipeline.Buffer) error { return audio.ErrNoSink }

func (a *fakeAudio) PushEvent(ev *pipeline.Event) bool {
	a.mu.Lock()
	a.events = append(a.events, ev)
	a.mu.Unlock()
	return false
}

func (a *fakeAudio) Query(q *pipeline.Query) bool {
	if q.Type != pipeline.QueryAudioFormat {
		return false
	}
	f := audio.Format
	q.Result = &f
	return true
}

func (a *fakeAudio) Close() {}

func TestAudioFormatThroughFilter(t *testing.T) {
	src := &fakeAudio{out: make(chan pipeline.Pad, 1)}
	srv, _, _ := newTestServer(t, func(c *Config) {
		c.Audio = true
		c.NewAudio = func(logging.LeveledLogger) (audio.Capturer, error) { return src, nil }
	})
	f := srv.audioFormat()
	if f == nil || f.MimeType != webrtc.MimeTypeOpus {
		t.Fatalf("audio format = %+v", f)
	}

	select {
	case out := <-src.out:
		if err := out.PushBuffer(&pipeline.Buffer{Data: []byte{1}}); err == nil {
			t.Error("buffer accepted with no session linked")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("source not started")
	}
}

func TestNoAudioFormatWithoutSource(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	if f := srv.audioFormat(); f != nil {
		t.Errorf("audio format = %+v, want nil", f)
	}
}

func TestAudioInitFailureIsNotFatal(t *testing.T) {
	srv, _, _ := newTestServer(t, func(c *Config) {
		c.Audio = true
		c.NewAudio = func(logging.LeveledLogger) (audio.Capturer, error) { return nil, audio.ErrUnavailable }
	})
	if f := srv.audioFormat(); f != nil {
		t.Errorf("audio format = %+v, want nil", f)
	}
}

func newOffer(t *testing.T) (*webrtc.PeerConnection, *webrtc.DataChannel, string) {
	t.Helper()
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { pc.Close() })
	dc, err := pc.CreateDataChannel("input", nil)
	if err != nil {
		t.Fatal(err)
	}
	offer, err := pc.CreateOffer(nil)
	if err != nil {
		t.Fatal(err)
	}
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		t.Fatal(err)
	}
	<-gathered
	return pc, dc, pc.LocalDescription().SDP
}

func TestWHEPLifecycle(t *testing.T) {
	srv, ts, _ := newTestServer(t, nil)
	_, _, sdp := newOffer(t)

	resp := request(t, "POST", ts.URL+"/whep", testToken, strings.NewReader(sdp))
	if resp.StatusCode != 201 {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("offer: status %d: %s", resp.StatusCode, body)
	}
	loc := resp.Header.Get("Location")
	if !strings.HasPrefix(loc, "/whep/") {
		t.Fatalf("location = %q", loc)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/sdp" {
		t.Errorf("content type = %q", ct)
	}

	srv.mu.Lock()
	sess := srv.sess
	srv.mu.Unlock()
	if sess == nil || "/whep/"+sess.ID != loc {
		t.Fatalf("active session does not match %q", loc)
	}

	if resp := request(t, "PATCH", ts.URL+loc, testToken, strings.NewReader("")); resp.StatusCode != 204 {
		t.Errorf("patch: status %d", resp.StatusCode)
	}
	if resp := request(t, "PATCH", ts.URL+"/whep/other", testToken, strings.NewReader("")); resp.StatusCode != 404 {
		t.Errorf("patch unknown: status %d", resp.StatusCode)
	}
	if resp := request(t, "DELETE", ts.URL+loc, testToken, nil); resp.StatusCode != 200 {
		t.Errorf("delete: status %d", resp.StatusCode)
	}
	if !sess.IsClosed() {
		t.Error("session open after DELETE")
	}
	if resp := request(t, "DELETE", ts.URL+loc, testToken, nil); resp.StatusCode != 404 {
		t.Errorf("second delete: status %d", resp.StatusCode)
	}
}

func TestWHEPBadOffer(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	resp := request(t, "POST", ts.URL+"/whep", testToken, bytes.NewReader([]byte("v=0 nonsense")))
	if resp.StatusCode != 400 {
		t.Errorf("status %d, want 400", resp.StatusCode)
	}
}

func TestInlineFilterSink(t *testing.T) {
	srv, _, exec := newTestServer(t, func(c *Config) { c.InlineFilter = true })
	sink := srv.navigationSink()
	ev := pipeline.NewNavigationEvent(nil)
	sink(ev)
	sink(pipeline.NewNavigationEvent(navigation.MouseMove(3, 4)))
	got := exec.wait(t, 1)
	if got[0] != input.Action(input.MouseMove{X: 3, Y: 4}) {
		t.Errorf("actions = %v", got)
	}
}
