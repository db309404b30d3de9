package audio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pion/logging"

	"remotecontrol/internal/navigation"
	"remotecontrol/internal/pipeline"
)

func TestAnswerFormat(t *testing.T) {
	q := &pipeline.Query{Type: pipeline.QueryAudioFormat}
	if !answer(q) {
		t.Fatal("format query not answered")
	}
	f, ok := q.Result.(*pipeline.AudioFormat)
	if !ok {
		t.Fatalf("result type %T", q.Result)
	}
	if f.ClockRate != 48000 || f.Channels != 2 {
		t.Errorf("format = %+v", f)
	}
	f.Channels = 1
	if Format.Channels != 2 {
		t.Error("query result aliases Format")
	}

	if answer(&pipeline.Query{Type: pipeline.QueryLatency}) {
		t.Error("latency query answered")
	}
}

func TestDropUpstream(t *testing.T) {
	var logs bytes.Buffer
	log := logging.NewDefaultLeveledLoggerForScope("audio", logging.LogLevelDebug, &logs)
	ev := pipeline.NewNavigationEvent(navigation.MouseMove(1, 2))
	if dropUpstream(log, ev) {
		t.Error("dropUpstream reported handled")
	}
	if !strings.Contains(logs.String(), "dropping upstream event") {
		t.Errorf("missing log: %q", logs.String())
	}
}
