//go:build linux && cgo

package audio

import "testing"

func TestCollectorDrain(t *testing.T) {
	c := &pcmCollector{}
	// two samples: 1 and -2, S16LE
	if n, _ := c.Write([]byte{0x01, 0x00, 0xfe, 0xff, 0x07}); n != 5 {
		t.Fatalf("Write = %d, want 5", n)
	}
	if got := c.drain(3); got != nil {
		t.Errorf("drain(3) = %v, want nil", got)
	}
	got := c.drain(2)
	if len(got) != 2 || got[0] != 1 || got[1] != -2 {
		t.Errorf("drain(2) = %v", got)
	}
	if got := c.drain(1); got != nil {
		t.Errorf("drain after empty = %v", got)
	}
}
