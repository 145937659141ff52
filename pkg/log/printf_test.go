package log

import (
	"fmt"
	"strings"
	"testing"
)

func TestBoundedBufferDropsOverflow(t *testing.T) {
	b := newBoundedBuffer(HeaderSize, 4)
	capBefore := cap(b.buf)

	for _, s := range []string{"ab", "cdef", "gh"} {
		n, err := b.Write([]byte(s))
		if err != nil || n != len(s) {
			t.Fatalf("Write(%q) = %d, %v", s, n, err)
		}
	}
	if got := string(b.buf[HeaderSize:]); got != "abcd" {
		t.Errorf("content = %q, want %q", got, "abcd")
	}
	if cap(b.buf) != capBefore {
		t.Errorf("cap grew from %d to %d", capBefore, cap(b.buf))
	}
}

func TestPrintfHugeArgumentStaysBounded(t *testing.T) {
	e := New(Options{MaxEntryLen: 16})
	var got []byte
	h := &captureHandler{fn: func(data []byte) { got = append([]byte(nil), data...) }}
	inst := e.Register(nil, "big", h, nil, LevelDebug)

	huge := strings.Repeat("x", 1<<20)
	if err := e.Printf(inst, ModuleTest, LevelInfo, "%s%s", "head-", huge); err != nil {
		t.Fatalf("Printf: %v", err)
	}
	if len(got) != HeaderSize+15 {
		t.Fatalf("entry length = %d, want %d", len(got), HeaderSize+15)
	}
	if want := fmt.Sprintf("head-%s", huge[:10]); string(got[HeaderSize:]) != want {
		t.Errorf("payload = %q, want %q", got[HeaderSize:], want)
	}
}

// captureHandler hands every appended entry to fn.
type captureHandler struct {
	NoopHandler
	fn func([]byte)
}

func (h *captureHandler) Append(_ *Instance, data []byte) error {
	h.fn(data)
	return nil
}
