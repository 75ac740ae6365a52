//go:build tinygo && baremetal

package hal

import (
	"machine"
	"time"
)

type tinyGoDisplay struct {
	fb Framebuffer
}

func (d tinyGoDisplay) Framebuffer() Framebuffer { return d.fb }

type tinyGoTime struct {
	ch  chan uint64
	seq uint64
}

func newTinyGoTime() *tinyGoTime {
	t := &tinyGoTime{ch: make(chan uint64, 16)}
	go func() {
		ticker := time.NewTicker(1 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			t.seq++
			select {
			case t.ch <- t.seq:
			default:
			}
		}
	}()
	return t
}

func (t *tinyGoTime) Ticks() <-chan uint64 { return t.ch }

// serialLogger writes CRLF-terminated lines to the board's default serial port.
type serialLogger struct {
	out machine.Serialer
}

func (l serialLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		l.out.WriteByte(s[i])
	}
	l.out.WriteByte('\r')
	l.out.WriteByte('\n')
}

func (l serialLogger) WriteLineBytes(b []byte) {
	l.out.Write(b)
	l.out.WriteByte('\r')
	l.out.WriteByte('\n')
}
