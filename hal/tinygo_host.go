//go:build tinygo && !baremetal

package hal

import "time"

type tinyGoHostHAL struct {
	logger tinyGoHostLogger
	fb     *MemFramebuffer
	t      *tinyGoTime
}

// New returns a TinyGo-on-host HAL implementation.
//
// This is used by `tinygo run` targets like linux/wasm where there is no MCU pin mapping.
func New() HAL {
	return &tinyGoHostHAL{
		fb: NewMemFramebuffer(DefaultWidth, DefaultHeight),
		t:  newTinyGoTime(),
	}
}

func (h *tinyGoHostHAL) Logger() Logger   { return h.logger }
func (h *tinyGoHostHAL) Display() Display { return tinyGoDisplay{fb: h.fb} }
func (h *tinyGoHostHAL) Time() Time       { return h.t }
func (h *tinyGoHostHAL) Clock() Clock     { return SystemClock{} }

type tinyGoHostLogger struct{}

func (tinyGoHostLogger) WriteLineString(s string) { println(s) }
func (tinyGoHostLogger) WriteLineBytes(b []byte)  { println(string(b)) }

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
