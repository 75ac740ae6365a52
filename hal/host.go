//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// HostConfig sizes the host HAL.
type HostConfig struct {
	Width  int
	Height int

	// Clock defaults to SystemClock.
	Clock Clock
	// Log defaults to os.Stdout.
	Log io.Writer
}

type hostHAL struct {
	logger *hostLogger
	fb     *MemFramebuffer
	t      *hostTime
	clock  Clock
}

// New returns a host HAL implementation.
func New(cfg HostConfig) HAL {
	return newHost(cfg)
}

func newHost(cfg HostConfig) *hostHAL {
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Log == nil {
		cfg.Log = os.Stdout
	}
	return &hostHAL{
		logger: &hostLogger{w: cfg.Log},
		fb:     NewMemFramebuffer(cfg.Width, cfg.Height),
		t:      newHostTime(),
		clock:  cfg.Clock,
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Display() Display { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Time() Time       { return h.t }
func (h *hostHAL) Clock() Clock     { return h.clock }

type hostDisplay struct {
	fb *MemFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}
