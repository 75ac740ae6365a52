package hal

import (
	"errors"
	"time"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var ErrNotImplemented = errors.New("not implemented")

// Reference watch display size.
const (
	DefaultWidth  = 144
	DefaultHeight = 168
)

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp little-endian: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Time provides a base tick stream.
//
// The tick duration is platform-defined; higher-level timers live in userland.
type Time interface {
	Ticks() <-chan uint64
}

// Clock reports wall-clock time.
type Clock interface {
	Now() time.Time
}

// HAL provides the only contact point between the OS and the outside world.
type HAL interface {
	Logger() Logger
	Display() Display
	Time() Time
	Clock() Clock
}

// App is what platform runners drive: Step once per frame, Close on exit.
type App interface {
	Step() error
	Close() error
}
