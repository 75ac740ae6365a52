//go:build tinygo && baremetal && !pinetime && !picocalc

package hal

import "machine"

type stubFramebuffer struct {
	w      int
	h      int
	format PixelFormat
}

func (f *stubFramebuffer) Width() int          { return f.w }
func (f *stubFramebuffer) Height() int         { return f.h }
func (f *stubFramebuffer) Format() PixelFormat { return f.format }
func (f *stubFramebuffer) StrideBytes() int    { return f.w * 2 }
func (f *stubFramebuffer) Buffer() []byte      { return nil }
func (f *stubFramebuffer) ClearRGB(r, g, b uint8) {
	_ = r
	_ = g
	_ = b
}
func (f *stubFramebuffer) Present() error { return ErrNotImplemented }

type baremetalHAL struct {
	logger serialLogger
	fb     Framebuffer
	t      *tinyGoTime
}

// New returns a display-less HAL for boards without a panel driver.
//
// Logging goes to machine.Serial; the framebuffer has no backing store, so the
// face window fails to attach and only logs.
func New() HAL {
	return &baremetalHAL{
		logger: serialLogger{out: machine.Serial},
		fb:     &stubFramebuffer{w: DefaultWidth, h: DefaultHeight, format: PixelFormatRGB565},
		t:      newTinyGoTime(),
	}
}

func (h *baremetalHAL) Logger() Logger   { return h.logger }
func (h *baremetalHAL) Display() Display { return tinyGoDisplay{fb: h.fb} }
func (h *baremetalHAL) Time() Time       { return h.t }
func (h *baremetalHAL) Clock() Clock     { return SystemClock{} }
