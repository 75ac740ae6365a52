package hal

import (
	"image"
	"sync"
)

// MemFramebuffer is an in-memory RGB565 framebuffer.
//
// Present only counts frames unless an OnPresent hook is set. It backs the
// host window, the headless runner, the TinyGo host target and snapshots.
type MemFramebuffer struct {
	mu       sync.Mutex
	width    int
	height   int
	stride   int
	buf      []byte
	presents int

	// OnPresent, if set, is called with the buffer after each Present.
	OnPresent func(buf []byte, width, height int) error
}

// NewMemFramebuffer allocates a width×height framebuffer.
func NewMemFramebuffer(width, height int) *MemFramebuffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	stride := width * 2
	return &MemFramebuffer{
		width:  width,
		height: height,
		stride: stride,
		buf:    make([]byte, stride*height),
	}
}

func (f *MemFramebuffer) Width() int          { return f.width }
func (f *MemFramebuffer) Height() int         { return f.height }
func (f *MemFramebuffer) Format() PixelFormat { return PixelFormatRGB565 }
func (f *MemFramebuffer) StrideBytes() int    { return f.stride }
func (f *MemFramebuffer) Buffer() []byte      { return f.buf }

func (f *MemFramebuffer) ClearRGB(r, g, b uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pixel := RGB565(r, g, b)
	lo := byte(pixel)
	hi := byte(pixel >> 8)
	for i := 0; i < len(f.buf); i += 2 {
		f.buf[i] = lo
		f.buf[i+1] = hi
	}
}

func (f *MemFramebuffer) Present() error {
	f.mu.Lock()
	f.presents++
	hook := f.OnPresent
	f.mu.Unlock()
	if hook == nil {
		return nil
	}
	return hook(f.buf, f.width, f.height)
}

// Presents returns how many times Present was called.
func (f *MemFramebuffer) Presents() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.presents
}

// Pixel returns the RGB565 value at (x, y), or 0 when out of bounds.
func (f *MemFramebuffer) Pixel(x, y int) uint16 {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	off := y*f.stride + x*2
	return uint16(f.buf[off]) | uint16(f.buf[off+1])<<8
}

// Snapshot copies the raw RGB565 buffer into dst.
func (f *MemFramebuffer) Snapshot(dst []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copy(dst, f.buf)
}

// Image converts the current contents to an RGBA image.
func (f *MemFramebuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	f.mu.Lock()
	defer f.mu.Unlock()
	convertRGB565(img.Pix, f.buf)
	return img
}

func convertRGB565(dst, src []byte) {
	for i := 0; i+1 < len(src) && i/2*4+3 < len(dst); i += 2 {
		r, g, b := RGB888(uint16(src[i]) | uint16(src[i+1])<<8)
		j := (i / 2) * 4
		dst[j+0] = r
		dst[j+1] = g
		dst[j+2] = b
		dst[j+3] = 0xFF
	}
}
