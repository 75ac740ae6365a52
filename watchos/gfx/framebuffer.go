// Package gfx draws face primitives into an RGB565 hal.Framebuffer.
package gfx

import (
	"errors"
	"fmt"
	"image/color"
	"slices"

	"xclock/hal"
	"xclock/watchos/face"
)

// ErrUnsupported is returned for framebuffers gfx cannot draw into.
var ErrUnsupported = errors.New("gfx: unsupported framebuffer")

// Framebuffer is a face.Canvas over a hal.Framebuffer.
//
// It also satisfies tinygo.org/x/drivers.Displayer so tinyfont can write text
// into the same buffer.
type Framebuffer struct {
	fb     hal.Framebuffer
	buf    []byte
	stride int
	w, h   int

	fg uint16
	bg uint16

	xs []int
}

// NewFramebuffer wraps fb. The buffer must be RGB565 with a backing store.
func NewFramebuffer(fb hal.Framebuffer) (*Framebuffer, error) {
	if fb == nil {
		return nil, fmt.Errorf("%w: nil", ErrUnsupported)
	}
	if fb.Format() != hal.PixelFormatRGB565 {
		return nil, fmt.Errorf("%w: pixel format %d", ErrUnsupported, fb.Format())
	}
	w, h, stride := fb.Width(), fb.Height(), fb.StrideBytes()
	buf := fb.Buffer()
	if w <= 0 || h <= 0 || stride < w*2 || len(buf) < stride*h {
		return nil, fmt.Errorf("%w: %dx%d stride %d len %d", ErrUnsupported, w, h, stride, len(buf))
	}
	return &Framebuffer{
		fb:     fb,
		buf:    buf,
		stride: stride,
		w:      w,
		h:      h,
		fg:     hal.RGB565(0, 0, 0),
		bg:     hal.RGB565(0xFF, 0xFF, 0xFF),
		xs:     make([]int, 0, 8),
	}, nil
}

// Viewport returns the drawable area.
func (f *Framebuffer) Viewport() face.Viewport {
	return face.Viewport{Width: f.w, Height: f.h}
}

// SetColor sets the stroke and fill color.
func (f *Framebuffer) SetColor(c color.RGBA) { f.fg = hal.RGB565(c.R, c.G, c.B) }

// SetBackground sets the Clear color.
func (f *Framebuffer) SetBackground(c color.RGBA) { f.bg = hal.RGB565(c.R, c.G, c.B) }

// Clear fills the whole buffer with the background color.
func (f *Framebuffer) Clear() {
	lo, hi := byte(f.bg), byte(f.bg>>8)
	for y := 0; y < f.h; y++ {
		row := f.buf[y*f.stride : y*f.stride+f.w*2]
		for i := 0; i < len(row); i += 2 {
			row[i] = lo
			row[i+1] = hi
		}
	}
}

// Present flushes the buffer to the display.
func (f *Framebuffer) Present() error { return f.fb.Present() }

// DrawLine draws a one-pixel Bresenham line including both endpoints.
func (f *Framebuffer) DrawLine(p0, p1 face.Point) {
	x0, y0, x1, y1 := p0.X, p0.Y, p1.X, p1.Y
	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		f.set(x0, y0, f.fg)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// FillPolygon fills a closed polygon with the even-odd rule, sampling each
// scanline at its integer y, then strokes the outline so edge pixels and
// degenerate polygons are covered.
func (f *Framebuffer) FillPolygon(pts []face.Point) {
	switch len(pts) {
	case 0:
		return
	case 1:
		f.set(pts[0].X, pts[0].Y, f.fg)
		return
	}

	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	minY = max(minY, 0)
	maxY = min(maxY, f.h-1)

	for y := minY; y <= maxY; y++ {
		f.xs = f.xs[:0]
		for i := range pts {
			a, b := pts[i], pts[(i+1)%len(pts)]
			if a.Y == b.Y {
				continue
			}
			if a.Y > b.Y {
				a, b = b, a
			}
			if y < a.Y || y >= b.Y {
				continue
			}
			f.xs = append(f.xs, a.X+divRound((y-a.Y)*(b.X-a.X), b.Y-a.Y))
		}
		slices.Sort(f.xs)
		for i := 0; i+1 < len(f.xs); i += 2 {
			f.span(y, f.xs[i], f.xs[i+1])
		}
	}

	for i := range pts {
		f.DrawLine(pts[i], pts[(i+1)%len(pts)])
	}
}

// Size implements drivers.Displayer.
func (f *Framebuffer) Size() (x, y int16) {
	return int16(f.w), int16(f.h)
}

// SetPixel implements drivers.Displayer.
func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	f.set(int(x), int(y), hal.RGB565(c.R, c.G, c.B))
}

// Display implements drivers.Displayer.
func (f *Framebuffer) Display() error { return f.Present() }

func (f *Framebuffer) set(x, y int, pixel uint16) {
	if x < 0 || y < 0 || x >= f.w || y >= f.h {
		return
	}
	off := y*f.stride + x*2
	f.buf[off] = byte(pixel)
	f.buf[off+1] = byte(pixel >> 8)
}

func (f *Framebuffer) span(y, x0, x1 int) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0 = max(x0, 0)
	x1 = min(x1, f.w-1)
	lo, hi := byte(f.fg), byte(f.fg>>8)
	for x := x0; x <= x1; x++ {
		off := y*f.stride + x*2
		f.buf[off] = lo
		f.buf[off+1] = hi
	}
}

// divRound divides rounding half away from zero; d must be positive.
func divRound(n, d int) int {
	if n >= 0 {
		return (n + d/2) / d
	}
	return -((-n + d/2) / d)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
