// Package vector renders face primitives with anti-aliased gg paths.
package vector

import (
	"image"
	"image/color"
	"io"

	"xclock/watchos/face"

	"github.com/gogpu/gg"
)

// Canvas is a face.Canvas backed by a gg context.
//
// Coordinates are viewport pixels; strokes are centered on the pixel so a
// one-pixel line covers exactly the raster canvas's pixels.
type Canvas struct {
	dc    *gg.Context
	vp    face.Viewport
	scale float64
	bg    gg.RGBA
	err   error
}

// New allocates a canvas of vp.Width×vp.Height pixels, multiplied by scale.
func New(vp face.Viewport, scale float64) *Canvas {
	if scale <= 0 {
		scale = 1
	}
	w := int(float64(vp.Width) * scale)
	h := int(float64(vp.Height) * scale)
	dc := gg.NewContext(w, h)
	dc.Scale(scale, scale)
	dc.SetFillRule(gg.FillRuleEvenOdd)
	dc.SetLineWidth(1)

	c := &Canvas{dc: dc, vp: vp, scale: scale, bg: gg.FromColor(color.White)}
	dc.SetColor(color.Black)
	return c
}

// Viewport returns the logical drawing area.
func (c *Canvas) Viewport() face.Viewport { return c.vp }

func (c *Canvas) SetColor(col color.RGBA)      { c.dc.SetColor(col) }
func (c *Canvas) SetBackground(col color.RGBA) { c.bg = gg.FromColor(col) }

// Clear fills the canvas with the background color.
func (c *Canvas) Clear() { c.dc.ClearWithColor(c.bg) }

func (c *Canvas) DrawLine(p0, p1 face.Point) {
	c.dc.DrawLine(float64(p0.X)+0.5, float64(p0.Y)+0.5, float64(p1.X)+0.5, float64(p1.Y)+0.5)
	c.record(c.dc.Stroke())
}

func (c *Canvas) FillPolygon(pts []face.Point) {
	if len(pts) < 3 {
		if len(pts) == 2 {
			c.DrawLine(pts[0], pts[1])
		}
		return
	}
	c.dc.MoveTo(float64(pts[0].X)+0.5, float64(pts[0].Y)+0.5)
	for _, p := range pts[1:] {
		c.dc.LineTo(float64(p.X)+0.5, float64(p.Y)+0.5)
	}
	c.dc.ClosePath()
	c.record(c.dc.Fill())
}

// Err returns the first fill or stroke error since New.
func (c *Canvas) Err() error { return c.err }

// Image returns the rendered pixels.
func (c *Canvas) Image() image.Image { return c.dc.Image() }

// EncodePNG writes the rendered pixels as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	if c.err != nil {
		return c.err
	}
	return c.dc.EncodePNG(w)
}

// Close releases the gg context.
func (c *Canvas) Close() error { return c.dc.Close() }

func (c *Canvas) record(err error) {
	if err != nil && c.err == nil {
		c.err = err
	}
}
