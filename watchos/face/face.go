// Package face computes the geometry of an analog clock face: 60 tick marks,
// an hour hand and a minute hand, in integer screen coordinates.
//
// All arithmetic uses fixed-point trigonometry and truncating integer division
// so the output is pixel-identical on every target.
package face

import "time"

const (
	// RadiusPercent is the face radius as a percentage of the viewport size.
	RadiusPercent = 45

	MinorTickPercent = 95
	MajorTickPercent = 90

	MinuteHandPercent = 70
	HourHandPercent   = 40
	HandWidthPercent  = 7

	// TickCount is the number of tick marks on the face.
	TickCount = 60
)

// Point is a pixel position in the viewport.
type Point struct {
	X int
	Y int
}

// Segment is one tick mark, from the rim to its inner end.
type Segment struct {
	Outer Point
	Inner Point
}

// Viewport is the drawing surface the face is inscribed in.
type Viewport struct {
	Width  int
	Height int
}

// DefaultViewport is the reference 144x168 watch display.
var DefaultViewport = Viewport{Width: 144, Height: 168}

// Size returns the side of the square the face is scaled to.
func (v Viewport) Size() int {
	if v.Width < v.Height {
		return v.Width
	}
	return v.Height
}

// Center returns the face center.
func (v Viewport) Center() Point {
	return Point{X: v.Width / 2, Y: v.Height / 2}
}

// Canvas is an immediate-mode drawing context in viewport pixels.
type Canvas interface {
	DrawLine(p0, p1 Point)
	FillPolygon(pts []Point)
}

// Geometry is everything drawn for one frame.
type Geometry struct {
	Hour   [3]Point
	Minute [3]Point
	Ticks  [TickCount]Segment
}

// HandAngles returns the hour and minute hand angles for the wall-clock time of t.
func HandAngles(t time.Time) (hour, minute TickUnits) {
	h, m, _ := t.Clock()
	return TickUnits(h*300 + m*5), TickUnits(m * 60)
}

// Renderer turns a time into face geometry for one viewport.
//
// A Renderer is not safe for concurrent use: it reuses one polygon buffer
// across calls.
type Renderer struct {
	vp     Viewport
	size   int64
	center Point

	hand [3]Point
}

// New returns a renderer sized to vp.
func New(vp Viewport) *Renderer {
	return &Renderer{
		vp:     vp,
		size:   int64(vp.Size()),
		center: vp.Center(),
	}
}

func (r *Renderer) Viewport() Viewport { return r.vp }

// ProjectX scales a fixed-point x coordinate to a pixel column.
func (r *Renderer) ProjectX(x int32) int {
	return int(int64(x)*r.size*RadiusPercent/100/TrigMaxRatio) + r.center.X
}

// ProjectY scales a fixed-point y coordinate to a pixel row.
func (r *Renderer) ProjectY(y int32) int {
	return int(int64(y)*r.size*RadiusPercent/100/TrigMaxRatio) + r.center.Y
}

// TickSegment returns tick mark i (0 at 12:00, clockwise).
func (r *Renderer) TickSegment(i int) Segment {
	s, c := AngleToSinCos(TickUnits(i * 60))
	frac := int32(MajorTickPercent)
	if i%5 != 0 {
		frac = MinorTickPercent
	}
	return Segment{
		Outer: Point{X: r.ProjectX(s), Y: r.ProjectY(-c)},
		Inner: Point{X: r.ProjectX(s * frac / 100), Y: r.ProjectY(-(c * frac / 100))},
	}
}

// TickSegments returns all 60 tick marks.
func (r *Renderer) TickSegments() [TickCount]Segment {
	var out [TickCount]Segment
	for i := range out {
		out[i] = r.TickSegment(i)
	}
	return out
}

// HandPolygon returns the triangle of a hand at angle units whose tip
// reaches lengthPercent of the face radius.
func (r *Renderer) HandPolygon(units TickUnits, lengthPercent int) [3]Point {
	outer := int64(lengthPercent)*r.size*RadiusPercent/10000 + 1
	width := HandWidthPercent*r.size*RadiusPercent/10000 + 1

	s, c := AngleToSinCos(units)
	sin, cos := int64(s), int64(c)

	template := [3][2]int64{
		{0, -outer},
		{width, width},
		{-width, width},
	}
	for i, p := range template {
		x, y := p[0], p[1]
		r.hand[i] = Point{
			X: int((x*cos-y*sin)/TrigMaxRatio) + r.center.X,
			Y: int((y*cos+x*sin)/TrigMaxRatio) + r.center.Y,
		}
	}
	return r.hand
}

// Geometry computes the full frame for t without drawing it.
func (r *Renderer) Geometry(t time.Time) Geometry {
	hour, minute := HandAngles(t)
	return Geometry{
		Hour:   r.HandPolygon(hour, HourHandPercent),
		Minute: r.HandPolygon(minute, MinuteHandPercent),
		Ticks:  r.TickSegments(),
	}
}

// Render draws the face for t: hour hand, minute hand, then the tick marks on top.
func (r *Renderer) Render(c Canvas, t time.Time) {
	hour, minute := HandAngles(t)

	r.HandPolygon(hour, HourHandPercent)
	c.FillPolygon(r.hand[:])

	r.HandPolygon(minute, MinuteHandPercent)
	c.FillPolygon(r.hand[:])

	for i := 0; i < TickCount; i++ {
		seg := r.TickSegment(i)
		c.DrawLine(seg.Outer, seg.Inner)
	}
}
