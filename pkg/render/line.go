package render

import (
	"math"

	"github.com/taigrr/softrender/pkg/math3d"
)

// Rect is an inclusive clipping rectangle in pixel coordinates.
type Rect struct {
	Min, Max math3d.Vec2
}

// Cohen–Sutherland outcode bits.
const (
	outLeft = 1 << iota
	outRight
	outBottom
	outTop
)

// maxClipIterations bounds the clip loop. Each endpoint needs at most two
// edge intersections, so a correct run finishes well before this.
const maxClipIterations = 8

func (r Rect) outcode(p math3d.Vec2) int {
	code := 0
	switch {
	case p.X < r.Min.X:
		code |= outLeft
	case p.X > r.Max.X:
		code |= outRight
	}
	switch {
	case p.Y < r.Min.Y:
		code |= outBottom
	case p.Y > r.Max.Y:
		code |= outTop
	}
	return code
}

// ClipLine clips the segment p0-p1 to r. ok is false when no part of the
// segment lies inside r.
func ClipLine(p0, p1 math3d.Vec2, r Rect) (a, b math3d.Vec2, ok bool) {
	c0, c1 := r.outcode(p0), r.outcode(p1)

	for range maxClipIterations {
		if c0|c1 == 0 {
			return p0, p1, true
		}
		if c0&c1 != 0 {
			return p0, p1, false
		}

		out := c0
		if out == 0 {
			out = c1
		}

		// The endpoints lie on opposite sides of the chosen edge, so the
		// divisors below are non-zero.
		var p math3d.Vec2
		switch {
		case out&outTop != 0:
			p.X = p0.X + (p1.X-p0.X)*(r.Max.Y-p0.Y)/(p1.Y-p0.Y)
			p.Y = r.Max.Y
		case out&outBottom != 0:
			p.X = p0.X + (p1.X-p0.X)*(r.Min.Y-p0.Y)/(p1.Y-p0.Y)
			p.Y = r.Min.Y
		case out&outRight != 0:
			p.Y = p0.Y + (p1.Y-p0.Y)*(r.Max.X-p0.X)/(p1.X-p0.X)
			p.X = r.Max.X
		case out&outLeft != 0:
			p.Y = p0.Y + (p1.Y-p0.Y)*(r.Min.X-p0.X)/(p1.X-p0.X)
			p.X = r.Min.X
		}

		if out == c0 {
			p0, c0 = p, r.outcode(p)
		} else {
			p1, c1 = p, r.outcode(p)
		}
	}

	Logger().Debug("line clip did not converge", "p0", p0, "p1", p1)
	return p0, p1, false
}

// octant records how a segment was reflected into the first octant
// (0 <= slope <= 1, left to right) so plotted points can be mapped back.
type octant uint8

const (
	octantIdentity octant = iota
	octantSwap            // steep rising: x and y exchanged
	octantNeg             // shallow falling: y negated
	octantNegSwap         // steep falling: y negated, then exchanged
)

func (o octant) plot(a, b int, plot func(x, y int)) {
	switch o {
	case octantSwap:
		plot(b, a)
	case octantNeg:
		plot(a, -b)
	case octantNegSwap:
		plot(b, -a)
	default:
		plot(a, b)
	}
}

// RasterizeLine clips p0-p1 to clip and calls plot for every pixel of the
// Bresenham line between the clipped endpoints, both ends included.
// Swapping p0 and p1 plots the same pixels.
func RasterizeLine(p0, p1 math3d.Vec2, clip Rect, plot func(x, y int)) {
	if p1.X < p0.X || (p1.X == p0.X && p1.Y < p0.Y) {
		p0, p1 = p1, p0
	}

	p0, p1, ok := ClipLine(p0, p1, clip)
	if !ok {
		return
	}

	x0, y0 := int(math.Floor(p0.X)), int(math.Floor(p0.Y))
	x1, y1 := int(math.Floor(p1.X)), int(math.Floor(p1.Y))

	if x0 == x1 {
		for y := min(y0, y1); y <= max(y0, y1); y++ {
			plot(x0, y)
		}
		return
	}
	if y0 == y1 {
		for x := min(x0, x1); x <= max(x0, x1); x++ {
			plot(x, y0)
		}
		return
	}

	if x1 < x0 {
		x0, y0, x1, y1 = x1, y1, x0, y0
	}

	dx, dy := x1-x0, y1-y0
	switch {
	case dy > dx:
		bresenham(y0, x0, y1, x1, octantSwap, plot)
	case dy > 0:
		bresenham(x0, y0, x1, y1, octantIdentity, plot)
	case -dy > dx:
		bresenham(-y0, x0, -y1, x1, octantNegSwap, plot)
	default:
		bresenham(x0, -y0, x1, -y1, octantNeg, plot)
	}
}

// bresenham steps a from a0 to a1 inclusive, assuming 0 <= b1-b0 <= a1-a0.
func bresenham(a0, b0, a1, b1 int, o octant, plot func(x, y int)) {
	da, db := a1-a0, b1-b0
	d := 2*db - da
	b := b0
	for a := a0; a <= a1; a++ {
		o.plot(a, b, plot)
		if d < 0 {
			d += 2 * db
		} else {
			b++
			d += 2 * (db - da)
		}
	}
}
