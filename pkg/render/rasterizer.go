package render

import (
	"math"

	"github.com/taigrr/softrender/pkg/math3d"
)

// edgeFunction returns twice the signed area of the triangle (a, b, p). It is
// positive when p lies to the left of a→b with y pointing up.
func edgeFunction(a, b, p math3d.Vec2) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// isTopLeft reports whether a→b, walked counter-clockwise around its
// triangle in y-up coordinates, is a top edge (horizontal, interior below)
// or a left edge (interior to the right).
func isTopLeft(a, b math3d.Vec2) bool {
	dx, dy := b.X-a.X, b.Y-a.Y
	return (dy == 0 && dx < 0) || dy < 0
}

// barycentric returns the weights (α, β, γ) of p relative to s[0], s[1],
// s[2] given the triangle's signed double area.
func barycentric(s *[3]math3d.Vec2, area float64, p math3d.Vec2) math3d.Vec3 {
	return math3d.V3(
		edgeFunction(s[1], s[2], p)/area,
		edgeFunction(s[2], s[0], p)/area,
		edgeFunction(s[0], s[1], p)/area,
	)
}

// coverage decides which pixel centers belong to one screen-space triangle.
type coverage struct {
	s    [3]math3d.Vec2
	area float64
	rule FillRule
	// topLeft[i] is set when the edge opposite corner i is a top or left edge.
	topLeft [3]bool
}

func newCoverage(s [3]math3d.Vec2, rule FillRule) coverage {
	c := coverage{s: s, area: edgeFunction(s[0], s[1], s[2]), rule: rule}
	for i := range 3 {
		a, b := s[(i+1)%3], s[(i+2)%3]
		if c.area < 0 {
			a, b = b, a
		}
		c.topLeft[i] = isTopLeft(a, b)
	}
	return c
}

// covers returns the weights of p and whether p is inside the triangle.
func (c *coverage) covers(p math3d.Vec2) (math3d.Vec3, bool) {
	w := barycentric(&c.s, c.area, p)
	for i, wi := range [3]float64{w.X, w.Y, w.Z} {
		if wi > 0 {
			continue
		}
		if wi == 0 && c.rule == FillTopLeft && c.topLeft[i] {
			continue
		}
		return w, false
	}
	return w, true
}

// rasterizeTriangle calls fn for every integer pixel center of the triangle
// s that lies inside clip, passing the screen-space barycentric weights.
// Degenerate triangles cover nothing. The first error from fn stops the scan.
func rasterizeTriangle(s [3]math3d.Vec2, rule FillRule, clip Rect, fn func(x, y int, w math3d.Vec3) error) error {
	c := newCoverage(s, rule)
	if c.area == 0 {
		return nil
	}

	minX := int(math.Max(clip.Min.X, math.Floor(min3(s[0].X, s[1].X, s[2].X))))
	maxX := int(math.Min(clip.Max.X, math.Ceil(max3(s[0].X, s[1].X, s[2].X))))
	minY := int(math.Max(clip.Min.Y, math.Floor(min3(s[0].Y, s[1].Y, s[2].Y))))
	maxY := int(math.Min(clip.Max.Y, math.Ceil(max3(s[0].Y, s[1].Y, s[2].Y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			w, inside := c.covers(math3d.V2(float64(x), float64(y)))
			if !inside {
				continue
			}
			if err := fn(x, y, w); err != nil {
				return err
			}
		}
	}
	return nil
}

// perspectiveCorrect divides screen-space weights by each corner's clip w
// and renormalizes, undoing the foreshortening of the projection.
func perspectiveCorrect(w math3d.Vec3, clipW [3]float64) math3d.Vec3 {
	c := math3d.V3(w.X/clipW[0], w.Y/clipW[1], w.Z/clipW[2])
	return c.Scale(1 / (c.X + c.Y + c.Z))
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}
