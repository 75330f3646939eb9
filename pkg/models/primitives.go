package models

import (
	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/render"
)

// cubeFaces lists the corners of each face counter-clockwise as seen from
// outside, starting at the corner that takes texture coordinate (0, 0).
var cubeFaces = [6]struct {
	normal  math3d.Vec3
	color   math3d.Vec3
	corners [4][3]float64
}{
	{math3d.V3(0, 0, 1), math3d.V3(0.9, 0.2, 0.2), [4][3]float64{{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1}}},
	{math3d.V3(0, 0, -1), math3d.V3(0.2, 0.9, 0.2), [4][3]float64{{1, -1, -1}, {-1, -1, -1}, {-1, 1, -1}, {1, 1, -1}}},
	{math3d.V3(1, 0, 0), math3d.V3(0.2, 0.2, 0.9), [4][3]float64{{1, -1, 1}, {1, -1, -1}, {1, 1, -1}, {1, 1, 1}}},
	{math3d.V3(-1, 0, 0), math3d.V3(0.9, 0.9, 0.2), [4][3]float64{{-1, -1, -1}, {-1, -1, 1}, {-1, 1, 1}, {-1, 1, -1}}},
	{math3d.V3(0, 1, 0), math3d.V3(0.2, 0.9, 0.9), [4][3]float64{{-1, 1, 1}, {1, 1, 1}, {1, 1, -1}, {-1, 1, -1}}},
	{math3d.V3(0, -1, 0), math3d.V3(0.9, 0.2, 0.9), [4][3]float64{{-1, -1, -1}, {1, -1, -1}, {1, -1, 1}, {-1, -1, 1}}},
}

var quadUVs = [4]math3d.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

// Cube returns an axis-aligned cube with edge length size centered on the
// origin. Each face is two triangles with its own normal, color and
// full 0..1 texture coordinates.
func Cube(size float64, mat render.Material) render.Mesh {
	h := size / 2
	m := render.Mesh{
		Name:     "cube",
		Vertices: make([]render.Vertex, 0, 36),
		Material: mat,
	}
	for _, f := range cubeFaces {
		for _, i := range [6]int{0, 1, 2, 0, 2, 3} {
			c := f.corners[i]
			v := render.NewVertex(math3d.V3(c[0]*h, c[1]*h, c[2]*h)).
				WithNormal(f.normal).
				WithTexCoord(quadUVs[i]).
				WithColor(f.color)
			m.Vertices = append(m.Vertices, v)
		}
	}
	return m
}
