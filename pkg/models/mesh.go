// Package models builds render meshes: glTF import, generated normals,
// scene framing and procedural primitives.
package models

import (
	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/render"
)

// faceNormal returns the unit normal of a counter-clockwise triangle. ok is
// false for triangles without area.
func faceNormal(v0, v1, v2 render.Vertex) (math3d.Vec3, bool) {
	p0 := v0.Position.Vec3()
	edge1 := v1.Position.Vec3().Sub(p0)
	edge2 := v2.Position.Vec3().Sub(p0)
	return edge1.Cross(edge2).TryNormalize()
}

// GenerateFlatNormals gives every triangle with a corner lacking a normal
// its face normal on all three corners. Degenerate triangles are left alone.
func GenerateFlatNormals(m *render.Mesh) {
	for t := 0; t+2 < len(m.Vertices); t += 3 {
		tri := m.Vertices[t : t+3]
		if tri[0].Attrs.Has(render.AttrNormal) && tri[1].Attrs.Has(render.AttrNormal) && tri[2].Attrs.Has(render.AttrNormal) {
			continue
		}
		n, ok := faceNormal(tri[0], tri[1], tri[2])
		if !ok {
			continue
		}
		for i := range tri {
			tri[i] = tri[i].WithNormal(n)
		}
	}
}

// GenerateSmoothNormals replaces missing normals with the area-weighted
// average of the face normals of every triangle touching the same position.
func GenerateSmoothNormals(m *render.Mesh) {
	// Accumulate face normals per position
	sums := make(map[math3d.Vec3]math3d.Vec3)
	for t := 0; t+2 < len(m.Vertices); t += 3 {
		v0, v1, v2 := m.Vertices[t], m.Vertices[t+1], m.Vertices[t+2]
		p0 := v0.Position.Vec3()
		normal := v1.Position.Vec3().Sub(p0).Cross(v2.Position.Vec3().Sub(p0)) // Don't normalize yet
		for _, v := range [3]render.Vertex{v0, v1, v2} {
			p := v.Position.Vec3()
			sums[p] = sums[p].Add(normal)
		}
	}

	for i := range m.Vertices {
		v := &m.Vertices[i]
		if v.Attrs.Has(render.AttrNormal) {
			continue
		}
		if n, ok := sums[v.Position.Vec3()].TryNormalize(); ok {
			*v = v.WithNormal(n)
		}
	}
}

// Bounds returns the box enclosing every vertex of meshes. ok is false when
// there are no vertices.
func Bounds(meshes []render.Mesh) (b render.AABB, ok bool) {
	for i := range meshes {
		if len(meshes[i].Vertices) == 0 {
			continue
		}
		mb := meshes[i].Bounds()
		if !ok {
			b, ok = mb, true
			continue
		}
		b.Min = b.Min.Min(mb.Min)
		b.Max = b.Max.Max(mb.Max)
	}
	return b, ok
}

// Normalize returns a model transform that centers meshes on the origin and
// scales their largest dimension to 2. Empty or flat-to-a-point scenes get
// the identity.
func Normalize(meshes []render.Mesh) math3d.Mat4 {
	b, ok := Bounds(meshes)
	if !ok {
		return math3d.Identity()
	}
	size := b.Size()
	extent := max(size.X, size.Y, size.Z)
	if extent == 0 {
		return math3d.Translate(b.Center().Negate())
	}
	return math3d.ScaleUniform(2 / extent).Mul(math3d.Translate(b.Center().Negate()))
}
