package render

import "github.com/taigrr/softrender/pkg/math3d"

// AttrMask records which optional vertex attributes are present.
type AttrMask uint8

const (
	AttrNormal AttrMask = 1 << iota
	AttrTexCoord
	AttrColor
)

// Has reports whether all attributes in a are set.
func (m AttrMask) Has(a AttrMask) bool {
	return m&a == a
}

// Vertex is one corner of a triangle. Position is homogeneous; model-space
// input normally has W = 1.
type Vertex struct {
	Position math3d.Vec4
	Normal   math3d.Vec3
	TexCoord math3d.Vec2
	Color    math3d.Vec3 // 0..1 per channel
	Attrs    AttrMask
}

// NewVertex creates a vertex at p with no optional attributes.
func NewVertex(p math3d.Vec3) Vertex {
	return Vertex{Position: math3d.Point(p)}
}

// WithNormal returns v with the normal set.
func (v Vertex) WithNormal(n math3d.Vec3) Vertex {
	v.Normal = n
	v.Attrs |= AttrNormal
	return v
}

// WithTexCoord returns v with the texture coordinate set.
func (v Vertex) WithTexCoord(uv math3d.Vec2) Vertex {
	v.TexCoord = uv
	v.Attrs |= AttrTexCoord
	return v
}

// WithColor returns v with the color set.
func (v Vertex) WithColor(c math3d.Vec3) Vertex {
	v.Color = c
	v.Attrs |= AttrColor
	return v
}

// lerp interpolates every attribute. Attributes are kept only when both
// ends carry them.
func (v Vertex) lerp(o Vertex, t float64) Vertex {
	return Vertex{
		Position: v.Position.Lerp(o.Position, t),
		Normal:   v.Normal.Lerp(o.Normal, t),
		TexCoord: v.TexCoord.Lerp(o.TexCoord, t),
		Color:    v.Color.Lerp(o.Color, t),
		Attrs:    v.Attrs & o.Attrs,
	}
}

// Material holds Blinn-Phong coefficients and the glTF base color.
type Material struct {
	Ambient          math3d.Vec3
	Diffuse          math3d.Vec3
	Specular         math3d.Vec3
	Shininess        float64
	BaseColorFactor  [4]float64
	BaseColorTexture TextureID
}

// DefaultMaterial returns the material used when a mesh has none.
func DefaultMaterial() Material {
	return Material{
		Ambient:          math3d.V3(1, 1, 1),
		Diffuse:          math3d.V3(0.14, 0.24, 0.34),
		Specular:         math3d.V3(0.5, 0.5, 0.5),
		Shininess:        64,
		BaseColorFactor:  [4]float64{1, 1, 1, 1},
		BaseColorTexture: NoTexture,
	}
}

// BaseColor returns the RGB part of the base color factor.
func (m Material) BaseColor() math3d.Vec3 {
	return math3d.V3(m.BaseColorFactor[0], m.BaseColorFactor[1], m.BaseColorFactor[2])
}

// Mesh is a triangle list: every three consecutive vertices form one
// triangle, wound counter-clockwise when seen from the front.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Material Material
}

// TriangleCount returns the number of complete triangles. A trailing
// partial triangle is ignored.
func (m *Mesh) TriangleCount() int {
	return len(m.Vertices) / 3
}

// Bounds returns the model-space bounding box of the mesh.
func (m *Mesh) Bounds() AABB {
	if len(m.Vertices) == 0 {
		return AABB{}
	}
	b := AABB{Min: m.Vertices[0].Position.Vec3(), Max: m.Vertices[0].Position.Vec3()}
	for _, v := range m.Vertices[1:] {
		p := v.Position.Vec3()
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	return b
}

// PointLight is an omnidirectional light with inverse-square falloff.
type PointLight struct {
	Position  math3d.Vec3
	Intensity float64
}

// DefaultPointLight returns the light used by the command-line viewer.
func DefaultPointLight() PointLight {
	return PointLight{
		Position:  math3d.V3(100, 100, -100),
		Intensity: 1000,
	}
}
