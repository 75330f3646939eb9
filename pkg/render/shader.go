package render

import (
	"math"

	"github.com/taigrr/softrender/pkg/math3d"
)

// VertexShader adjusts a vertex before any transform is applied. It runs
// once per triangle corner on a copy, so mesh data is never modified.
type VertexShader func(v *Vertex)

// FragmentShader computes the 0..1 RGB color of one covered pixel. A
// returned error aborts the frame.
type FragmentShader func(p *FragmentPayload) (math3d.Vec3, error)

// FragmentPayload is everything a fragment shader sees about one pixel.
// The renderer reuses a single payload per triangle, so shaders must not
// keep the pointer.
type FragmentPayload struct {
	// Vertices are the shaded triangle corners. Normals are in world space
	// but not renormalized.
	Vertices [3]Vertex
	World    [3]math3d.Vec3
	View     [3]math3d.Vec3
	// Barycentric holds the perspective-correct weights of this pixel.
	Barycentric    math3d.Vec3
	X, Y           int
	Light          PointLight
	CameraPosition math3d.Vec3
	Material       *Material
	Textures       *TextureStore
}

func (p *FragmentPayload) blend(a, b, c math3d.Vec3) math3d.Vec3 {
	w := p.Barycentric
	return a.Scale(w.X).Add(b.Scale(w.Y)).Add(c.Scale(w.Z))
}

// Position returns the world-space point being shaded.
func (p *FragmentPayload) Position() math3d.Vec3 {
	return p.blend(p.World[0], p.World[1], p.World[2])
}

// FaceNormal returns the unit geometric normal of the world-space triangle.
func (p *FragmentPayload) FaceNormal() math3d.Vec3 {
	return p.World[1].Sub(p.World[0]).Cross(p.World[2].Sub(p.World[0])).Normalize()
}

// Normal returns the interpolated unit normal, or the face normal when any
// corner lacks one.
func (p *FragmentPayload) Normal() math3d.Vec3 {
	if !p.all(AttrNormal) {
		return p.FaceNormal()
	}
	v := p.Vertices
	if n, ok := p.blend(v[0].Normal, v[1].Normal, v[2].Normal).TryNormalize(); ok {
		return n
	}
	return p.FaceNormal()
}

// TexCoord returns the interpolated texture coordinate. ok is false when
// any corner lacks one.
func (p *FragmentPayload) TexCoord() (uv math3d.Vec2, ok bool) {
	if !p.all(AttrTexCoord) {
		return math3d.Vec2{}, false
	}
	w, v := p.Barycentric, p.Vertices
	return v[0].TexCoord.Scale(w.X).Add(v[1].TexCoord.Scale(w.Y)).Add(v[2].TexCoord.Scale(w.Z)), true
}

// Color returns the interpolated vertex color. ok is false when any corner
// lacks one.
func (p *FragmentPayload) Color() (c math3d.Vec3, ok bool) {
	if !p.all(AttrColor) {
		return math3d.Vec3{}, false
	}
	v := p.Vertices
	return p.blend(v[0].Color, v[1].Color, v[2].Color), true
}

func (p *FragmentPayload) all(a AttrMask) bool {
	return p.Vertices[0].Attrs.Has(a) && p.Vertices[1].Attrs.Has(a) && p.Vertices[2].Attrs.Has(a)
}

// baseTexture samples the material's base color texture. ok is false when
// the material has no texture, the store lacks it or the triangle has no
// texture coordinates.
func (p *FragmentPayload) baseTexture() (c math3d.Vec3, ok bool, err error) {
	id := p.Material.BaseColorTexture
	if id == NoTexture {
		return math3d.Vec3{}, false, nil
	}
	uv, hasUV := p.TexCoord()
	if !hasUV {
		return math3d.Vec3{}, false, nil
	}
	tex, found := p.Textures.Get(id)
	if !found {
		Logger().Debug("base color texture not in store", "texture", id)
		return math3d.Vec3{}, false, nil
	}
	c, err = tex.Sample(uv)
	if err != nil {
		return math3d.Vec3{}, false, err
	}
	return c, true, nil
}

// DefaultAmbientIntensity scales Material.Ambient in PhongShader.
const DefaultAmbientIntensity = 0.1

// PhongShader is the Blinn-Phong point light model with inverse-square
// falloff.
type PhongShader struct {
	AmbientIntensity float64
	// ModulateAmbient multiplies the ambient term by the sampled texture
	// color when a texture is bound.
	ModulateAmbient bool
}

// NewPhongShader returns the shader the renderer uses by default.
func NewPhongShader() PhongShader {
	return PhongShader{AmbientIntensity: DefaultAmbientIntensity, ModulateAmbient: true}
}

// Shade implements FragmentShader.
func (s PhongShader) Shade(p *FragmentPayload) (math3d.Vec3, error) {
	m := p.Material
	point := p.Position()
	n := p.Normal()

	kd := m.Diffuse
	texColor, textured, err := p.baseTexture()
	if err != nil {
		return math3d.Vec3{}, err
	}
	if textured {
		kd = texColor
	}

	toLight := p.Light.Position.Sub(point)
	falloff := p.Light.Intensity / toLight.LenSq()
	l := toLight.Normalize()
	v := p.CameraPosition.Sub(point).Normalize()
	h := l.Add(v).Normalize()

	ambient := m.Ambient.Scale(s.AmbientIntensity)
	if textured && s.ModulateAmbient {
		ambient = ambient.Mul(texColor)
	}
	diffuse := kd.Scale(falloff * math.Max(0, n.Dot(l)))
	specular := m.Specular.Scale(falloff * math.Pow(math.Max(0, n.Dot(h)), m.Shininess))

	return ambient.Add(diffuse).Add(specular).Clamp(0, 1), nil
}

// UnlitShader returns the material base color, multiplied by the base color
// texture and the vertex color when present. No lighting is applied.
func UnlitShader(p *FragmentPayload) (math3d.Vec3, error) {
	c := p.Material.BaseColor()
	texColor, textured, err := p.baseTexture()
	if err != nil {
		return math3d.Vec3{}, err
	}
	if textured {
		c = c.Mul(texColor)
	}
	if vc, ok := p.Color(); ok {
		c = c.Mul(vc)
	}
	return c.Clamp(0, 1), nil
}
