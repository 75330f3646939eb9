package models

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/render"
)

// quadDoc describes a textured unit quad in the z = 0 plane made of two
// indexed triangles.
type quadDoc struct {
	mode   gltf.PrimitiveMode
	colors bool // add a normalized UNSIGNED_BYTE COLOR_0
	wrapS  gltf.WrappingMode
}

func writeQuad(t *testing.T, q quadDoc) string {
	t.Helper()

	var buf bytes.Buffer
	put := func(v any) int {
		off := buf.Len()
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatal(err)
		}
		return off
	}

	posOff := put([]float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0})
	uvOff := put([]float32{0, 0, 1, 0, 1, 1, 0, 1})
	colOff := put([]uint8{255, 0, 0, 255, 0, 255, 0, 255, 0, 0, 255, 255, 255, 255, 255, 255})
	idxOff := put([]uint16{0, 1, 2, 0, 2, 3})
	for buf.Len()%4 != 0 {
		buf.WriteByte(0)
	}

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 0, color.RGBA{10, 20, 30, 255})
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		t.Fatal(err)
	}
	imgOff := buf.Len()
	buf.Write(pngBuf.Bytes())

	views := []*gltf.BufferView{
		{Buffer: 0, ByteOffset: posOff, ByteLength: 48},
		{Buffer: 0, ByteOffset: uvOff, ByteLength: 32},
		{Buffer: 0, ByteOffset: colOff, ByteLength: 16},
		{Buffer: 0, ByteOffset: idxOff, ByteLength: 12},
		{Buffer: 0, ByteOffset: imgOff, ByteLength: pngBuf.Len()},
	}
	ptr := func(i int) *int { return &i }

	attrs := map[string]int{gltf.POSITION: 0, gltf.TEXCOORD_0: 1}
	if q.colors {
		attrs[gltf.COLOR_0] = 2
	}
	factor := [4]float64{0.5, 0.25, 1, 1}

	doc := gltf.NewDocument()
	doc.Buffers = []*gltf.Buffer{{ByteLength: buf.Len(), Data: buf.Bytes()}}
	doc.BufferViews = views
	doc.Accessors = []*gltf.Accessor{
		{BufferView: ptr(0), Count: 4, Type: gltf.AccessorVec3, ComponentType: gltf.ComponentFloat},
		{BufferView: ptr(1), Count: 4, Type: gltf.AccessorVec2, ComponentType: gltf.ComponentFloat},
		{BufferView: ptr(2), Count: 4, Type: gltf.AccessorVec4, ComponentType: gltf.ComponentUbyte, Normalized: true},
		{BufferView: ptr(3), Count: 6, Type: gltf.AccessorScalar, ComponentType: gltf.ComponentUshort},
	}
	doc.Images = []*gltf.Image{{BufferView: ptr(4), MimeType: "image/png"}}
	doc.Samplers = []*gltf.Sampler{{WrapS: q.wrapS, WrapT: gltf.WrapRepeat}}
	doc.Textures = []*gltf.Texture{{Source: ptr(0), Sampler: ptr(0)}}
	doc.Materials = []*gltf.Material{{
		Name: "quad",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor:  &factor,
			BaseColorTexture: &gltf.TextureInfo{Index: 0},
		},
	}}
	doc.Meshes = []*gltf.Mesh{{
		Name: "quad",
		Primitives: []*gltf.Primitive{{
			Attributes: attrs,
			Indices:    ptr(3),
			Material:   ptr(0),
			Mode:       q.mode,
		}},
	}}

	path := filepath.Join(t.TempDir(), "quad.glb")
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("SaveBinary: %v", err)
	}
	return path
}

func TestLoadGLTFInvalidPath(t *testing.T) {
	_, err := LoadGLTF("/nonexistent/path.glb")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestGLTFLoaderCreation(t *testing.T) {
	loader := NewGLTFLoader()
	if loader.CalculateNormals {
		t.Error("CalculateNormals should default to false")
	}
	if loader.ColorSeed != DefaultColorSeed {
		t.Errorf("ColorSeed = %d, want %d", loader.ColorSeed, DefaultColorSeed)
	}
}

func TestLoadGLTFQuad(t *testing.T) {
	path := writeQuad(t, quadDoc{mode: gltf.PrimitiveTriangles, wrapS: gltf.WrapClampToEdge})

	scene, err := LoadGLTF(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(scene.Meshes) != 1 {
		t.Fatalf("got %d meshes, want 1", len(scene.Meshes))
	}
	mesh := scene.Meshes[0]
	if mesh.Name != "quad#0" {
		t.Errorf("Name = %q", mesh.Name)
	}
	if scene.TriangleCount() != 2 || len(mesh.Vertices) != 6 {
		t.Fatalf("got %d vertices, want 6", len(mesh.Vertices))
	}

	// Index order 0 1 2 0 2 3 is kept, so the winding stays counter-clockwise.
	wantPos := []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(1, 1, 0),
		math3d.V3(0, 0, 0), math3d.V3(1, 1, 0), math3d.V3(0, 1, 0),
	}
	for i, v := range mesh.Vertices {
		if got := v.Position; got != math3d.Point(wantPos[i]) {
			t.Errorf("vertex %d position = %v, want %v", i, got, wantPos[i])
		}
		if !v.Attrs.Has(render.AttrTexCoord | render.AttrColor) {
			t.Errorf("vertex %d attrs = %b", i, v.Attrs)
		}
		if v.Attrs.Has(render.AttrNormal) {
			t.Errorf("vertex %d has a normal the file does not carry", i)
		}
		if c := v.Color; c.X < 0 || c.X >= 1 || c.Y < 0 || c.Y >= 1 || c.Z < 0 || c.Z >= 1 {
			t.Errorf("vertex %d generated color %v outside [0, 1)", i, c)
		}
	}
	if uv := mesh.Vertices[2].TexCoord; uv != math3d.V2(1, 1) {
		t.Errorf("vertex 2 uv = %v, want (1, 1)", uv)
	}

	if got := mesh.Material.BaseColorFactor; got != [4]float64{0.5, 0.25, 1, 1} {
		t.Errorf("BaseColorFactor = %v", got)
	}
	if mesh.Material.BaseColorTexture != 0 {
		t.Errorf("BaseColorTexture = %d, want 0", mesh.Material.BaseColorTexture)
	}

	tex, ok := scene.Textures.Get(0)
	if !ok {
		t.Fatal("texture 0 missing")
	}
	if tex.Width != 2 || tex.Height != 2 || tex.Format != render.FormatRGBA8 {
		t.Errorf("texture = %dx%d %v", tex.Width, tex.Height, tex.Format)
	}
	if tex.WrapS != render.WrapClampToEdge || tex.WrapT != render.WrapRepeat {
		t.Errorf("wrap = %v/%v", tex.WrapS, tex.WrapT)
	}
	if !bytes.Equal(tex.Data[4:8], []byte{10, 20, 30, 255}) {
		t.Errorf("texel (1, 0) = %v", tex.Data[4:8])
	}
}

func TestLoadGLTFColorsAreDeterministic(t *testing.T) {
	path := writeQuad(t, quadDoc{mode: gltf.PrimitiveTriangles})

	a, err := LoadGLTF(path)
	if err != nil {
		t.Fatal(err)
	}
	b, err := LoadGLTF(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Meshes[0].Vertices {
		if a.Meshes[0].Vertices[i].Color != b.Meshes[0].Vertices[i].Color {
			t.Fatalf("vertex %d color differs between loads", i)
		}
	}

	l := NewGLTFLoader()
	l.ColorSeed = 7
	c, err := l.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Meshes[0].Vertices[0].Color == a.Meshes[0].Vertices[0].Color {
		t.Error("a different seed produced the same color")
	}
}

func TestLoadGLTFVertexColors(t *testing.T) {
	path := writeQuad(t, quadDoc{mode: gltf.PrimitiveTriangles, colors: true})

	scene, err := LoadGLTF(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []math3d.Vec3{
		math3d.V3(1, 0, 0), math3d.V3(0, 1, 0), math3d.V3(0, 0, 1),
		math3d.V3(1, 0, 0), math3d.V3(0, 0, 1), math3d.V3(1, 1, 1),
	}
	for i, v := range scene.Meshes[0].Vertices {
		if v.Color != want[i] {
			t.Errorf("vertex %d color = %v, want %v", i, v.Color, want[i])
		}
	}
}

func TestLoadGLTFGeneratesNormals(t *testing.T) {
	path := writeQuad(t, quadDoc{mode: gltf.PrimitiveTriangles})

	for _, smooth := range []bool{false, true} {
		l := NewGLTFLoader()
		l.CalculateNormals = true
		l.SmoothNormals = smooth

		scene, err := l.Load(path)
		if err != nil {
			t.Fatal(err)
		}
		for i, v := range scene.Meshes[0].Vertices {
			if !v.Attrs.Has(render.AttrNormal) || v.Normal != math3d.V3(0, 0, 1) {
				t.Errorf("smooth=%v vertex %d normal = %v, want +Z", smooth, i, v.Normal)
			}
		}
	}
}

func TestLoadGLTFRejectsNonTriangles(t *testing.T) {
	path := writeQuad(t, quadDoc{mode: gltf.PrimitiveLines})

	_, err := LoadGLTF(path)
	if !errors.Is(err, ErrUnsupportedPrimitive) {
		t.Errorf("err = %v, want ErrUnsupportedPrimitive", err)
	}
}
