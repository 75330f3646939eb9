package models

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/render"
)

// ErrUnsupportedPrimitive is returned for primitives that are not triangle lists.
var ErrUnsupportedPrimitive = errors.New("unsupported primitive")

// DefaultColorSeed seeds the colors generated for primitives without COLOR_0.
const DefaultColorSeed uint64 = 0x50f7

// Scene is an imported model ready for the renderer.
type Scene struct {
	Meshes   []render.Mesh
	Textures *render.TextureStore
}

// TriangleCount returns the number of triangles across all meshes.
func (s *Scene) TriangleCount() int {
	n := 0
	for i := range s.Meshes {
		n += s.Meshes[i].TriangleCount()
	}
	return n
}

// GLTFLoader loads GLTF/GLB files into render meshes.
type GLTFLoader struct {
	// Options
	CalculateNormals bool   // Fill missing normals from face winding
	SmoothNormals    bool   // Average normals across faces sharing a position
	ColorSeed        uint64 // Seed for generated vertex colors
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		ColorSeed: DefaultColorSeed,
	}
}

// LoadGLTF loads a .gltf or .glb file with the default options.
func LoadGLTF(path string) (*Scene, error) {
	return NewGLTFLoader().Load(path)
}

// Load reads a GLTF or GLB file. Every triangle primitive becomes one mesh
// whose indices are expanded into consecutive vertex triples.
func (l *GLTFLoader) Load(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	textures, err := loadTextures(doc, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	scene := &Scene{Textures: textures}

	rng := rand.New(rand.NewPCG(l.ColorSeed, l.ColorSeed^0x9e3779b97f4a7c15))
	for mi, m := range doc.Meshes {
		for pi, prim := range m.Primitives {
			mesh, err := l.processPrimitive(doc, prim, rng)
			if err != nil {
				return nil, fmt.Errorf("mesh %d %q primitive %d: %w", mi, m.Name, pi, err)
			}
			mesh.Name = fmt.Sprintf("%s#%d", m.Name, pi)
			scene.Meshes = append(scene.Meshes, mesh)
		}
	}

	render.Logger().Info("loaded gltf",
		"path", path,
		"meshes", len(scene.Meshes),
		"triangles", scene.TriangleCount(),
		"textures", textures.Len())
	return scene, nil
}

// processPrimitive extracts one triangle list.
func (l *GLTFLoader) processPrimitive(doc *gltf.Document, prim *gltf.Primitive, rng *rand.Rand) (render.Mesh, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		return render.Mesh{}, fmt.Errorf("%w: mode %v", ErrUnsupportedPrimitive, prim.Mode)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return render.Mesh{}, errors.New("primitive has no POSITION")
	}
	positions, err := readAccessor(doc, posIdx, gltf.AccessorVec3)
	if err != nil {
		return render.Mesh{}, fmt.Errorf("read positions: %w", err)
	}

	var normals, uvs, colors []float64
	var colorWidth int
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = readAccessor(doc, idx, gltf.AccessorVec3); err != nil {
			return render.Mesh{}, fmt.Errorf("read normals: %w", err)
		}
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = readAccessor(doc, idx, gltf.AccessorVec2); err != nil {
			return render.Mesh{}, fmt.Errorf("read uvs: %w", err)
		}
	}
	if idx, ok := prim.Attributes[gltf.COLOR_0]; ok {
		colorWidth = 3
		if doc.Accessors[idx].Type == gltf.AccessorVec4 {
			colorWidth = 4
		}
		if colors, err = readAccessor(doc, idx, doc.Accessors[idx].Type); err != nil {
			return render.Mesh{}, fmt.Errorf("read colors: %w", err)
		}
	}

	count := len(positions) / 3
	indices := make([]int, count)
	for i := range indices {
		indices[i] = i
	}
	if prim.Indices != nil {
		if indices, err = readIndices(doc, *prim.Indices, count); err != nil {
			return render.Mesh{}, fmt.Errorf("read indices: %w", err)
		}
	}

	mesh := render.Mesh{
		Vertices: make([]render.Vertex, 0, len(indices)-len(indices)%3),
		Material: loadMaterial(doc, prim.Material),
	}
	for _, i := range indices[:len(indices)-len(indices)%3] {
		v := render.NewVertex(math3d.V3(positions[i*3], positions[i*3+1], positions[i*3+2]))
		if i*3+2 < len(normals) {
			v = v.WithNormal(math3d.V3(normals[i*3], normals[i*3+1], normals[i*3+2]))
		}
		if i*2+1 < len(uvs) {
			v = v.WithTexCoord(math3d.V2(uvs[i*2], uvs[i*2+1]))
		}
		if c := i * colorWidth; colorWidth > 0 && c+2 < len(colors) {
			v = v.WithColor(math3d.V3(colors[c], colors[c+1], colors[c+2]))
		} else {
			v = v.WithColor(math3d.V3(rng.Float64(), rng.Float64(), rng.Float64()))
		}
		mesh.Vertices = append(mesh.Vertices, v)
	}

	if l.CalculateNormals {
		if l.SmoothNormals {
			GenerateSmoothNormals(&mesh)
		} else {
			GenerateFlatNormals(&mesh)
		}
	}
	return mesh, nil
}

// loadMaterial maps the glTF PBR base color onto the renderer's material.
func loadMaterial(doc *gltf.Document, idx *int) render.Material {
	mat := render.DefaultMaterial()
	if idx == nil || *idx >= len(doc.Materials) {
		return mat
	}
	pbr := doc.Materials[*idx].PBRMetallicRoughness
	if pbr == nil {
		return mat
	}
	if pbr.BaseColorFactor != nil {
		mat.BaseColorFactor = *pbr.BaseColorFactor
	}
	if pbr.BaseColorTexture != nil {
		mat.BaseColorTexture = render.TextureID(pbr.BaseColorTexture.Index)
	}
	return mat
}

// loadTextures decodes every texture of the document, keyed by its index.
func loadTextures(doc *gltf.Document, dir string) (*render.TextureStore, error) {
	store := render.NewTextureStore()
	for i, t := range doc.Textures {
		if t.Source == nil || *t.Source >= len(doc.Images) {
			render.Logger().Debug("texture without image", "texture", i)
			continue
		}
		data, err := imageData(doc, doc.Images[*t.Source], dir)
		if err != nil {
			return nil, fmt.Errorf("texture %d: %w", i, err)
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("texture %d: decode image: %w", i, err)
		}

		tex := render.TextureFromImage(img, render.TextureID(i))
		if t.Sampler != nil && *t.Sampler < len(doc.Samplers) {
			s := doc.Samplers[*t.Sampler]
			tex.WrapS = wrapMode(s.WrapS)
			tex.WrapT = wrapMode(s.WrapT)
		}
		store.Add(tex)
	}
	return store, nil
}

// imageData returns the encoded bytes of an image from a buffer view, a
// data URI or a file next to the document.
func imageData(doc *gltf.Document, img *gltf.Image, dir string) ([]byte, error) {
	switch {
	case img.BufferView != nil:
		bv := doc.BufferViews[*img.BufferView]
		buf := doc.Buffers[bv.Buffer].Data
		if bv.ByteOffset+bv.ByteLength > len(buf) {
			return nil, errors.New("image buffer view out of range")
		}
		return buf[bv.ByteOffset : bv.ByteOffset+bv.ByteLength], nil
	case img.IsEmbeddedResource():
		return img.MarshalData()
	case img.URI != "":
		return os.ReadFile(filepath.Join(dir, img.URI))
	}
	return nil, errors.New("image has no data")
}

func wrapMode(w gltf.WrappingMode) render.WrapMode {
	switch w {
	case gltf.WrapClampToEdge:
		return render.WrapClampToEdge
	case gltf.WrapMirroredRepeat:
		return render.WrapMirroredRepeat
	}
	return render.WrapRepeat
}

// readIndices reads index data and checks it against the vertex count.
func readIndices(doc *gltf.Document, accessorIdx, vertexCount int) ([]int, error) {
	data, err := readAccessor(doc, accessorIdx, gltf.AccessorScalar)
	if err != nil {
		return nil, err
	}
	indices := make([]int, len(data))
	for i, f := range data {
		idx := int(f)
		if idx < 0 || idx >= vertexCount {
			return nil, fmt.Errorf("index %d out of range [0, %d)", idx, vertexCount)
		}
		indices[i] = idx
	}
	return indices, nil
}

// readAccessor reads an accessor as a flat slice of float64 components.
// Normalized integer components are mapped to [0, 1].
func readAccessor(doc *gltf.Document, accessorIdx int, want gltf.AccessorType) ([]float64, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != want {
		return nil, fmt.Errorf("expected %v, got %v", want, accessor.Type)
	}
	if accessor.BufferView == nil {
		return nil, errors.New("accessor has no buffer view")
	}
	if accessor.Sparse != nil {
		return nil, errors.New("sparse accessors are not supported")
	}

	bufferView := doc.BufferViews[*accessor.BufferView]
	bufData := doc.Buffers[bufferView.Buffer].Data
	if len(bufData) == 0 {
		return nil, errors.New("buffer has no data")
	}

	width := componentCount(accessor.Type)
	size := componentSize(accessor.ComponentType)
	if width == 0 || size == 0 {
		return nil, fmt.Errorf("unsupported accessor type: %v / %v", accessor.Type, accessor.ComponentType)
	}

	start := bufferView.ByteOffset + accessor.ByteOffset
	stride := bufferView.ByteStride
	if stride == 0 {
		stride = width * size
	}
	count := accessor.Count
	if count > 0 && start+(count-1)*stride+width*size > len(bufData) {
		return nil, errors.New("accessor exceeds buffer")
	}

	result := make([]float64, 0, count*width)
	for i := range count {
		offset := start + i*stride
		for j := range width {
			b := bufData[offset+j*size:]
			result = append(result, readComponent(b, accessor.ComponentType, accessor.Normalized))
		}
	}
	return result, nil
}

func readComponent(b []byte, ct gltf.ComponentType, normalized bool) float64 {
	le := binary.LittleEndian
	switch ct {
	case gltf.ComponentFloat:
		return float64(math.Float32frombits(le.Uint32(b)))
	case gltf.ComponentUbyte:
		if normalized {
			return float64(b[0]) / math.MaxUint8
		}
		return float64(b[0])
	case gltf.ComponentUshort:
		v := le.Uint16(b)
		if normalized {
			return float64(v) / math.MaxUint16
		}
		return float64(v)
	case gltf.ComponentUint:
		return float64(le.Uint32(b))
	case gltf.ComponentByte:
		if normalized {
			return math.Max(float64(int8(b[0]))/math.MaxInt8, -1)
		}
		return float64(int8(b[0]))
	case gltf.ComponentShort:
		v := int16(le.Uint16(b))
		if normalized {
			return math.Max(float64(v)/math.MaxInt16, -1)
		}
		return float64(v)
	}
	return 0
}

func componentCount(t gltf.AccessorType) int {
	switch t {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4:
		return 4
	}
	return 0
}

func componentSize(ct gltf.ComponentType) int {
	switch ct {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	case gltf.ComponentUint, gltf.ComponentFloat:
		return 4
	}
	return 0
}
