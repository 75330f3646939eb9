package render

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math"
	"os"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/taigrr/softrender/pkg/math3d"
)

// Sampling errors. Both abort the frame being drawn.
var (
	ErrUnsupportedWrapMode = errors.New("unsupported texture wrap mode")
	ErrUnsupportedFormat   = errors.New("unsupported texture format")
	ErrTextureData         = errors.New("texture data does not match its size")
)

// WrapMode determines how texture coordinates outside [0,1] are handled.
type WrapMode int

const (
	WrapRepeat         WrapMode = iota // Tile the texture
	WrapClampToEdge                    // Clamp to edge
	WrapMirroredRepeat                 // Tile, mirroring every other copy
)

func (m WrapMode) String() string {
	switch m {
	case WrapRepeat:
		return "repeat"
	case WrapClampToEdge:
		return "clamp-to-edge"
	case WrapMirroredRepeat:
		return "mirrored-repeat"
	}
	return fmt.Sprintf("WrapMode(%d)", int(m))
}

// PixelFormat describes the layout of Texture.Data.
type PixelFormat int

const (
	FormatRGBA8 PixelFormat = iota
	FormatRGB8
	FormatR8
	FormatRG8
)

// BytesPerPixel returns the pixel stride of the format.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA8:
		return 4
	case FormatRGB8:
		return 3
	case FormatRG8:
		return 2
	case FormatR8:
		return 1
	}
	return 0
}

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA8:
		return "R8G8B8A8"
	case FormatRGB8:
		return "R8G8B8"
	case FormatRG8:
		return "R8G8"
	case FormatR8:
		return "R8"
	}
	return fmt.Sprintf("PixelFormat(%d)", int(f))
}

// TextureID identifies a texture in a TextureStore. Imported scenes use the
// glTF texture index.
type TextureID int

// NoTexture marks a material without a bound texture.
const NoTexture TextureID = -1

// Texture is a 2D image with its sampler state. Data is row-major with the
// first row at v = 0.
type Texture struct {
	ID     TextureID
	Width  int
	Height int
	Format PixelFormat
	Data   []byte
	WrapS  WrapMode // Horizontal wrap mode
	WrapT  WrapMode // Vertical wrap mode
}

// Validate checks that the texture can be sampled.
func (t *Texture) Validate() error {
	if t.WrapS != WrapRepeat || t.WrapT != WrapRepeat {
		return fmt.Errorf("texture %d: %w: %v/%v", t.ID, ErrUnsupportedWrapMode, t.WrapS, t.WrapT)
	}
	if t.Format != FormatRGB8 && t.Format != FormatRGBA8 {
		return fmt.Errorf("texture %d: %w: %v", t.ID, ErrUnsupportedFormat, t.Format)
	}
	if t.Width <= 0 || t.Height <= 0 || len(t.Data) < t.Width*t.Height*t.Format.BytesPerPixel() {
		return fmt.Errorf("texture %d: %w: %dx%d %v with %d bytes",
			t.ID, ErrTextureData, t.Width, t.Height, t.Format, len(t.Data))
	}
	return nil
}

// Sample returns the RGB color (0..1) at uv with nearest-texel lookup.
// Coordinates outside [0,1] wrap by dropping their integer part.
func (t *Texture) Sample(uv math3d.Vec2) (math3d.Vec3, error) {
	if err := t.Validate(); err != nil {
		return math3d.Vec3{}, err
	}

	u, v := wrapRepeat(uv.X), wrapRepeat(uv.Y)
	x := int(math.Floor(u * float64(t.Width-1)))
	y := int(math.Floor(v * float64(t.Height-1)))

	i := (y*t.Width + x) * t.Format.BytesPerPixel()
	return math3d.V3(float64(t.Data[i]), float64(t.Data[i+1]), float64(t.Data[i+2])).Scale(1.0 / 255), nil
}

// wrapRepeat maps c into [0,1]. Exactly 1 stays 1 and addresses the last texel.
func wrapRepeat(c float64) float64 {
	if c > 1 || c < 0 {
		c -= math.Floor(c)
	}
	return c
}

// TextureStore holds the textures a scene refers to by ID.
type TextureStore struct {
	textures map[TextureID]*Texture
}

// NewTextureStore creates an empty store.
func NewTextureStore() *TextureStore {
	return &TextureStore{textures: make(map[TextureID]*Texture)}
}

// Add stores t under t.ID, replacing any previous texture with that ID.
func (s *TextureStore) Add(t *Texture) {
	s.textures[t.ID] = t
}

// Get returns the texture with the given ID. A nil store holds nothing.
func (s *TextureStore) Get(id TextureID) (*Texture, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.textures[id]
	return t, ok
}

// Len returns the number of stored textures.
func (s *TextureStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.textures)
}

// LoadTexture loads a PNG, JPEG, BMP or WebP file as an RGBA8 texture.
func LoadTexture(path string, id TextureID) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return TextureFromImage(img, id), nil
}

// TextureFromImage copies img into an RGBA8 texture with repeat wrapping.
func TextureFromImage(img image.Image, id TextureID) *Texture {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != b.Dx()*4 {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return &Texture{
		ID:     id,
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: FormatRGBA8,
		Data:   rgba.Pix,
	}
}

// NewCheckerTexture creates a procedural RGB8 checkerboard texture.
func NewCheckerTexture(id TextureID, width, height, checkSize int, c1, c2 Color) *Texture {
	tex := &Texture{
		ID:     id,
		Width:  width,
		Height: height,
		Format: FormatRGB8,
		Data:   make([]byte, width*height*3),
	}
	for y := range height {
		for x := range width {
			c := c2
			if (x/checkSize+y/checkSize)%2 == 0 {
				c = c1
			}
			i := (y*width + x) * 3
			tex.Data[i], tex.Data[i+1], tex.Data[i+2] = c.R, c.G, c.B
		}
	}
	return tex
}
