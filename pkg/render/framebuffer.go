// Package render implements a CPU rasterization pipeline: camera and
// projection, triangle and line rasterization with depth testing, pluggable
// shading, texture sampling and framebuffer output.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/taigrr/softrender/pkg/math3d"
	"golang.org/x/image/bmp"
)

// BytesPerPixel is the size of one RGB framebuffer pixel.
const BytesPerPixel = 3

// Framebuffer is a row-major RGB byte buffer. Row 0 is the bottom of the
// image, matching the viewport transform; use FlipVertically or ToImage for
// top-down consumers.
type Framebuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewFramebuffer creates a black framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*BytesPerPixel),
	}
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c Color) {
	for i := 0; i < len(fb.Pix); i += BytesPerPixel {
		fb.Pix[i], fb.Pix[i+1], fb.Pix[i+2] = c.R, c.G, c.B
	}
}

// SetPixel sets a pixel at (x, y). It reports false, leaving the buffer
// untouched, when (x, y) is out of bounds.
func (fb *Framebuffer) SetPixel(x, y int, c Color) bool {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return false
	}
	i := (y*fb.Width + x) * BytesPerPixel
	fb.Pix[i], fb.Pix[i+1], fb.Pix[i+2] = c.R, c.G, c.B
	return true
}

// GetPixel returns the color at (x, y), or transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) Color {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return Color{}
	}
	i := (y*fb.Width + x) * BytesPerPixel
	return RGB(fb.Pix[i], fb.Pix[i+1], fb.Pix[i+2])
}

// Bounds returns the inclusive pixel rectangle of the framebuffer.
func (fb *Framebuffer) Bounds() Rect {
	return Rect{
		Max: math3d.V2(float64(fb.Width-1), float64(fb.Height-1)),
	}
}

// DrawLine draws a clipped line from p0 to p1.
func (fb *Framebuffer) DrawLine(p0, p1 math3d.Vec2, c Color) {
	RasterizeLine(p0, p1, fb.Bounds(), func(x, y int) {
		fb.SetPixel(x, y, c)
	})
}

// FlipVertically returns a copy of an RGB buffer with its rows in reverse
// order. pix must hold width*height pixels.
func FlipVertically(pix []uint8, width, height int) []uint8 {
	stride := width * BytesPerPixel
	out := make([]uint8, len(pix))
	for y := range height {
		src := pix[y*stride : (y+1)*stride]
		dst := (height - 1 - y) * stride
		copy(out[dst:dst+stride], src)
	}
	return out
}

// ToImage converts the framebuffer to a top-down image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := range fb.Height {
		for x := range fb.Width {
			img.SetRGBA(x, fb.Height-1-y, fb.GetPixel(x, y))
		}
	}
	return img
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	return fb.save(path, png.Encode)
}

// SaveBMP saves the framebuffer as a BMP file.
func (fb *Framebuffer) SaveBMP(path string) error {
	return fb.save(path, bmp.Encode)
}

func (fb *Framebuffer) save(path string, encode func(w io.Writer, img image.Image) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	if err := encode(f, fb.ToImage()); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// Color is an alias for color.RGBA. Framebuffers ignore alpha.
type Color = color.RGBA

// RGB creates an opaque color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// ColorFromVec3 converts a 0..1 float color into bytes, clamping each
// channel and truncating after scaling by 255.
func ColorFromVec3(v math3d.Vec3) Color {
	v = v.Clamp(0, 1).Scale(255)
	return RGB(uint8(v.X), uint8(v.Y), uint8(v.Z))
}

// Vec3FromColor converts a byte color into 0..1 floats.
func Vec3FromColor(c Color) math3d.Vec3 {
	return math3d.V3(float64(c.R), float64(c.G), float64(c.B)).Scale(1.0 / 255)
}
