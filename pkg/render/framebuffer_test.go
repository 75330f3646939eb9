package render

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/taigrr/softrender/pkg/math3d"
	"golang.org/x/image/bmp"
)

func TestFramebufferSetGetPixel(t *testing.T) {
	fb := NewFramebuffer(4, 3)
	c := RGB(1, 2, 3)

	if !fb.SetPixel(3, 2, c) {
		t.Fatal("in-bounds SetPixel reported false")
	}
	if got := fb.GetPixel(3, 2); got != c {
		t.Errorf("GetPixel = %v, want %v", got, c)
	}
	i := (2*4 + 3) * BytesPerPixel
	if !bytes.Equal(fb.Pix[i:i+3], []byte{1, 2, 3}) {
		t.Errorf("raw bytes = %v", fb.Pix[i:i+3])
	}

	for _, p := range [][2]int{{-1, 0}, {4, 0}, {0, 3}, {0, -1}} {
		if fb.SetPixel(p[0], p[1], c) {
			t.Errorf("SetPixel(%d, %d) out of bounds reported true", p[0], p[1])
		}
		if got := fb.GetPixel(p[0], p[1]); got != (Color{}) {
			t.Errorf("GetPixel(%d, %d) = %v, want zero", p[0], p[1], got)
		}
	}
}

func TestFlipVertically(t *testing.T) {
	// 2x3 image, each row filled with its index.
	pix := []byte{
		0, 0, 0, 0, 0, 0,
		1, 1, 1, 1, 1, 1,
		2, 2, 2, 2, 2, 2,
	}
	got := FlipVertically(pix, 2, 3)
	want := []byte{
		2, 2, 2, 2, 2, 2,
		1, 1, 1, 1, 1, 1,
		0, 0, 0, 0, 0, 0,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if pix[0] != 0 {
		t.Error("input modified")
	}
	if !bytes.Equal(FlipVertically(got, 2, 3), pix) {
		t.Error("flipping twice is not the identity")
	}
}

func TestFramebufferToImageIsTopDown(t *testing.T) {
	fb := NewFramebuffer(2, 2)
	fb.SetPixel(0, 0, RGB(255, 0, 0)) // bottom-left

	img := fb.ToImage()
	if r, _, _, _ := img.At(0, 1).RGBA(); r>>8 != 255 {
		t.Errorf("bottom-left of image = %v, want red", img.At(0, 1))
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r != 0 {
		t.Errorf("top-left of image = %v, want black", img.At(0, 0))
	}
}

func TestFramebufferSave(t *testing.T) {
	fb := NewFramebuffer(5, 4)
	fb.Clear(RGB(10, 20, 30))
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "out.png")
	if err := fb.SavePNG(pngPath); err != nil {
		t.Fatal(err)
	}
	bmpPath := filepath.Join(dir, "out.bmp")
	if err := fb.SaveBMP(bmpPath); err != nil {
		t.Fatal(err)
	}

	for path, decode := range map[string]func(*os.File) (int, int, uint32, error){
		pngPath: func(f *os.File) (int, int, uint32, error) {
			img, err := png.Decode(f)
			if err != nil {
				return 0, 0, 0, err
			}
			_, g, _, _ := img.At(2, 2).RGBA()
			return img.Bounds().Dx(), img.Bounds().Dy(), g >> 8, nil
		},
		bmpPath: func(f *os.File) (int, int, uint32, error) {
			img, err := bmp.Decode(f)
			if err != nil {
				return 0, 0, 0, err
			}
			_, g, _, _ := img.At(2, 2).RGBA()
			return img.Bounds().Dx(), img.Bounds().Dy(), g >> 8, nil
		},
	} {
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		w, h, g, err := decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if w != 5 || h != 4 || g != 20 {
			t.Errorf("%s: %dx%d green %d, want 5x4 green 20", path, w, h, g)
		}
	}

	if err := fb.SavePNG(filepath.Join(dir, "missing", "out.png")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestColorConversion(t *testing.T) {
	c := ColorFromVec3(math3d.V3(-0.5, 0.5, 2))
	if c != RGB(0, 127, 255) {
		t.Errorf("got %v, want (0, 127, 255)", c)
	}
	if v := Vec3FromColor(RGB(255, 0, 51)); !vecNear(v, math3d.V3(1, 0, 0.2), 1e-12) {
		t.Errorf("got %v", v)
	}
}
