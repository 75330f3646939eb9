package main

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/models"
	"github.com/taigrr/softrender/pkg/render"
)

// renderOffscreen writes one image, or a turntable of -frames images
// orbiting the origin, to -out.
func renderOffscreen(scene *models.Scene, model math3d.Mat4, settings render.Settings, bg render.Color) error {
	w, h, err := parseSize(*imageSize)
	if err != nil {
		return err
	}
	save, err := saverFor(*outPath)
	if err != nil {
		return err
	}
	cam, err := newCamera(float64(w) / float64(h))
	if err != nil {
		return err
	}
	r, err := render.NewRenderer(cam, render.Viewport{Width: w, Height: h}, settings)
	if err != nil {
		return err
	}
	r.ClearColor = bg

	n := max(*frameCount, 1)
	var bar *progressbar.ProgressBar
	if n > 1 {
		bar = progressbar.Default(int64(n), "rendering")
	}
	step := math3d.QuatFromAxisAngle(math3d.Up(), 2*math.Pi/float64(n))

	for i := range n {
		r.Clear()
		if err := r.Draw(scene.Meshes, model, sceneLight(), scene.Textures); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		path := *outPath
		if n > 1 {
			path = framePath(path, i)
		}
		if err := save(r.Framebuffer(), path); err != nil {
			return err
		}
		render.Logger().Info("frame written",
			"path", path,
			"triangles", r.Stats.Triangles,
			"culled", r.Stats.Culled,
			"clipped", r.Stats.Clipped,
			"fragments", r.Stats.Fragments)

		if bar != nil {
			_ = bar.Add(1)
		}
		cam.RotateAround(math3d.Vec3{}, step)
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return nil
}

// saverFor picks the image encoder from the file extension.
func saverFor(path string) (func(fb *render.Framebuffer, path string) error, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return (*render.Framebuffer).SavePNG, nil
	case ".bmp":
		return (*render.Framebuffer).SaveBMP, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (use .png or .bmp)", ext)
	}
}

// framePath numbers a turntable frame: out.png becomes out_007.png.
func framePath(path string, i int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%03d%s", strings.TrimSuffix(path, ext), i, ext)
}
