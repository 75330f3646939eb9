// softrender - CPU 3D renderer
// Renders glTF scenes (or a built-in cube) in the terminal, or offscreen to
// PNG/BMP images.
//
// Controls:
//
//	Mouse drag  - Orbit the camera
//	Scroll      - Zoom in/out
//	W/S/A/D     - Orbit up/down/left/right
//	Space       - Apply random impulse
//	R           - Reset camera
//	X           - Toggle wireframe
//	F           - Toggle fragment shading
//	C           - Toggle vertex color fill
//	B           - Toggle back-face culling
//	P           - Toggle perspective/orthographic
//	?           - Toggle HUD overlay
//	+/-         - Adjust zoom
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/models"
	"github.com/taigrr/softrender/pkg/render"
)

var (
	configPath  = flag.String("config", "", "Path to YAML render settings")
	texturePath = flag.String("texture", "", "Texture for meshes without one (PNG/JPG/BMP/WebP)")
	targetFPS   = flag.Int("fps", 30, "Target FPS")
	bgColor     = flag.String("bg", "30,30,40", "Background color (R,G,B)")
	outPath     = flag.String("out", "", "Render offscreen to this .png or .bmp file and exit")
	frameCount  = flag.Int("frames", 1, "Number of turntable frames to render with -out")
	imageSize   = flag.String("size", "1024x720", "Offscreen image size (WxH)")
	fovDegrees  = flag.Float64("fov", 60, "Vertical field of view in degrees")
	nearPlane   = flag.Float64("near", 0.1, "Near plane distance")
	farPlane    = flag.Float64("far", 1000, "Far plane distance")
	verbose     = flag.Bool("v", false, "Log pipeline diagnostics to stderr")
)

// Texture IDs outside the range a glTF file can use.
const (
	checkerTexture render.TextureID = 1<<16 + iota
	userTexture
)

// cameraHome is where every view starts, looking at the origin.
var cameraHome = math3d.V3(2, 3, 4)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "softrender - CPU 3D renderer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: softrender [options] [model.gltf|model.glb]\n\n")
		fmt.Fprintf(os.Stderr, "Without a model a textured cube is shown.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Mouse drag  - Orbit camera\n")
		fmt.Fprintf(os.Stderr, "  Scroll      - Zoom in/out\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Orbit\n")
		fmt.Fprintf(os.Stderr, "  Space       - Random spin\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
		fmt.Fprintf(os.Stderr, "  X/F/C       - Toggle wireframe, shading, vertex colors\n")
		fmt.Fprintf(os.Stderr, "  B/P         - Toggle culling, projection\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD overlay\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(modelPath string) error {
	if *verbose {
		render.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	settings := render.DefaultSettings()
	if *configPath != "" {
		var err error
		if settings, err = render.LoadSettings(*configPath); err != nil {
			return err
		}
	}

	bg, err := parseColor(*bgColor)
	if err != nil {
		return err
	}

	scene, err := loadScene(modelPath)
	if err != nil {
		return err
	}
	if *texturePath != "" {
		if err := bindTexture(scene, *texturePath); err != nil {
			return err
		}
	}
	model := models.Normalize(scene.Meshes)

	if *outPath != "" {
		return renderOffscreen(scene, model, settings, bg)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return runViewer(ctx, scene, model, settings, bg, sceneName(modelPath))
}

// loadScene imports a glTF file, or builds the checkered cube when path is empty.
func loadScene(path string) (*models.Scene, error) {
	if path == "" {
		mat := render.DefaultMaterial()
		mat.BaseColorTexture = checkerTexture
		textures := render.NewTextureStore()
		textures.Add(render.NewCheckerTexture(checkerTexture, 64, 64, 8, render.RGB(200, 200, 200), render.RGB(100, 100, 100)))
		return &models.Scene{
			Meshes:   []render.Mesh{models.Cube(1, mat)},
			Textures: textures,
		}, nil
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".glb", ".gltf":
		scene, err := models.LoadGLTF(path)
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
		return scene, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (use .gltf or .glb)", ext)
	}
}

// bindTexture loads path and applies it to every mesh without a texture
// of its own, and to the built-in cube.
func bindTexture(scene *models.Scene, path string) error {
	tex, err := render.LoadTexture(path, userTexture)
	if err != nil {
		return fmt.Errorf("load texture: %w", err)
	}
	scene.Textures.Add(tex)
	for i := range scene.Meshes {
		m := &scene.Meshes[i].Material
		if m.BaseColorTexture == render.NoTexture || m.BaseColorTexture == checkerTexture {
			m.BaseColorTexture = userTexture
		}
	}
	return nil
}

func sceneName(path string) string {
	if path == "" {
		return "cube"
	}
	return filepath.Base(path)
}

// newCamera places a camera at cameraHome looking at the origin.
func newCamera(aspect float64) (*render.Camera, error) {
	f, err := render.NewFrustum(*fovDegrees*math.Pi/180, aspect, *nearPlane, *farPlane)
	if err != nil {
		return nil, err
	}
	cam := render.NewCamera(f)
	cam.Position = cameraHome
	cam.LookAt(math3d.Vec3{}, math3d.Up())
	return cam, nil
}

// sceneLight sits above and in front of the starting camera so a normalized
// scene receives roughly unit irradiance.
func sceneLight() render.PointLight {
	return render.PointLight{Position: math3d.V3(4, 6, 8), Intensity: 120}
}

// parseColor reads an "R,G,B" triple.
func parseColor(s string) (render.Color, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%d,%d,%d", &r, &g, &b); err != nil {
		return render.Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return render.RGB(r, g, b), nil
}

// parseSize reads a "WxH" pair.
func parseSize(s string) (w, h int, err error) {
	if _, err := fmt.Sscanf(s, "%dx%d", &w, &h); err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q: dimensions must be positive", s)
	}
	return w, h, nil
}
