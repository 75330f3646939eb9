package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/models"
	"github.com/taigrr/softrender/pkg/render"
)

// HUD renders an overlay with scene info and pipeline toggles
type HUD struct {
	Visible   bool
	name      string
	polyCount int
	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

// NewHUD creates a new HUD
func NewHUD(name string, polyCount int) *HUD {
	return &HUD{
		name:      name,
		polyCount: polyCount,
		fpsTime:   time.Now(),
	}
}

// UpdateFPS updates the FPS counter (call once per frame)
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

func checkbox(on bool) string {
	if on {
		return "[✓]"
	}
	return "[ ]"
}

// Render draws the HUD overlay directly to the terminal
func (h *HUD) Render(width, height int, s render.Settings, stats render.Stats) {
	const (
		reset     = "\x1b[0m"
		bold      = "\x1b[1m"
		bgBlack   = "\x1b[40m"
		fgWhite   = "\x1b[97m"
		fgGreen   = "\x1b[92m"
		fgCyan    = "\x1b[96m"
		clearLine = "\x1b[2K"
	)

	moveTo := func(row, col int) string {
		return fmt.Sprintf("\x1b[%d;%dH", row, col)
	}

	// Always clear the HUD rows (so toggling off works)
	fmt.Print(moveTo(1, 1) + clearLine)
	fmt.Print(moveTo(height, 1) + clearLine)
	if !h.Visible {
		return
	}

	fmt.Printf("%s%s%s %.0f FPS %s", moveTo(1, 1), bgBlack, fgGreen, h.fps, reset)

	titleCol := max((width-len(h.name)-2)/2, 1)
	fmt.Print(moveTo(1, titleCol) + fmt.Sprintf("%s%s%s %s %s", bold, bgBlack, fgWhite, h.name, reset))

	polyStr := fmt.Sprintf("%d/%d tris", stats.Rasterized, h.polyCount)
	fmt.Print(moveTo(1, max(width-len(polyStr)-1, 1)) + fmt.Sprintf("%s%s%s %s %s", bgBlack, fgCyan, bold, polyStr, reset))

	modeStr := fmt.Sprintf("%s%s %s Wire  %s Shade  %s Color  %s Cull  %s %s",
		bgBlack, fgWhite,
		checkbox(s.Wireframe),
		checkbox(s.FragmentShading),
		checkbox(s.VertexColorInterp),
		checkbox(s.CullBackFaces),
		s.Projection,
		reset)
	fmt.Print(moveTo(height, 1) + modeStr)
}

// viewer holds the interactive session state.
type viewer struct {
	term     *uv.Terminal
	renderer *render.Renderer
	orbit    *Orbit
	hud      *HUD

	width, height int
	mouseDown     bool
	lastX, lastY  int
	torque        struct{ yaw, pitch float64 }
	quit          bool
}

const torqueStrength = 3.0

// resize matches the framebuffer to the terminal: one column per pixel and
// two pixel rows per cell.
func (v *viewer) resize(width, height int) error {
	v.width, v.height = width, height
	v.renderer.Camera.Frustum.Aspect = float64(width) / float64(height*2)
	return v.renderer.SetViewport(render.Viewport{Width: width, Height: height * 2})
}

var toggleKeys = []string{"x", "f", "c", "b", "p"}

func (v *viewer) toggle(key string) {
	s := &v.renderer.Settings
	switch key {
	case "x":
		s.Wireframe = !s.Wireframe
	case "f":
		s.FragmentShading = !s.FragmentShading
	case "c":
		s.VertexColorInterp = !s.VertexColorInterp
	case "b":
		s.CullBackFaces = !s.CullBackFaces
	case "p":
		if s.Projection == render.Perspective {
			s.Projection = render.Orthographic
		} else {
			s.Projection = render.Perspective
		}
	}
}

func (v *viewer) handle(ev uv.Event) error {
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		v.term.Erase()
		v.term.Resize(ev.Width, ev.Height)
		return v.resize(ev.Width, ev.Height)

	case uv.KeyPressEvent:
		switch {
		case ev.MatchString("escape"), ev.MatchString("ctrl+c"):
			v.quit = true
		case ev.MatchString("r"):
			v.orbit.Reset(v.renderer.Camera)
		case ev.MatchString("w", "up"):
			v.torque.pitch = torqueStrength
		case ev.MatchString("s", "down"):
			v.torque.pitch = -torqueStrength
		case ev.MatchString("a", "left"):
			v.torque.yaw = -torqueStrength
		case ev.MatchString("d", "right"):
			v.torque.yaw = torqueStrength
		case ev.MatchString("space"):
			v.orbit.ApplyImpulse((rand.Float64()-0.5)*0.5, (rand.Float64()-0.5)*0.2)
		case ev.MatchString("+", "="):
			v.orbit.Zoom(-0.5)
		case ev.MatchString("-", "_"):
			v.orbit.Zoom(0.5)
		case ev.MatchString("?"), ev.MatchString("shift+/"):
			v.hud.Visible = !v.hud.Visible
		default:
			for _, k := range toggleKeys {
				if ev.MatchString(k) {
					v.toggle(k)
				}
			}
		}

	case uv.KeyReleaseEvent:
		switch {
		case ev.MatchString("w"), ev.MatchString("up"), ev.MatchString("s"), ev.MatchString("down"):
			v.torque.pitch = 0
		case ev.MatchString("a"), ev.MatchString("left"), ev.MatchString("d"), ev.MatchString("right"):
			v.torque.yaw = 0
		}

	case uv.MouseClickEvent:
		v.mouseDown = true
		v.lastX, v.lastY = ev.X, ev.Y

	case uv.MouseReleaseEvent:
		v.mouseDown = false

	case uv.MouseMotionEvent:
		if v.mouseDown {
			dx, dy := ev.X-v.lastX, ev.Y-v.lastY
			v.orbit.ApplyImpulse(float64(-dx)*0.01, float64(dy)*0.01)
			v.lastX, v.lastY = ev.X, ev.Y
		}

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			v.orbit.Zoom(-0.5)
		case uv.MouseWheelDown:
			v.orbit.Zoom(0.5)
		}
	}
	return nil
}

// runViewer shows the scene in the terminal until the context ends or the
// user quits.
func runViewer(ctx context.Context, scene *models.Scene, model math3d.Mat4, settings render.Settings, bg render.Color, name string) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	cam, err := newCamera(float64(width) / float64(height*2))
	if err != nil {
		return err
	}
	r, err := render.NewRenderer(cam, render.Viewport{Width: width, Height: height * 2}, settings)
	if err != nil {
		return err
	}
	r.ClearColor = bg

	v := &viewer{
		term:     term,
		renderer: r,
		orbit:    NewOrbit(cam, math3d.Vec3{}, *targetFPS),
		hud:      NewHUD(name, scene.TriangleCount()),
		width:    width,
		height:   height,
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Enable mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		_ = term.Shutdown(context.Background())
	}
	defer cleanup()

	// Events are applied on the render loop so the renderer has one owner.
	events := make(chan uv.Event, 64)
	go func() {
		for ev := range term.Events() {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	light := sceneLight()
	targetDuration := time.Second / time.Duration(max(*targetFPS, 1))
	lastFrame := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

	drain:
		for {
			select {
			case ev := <-events:
				if err := v.handle(ev); err != nil {
					return err
				}
			default:
				break drain
			}
		}
		if v.quit {
			return nil
		}

		now := time.Now()
		dt := min(now.Sub(lastFrame).Seconds(), 0.1)
		lastFrame = now

		// Apply input torque and decay it (key release events unreliable)
		v.orbit.ApplyImpulse(v.torque.yaw*dt*0.1, v.torque.pitch*dt*0.1)
		v.torque.yaw *= 0.9
		v.torque.pitch *= 0.9
		v.orbit.Step(cam)

		r.Clear()
		if err := r.Draw(scene.Meshes, model, light, scene.Textures); err != nil {
			return err
		}

		r.Framebuffer().Draw(term, uv.Rect(0, 0, v.width, v.height))
		if err := term.Display(); err != nil {
			return fmt.Errorf("display: %w", err)
		}

		v.hud.UpdateFPS()
		v.hud.Render(v.width, v.height, r.Settings, r.Stats)

		// Frame timing
		if elapsed := time.Since(now); elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}
