package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/softrender/pkg/math3d"
)

// ErrInvalidViewport is returned for viewports without area.
var ErrInvalidViewport = errors.New("invalid viewport")

// Viewport is the pixel rectangle the renderer draws into.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// Rect returns the inclusive pixel rectangle covered by the viewport.
func (vp Viewport) Rect() Rect {
	return Rect{
		Min: math3d.V2(float64(vp.X), float64(vp.Y)),
		Max: math3d.V2(float64(vp.X+vp.Width-1), float64(vp.Y+vp.Height-1)),
	}
}

// Aspect returns width / height.
func (vp Viewport) Aspect() float64 {
	return float64(vp.Width) / float64(vp.Height)
}

// Stats counts what happened since the last Clear.
type Stats struct {
	Triangles    int // Triangles submitted
	MeshesCulled int // Meshes skipped by view volume culling
	Culled       int // Back faces discarded
	Clipped      int // Triangles cut or dropped by near/far clipping
	Rasterized   int // Triangles that reached the fill pass
	Fragments    int // Pixels written by the fill pass
	Rejected     int // Writes outside the viewport
}

// Renderer owns the color and depth buffers and runs the pipeline.
type Renderer struct {
	Camera   *Camera
	Viewport Viewport
	Settings Settings

	// VertexShader runs on every triangle corner before any transform.
	// Mesh culling is skipped while it is set, since it may move vertices
	// outside the mesh bounds.
	VertexShader VertexShader
	// FragmentShader shades pixels when Settings.FragmentShading is on.
	// nil means NewPhongShader().Shade.
	FragmentShader FragmentShader

	WireframeColor Color
	ClearColor     Color
	Stats          Stats

	frame *Framebuffer
	depth []float64
	poly  []pipelineVertex
}

// NewRenderer creates a renderer with cleared buffers sized to vp.
func NewRenderer(cam *Camera, vp Viewport, settings Settings) (*Renderer, error) {
	r := &Renderer{
		Camera:         cam,
		Settings:       settings,
		FragmentShader: NewPhongShader().Shade,
		WireframeColor: RGB(255, 255, 255),
		ClearColor:     RGB(0, 0, 0),
	}
	if err := r.SetViewport(vp); err != nil {
		return nil, err
	}
	return r, nil
}

// SetViewport resizes the buffers to vp and clears them.
func (r *Renderer) SetViewport(vp Viewport) error {
	if vp.Width <= 0 || vp.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidViewport, vp.Width, vp.Height)
	}
	r.Viewport = vp
	r.frame = NewFramebuffer(vp.Width, vp.Height)
	r.depth = make([]float64, vp.Width*vp.Height)
	r.Clear()
	return nil
}

// Clear resets the color buffer to ClearColor, every depth to the lowest
// value and the statistics to zero.
func (r *Renderer) Clear() {
	r.frame.Clear(r.ClearColor)

	// Copy-doubling fill
	n := len(r.depth)
	if n > 0 {
		r.depth[0] = -math.MaxFloat64
		for i := 1; i < n; i *= 2 {
			copy(r.depth[i:], r.depth[:i])
		}
	}
	r.Stats = Stats{}
}

// Framebuffer returns the color buffer. Row 0 is the bottom of the viewport.
func (r *Renderer) Framebuffer() *Framebuffer {
	return r.frame
}

// DepthBuffer returns the per-pixel depth, laid out like the framebuffer.
// Larger values are closer to the camera.
func (r *Renderer) DepthBuffer() []float64 {
	return r.depth
}

// pixelIndex maps viewport pixel (x, y) to a buffer index. Writes outside
// the viewport are counted and rejected.
func (r *Renderer) pixelIndex(x, y int) (int, bool) {
	vp := r.Viewport
	if x < vp.X || x >= vp.X+vp.Width || y < vp.Y || y >= vp.Y+vp.Height {
		r.Stats.Rejected++
		Logger().Debug("pixel outside viewport", "x", x, "y", y)
		return 0, false
	}
	return (y-vp.Y)*vp.Width + (x - vp.X), true
}

func (r *Renderer) writePixel(i int, c Color) {
	p := r.frame.Pix[i*BytesPerPixel : i*BytesPerPixel+BytesPerPixel]
	p[0], p[1], p[2] = c.R, c.G, c.B
}

// DrawLine draws a line between two viewport pixel positions, clipped to
// the viewport. Lines ignore and do not update the depth buffer.
func (r *Renderer) DrawLine(p0, p1 math3d.Vec2, c Color) {
	RasterizeLine(p0, p1, r.Viewport.Rect(), func(x, y int) {
		if i, ok := r.pixelIndex(x, y); ok {
			r.writePixel(i, c)
		}
	})
}

// pipelineVertex is a triangle corner on its way to the screen.
type pipelineVertex struct {
	Vertex
	world  math3d.Vec3
	view   math3d.Vec3
	clipW  float64     // w before homogeneous division
	screen math3d.Vec3 // pixel x, y and NDC z
}

func (v *pipelineVertex) lerp(o *pipelineVertex, t float64) pipelineVertex {
	return pipelineVertex{
		Vertex: v.Vertex.lerp(o.Vertex, t),
		world:  v.world.Lerp(o.world, t),
		view:   v.view.Lerp(o.view, t),
	}
}

// frameState is what stays fixed while one mesh is drawn.
type frameState struct {
	model    math3d.Mat4
	view     math3d.Mat4
	proj     math3d.Mat4
	normal   *math3d.Mat3 // set on the first vertex with a normal
	shader   FragmentShader
	fill     bool
	payload  FragmentPayload
	viewport Rect
}

// normalMatrix returns the transform for vertex normals. A singular model
// has no inverse transpose, so its upper 3×3 is used as is.
func (fs *frameState) normalMatrix() math3d.Mat3 {
	if fs.normal == nil {
		m := fs.model.Mat3()
		n, ok := m.TryNormalMatrix()
		if !ok {
			Logger().Debug("singular model transform, normals use the upper 3x3")
			n = m
		}
		fs.normal = &n
	}
	return *fs.normal
}

// Draw renders every triangle of meshes transformed by model. A numeric
// degeneracy (such as a vertex landing exactly on the camera plane with
// clipping disabled) or a texture configuration error aborts the frame and
// is returned; pixels drawn before the failure stay in the buffers.
func (r *Renderer) Draw(meshes []Mesh, model math3d.Mat4, light PointLight, textures *TextureStore) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			de, ok := rec.(*math3d.DegenerateError)
			if !ok {
				panic(rec)
			}
			Logger().Warn("draw aborted", "err", de)
			err = fmt.Errorf("draw: %w", de)
		}
	}()

	fs := &frameState{
		model:    model,
		view:     r.Camera.ViewMatrix(),
		proj:     r.Camera.ProjectionMatrix(r.Settings.Projection),
		shader:   r.FragmentShader,
		fill:     r.Settings.FragmentShading || r.Settings.VertexColorInterp,
		viewport: r.Viewport.Rect(),
		payload: FragmentPayload{
			Light:          light,
			CameraPosition: r.Camera.Position,
			Textures:       textures,
		},
	}
	if fs.shader == nil {
		fs.shader = NewPhongShader().Shade
	}

	cullMeshes := r.Settings.MeshCulling && r.VertexShader == nil
	var volume ViewVolume
	if cullMeshes {
		volume = r.Camera.ViewVolume(r.Settings.Projection)
	}

	for i := range meshes {
		mesh := &meshes[i]
		if cullMeshes && !volume.IntersectAABB(mesh.Bounds().Transform(model)) {
			r.Stats.MeshesCulled++
			Logger().Debug("mesh outside view volume", "mesh", mesh.Name)
			continue
		}
		fs.payload.Material = &mesh.Material

		for t := 0; t+2 < len(mesh.Vertices); t += 3 {
			tri := [3]Vertex{mesh.Vertices[t], mesh.Vertices[t+1], mesh.Vertices[t+2]}
			if err := r.drawTriangle(fs, tri); err != nil {
				return fmt.Errorf("draw mesh %q: %w", mesh.Name, err)
			}
		}
	}
	return nil
}

func (r *Renderer) drawTriangle(fs *frameState, tri [3]Vertex) error {
	r.Stats.Triangles++

	var pv [3]pipelineVertex
	for i := range tri {
		v := tri[i]
		if r.VertexShader != nil {
			r.VertexShader(&v)
		}
		world := fs.model.MulVec4(v.Position)
		if v.Attrs.Has(AttrNormal) {
			v.Normal = fs.normalMatrix().MulVec3(v.Normal)
		}
		pv[i] = pipelineVertex{
			Vertex: v,
			world:  world.ToPoint(),
			view:   fs.view.MulVec4(world).ToPoint(),
		}
	}

	if r.Settings.CullBackFaces && r.backFacing(&pv) {
		r.Stats.Culled++
		return nil
	}

	poly := pv[:]
	if r.Settings.ClipNearFar {
		near, far := r.Camera.Frustum.Near, r.Camera.Frustum.Far
		if needsClip(&pv, near, far) {
			r.Stats.Clipped++
			r.poly = clipNearFar(r.poly[:0], pv[:], near, far)
			poly = r.poly
		}
	}

	for i := range poly {
		r.project(fs, &poly[i])
	}

	// The outline is drawn before splitting so the fan diagonals stay hidden.
	if r.Settings.Wireframe && len(poly) >= 3 {
		for i := range poly {
			a, b := poly[i].screen, poly[(i+1)%len(poly)].screen
			r.DrawLine(math3d.V2(a.X, a.Y), math3d.V2(b.X, b.Y), r.WireframeColor)
		}
	}

	for i := 1; i+1 < len(poly); i++ {
		if err := r.rasterize(fs, [3]pipelineVertex{poly[0], poly[i], poly[i+1]}); err != nil {
			return err
		}
	}
	return nil
}

// backFacing reports whether the counter-clockwise view-space triangle
// faces away from the camera.
func (r *Renderer) backFacing(pv *[3]pipelineVertex) bool {
	p0, p1, p2 := pv[0].view, pv[1].view, pv[2].view
	n := p1.Sub(p0).Cross(p2.Sub(p0))

	dir := p0 // eye is at the view-space origin
	if r.Settings.Projection == Orthographic {
		dir = math3d.Forward()
	}
	return n.Dot(dir) > 0
}

// project applies the projection, the homogeneous division and the
// viewport transform.
func (r *Renderer) project(fs *frameState, v *pipelineVertex) {
	clip := fs.proj.MulVec4(math3d.Point(v.view))
	ndc := clip.ToPoint()
	vp := r.Viewport

	v.clipW = clip.W
	v.screen = math3d.V3(
		(ndc.X+1)*float64(vp.Width-1)/2+float64(vp.X),
		(ndc.Y+1)*float64(vp.Height-1)/2+float64(vp.Y),
		ndc.Z,
	)
}

func (r *Renderer) rasterize(fs *frameState, tri [3]pipelineVertex) error {
	var screen [3]math3d.Vec2
	for i := range tri {
		screen[i] = math3d.V2(tri[i].screen.X, tri[i].screen.Y)
	}

	if !fs.fill {
		return nil
	}
	r.Stats.Rasterized++

	p := &fs.payload
	clipW := [3]float64{tri[0].clipW, tri[1].clipW, tri[2].clipW}
	for i := range tri {
		p.Vertices[i] = tri[i].Vertex
		p.World[i] = tri[i].world
		p.View[i] = tri[i].view
	}

	return rasterizeTriangle(screen, r.Settings.FillRule, fs.viewport, func(x, y int, w math3d.Vec3) error {
		idx, ok := r.pixelIndex(x, y)
		if !ok {
			return nil
		}
		z := w.X*tri[0].screen.Z + w.Y*tri[1].screen.Z + w.Z*tri[2].screen.Z
		if z <= r.depth[idx] {
			return nil
		}

		p.Barycentric = perspectiveCorrect(w, clipW)
		p.X, p.Y = x, y
		c, shaded, err := r.shade(fs)
		if err != nil || !shaded {
			return err
		}

		r.depth[idx] = z
		r.writePixel(idx, ColorFromVec3(c))
		r.Stats.Fragments++
		return nil
	})
}

// shade picks the fill color of one fragment. shaded is false when the
// settings leave the pixel unwritten.
func (r *Renderer) shade(fs *frameState) (c math3d.Vec3, shaded bool, err error) {
	switch {
	case r.Settings.FragmentShading:
		c, err = fs.shader(&fs.payload)
		return c, err == nil, err
	case r.Settings.VertexColorInterp:
		c, shaded = fs.payload.Color()
		return c, shaded, nil
	}
	return math3d.Vec3{}, false, nil
}
