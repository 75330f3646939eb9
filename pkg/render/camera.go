package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/softrender/pkg/math3d"
)

// ErrInvalidFrustum is returned when projection parameters describe no volume.
var ErrInvalidFrustum = errors.New("invalid frustum")

// Frustum holds the projection parameters of a camera.
type Frustum struct {
	FOV    float64 // Vertical field of view in radians
	Aspect float64 // Width / Height
	Near   float64 // Distance to the near plane, > 0
	Far    float64 // Distance to the far plane, > Near
}

// NewFrustum validates and returns projection parameters.
func NewFrustum(fov, aspect, near, far float64) (Frustum, error) {
	switch {
	case !(near > 0) || !(far > 0):
		return Frustum{}, fmt.Errorf("%w: near %v and far %v must be positive", ErrInvalidFrustum, near, far)
	case near >= far:
		return Frustum{}, fmt.Errorf("%w: near %v must be less than far %v", ErrInvalidFrustum, near, far)
	case !(aspect > 0):
		return Frustum{}, fmt.Errorf("%w: aspect %v must be positive", ErrInvalidFrustum, aspect)
	case !(fov > 0) || fov >= math.Pi:
		return Frustum{}, fmt.Errorf("%w: fov %v must be in (0, π)", ErrInvalidFrustum, fov)
	}
	return Frustum{FOV: fov, Aspect: aspect, Near: near, Far: far}, nil
}

// nearSize returns the width and height of the near plane.
func (f Frustum) nearSize() (w, h float64) {
	h = 2 * math.Tan(f.FOV/2) * f.Near
	return f.Aspect * h, h
}

// orthoBox maps the view-space box bounded by the near plane rectangle and
// z in [-far, -near] onto [-1, 1]³, with the near plane at z = +1.
func (f Frustum) orthoBox() math3d.Mat4 {
	n, far := -f.Near, -f.Far
	w, h := f.nearSize()

	center := math3d.Translate(math3d.V3(0, 0, -(n+far)/2))
	scale := math3d.Scale(math3d.V3(2/w, 2/h, 2/(n-far)))
	return scale.Mul(center)
}

// Perspective returns the perspective projection matrix. The clip-space w of
// a projected point equals its view-space z, which is negative in front of
// the camera.
func (f Frustum) Perspective() math3d.Mat4 {
	n, far := -f.Near, -f.Far

	// Squeezes the frustum into the box spanned by the near plane.
	squeeze := math3d.Mat4{
		n, 0, 0, 0,
		0, n, 0, 0,
		0, 0, n + far, 1,
		0, 0, -n * far, 0,
	}
	return f.orthoBox().Mul(squeeze)
}

// Orthographic returns the orthographic projection over the near-plane rectangle.
func (f Frustum) Orthographic() math3d.Mat4 {
	return f.orthoBox()
}

// Camera is a positioned, oriented viewer. With identity rotation it looks
// down -Z with +Y up.
type Camera struct {
	Frustum  Frustum
	Position math3d.Vec3
	Rotation math3d.Quat
}

// NewCamera creates a camera at the origin with identity rotation.
func NewCamera(f Frustum) *Camera {
	return &Camera{
		Frustum:  f,
		Rotation: math3d.QuatIdentity(),
	}
}

// ViewMatrix returns the world-to-view transform.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	rot := c.Rotation.Inverse().ToMat4()
	return rot.Mul(math3d.Translate(c.Position.Negate()))
}

// ProjectionMatrix returns the projection for the given mode.
func (c *Camera) ProjectionMatrix(p Projection) math3d.Mat4 {
	if p == Orthographic {
		return c.Frustum.Orthographic()
	}
	return c.Frustum.Perspective()
}

// LookAt orients the camera toward target.
func (c *Camera) LookAt(target, up math3d.Vec3) {
	c.LookTo(target.Sub(c.Position), up)
}

// LookTo orients the camera along direction. up only needs to be roughly
// perpendicular; a direction parallel to up has no defined orientation and
// panics with a *math3d.DegenerateError.
func (c *Camera) LookTo(direction, up math3d.Vec3) {
	back := direction.Normalize().Negate()
	right := up.Cross(back).Normalize()
	up = back.Cross(right)
	c.Rotation = math3d.QuatFromMat3(math3d.Mat3FromCols(right, up, back))
}

// RotateAround orbits the camera around pivot by q. The camera turns with
// the orbit, so a camera looking at pivot keeps looking at it.
func (c *Camera) RotateAround(pivot math3d.Vec3, q math3d.Quat) {
	c.Position = pivot.Add(q.Rotate(c.Position.Sub(pivot)))
	c.Rotation = q.Mul(c.Rotation).Normalize()
}

// Forward returns the world-space viewing direction.
func (c *Camera) Forward() math3d.Vec3 {
	return c.Rotation.Rotate(math3d.Forward())
}

// Right returns the world-space right direction.
func (c *Camera) Right() math3d.Vec3 {
	return c.Rotation.Rotate(math3d.V3(1, 0, 0))
}

// Up returns the world-space up direction.
func (c *Camera) Up() math3d.Vec3 {
	return c.Rotation.Rotate(math3d.Up())
}

// ViewVolume returns the world-space planes bounding what the camera sees.
func (c *Camera) ViewVolume(p Projection) ViewVolume {
	m := c.ProjectionMatrix(p).Mul(c.ViewMatrix())
	if p == Perspective {
		// Visible points have negative w; flipping the sign gives the same
		// NDC with w > 0, which plane extraction expects.
		m = m.MulScalar(-1)
	}
	return NewViewVolume(m)
}
