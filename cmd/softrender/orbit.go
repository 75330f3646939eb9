package main

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/render"
)

// RotationAxis tracks position and velocity for one rotation axis with spring decay
type RotationAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // internal spring velocity (for animating Velocity toward 0)
}

// NewRotationAxis creates an axis with harmonica spring for smooth velocity decay
func NewRotationAxis(fps int) RotationAxis {
	return RotationAxis{
		// Frequency 4.0 = moderate speed, damping 1.0 = critically damped (no overshoot)
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update applies velocity to position and decays velocity toward 0. It
// returns how far the position moved.
func (a *RotationAxis) Update() float64 {
	a.Position += a.Velocity
	moved := a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
	return moved
}

const (
	minDistance = 1.0
	maxDistance = 50.0
	// Keeps the camera off the poles, where the orbit up vector is undefined.
	maxPitch = math.Pi/2 - 0.05
)

// Orbit moves a camera around a pivot with spring-damped yaw and pitch.
type Orbit struct {
	Yaw, Pitch RotationAxis
	Pivot      math3d.Vec3
	Distance   float64

	fps       int
	home      math3d.Vec3
	homePitch float64
}

// NewOrbit captures the camera's current position as the home pose.
func NewOrbit(cam *render.Camera, pivot math3d.Vec3, fps int) *Orbit {
	o := &Orbit{
		Yaw:      NewRotationAxis(fps),
		Pitch:    NewRotationAxis(fps),
		Pivot:    pivot,
		Distance: cam.Position.Sub(pivot).Len(),
		fps:      fps,
		home:     cam.Position,
	}
	o.homePitch = o.pitchOf(cam)
	o.Pitch.Position = o.homePitch
	return o
}

func (o *Orbit) pitchOf(cam *render.Camera) float64 {
	d := cam.Position.Sub(o.Pivot).Normalize()
	return math.Asin(d.Y)
}

// ApplyImpulse adds angular velocity in radians per frame.
func (o *Orbit) ApplyImpulse(yaw, pitch float64) {
	o.Yaw.Velocity += yaw
	o.Pitch.Velocity += pitch
}

// Zoom changes the distance to the pivot by delta, within limits.
func (o *Orbit) Zoom(delta float64) {
	o.Distance = math.Min(maxDistance, math.Max(minDistance, o.Distance+delta))
}

// Reset returns the camera to its home pose and stops all motion.
func (o *Orbit) Reset(cam *render.Camera) {
	o.Yaw = NewRotationAxis(o.fps)
	o.Pitch = NewRotationAxis(o.fps)
	o.Pitch.Position = o.homePitch
	o.Distance = o.home.Sub(o.Pivot).Len()
	cam.Position = o.home
	cam.LookAt(o.Pivot, math3d.Up())
}

// Step advances the springs one frame and moves cam accordingly.
func (o *Orbit) Step(cam *render.Camera) {
	dyaw := o.Yaw.Update()
	o.Pitch.Update()
	if o.Pitch.Position > maxPitch || o.Pitch.Position < -maxPitch {
		o.Pitch.Position = math.Max(-maxPitch, math.Min(maxPitch, o.Pitch.Position))
		o.Pitch.Velocity = 0
	}

	cam.RotateAround(o.Pivot, math3d.QuatFromAxisAngle(math3d.Up(), dyaw))
	if dpitch := o.Pitch.Position - o.pitchOf(cam); dpitch != 0 {
		// Positive pitch raises the camera, which turns it about -Right.
		cam.RotateAround(o.Pivot, math3d.QuatFromAxisAngle(cam.Right(), -dpitch))
	}

	cam.Position = o.Pivot.Sub(cam.Forward().Scale(o.Distance))
}
