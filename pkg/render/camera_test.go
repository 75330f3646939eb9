package render

import (
	"errors"
	"math"
	"testing"

	"github.com/taigrr/softrender/pkg/math3d"
)

func vecNear(a, b math3d.Vec3, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

func TestNewFrustumValidation(t *testing.T) {
	tests := []struct {
		name                   string
		fov, aspect, near, far float64
		wantErr                bool
	}{
		{"valid", math.Pi / 3, 1.5, 0.1, 100, false},
		{"zero near", math.Pi / 3, 1.5, 0, 100, true},
		{"negative far", math.Pi / 3, 1.5, 1, -10, true},
		{"near equals far", math.Pi / 3, 1.5, 10, 10, true},
		{"near beyond far", math.Pi / 3, 1.5, 20, 10, true},
		{"zero aspect", math.Pi / 3, 0, 1, 10, true},
		{"fov too wide", math.Pi, 1, 1, 10, true},
		{"nan near", math.Pi / 3, 1, math.NaN(), 10, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFrustum(tc.fov, tc.aspect, tc.near, tc.far)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidFrustum) {
				t.Errorf("err = %v, want ErrInvalidFrustum", err)
			}
		})
	}
}

func TestProjectionNearFarRoundTrip(t *testing.T) {
	f, err := NewFrustum(math.Pi/3, 4.0/3.0, 5, 1000)
	if err != nil {
		t.Fatal(err)
	}

	for _, proj := range []struct {
		name string
		m    math3d.Mat4
	}{
		{"perspective", f.Perspective()},
		{"orthographic", f.Orthographic()},
	} {
		t.Run(proj.name, func(t *testing.T) {
			near := proj.m.MulVec4(math3d.Point(math3d.V3(0, 0, -f.Near))).ToPoint()
			far := proj.m.MulVec4(math3d.Point(math3d.V3(0, 0, -f.Far))).ToPoint()
			if math.Abs(near.Z-1) > 1e-9 {
				t.Errorf("near plane z_ndc = %v, want 1", near.Z)
			}
			if math.Abs(far.Z+1) > 1e-9 {
				t.Errorf("far plane z_ndc = %v, want -1", far.Z)
			}
		})
	}
}

func TestPerspectiveNearCorner(t *testing.T) {
	f, _ := NewFrustum(math.Pi/2, 2, 1, 10)
	// tan(45°) = 1, so the near plane spans x in [-2, 2], y in [-1, 1].
	clip := f.Perspective().MulVec4(math3d.Point(math3d.V3(2, -1, -1)))
	if clip.W >= 0 {
		t.Errorf("w = %v, want negative in front of the camera", clip.W)
	}
	ndc := clip.ToPoint()
	if !vecNear(ndc, math3d.V3(1, -1, 1), 1e-9) {
		t.Errorf("corner ndc = %v, want (1, -1, 1)", ndc)
	}

	// Points further away shrink toward the center.
	mid := f.Perspective().MulVec4(math3d.Point(math3d.V3(2, 0, -4))).ToPoint()
	if math.Abs(mid.X-0.25) > 1e-9 {
		t.Errorf("x_ndc at depth 4 = %v, want 0.25", mid.X)
	}
}

func TestCameraLookAt(t *testing.T) {
	cam := mustCamera(t, math.Pi/3, 1, 1, 100)
	cam.Position = math3d.V3(2, 3, 4)
	cam.LookAt(math3d.V3(0, 0, 0), math3d.Up())

	wantForward := math3d.V3(-2, -3, -4).Normalize()
	if !vecNear(cam.Forward(), wantForward, 1e-9) {
		t.Errorf("forward = %v, want %v", cam.Forward(), wantForward)
	}
	if math.Abs(cam.Right().Y) > 1e-9 {
		t.Errorf("right = %v, want horizontal", cam.Right())
	}
	if cam.Up().Y <= 0 {
		t.Errorf("up = %v, want positive Y", cam.Up())
	}

	// The target lands on the view axis at its distance.
	dist := math3d.V3(2, 3, 4).Len()
	got := cam.ViewMatrix().MulVec4(math3d.Point(math3d.V3(0, 0, 0))).ToPoint()
	if !vecNear(got, math3d.V3(0, 0, -dist), 1e-9) {
		t.Errorf("target in view space = %v, want (0, 0, %v)", got, -dist)
	}
}

func TestCameraLookToParallelUpPanics(t *testing.T) {
	cam := mustCamera(t, math.Pi/3, 1, 1, 100)
	defer func() {
		if _, ok := recover().(*math3d.DegenerateError); !ok {
			t.Error("expected *math3d.DegenerateError panic")
		}
	}()
	cam.LookTo(math3d.V3(0, 5, 0), math3d.Up())
}

func TestCameraRotateAround(t *testing.T) {
	cam := mustCamera(t, math.Pi/3, 1, 1, 100)
	cam.Position = math3d.V3(0, 0, 10)
	pivot := math3d.V3(0, 0, 0)
	cam.LookAt(pivot, math3d.Up())

	cam.RotateAround(pivot, math3d.QuatFromAxisAngle(math3d.Up(), math.Pi/2))

	if !vecNear(cam.Position, math3d.V3(10, 0, 0), 1e-9) {
		t.Errorf("position = %v, want (10, 0, 0)", cam.Position)
	}
	if !vecNear(cam.Forward(), math3d.V3(-1, 0, 0), 1e-9) {
		t.Errorf("forward = %v, want (-1, 0, 0)", cam.Forward())
	}
	if !cam.Rotation.IsNormalized() {
		t.Errorf("rotation %v not normalized", cam.Rotation)
	}
}
