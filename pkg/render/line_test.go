package render

import (
	"math"
	"slices"
	"testing"

	"github.com/taigrr/softrender/pkg/math3d"
)

type pixel struct{ x, y int }

func plotLine(p0, p1 math3d.Vec2, clip Rect) []pixel {
	var out []pixel
	RasterizeLine(p0, p1, clip, func(x, y int) {
		out = append(out, pixel{x, y})
	})
	return out
}

func sortedPixels(p []pixel) []pixel {
	s := slices.Clone(p)
	slices.SortFunc(s, func(a, b pixel) int {
		if a.x != b.x {
			return a.x - b.x
		}
		return a.y - b.y
	})
	return s
}

var lineClip = Rect{Max: math3d.V2(99, 99)}

func TestRasterizeLineSymmetry(t *testing.T) {
	tests := []struct {
		name   string
		p0, p1 math3d.Vec2
	}{
		{"vertical", math3d.V2(20, 10), math3d.V2(20, 80)},
		{"horizontal", math3d.V2(10, 50), math3d.V2(90, 50)},
		{"shallow rising", math3d.V2(10, 10), math3d.V2(90, 37)},
		{"shallow falling", math3d.V2(10, 60), math3d.V2(90, 21)},
		{"steep rising", math3d.V2(10, 10), math3d.V2(60, 90)},
		{"steep falling", math3d.V2(15, 95), math3d.V2(41, 3)},
		{"diagonal rising", math3d.V2(5, 5), math3d.V2(70, 70)},
		{"diagonal falling", math3d.V2(5, 70), math3d.V2(70, 5)},
		{"single pixel", math3d.V2(33, 44), math3d.V2(33, 44)},
		{"fractional", math3d.V2(3.7, 8.2), math3d.V2(77.1, 51.9)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fwd := sortedPixels(plotLine(tc.p0, tc.p1, lineClip))
			rev := sortedPixels(plotLine(tc.p1, tc.p0, lineClip))
			if !slices.Equal(fwd, rev) {
				t.Errorf("draw(a,b) and draw(b,a) differ:\n%v\n%v", fwd, rev)
			}
			if len(fwd) == 0 {
				t.Fatal("no pixels plotted")
			}

			// One pixel per step along the major axis, endpoints included.
			x0, y0 := int(math.Floor(tc.p0.X)), int(math.Floor(tc.p0.Y))
			x1, y1 := int(math.Floor(tc.p1.X)), int(math.Floor(tc.p1.Y))
			want := max(abs(x1-x0), abs(y1-y0)) + 1
			if len(fwd) != want {
				t.Errorf("plotted %d pixels, want %d", len(fwd), want)
			}
			if !slices.Contains(fwd, pixel{x0, y0}) || !slices.Contains(fwd, pixel{x1, y1}) {
				t.Errorf("endpoints (%d,%d) and (%d,%d) missing", x0, y0, x1, y1)
			}
			assertConnected(t, fwd)
		})
	}
}

// assertConnected checks that consecutive pixels along the major axis touch.
func assertConnected(t *testing.T, px []pixel) {
	t.Helper()
	seen := make(map[pixel]bool, len(px))
	for _, p := range px {
		seen[p] = true
	}
	for _, p := range px {
		if len(px) == 1 {
			return
		}
		neighbors := 0
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				if (dx != 0 || dy != 0) && seen[pixel{p.x + dx, p.y + dy}] {
					neighbors++
				}
			}
		}
		if neighbors == 0 {
			t.Errorf("pixel %v is isolated", p)
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func TestRasterizeLineHorizontal(t *testing.T) {
	got := plotLine(math3d.V2(10, 50), math3d.V2(90, 50), lineClip)
	if len(got) != 81 {
		t.Fatalf("plotted %d pixels, want 81", len(got))
	}
	for i, p := range sortedPixels(got) {
		if p != (pixel{10 + i, 50}) {
			t.Errorf("pixel %d = %v, want (%d, 50)", i, p, 10+i)
		}
	}
}

func TestRasterizeLineSteep(t *testing.T) {
	got := plotLine(math3d.V2(10, 10), math3d.V2(60, 90), lineClip)
	slices.SortFunc(got, func(a, b pixel) int { return a.y - b.y })

	if len(got) != 81 {
		t.Fatalf("plotted %d pixels, want 81", len(got))
	}
	for i, p := range got {
		if p.y != 10+i {
			t.Errorf("pixel %d has y = %d, want %d", i, p.y, 10+i)
		}
		if i > 0 && p.x < got[i-1].x {
			t.Errorf("x decreased from %d to %d at y = %d", got[i-1].x, p.x, p.y)
		}
	}
}

func TestRasterizeLineClipping(t *testing.T) {
	t.Run("outside", func(t *testing.T) {
		if got := plotLine(math3d.V2(200, 200), math3d.V2(300, 300), lineClip); len(got) != 0 {
			t.Errorf("plotted %d pixels for a segment outside the rect", len(got))
		}
	})

	t.Run("outside both sides", func(t *testing.T) {
		// Crosses the corner region without entering the rect.
		if got := plotLine(math3d.V2(-10, 120), math3d.V2(130, 110), lineClip); len(got) != 0 {
			t.Errorf("plotted %d pixels", len(got))
		}
	})

	t.Run("straddles right edge", func(t *testing.T) {
		got := plotLine(math3d.V2(50, 20), math3d.V2(150, 20), lineClip)
		s := sortedPixels(got)
		if len(s) != 50 || s[0] != (pixel{50, 20}) || s[len(s)-1] != (pixel{99, 20}) {
			t.Errorf("got %d pixels from %v to %v, want (50,20)-(99,20)", len(s), s[0], s[len(s)-1])
		}
	})

	t.Run("crosses whole rect", func(t *testing.T) {
		got := plotLine(math3d.V2(-100, -100), math3d.V2(200, 200), lineClip)
		if len(got) != 100 {
			t.Errorf("plotted %d pixels, want 100", len(got))
		}
		for _, p := range got {
			if p.x != p.y || p.x < 0 || p.x > 99 {
				t.Errorf("unexpected pixel %v", p)
			}
		}
	})
}

func TestClipLine(t *testing.T) {
	tests := []struct {
		name   string
		p0, p1 math3d.Vec2
		ok     bool
		a, b   math3d.Vec2
	}{
		{"inside", math3d.V2(10, 10), math3d.V2(20, 30), true, math3d.V2(10, 10), math3d.V2(20, 30)},
		{"left", math3d.V2(-10, 50), math3d.V2(10, 50), true, math3d.V2(0, 50), math3d.V2(10, 50)},
		{"bottom", math3d.V2(20, -20), math3d.V2(40, 20), true, math3d.V2(30, 0), math3d.V2(40, 20)},
		{"top", math3d.V2(0, 90), math3d.V2(20, 110), true, math3d.V2(0, 90), math3d.V2(9, 99)},
		{"rejected", math3d.V2(-5, -5), math3d.V2(-1, 50), false, math3d.Vec2{}, math3d.Vec2{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, b, ok := ClipLine(tc.p0, tc.p1, lineClip)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if !ok {
				return
			}
			if a.Sub(tc.a).Len() > 1e-9 || b.Sub(tc.b).Len() > 1e-9 {
				t.Errorf("got %v-%v, want %v-%v", a, b, tc.a, tc.b)
			}
		})
	}
}

func TestFramebufferDrawLine(t *testing.T) {
	fb := NewFramebuffer(8, 4)
	red := RGB(255, 0, 0)
	fb.DrawLine(math3d.V2(-3, 1), math3d.V2(20, 1), red)

	for x := range 8 {
		if fb.GetPixel(x, 1) != red {
			t.Errorf("pixel (%d, 1) = %v, want red", x, fb.GetPixel(x, 1))
		}
		if fb.GetPixel(x, 0) == red {
			t.Errorf("pixel (%d, 0) unexpectedly red", x)
		}
	}
}

func BenchmarkRasterizeLine(b *testing.B) {
	p0, p1 := math3d.V2(3.5, 7.25), math3d.V2(310, 201)
	clip := Rect{Max: math3d.V2(319, 239)}

	for b.Loop() {
		RasterizeLine(p0, p1, clip, func(int, int) {})
	}
}
