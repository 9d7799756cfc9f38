package camera

import "testing"

func inAngleRange(s State) bool {
	for _, v := range []float32{s.AngleX, s.AngleY, s.AngleZ} {
		if v < 0 || v >= 360 {
			return false
		}
	}
	return true
}

func between(v, a, b float32) bool {
	if a > b {
		a, b = b, a
	}
	return v >= a && v <= b
}

func TestPresetsConverge(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(a *Animator)
		preset func(a *Animator)
		steps  int
	}{
		{"zoom", nil, (*Animator).Zoom, LongTransition},
		{"scroll", nil, (*Animator).Scroll, LongTransition},
		{"fade in", nil, (*Animator).FadeIn, LongTransition},
		{"blend in", nil, (*Animator).BlendIn, LongTransition},
		{"rotate", nil, (*Animator).Rotate, ShortTransition},
		{"rotate back", nil, (*Animator).RotateBack, ShortTransition},
		{"rotate back across 360", func(a *Animator) { a.SetAngles(0, 270, 0) }, (*Animator).RotateBack, ShortTransition},
		{"zoom after fade in", (*Animator).FadeIn, (*Animator).Zoom, LongTransition},
		{"blend in while rotated", func(a *Animator) { a.SetAngles(10, 200, 350) }, (*Animator).BlendIn, LongTransition},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := New()
			if tc.setup != nil {
				tc.setup(a)
			}
			tc.preset(a)
			start := a.Current()
			target := a.Target()

			if !a.Animating() {
				t.Fatal("preset did not start an animation")
			}

			for i := 0; i < tc.steps; i++ {
				a.Tick()
				cur := a.Current()
				if !inAngleRange(cur) {
					t.Fatalf("tick %d: angles out of range: %+v", i+1, cur)
				}
				if !between(cur.EyeX, start.EyeX, target.EyeX) ||
					!between(cur.EyeY, start.EyeY, target.EyeY) ||
					!between(cur.EyeZ, start.EyeZ, target.EyeZ) ||
					!between(cur.Alpha, start.Alpha, target.Alpha) {
					t.Fatalf("tick %d: overshoot: %+v (start %+v, target %+v)", i+1, cur, start, target)
				}
				if i < tc.steps-1 && !a.Animating() && start != target {
					// Only allowed if every scalar already snapped.
					if cur != target {
						t.Fatalf("tick %d: stopped animating away from target", i+1)
					}
				}
			}

			if got := a.Current(); got != target {
				t.Errorf("after %d ticks current = %+v, want %+v", tc.steps, got, target)
			}
			if a.Animating() {
				t.Error("still animating after the preset's step count")
			}
		})
	}
}

func TestZoomReachesEyeDepthSix(t *testing.T) {
	a := New()
	a.Zoom()
	for i := 0; i < 120; i++ {
		a.Tick()
	}
	if got := a.Current().EyeZ; got != 6 {
		t.Errorf("eye z after zoom = %v, want 6", got)
	}
}

func TestRotateWrapsTarget(t *testing.T) {
	tests := []struct {
		name  string
		start float32
		want  float32
	}{
		{"from 350", 350, 260},
		{"from 0", 0, 270},
		{"from 90", 90, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := New()
			a.SetAngles(0, tc.start, 0)
			a.Rotate()
			if got := a.Target().AngleY; got != tc.want {
				t.Fatalf("target yaw = %v, want %v", got, tc.want)
			}
			for i := 0; i < ShortTransition; i++ {
				a.Tick()
			}
			if got := a.Current().AngleY; got != tc.want {
				t.Errorf("yaw after rotate = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRotateBackWrapsTarget(t *testing.T) {
	a := New()
	a.SetAngles(0, 300, 0)
	a.RotateBack()
	if got := a.Target().AngleY; got != 30 {
		t.Errorf("target yaw = %v, want 30", got)
	}
}

func TestRotateMovesThroughZero(t *testing.T) {
	a := New()
	a.Rotate()
	a.Tick()
	// The first step of a left turn from 0 wraps to just below 360.
	if got := a.Current().AngleY; got != 358.5 {
		t.Errorf("yaw after one tick = %v, want 358.5", got)
	}
}

func TestReissueMidTransition(t *testing.T) {
	a := New()
	a.Rotate()
	for i := 0; i < 20; i++ {
		a.Tick()
	}
	mid := a.Current().AngleY
	a.Rotate()
	if got := a.Target().AngleY; got != 180 {
		t.Fatalf("target yaw after second rotate = %v, want 180", got)
	}
	a.Tick()
	if got := a.Current().AngleY; got >= mid {
		t.Errorf("yaw did not keep turning left: %v -> %v", mid, got)
	}
	for i := 0; i < ShortTransition; i++ {
		a.Tick()
	}
	if got := a.Current().AngleY; got != 180 {
		t.Errorf("yaw = %v, want 180", got)
	}
}

func TestTickAtRest(t *testing.T) {
	a := New()
	before := a.Current()
	a.Tick()
	if a.Animating() || a.Current() != before {
		t.Errorf("Tick at rest changed state: %+v -> %+v", before, a.Current())
	}
	if before.Alpha != 1 {
		t.Errorf("rest alpha = %v, want 1", before.Alpha)
	}
}

func TestSetEyeDoesNotAnimate(t *testing.T) {
	a := New()
	a.SetEye(1, 2, 3)
	if a.Animating() {
		t.Error("SetEye started an animation")
	}
	if s := a.Current(); s.EyeX != 1 || s.EyeY != 2 || s.EyeZ != 3 {
		t.Errorf("eye = %v %v %v", s.EyeX, s.EyeY, s.EyeZ)
	}
}

func TestStepSnap(t *testing.T) {
	tests := []struct {
		name string
		s    scalar
		want float32
	}{
		{"within one step snaps", scalar{cur: 5.99, tgt: 6, delta: 0.05}, 6},
		{"exactly one step lands", scalar{cur: 5.5, tgt: 6, delta: 0.5}, 6},
		{"far moves by delta", scalar{cur: 0, tgt: 6, delta: 0.5}, 0.5},
		{"negative delta", scalar{cur: 1, tgt: 0, delta: -0.25}, 0.75},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := tc.s
			s.step()
			if s.cur != tc.want {
				t.Errorf("step() cur = %v, want %v", s.cur, tc.want)
			}
		})
	}
}
