// Package camera animates the virtual camera that looks at the emulator
// screen: three rotation angles, the eye position and the screen alpha.
package camera

// Step counts of the presets.
const (
	LongTransition  = 120
	ShortTransition = 60
)

// State is a snapshot of the seven animated scalars. Angles are in
// degrees.
type State struct {
	AngleX, AngleY, AngleZ float32
	EyeX, EyeY, EyeZ       float32
	Alpha                  float32
}

type scalar struct {
	cur, tgt, delta float32
}

func (s *scalar) set(v float32) {
	s.cur, s.tgt, s.delta = v, v, 0
}

func (s *scalar) plan(steps int) {
	s.delta = (s.tgt - s.cur) / float32(steps)
}

// step moves cur by delta, snapping to the target once it is closer than
// one step.
func (s *scalar) step() {
	if abs(s.cur-s.tgt) < abs(s.delta) {
		s.cur = s.tgt
		return
	}
	s.cur += s.delta
}

// stepLinear is step for scalars that never wrap: a move that would pass
// the target ends on it.
func (s *scalar) stepLinear() {
	before := s.tgt - s.cur
	s.step()
	if before*(s.tgt-s.cur) < 0 {
		s.cur = s.tgt
	}
}

// Animator owns the camera state. It is not safe for concurrent use; the
// draw loop owns it.
type Animator struct {
	angleX, angleY, angleZ scalar
	eyeX, eyeY, eyeZ       scalar
	alpha                  scalar

	remaining int
}

// New returns an animator at rest: no rotation, eye at the origin, fully
// opaque.
func New() *Animator {
	a := &Animator{}
	a.alpha.set(1)
	return a
}

func (a *Animator) scalars() [7]*scalar {
	return [7]*scalar{&a.angleX, &a.angleY, &a.angleZ, &a.eyeX, &a.eyeY, &a.eyeZ, &a.alpha}
}

// Animating reports whether any scalar differs from its target.
func (a *Animator) Animating() bool {
	for _, s := range a.scalars() {
		if s.cur != s.tgt {
			return true
		}
	}
	return false
}

// Current returns the current values.
func (a *Animator) Current() State {
	return State{
		AngleX: a.angleX.cur, AngleY: a.angleY.cur, AngleZ: a.angleZ.cur,
		EyeX: a.eyeX.cur, EyeY: a.eyeY.cur, EyeZ: a.eyeZ.cur,
		Alpha: a.alpha.cur,
	}
}

// Target returns the target values.
func (a *Animator) Target() State {
	return State{
		AngleX: a.angleX.tgt, AngleY: a.angleY.tgt, AngleZ: a.angleZ.tgt,
		EyeX: a.eyeX.tgt, EyeY: a.eyeY.tgt, EyeZ: a.eyeZ.tgt,
		Alpha: a.alpha.tgt,
	}
}

// Tick advances the animation by one frame. Angles are wrapped into
// [0, 360) after stepping. Once the step count of the last preset has
// elapsed every scalar sits exactly on its target.
func (a *Animator) Tick() {
	if !a.Animating() {
		a.remaining = 0
		return
	}

	for _, s := range [3]*scalar{&a.angleX, &a.angleY, &a.angleZ} {
		s.step()
		s.cur = wrap(s.cur)
	}
	for _, s := range [4]*scalar{&a.eyeX, &a.eyeY, &a.eyeZ, &a.alpha} {
		s.stepLinear()
	}

	if a.remaining > 0 {
		a.remaining--
		if a.remaining == 0 {
			for _, s := range a.scalars() {
				s.cur = s.tgt
			}
		}
	}
}

func (a *Animator) plan(steps int) {
	for _, s := range a.scalars() {
		s.plan(steps)
	}
	a.remaining = steps
}

func (a *Animator) targetAnglesZero() {
	a.angleX.tgt = 0
	a.angleY.tgt = 0
	a.angleZ.tgt = 0
}

// SetEye moves the eye without animation.
func (a *Animator) SetEye(x, y, z float32) {
	a.eyeX.set(x)
	a.eyeY.set(y)
	a.eyeZ.set(z)
}

// SetAngles rotates the camera without animation. Angles are wrapped into
// [0, 360).
func (a *Animator) SetAngles(x, y, z float32) {
	a.angleX.set(wrap(x))
	a.angleY.set(wrap(y))
	a.angleZ.set(wrap(z))
}

// Zoom moves the eye back to depth 6 while straightening the camera.
func (a *Animator) Zoom() {
	a.eyeZ.tgt = 6
	a.targetAnglesZero()
	a.plan(LongTransition)
}

// Rotate turns the screen a quarter turn to the left.
func (a *Animator) Rotate() {
	a.angleX.tgt = 0
	a.angleY.tgt -= 90
	a.angleZ.tgt = 0
	a.plan(ShortTransition)
	if a.angleY.tgt < 0 {
		a.angleY.tgt += 360
	}
}

// RotateBack turns the screen a quarter turn to the right.
func (a *Animator) RotateBack() {
	a.angleX.tgt = 0
	a.angleY.tgt += 90
	a.angleZ.tgt = 0
	a.plan(ShortTransition)
	if a.angleY.tgt >= 360 {
		a.angleY.tgt -= 360
	}
}

// Scroll lowers the eye while straightening the camera.
func (a *Animator) Scroll() {
	a.eyeY.tgt = -1.5
	a.targetAnglesZero()
	a.plan(LongTransition)
}

// FadeIn starts tilted a quarter turn and pulled back, then settles into
// the rest position.
func (a *Animator) FadeIn() {
	a.angleX.cur = -90
	a.eyeY.cur = 4.5
	a.eyeZ.cur = 5
	a.targetAnglesZero()
	a.eyeX.tgt, a.eyeY.tgt, a.eyeZ.tgt = 0, 0, 0
	a.plan(LongTransition)
}

// BlendIn fades the screen from transparent to opaque.
func (a *Animator) BlendIn() {
	a.alpha.cur = 0
	a.alpha.tgt = 1
	a.targetAnglesZero()
	a.plan(LongTransition)
}

// wrap brings an angle that left [0, 360) by at most one turn back into
// range. A tiny negative value can round up to 360 in float32; it maps
// to 0.
func wrap(v float32) float32 {
	if v >= 360 {
		v -= 360
	} else if v < 0 {
		v += 360
		if v >= 360 {
			v = 0
		}
	}
	return v
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
