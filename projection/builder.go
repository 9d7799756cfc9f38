package projection

import "github.com/user-none/framepipe/camera"

// Camera constants.
const (
	FovY       = 65 // degrees
	Near       = 0.1
	Far        = 100
	ScreenDist = 1.39 // distance from the eye to the cube center at rest
)

// Builder holds the three matrices for the current viewport size.
type Builder struct {
	width, height int

	proj Mat4
	bg   Mat4
	flat Mat4
	cube Mat4
}

// NewBuilder returns a builder for a 1x1 viewport with the cube at rest.
func NewBuilder() *Builder {
	b := &Builder{}
	b.Reshape(1, 1, camera.State{Alpha: 1}, false)
	return b
}

// Reshape rebuilds all matrices for a viewport of width x height.
func (b *Builder) Reshape(width, height int, s camera.State, animating bool) {
	b.width, b.height = width, height

	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	b.proj = Perspective(Radians(FovY), aspect, Near, Far)
	b.bg = b.proj.Mul(Identity()).Mul(Identity())
	b.flat = Identity()
	b.UpdateCube(s, animating)
}

// UpdateCube rebuilds the cube matrix from the camera state. Rotations
// only apply while animating: at rest the front face is shown straight
// on whichever face the angles point at.
func (b *Builder) UpdateCube(s camera.State, animating bool) {
	model := Translation(-s.EyeX, -s.EyeY, s.EyeZ+ScreenDist)
	if animating {
		model = model.
			Mul(Rotation(-Radians(s.AngleX), 0.5, 0, 0)).
			Mul(Rotation(Radians(s.AngleY), 0, 0.5, 0)).
			Mul(Rotation(Radians(s.AngleZ), 0, 0, 0.5))
	}
	b.cube = b.proj.Mul(Identity()).Mul(model)
}

// Size returns the viewport size of the last Reshape.
func (b *Builder) Size() (int, int) { return b.width, b.height }

// Background returns the background matrix.
func (b *Builder) Background() Mat4 { return b.bg }

// Flat returns the matrix of the full-viewport 2D quad.
func (b *Builder) Flat() Mat4 { return b.flat }

// Cube returns the screen cube matrix.
func (b *Builder) Cube() Mat4 { return b.cube }
