// Package projection builds the model-view-projection matrices used to
// draw the background, the flat 2D quad and the animated screen cube.
package projection

import "math"

// Mat4 is a 4x4 matrix in row-major order. It transforms column vectors:
// v' = M * v.
type Mat4 [16]float32

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns a * b.
func (a Mat4) Mul(b Mat4) Mat4 {
	var r Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[row*4+k] * b[k*4+col]
			}
			r[row*4+col] = sum
		}
	}
	return r
}

// MulVec returns m * v.
func (m Mat4) MulVec(v [4]float32) [4]float32 {
	var r [4]float32
	for row := 0; row < 4; row++ {
		r[row] = m[row*4]*v[0] + m[row*4+1]*v[1] + m[row*4+2]*v[2] + m[row*4+3]*v[3]
	}
	return r
}

// Translation returns a matrix translating by (x, y, z).
func Translation(x, y, z float32) Mat4 {
	return Mat4{
		1, 0, 0, x,
		0, 1, 0, y,
		0, 0, 1, z,
		0, 0, 0, 1,
	}
}

// Perspective returns a left-handed perspective projection mapping view
// depth [near, far] to clip depth [0, 1]. fovY is in radians.
func Perspective(fovY, aspect, near, far float32) Mat4 {
	ys := float32(1 / math.Tan(float64(fovY)/2))
	xs := ys / aspect
	q := far / (far - near)
	return Mat4{
		xs, 0, 0, 0,
		0, ys, 0, 0,
		0, 0, q, -q * near,
		0, 0, 1, 0,
	}
}

// Rotation returns a rotation by radians about the axis (x, y, z). The
// axis does not need to be normalized.
func Rotation(radians, x, y, z float32) Mat4 {
	l := float32(math.Sqrt(float64(x*x + y*y + z*z)))
	if l == 0 {
		return Identity()
	}
	x, y, z = x/l, y/l, z/l

	c := float32(math.Cos(float64(radians)))
	s := float32(math.Sin(float64(radians)))
	cp := 1 - c

	return Mat4{
		c + cp*x*x, cp*x*y - z*s, cp*x*z + y*s, 0,
		cp*x*y + z*s, c + cp*y*y, cp*y*z - x*s, 0,
		cp*x*z - y*s, cp*y*z + x*s, c + cp*z*z, 0,
		0, 0, 0, 1,
	}
}

// Radians converts degrees to radians.
func Radians(degrees float32) float32 {
	return degrees / 180 * math.Pi
}
