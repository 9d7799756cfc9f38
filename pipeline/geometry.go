package pipeline

import (
	emucore "github.com/user-none/framepipe/api"
	"github.com/user-none/framepipe/gpu"
)

// Vertex ranges inside the shared vertex buffer.
const (
	backgroundFirst = 0
	backgroundCount = 6

	cubeFirst = 6
	// The front face alone is drawn at rest. While the camera moves the
	// four side faces around the Y axis are drawn too.
	cubeFrontCount = 6
	cubeSideCount  = 24

	flatFirst = 42
	flatCount = 6

	vertexCount = 48
)

// Scene extents.
const (
	backgroundX = 6.4
	backgroundY = 4.8
	backgroundZ = 6.8

	cubeX = 0.64
	cubeY = 0.48
	cubeZ = 0.64
)

// buildVertices lays out the background quad, the six cube faces and the
// flat quad. Emulator faces map the visible area r of the source texture;
// the background maps its whole texture.
func buildVertices(r emucore.TextureRect) []gpu.Vertex {
	// Texture rows grow downwards, so the lower screen edge samples the
	// larger texture y.
	ul := [2]float32{r.X1, r.Y2}
	ur := [2]float32{r.X2, r.Y2}
	ll := [2]float32{r.X1, r.Y1}
	lr := [2]float32{r.X2, r.Y1}

	v := func(x, y, z float32, uv [2]float32) gpu.Vertex {
		return gpu.Vertex{Position: [4]float32{x, y, z, 1}, TexCoord: uv}
	}

	const (
		bx, by, bz = backgroundX, backgroundY, backgroundZ
		dx, dy, dz = cubeX, cubeY, cubeZ
	)

	vs := make([]gpu.Vertex, 0, vertexCount)
	vs = append(vs,
		// Background
		v(-bx, +by, bz, [2]float32{0, 0}),
		v(-bx, -by, bz, [2]float32{0, 1}),
		v(+bx, -by, bz, [2]float32{1, 1}),
		v(-bx, +by, bz, [2]float32{0, 0}),
		v(+bx, +by, bz, [2]float32{1, 0}),
		v(+bx, -by, bz, [2]float32{1, 1}),

		// Front (-Z)
		v(-dx, +dy, -dz, ll),
		v(-dx, -dy, -dz, ul),
		v(+dx, -dy, -dz, ur),
		v(-dx, +dy, -dz, ll),
		v(+dx, +dy, -dz, lr),
		v(+dx, -dy, -dz, ur),

		// Back (+Z)
		v(-dx, +dy, +dz, lr),
		v(-dx, -dy, +dz, ur),
		v(+dx, -dy, +dz, ul),
		v(-dx, +dy, +dz, lr),
		v(+dx, +dy, +dz, ll),
		v(+dx, -dy, +dz, ul),

		// Left (-X)
		v(-dx, +dy, -dz, lr),
		v(-dx, -dy, -dz, ur),
		v(-dx, -dy, +dz, ul),
		v(-dx, +dy, -dz, lr),
		v(-dx, +dy, +dz, ll),
		v(-dx, -dy, +dz, ul),

		// Right (+X)
		v(+dx, +dy, -dz, ll),
		v(+dx, -dy, -dz, ul),
		v(+dx, -dy, +dz, ur),
		v(+dx, +dy, -dz, ll),
		v(+dx, +dy, +dz, lr),
		v(+dx, -dy, +dz, ur),

		// Bottom (-Y)
		v(+dx, -dy, -dz, ll),
		v(-dx, -dy, -dz, ul),
		v(-dx, -dy, +dz, ur),
		v(+dx, -dy, -dz, ll),
		v(+dx, -dy, +dz, lr),
		v(-dx, -dy, +dz, ur),

		// Top (+Y)
		v(+dx, +dy, -dz, ll),
		v(-dx, +dy, -dz, ul),
		v(-dx, +dy, +dz, ur),
		v(+dx, +dy, -dz, ll),
		v(-dx, +dy, +dz, ur),
		v(+dx, +dy, +dz, lr),

		// Flat quad
		v(-1, +1, 0, ll),
		v(-1, -1, 0, ul),
		v(+1, -1, 0, ur),
		v(-1, +1, 0, ll),
		v(+1, +1, 0, lr),
		v(+1, -1, 0, ur),
	)
	return vs
}
