package ebitengpu

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/framepipe/gpu"
)

// subdivisions is the number of times every triangle is split in four
// before projection. ebiten interpolates texture coordinates linearly in
// screen space, so smaller triangles hide the missing perspective
// correction on the rotating cube.
const subdivisions = 3

type encoder struct {
	stream     *stream
	color      *texture
	clearColor [4]float32

	vb       *vertexBuffer
	uniforms gpu.Uniforms
	tex      *texture
	sampler  gpu.SamplerMode
	draws    []drawCall
	ended    bool
}

type drawCall struct {
	vertices []gpu.Vertex
	uniforms gpu.Uniforms
	tex      *texture
	sampler  gpu.SamplerMode
}

func (e *encoder) SetVertexBuffer(vb gpu.VertexBuffer) {
	v, ok := vb.(*vertexBuffer)
	if !ok {
		e.stream.fail(fmt.Errorf("render pass: foreign vertex buffer"))
		return
	}
	e.vb = v
}

func (e *encoder) SetUniforms(u gpu.Uniforms) { e.uniforms = u }

func (e *encoder) SetTexture(t gpu.Texture) {
	et, ok := t.(*texture)
	if !ok || et.img == nil {
		e.stream.fail(fmt.Errorf("render pass: invalid fragment texture"))
		return
	}
	e.tex = et
}

func (e *encoder) SetSampler(m gpu.SamplerMode) { e.sampler = m }

func (e *encoder) Draw(first, count int) {
	if e.ended {
		e.stream.fail(fmt.Errorf("draw after End"))
		return
	}
	if e.vb == nil || e.tex == nil {
		e.stream.fail(fmt.Errorf("draw without vertex buffer or texture"))
		return
	}
	if first < 0 || count < 0 || first+count > len(e.vb.vertices) {
		e.stream.fail(fmt.Errorf("draw [%d,+%d) of %d vertices: %w",
			first, count, len(e.vb.vertices), gpu.ErrOutOfBounds))
		return
	}
	e.draws = append(e.draws, drawCall{
		vertices: e.vb.vertices[first : first+count],
		uniforms: e.uniforms,
		tex:      e.tex,
		sampler:  e.sampler,
	})
}

func (e *encoder) End() {
	if e.ended {
		return
	}
	e.ended = true
	e.stream.open = false

	target, cc, draws := e.color, e.clearColor, e.draws
	e.stream.ops = append(e.stream.ops, func() {
		target.img.Fill(color.RGBA{
			R: toByte(cc[0] * cc[3]),
			G: toByte(cc[1] * cc[3]),
			B: toByte(cc[2] * cc[3]),
			A: toByte(cc[3]),
		})
		drawSorted(target, draws)
	})
}

// projected is a triangle in screen space.
type projected struct {
	v     [3]ebiten.Vertex
	depth float32
	call  int
}

// project transforms one triangle to screen space. It reports false if
// any vertex lies behind the eye or the whole triangle is outside the
// depth range.
func project(mvp *[16]float32, tri [3]gpu.Vertex, width, height, texW, texH float32) ([3]ebiten.Vertex, float32, bool) {
	var out [3]ebiten.Vertex
	var depth float32
	inside := false
	for j, v := range tri {
		var c [4]float32
		for r := 0; r < 4; r++ {
			c[r] = mvp[r*4]*v.Position[0] + mvp[r*4+1]*v.Position[1] + mvp[r*4+2]*v.Position[2] + mvp[r*4+3]*v.Position[3]
		}
		if c[3] <= 1e-6 {
			return out, 0, false
		}
		z := c[2] / c[3]
		if z >= 0 && z <= 1 {
			inside = true
		}
		depth += z / 3
		out[j] = ebiten.Vertex{
			DstX: (c[0]/c[3]*0.5 + 0.5) * width,
			DstY: (0.5 - c[1]/c[3]*0.5) * height,
			SrcX: v.TexCoord[0] * texW,
			SrcY: v.TexCoord[1] * texH,
		}
	}
	return out, depth, inside
}

// subdivide splits tri into 4^levels triangles with interpolated
// positions and texture coordinates.
func subdivide(tri [3]gpu.Vertex, levels int) [][3]gpu.Vertex {
	out := [][3]gpu.Vertex{tri}
	for l := 0; l < levels; l++ {
		next := make([][3]gpu.Vertex, 0, len(out)*4)
		for _, t := range out {
			ab := midpoint(t[0], t[1])
			bc := midpoint(t[1], t[2])
			ca := midpoint(t[2], t[0])
			next = append(next,
				[3]gpu.Vertex{t[0], ab, ca},
				[3]gpu.Vertex{ab, t[1], bc},
				[3]gpu.Vertex{ca, bc, t[2]},
				[3]gpu.Vertex{ab, bc, ca},
			)
		}
		out = next
	}
	return out
}

func midpoint(a, b gpu.Vertex) gpu.Vertex {
	var m gpu.Vertex
	for i := range m.Position {
		m.Position[i] = (a.Position[i] + b.Position[i]) / 2
	}
	for i := range m.TexCoord {
		m.TexCoord[i] = (a.TexCoord[i] + b.TexCoord[i]) / 2
	}
	return m
}

// sortBackToFront orders triangles by decreasing depth. Ties keep draw
// order.
func sortBackToFront(tris []projected) {
	sort.SliceStable(tris, func(i, j int) bool {
		return tris[i].depth > tris[j].depth
	})
}

func drawSorted(target *texture, draws []drawCall) {
	w := float32(target.desc.Width)
	h := float32(target.desc.Height)

	var tris []projected
	for ci, dc := range draws {
		texW := float32(dc.tex.desc.Width)
		texH := float32(dc.tex.desc.Height)
		for i := 0; i+2 < len(dc.vertices); i += 3 {
			tri := [3]gpu.Vertex{dc.vertices[i], dc.vertices[i+1], dc.vertices[i+2]}
			for _, st := range subdivide(tri, subdivisions) {
				v, depth, ok := project(&dc.uniforms.MVP, st, w, h, texW, texH)
				if ok {
					tris = append(tris, projected{v: v, depth: depth, call: ci})
				}
			}
		}
	}
	sortBackToFront(tris)

	// Consecutive triangles of the same draw call share one DrawTriangles.
	var vertices []ebiten.Vertex
	var indices []uint16
	flush := func(call int) {
		if len(vertices) == 0 {
			return
		}
		dc := draws[call]
		op := &ebiten.DrawTrianglesOptions{}
		op.Filter = ebiten.FilterNearest
		if dc.sampler == gpu.SamplerLinear {
			op.Filter = ebiten.FilterLinear
		}
		target.img.DrawTriangles(vertices, indices, dc.tex.img, op)
		vertices = vertices[:0]
		indices = indices[:0]
	}

	current := -1
	for _, t := range tris {
		if t.call != current || len(vertices)+3 > 65535 {
			flush(current)
			current = t.call
		}
		alpha := draws[t.call].uniforms.Alpha
		for _, v := range t.v {
			v.ColorR, v.ColorG, v.ColorB, v.ColorA = 1, 1, 1, alpha
			indices = append(indices, uint16(len(vertices)))
			vertices = append(vertices, v)
		}
	}
	flush(current)
}

func toByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
