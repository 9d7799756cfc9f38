package soft

import (
	"fmt"
	"math"

	"github.com/user-none/framepipe/gpu"
)

type renderPass struct {
	color      *texture
	depth      *texture
	clearColor [4]float32
	clearDepth float32
}

type drawCall struct {
	vb       *vertexBuffer
	uniforms gpu.Uniforms
	tex      *texture
	sampler  gpu.SamplerMode
	first    int
	count    int
}

type encoder struct {
	stream   *stream
	pass     *renderPass
	vb       *vertexBuffer
	uniforms gpu.Uniforms
	tex      *texture
	sampler  gpu.SamplerMode
	draws    []drawCall
	ended    bool
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
	st, ok := t.(*texture)
	if !ok || st.pix == nil {
		e.stream.fail(fmt.Errorf("render pass: invalid fragment texture"))
		return
	}
	e.tex = st
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
		vb:       e.vb,
		uniforms: e.uniforms,
		tex:      e.tex,
		sampler:  e.sampler,
		first:    first,
		count:    count,
	})
}

func (e *encoder) End() {
	if e.ended {
		return
	}
	e.ended = true
	e.stream.open = false
	pass, draws := e.pass, e.draws
	e.stream.ops = append(e.stream.ops, func() {
		pass.clear()
		for _, dc := range draws {
			pass.draw(dc)
		}
	})
}

func (p *renderPass) clear() {
	c := p.clearColor
	w, h := p.color.desc.Width, p.color.desc.Height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p.color.store(x, y, c)
		}
	}
	if p.depth != nil {
		for i := range p.depth.depth {
			p.depth.depth[i] = p.clearDepth
		}
	}
}

// screenVertex is a vertex after projection: window coordinates, depth in
// [0,1], and the perspective-divided attributes.
type screenVertex struct {
	x, y, z float32
	invW    float32
	uOverW  float32
	vOverW  float32
}

func transform(m *[16]float32, p [4]float32) [4]float32 {
	var out [4]float32
	for r := 0; r < 4; r++ {
		out[r] = m[r*4]*p[0] + m[r*4+1]*p[1] + m[r*4+2]*p[2] + m[r*4+3]*p[3]
	}
	return out
}

func (p *renderPass) draw(dc drawCall) {
	w := float32(p.color.desc.Width)
	h := float32(p.color.desc.Height)

	for i := dc.first; i+2 < dc.first+dc.count; i += 3 {
		var tri [3]screenVertex
		visible := true
		for j := 0; j < 3; j++ {
			v := dc.vb.vertices[i+j]
			c := transform(&dc.uniforms.MVP, v.Position)
			if c[3] <= 1e-6 {
				visible = false
				break
			}
			invW := 1 / c[3]
			tri[j] = screenVertex{
				x:      (c[0]*invW*0.5 + 0.5) * w,
				y:      (0.5 - c[1]*invW*0.5) * h,
				z:      c[2] * invW,
				invW:   invW,
				uOverW: v.TexCoord[0] * invW,
				vOverW: v.TexCoord[1] * invW,
			}
		}
		if visible {
			p.rasterize(&tri, dc)
		}
	}
}

func edge(a, b *screenVertex, x, y float32) float32 {
	return (b.x-a.x)*(y-a.y) - (b.y-a.y)*(x-a.x)
}

func (p *renderPass) rasterize(t *[3]screenVertex, dc drawCall) {
	area := edge(&t[0], &t[1], t[2].x, t[2].y)
	if area > -1e-8 && area < 1e-8 {
		return
	}
	invArea := 1 / area

	w, h := p.color.desc.Width, p.color.desc.Height
	minX := clampInt(int(math.Floor(float64(min3(t[0].x, t[1].x, t[2].x)))), 0, w-1)
	maxX := clampInt(int(math.Ceil(float64(max3(t[0].x, t[1].x, t[2].x)))), 0, w-1)
	minY := clampInt(int(math.Floor(float64(min3(t[0].y, t[1].y, t[2].y)))), 0, h-1)
	maxY := clampInt(int(math.Ceil(float64(max3(t[0].y, t[1].y, t[2].y)))), 0, h-1)

	for y := minY; y <= maxY; y++ {
		cy := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			cx := float32(x) + 0.5
			b0 := edge(&t[1], &t[2], cx, cy) * invArea
			b1 := edge(&t[2], &t[0], cx, cy) * invArea
			b2 := edge(&t[0], &t[1], cx, cy) * invArea
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}

			z := b0*t[0].z + b1*t[1].z + b2*t[2].z
			if z < 0 || z > 1 {
				continue
			}
			if p.depth != nil {
				di := y*p.depth.desc.Width + x
				if !(z < p.depth.depth[di]) {
					continue
				}
				p.depth.depth[di] = z
			}

			invW := b0*t[0].invW + b1*t[1].invW + b2*t[2].invW
			u := (b0*t[0].uOverW + b1*t[1].uOverW + b2*t[2].uOverW) / invW
			v := (b0*t[0].vOverW + b1*t[1].vOverW + b2*t[2].vOverW) / invW

			src := dc.tex.sample(u, v, dc.sampler)
			a := clamp01(src[3] * dc.uniforms.Alpha)
			dst := p.color.texel(x, y)
			p.color.store(x, y, [4]float32{
				src[0]*a + dst[0]*(1-a),
				src[1]*a + dst[1]*(1-a),
				src[2]*a + dst[2]*(1-a),
				a + dst[3]*(1-a),
			})
		}
	}
}

func min3(a, b, c float32) float32 {
	return float32(math.Min(float64(a), math.Min(float64(b), float64(c))))
}

func max3(a, b, c float32) float32 {
	return float32(math.Max(float64(a), math.Max(float64(b), float64(c))))
}
