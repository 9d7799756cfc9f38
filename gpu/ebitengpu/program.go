package ebitengpu

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/user-none/framepipe/gpu"
)

type program struct {
	name     string
	spec     programSpec
	shader   *ebiten.Shader
	fallback *ebiten.Shader // copy shader for cascades without an exact size

	// Intermediate cascade targets, reused while sizes match.
	pool map[image.Point]*ebiten.Image
}

func (p *program) Name() string { return p.name }

// run draws the program from src into dst.
func (p *program) run(src, dst *ebiten.Image, sampler gpu.SamplerMode, params [][]float32) {
	uniforms := map[string]any{}
	if p.spec.uniforms != nil {
		uniforms = p.spec.uniforms(params)
	}
	uniforms["Linear"] = linearUniform(sampler)

	if !p.spec.cascade {
		runShaderPass(p.shader, src, dst, uniforms)
		return
	}

	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	dw, dh := dst.Bounds().Dx(), dst.Bounds().Dy()
	passes := passesFor(sw, sh, dw, dh)
	if passes == 0 {
		runShaderPass(p.fallback, src, dst, uniforms)
		return
	}

	in := src
	w, h := sw, sh
	for i := 0; i < passes; i++ {
		w, h = w*2, h*2
		out := dst
		if i < passes-1 {
			out = p.intermediate(w, h)
		}
		runShaderPass(p.shader, in, out, uniforms)
		in = out
	}
}

func (p *program) intermediate(w, h int) *ebiten.Image {
	if p.pool == nil {
		p.pool = make(map[image.Point]*ebiten.Image)
	}
	key := image.Pt(w, h)
	img, ok := p.pool[key]
	if !ok {
		img = ebiten.NewImage(w, h)
		p.pool[key] = img
	}
	return img
}

func linearUniform(m gpu.SamplerMode) float32 {
	if m == gpu.SamplerLinear {
		return 1
	}
	return 0
}

// runShaderPass covers output with one quad whose source coordinates span
// the whole input.
func runShaderPass(shader *ebiten.Shader, input, output *ebiten.Image, uniforms map[string]any) {
	inW := float32(input.Bounds().Dx())
	inH := float32(input.Bounds().Dy())
	outW := float32(output.Bounds().Dx())
	outH := float32(output.Bounds().Dy())

	vertices := []ebiten.Vertex{
		{DstX: 0, DstY: 0, SrcX: 0, SrcY: 0, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
		{DstX: outW, DstY: 0, SrcX: inW, SrcY: 0, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
		{DstX: 0, DstY: outH, SrcX: 0, SrcY: inH, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
		{DstX: outW, DstY: outH, SrcX: inW, SrcY: inH, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
	}
	indices := []uint16{0, 1, 2, 1, 3, 2}

	op := &ebiten.DrawTrianglesShaderOptions{}
	op.Images[0] = input
	op.Uniforms = uniforms
	op.Blend = ebiten.BlendCopy

	output.DrawTrianglesShader(vertices, indices, shader, op)
}
