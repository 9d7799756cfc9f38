package ebitengpu

import (
	_ "embed"
)

//go:embed shaders/copy.kage
var copyShaderSrc []byte

//go:embed shaders/color.kage
var colorShaderSrc []byte

//go:embed shaders/blur.kage
var blurShaderSrc []byte

//go:embed shaders/crt.kage
var crtShaderSrc []byte

//go:embed shaders/scanline.kage
var scanlineShaderSrc []byte

//go:embed shaders/dotmask.kage
var dotmaskShaderSrc []byte

//go:embed shaders/epx.kage
var epxShaderSrc []byte

//go:embed shaders/xbr.kage
var xbrShaderSrc []byte

// shaderSources maps shader file names to their Kage source code.
var shaderSources = map[string][]byte{
	"copy":     copyShaderSrc,
	"color":    colorShaderSrc,
	"blur":     blurShaderSrc,
	"crt":      crtShaderSrc,
	"scanline": scanlineShaderSrc,
	"dotmask":  dotmaskShaderSrc,
	"epx":      epxShaderSrc,
	"xbr":      xbrShaderSrc,
}

// Uniform array sizes declared by the shaders.
const (
	maxBlurTaps  = 16
	maxMaskCells = 32
)

// uniformFunc converts dispatch buffers into shader uniforms.
type uniformFunc func(params [][]float32) map[string]any

// programSpec describes how a device program maps onto a Kage shader.
type programSpec struct {
	shader string
	// cascade programs run the shader as repeated 2x passes.
	cascade  bool
	uniforms uniformFunc
}

var programSpecs = map[string]programSpec{
	"bypassupscaler": {shader: "copy"},
	"epxupscaler":    {shader: "epx", cascade: true},
	"xbrupscaler":    {shader: "xbr", cascade: true},
	"bypass":         {shader: "copy"},
	"blur":           {shader: "blur", uniforms: blurUniforms},
	"saturation":     {shader: "color", uniforms: colorUniforms(0)},
	"grayscale":      {shader: "color", uniforms: colorUniforms(1)},
	"sepia":          {shader: "color", uniforms: colorUniforms(2)},
	"crt":            {shader: "crt", uniforms: crtUniforms},
	"scanline":       {shader: "scanline", uniforms: scanlineUniforms},
	"dotmask":        {shader: "dotmask", uniforms: dotmaskUniforms},
}

func param(params [][]float32, i int) []float32 {
	if i < len(params) {
		return params[i]
	}
	return nil
}

// padFloats returns v resized to exactly n values. Uniform arrays must be
// passed at their declared length.
func padFloats(v []float32, n int) []float32 {
	out := make([]float32, n)
	copy(out, v)
	return out
}

// blurUniforms keeps at most maxBlurTaps-1 centered taps, renormalized,
// so the kernel stays symmetric.
func blurUniforms(params [][]float32) map[string]any {
	p := param(params, 0)
	if len(p) < 2 {
		return map[string]any{"Count": float32(1), "Weights": padFloats([]float32{1}, maxBlurTaps)}
	}
	n := min(int(p[0]), len(p)-1)
	w := p[1 : 1+n]
	if n > maxBlurTaps-1 {
		drop := (n - (maxBlurTaps - 1)) / 2
		w = w[drop : drop+maxBlurTaps-1]
		var sum float32
		for _, v := range w {
			sum += v
		}
		scaled := make([]float32, len(w))
		for i, v := range w {
			scaled[i] = v / sum
		}
		w = scaled
	}
	return map[string]any{
		"Count":   float32(len(w)),
		"Weights": padFloats(w, maxBlurTaps),
	}
}

func colorUniforms(mode float32) uniformFunc {
	return func([][]float32) map[string]any {
		return map[string]any{"Mode": mode}
	}
}

func crtUniforms(params [][]float32) map[string]any {
	return map[string]any{
		"Bloom":    padFloats(param(params, 0), 4),
		"Scanline": scanlineVector(param(params, 1)),
	}
}

func scanlineUniforms(params [][]float32) map[string]any {
	return map[string]any{"Scanline": scanlineVector(param(params, 0))}
}

// scanlineVector defaults to full brightness so a missing buffer leaves
// the image unchanged.
func scanlineVector(p []float32) []float32 {
	if len(p) < 3 {
		return []float32{1, 0, 0, 0}
	}
	return padFloats(p, 4)
}

func dotmaskUniforms(params [][]float32) map[string]any {
	p := param(params, 0)
	if len(p) < 4 {
		return map[string]any{"MaskSize": []float32{0, 0}, "Mask": padFloats(nil, maxMaskCells*3)}
	}
	w, h := p[0], p[1]
	if int(w)*int(h) > maxMaskCells || len(p) < 4+int(w)*int(h)*3 {
		w, h = 0, 0
	}
	return map[string]any{
		"MaskSize": []float32{w, h},
		"Mask":     padFloats(p[4:], maxMaskCells*3),
	}
}

// passesFor returns the number of 2x passes that turn a source of size
// sw x sh into exactly dw x dh, or 0 if no such cascade exists.
func passesFor(sw, sh, dw, dh int) int {
	n := 0
	for sw < dw && sh < dh {
		sw, sh = sw*2, sh*2
		n++
	}
	if sw != dw || sh != dh {
		return 0
	}
	return n
}
