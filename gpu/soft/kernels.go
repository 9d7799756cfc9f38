package soft

import (
	"math"
	"sync"

	"github.com/user-none/framepipe/gpu"
)

type kernelFunc func(k *kernelCtx)

// programs maps program names to their CPU implementations.
var programs = map[string]kernelFunc{
	"bypassupscaler": resample,
	"epxupscaler":    cascade(epx2x),
	"xbrupscaler":    cascade(xbr2x),
	"bypass":         resample,
	"blur":           blur,
	"saturation":     pointwise(saturate),
	"grayscale":      pointwise(grayscale),
	"sepia":          pointwise(sepia),
	"crt":            crt,
	"scanline":       scanline,
	"dotmask":        dotmask,
}

type kernelCtx struct {
	src     *texture
	dst     *texture
	sampler gpu.SamplerMode
	params  [][]float32
	groups  gpu.Size
	workers int
}

func (k *kernelCtx) param(i int) []float32 {
	if i < len(k.params) {
		return k.params[i]
	}
	return nil
}

// forEachPixel computes every target pixel covered by the dispatch grid.
// Threadgroup rows are distributed round-robin over the workers.
func (k *kernelCtx) forEachPixel(fn func(x, y int) [4]float32) {
	gs := gpu.ThreadgroupSize
	maxX := min(k.groups.Width*gs.Width, k.dst.desc.Width)
	maxY := min(k.groups.Height*gs.Height, k.dst.desc.Height)
	rows := (maxY + gs.Height - 1) / gs.Height

	parallel(rows, k.workers, func(gy int) {
		y1 := min(gy*gs.Height+gs.Height, maxY)
		for y := gy * gs.Height; y < y1; y++ {
			for x := 0; x < maxX; x++ {
				k.dst.store(x, y, fn(x, y))
			}
		}
	})
}

// at samples the source at the center of target pixel (x, y).
func (k *kernelCtx) at(x, y int) [4]float32 {
	return k.atOffset(x, y, 0, 0)
}

// atOffset samples the source dx, dy source texels away from the center
// of target pixel (x, y).
func (k *kernelCtx) atOffset(x, y int, dx, dy float32) [4]float32 {
	u := (float32(x)+0.5)/float32(k.dst.desc.Width) + dx/float32(k.src.desc.Width)
	v := (float32(y)+0.5)/float32(k.dst.desc.Height) + dy/float32(k.src.desc.Height)
	return k.src.sample(u, v, k.sampler)
}

func parallel(n, workers int, fn func(i int)) {
	workers = max(1, min(workers, n))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < n; i += workers {
				fn(i)
			}
		}(w)
	}
	wg.Wait()
}

func resample(k *kernelCtx) {
	k.forEachPixel(k.at)
}

func pointwise(fn func(c [4]float32) [4]float32) kernelFunc {
	return func(k *kernelCtx) {
		k.forEachPixel(func(x, y int) [4]float32 {
			return fn(k.at(x, y))
		})
	}
}

func luma(c [4]float32) float32 {
	return 0.299*c[0] + 0.587*c[1] + 0.114*c[2]
}

func saturate(c [4]float32) [4]float32 {
	const boost = 1.5
	l := luma(c)
	return [4]float32{
		clamp01(l + (c[0]-l)*boost),
		clamp01(l + (c[1]-l)*boost),
		clamp01(l + (c[2]-l)*boost),
		c[3],
	}
}

func grayscale(c [4]float32) [4]float32 {
	l := luma(c)
	return [4]float32{l, l, l, c[3]}
}

func sepia(c [4]float32) [4]float32 {
	return [4]float32{
		clamp01(0.393*c[0] + 0.769*c[1] + 0.189*c[2]),
		clamp01(0.349*c[0] + 0.686*c[1] + 0.168*c[2]),
		clamp01(0.272*c[0] + 0.534*c[1] + 0.131*c[2]),
		c[3],
	}
}

// blur convolves with the separable weights in buffer 0, laid out as
// [size, w0, ..., w(size-1)].
func blur(k *kernelCtx) {
	p := k.param(0)
	if len(p) < 2 {
		resample(k)
		return
	}
	n := min(int(p[0]), len(p)-1)
	if n < 1 {
		resample(k)
		return
	}
	weights := p[1 : 1+n]
	half := float32(n-1) / 2

	k.forEachPixel(func(x, y int) [4]float32 {
		var out [4]float32
		for j, wy := range weights {
			for i, wx := range weights {
				c := k.atOffset(x, y, float32(i)-half, float32(j)-half)
				w := wx * wy
				for ch := range out {
					out[ch] += c[ch] * w
				}
			}
		}
		return out
	})
}

// scanlineFactor darkens the rows of each emulated line that lie away
// from the beam center. distance is the number of target rows per line.
func scanlineFactor(y int, brightness, weight, distance float32) float32 {
	if distance < 1 {
		return 1
	}
	row := float32(math.Mod(float64(y), float64(distance)))
	t := (row + 0.5) / distance
	d := float32(math.Abs(float64(t-0.5))) * 2
	dark := clamp01(d * d * (1 + 4*weight))
	return 1 - (1-brightness)*dark
}

func scanlineParams(p []float32) (brightness, weight, distance float32) {
	if len(p) < 3 {
		return 1, 0, 0
	}
	return p[0], p[1], p[2]
}

func scanline(k *kernelCtx) {
	b, w, d := scanlineParams(k.param(0))
	k.forEachPixel(func(x, y int) [4]float32 {
		c := k.at(x, y)
		f := scanlineFactor(y, b, w, d)
		return [4]float32{c[0] * f, c[1] * f, c[2] * f, c[3]}
	})
}

// crt adds bloom from buffer 0 ([r, g, b, radius]) and scanlines from
// buffer 1.
func crt(k *kernelCtx) {
	bloom := k.param(0)
	if len(bloom) < 4 {
		bloom = []float32{0, 0, 0, 0}
	}
	radius := bloom[3]
	sb, sw, sd := scanlineParams(k.param(1))

	k.forEachPixel(func(x, y int) [4]float32 {
		c := k.at(x, y)
		if radius > 0 {
			var glow [3]float32
			for _, o := range [4][2]float32{{-radius, 0}, {radius, 0}, {0, -radius}, {0, radius}} {
				n := k.atOffset(x, y, o[0], o[1])
				for ch := range glow {
					glow[ch] += n[ch] / 4
				}
			}
			for ch := range glow {
				c[ch] += bloom[ch] * glow[ch] * glow[ch]
			}
		}
		f := scanlineFactor(y, sb, sw, sd)
		return [4]float32{clamp01(c[0] * f), clamp01(c[1] * f), clamp01(c[2] * f), c[3]}
	})
}

// dotmask multiplies with the repeating mask in buffer 0, laid out as
// [width, height, 0, 0, r, g, b, ...].
func dotmask(k *kernelCtx) {
	p := k.param(0)
	if len(p) < 7 {
		resample(k)
		return
	}
	w, h := int(p[0]), int(p[1])
	if w < 1 || h < 1 || len(p) < 4+w*h*3 {
		resample(k)
		return
	}
	mask := p[4:]
	k.forEachPixel(func(x, y int) [4]float32 {
		c := k.at(x, y)
		i := ((y%h)*w + x%w) * 3
		return [4]float32{c[0] * mask[i], c[1] * mask[i+1], c[2] * mask[i+2], c[3]}
	})
}
