package kernel

import "math"

// BlurWeights returns normalized Gaussian weights for a blur of the given
// radius. The kernel has round(radius)*2+1 taps sampled evenly over
// [-radius, radius] with sigma radius/2.
func BlurWeights(radius float32) []float32 {
	if radius <= 0 {
		return []float32{1}
	}
	size := int(math.Round(float64(radius)))*2 + 1
	if size == 1 {
		return []float32{1}
	}

	sigma := float64(radius) / 2
	delta := 2 * float64(radius) / float64(size-1)
	expScale := -1 / (2 * sigma * sigma)

	weights := make([]float32, size)
	var sum float64
	x := -float64(radius)
	for i := range weights {
		w := math.Exp(x * x * expScale)
		weights[i] = float32(w)
		sum += w
		x += delta
	}
	for i := range weights {
		weights[i] = float32(float64(weights[i]) / sum)
	}
	return weights
}

// BloomVector returns the CRT bloom parameters: the blooming factor for
// red, green and blue followed by the bloom radius.
func BloomVector(opts Options) [4]float32 {
	f := opts.BloomBrightness * opts.BloomWeight
	return [4]float32{f, f, f, opts.BloomRadius}
}

// ScanlineVector returns the scanline parameters. distance is the number
// of target rows per emulated line.
func ScanlineVector(opts Options, distance int) [4]float32 {
	return [4]float32{opts.ScanlineBrightness, opts.ScanlineWeight, float32(distance), 0}
}
