package kernel

// DotMaskCount is the number of dot mask patterns.
const DotMaskCount = 5

type rgb [3]float32

// DotMask returns the pattern with the given index as width, height and
// row-major RGB triples in [0,1]. Out-of-range indices yield the neutral
// 1x1 mask.
func DotMask(index int, brightness float32) (w, h int, data []float32) {
	hi := (85 + brightness*170) / 255
	lo := (1 - brightness) * 85 / 255
	no := (30 + (1-brightness)*55) / 255

	R := rgb{hi, lo, lo}
	G := rgb{lo, hi, lo}
	B := rgb{lo, lo, hi}
	M := rgb{hi, lo, hi}
	W := rgb{hi, hi, hi}
	N := rgb{no, no, no}

	var pattern []rgb
	switch index {
	case 1:
		w, h, pattern = 3, 1, []rgb{M, G, N}
	case 2:
		w, h, pattern = 4, 1, []rgb{R, G, B, N}
	case 3:
		w, h, pattern = 3, 9, []rgb{
			M, G, N,
			M, G, N,
			N, N, N,
			N, M, G,
			N, M, G,
			N, N, N,
			G, N, M,
			G, N, M,
			N, N, N,
		}
	case 4:
		w, h, pattern = 4, 8, []rgb{
			R, G, B, N,
			R, G, B, N,
			R, G, B, N,
			N, N, N, N,
			B, N, R, G,
			B, N, R, G,
			B, N, R, G,
			N, N, N, N,
		}
	default:
		w, h, pattern = 1, 1, []rgb{W}
	}

	data = make([]float32, 0, len(pattern)*3)
	for _, c := range pattern {
		data = append(data, c[0], c[1], c[2])
	}
	return w, h, data
}

// dotMaskParams lays out a mask as the dotmask program expects it:
// [w, h, 0, 0, r, g, b, ...].
func dotMaskParams(index int, brightness float32) []float32 {
	w, h, data := DotMask(index, brightness)
	out := make([]float32, 0, 4+len(data))
	out = append(out, float32(w), float32(h), 0, 0)
	return append(out, data...)
}
