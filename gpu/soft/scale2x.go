package soft

// plane is a packed RGBA8 image used by the cascaded 2x upscalers.
type plane struct {
	w, h int
	pix  []uint32
}

func planeFrom(t *texture) *plane {
	p := &plane{w: t.desc.Width, h: t.desc.Height, pix: make([]uint32, t.desc.Width*t.desc.Height)}
	for i := range p.pix {
		o := i * 4
		p.pix[i] = uint32(t.pix[o]) | uint32(t.pix[o+1])<<8 | uint32(t.pix[o+2])<<16 | uint32(t.pix[o+3])<<24
	}
	return p
}

func (p *plane) at(x, y int) uint32 {
	return p.pix[clampInt(y, 0, p.h-1)*p.w+clampInt(x, 0, p.w-1)]
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

// cascade applies a 2x pass repeatedly until the target size is reached.
// Sizes that are not a power-of-two multiple fall back to resampling.
func cascade(pass func(in *plane, workers int) *plane) kernelFunc {
	return func(k *kernelCtx) {
		passes := passesFor(k.src.desc.Width, k.src.desc.Height, k.dst.desc.Width, k.dst.desc.Height)
		if passes == 0 {
			resample(k)
			return
		}
		p := planeFrom(k.src)
		for i := 0; i < passes; i++ {
			p = pass(p, k.workers)
		}
		for i, c := range p.pix {
			o := i * 4
			k.dst.pix[o] = uint8(c)
			k.dst.pix[o+1] = uint8(c >> 8)
			k.dst.pix[o+2] = uint8(c >> 16)
			k.dst.pix[o+3] = uint8(c >> 24)
		}
	}
}

// epx2x doubles the image with the EPX rules.
func epx2x(in *plane, workers int) *plane {
	out := &plane{w: in.w * 2, h: in.h * 2, pix: make([]uint32, in.w*in.h*4)}
	parallel(in.h, workers, func(y int) {
		for x := 0; x < in.w; x++ {
			p := in.at(x, y)
			a := in.at(x, y-1)
			b := in.at(x+1, y)
			c := in.at(x-1, y)
			d := in.at(x, y+1)

			o1, o2, o3, o4 := p, p, p, p
			if c == a && c != d && a != b {
				o1 = a
			}
			if a == b && a != c && b != d {
				o2 = b
			}
			if d == c && d != b && c != a {
				o3 = c
			}
			if b == d && b != a && d != c {
				o4 = d
			}
			out.set2x2(x, y, o1, o2, o3, o4)
		}
	})
	return out
}

func (p *plane) set2x2(x, y int, tl, tr, bl, br uint32) {
	i := (y*2)*p.w + x*2
	p.pix[i] = tl
	p.pix[i+1] = tr
	p.pix[i+p.w] = bl
	p.pix[i+p.w+1] = br
}

// xbr2x doubles the image with a single-level xBR edge interpolation over
// the 3x3 neighbourhood:
//
//	A B C
//	D E F
//	G H I
func xbr2x(in *plane, workers int) *plane {
	out := &plane{w: in.w * 2, h: in.h * 2, pix: make([]uint32, in.w*in.h*4)}
	parallel(in.h, workers, func(y int) {
		for x := 0; x < in.w; x++ {
			a, b, c := in.at(x-1, y-1), in.at(x, y-1), in.at(x+1, y-1)
			d, e, f := in.at(x-1, y), in.at(x, y), in.at(x+1, y)
			g, h, i := in.at(x-1, y+1), in.at(x, y+1), in.at(x+1, y+1)

			tl := xbrCorner(e, d, b, a, c, g, h, f)
			tr := xbrCorner(e, b, f, c, a, i, d, h)
			bl := xbrCorner(e, h, d, g, a, i, f, b)
			br := xbrCorner(e, f, h, i, c, g, b, d)
			out.set2x2(x, y, tl, tr, bl, br)
		}
	})
	return out
}

// xbrCorner returns the color of the output corner between sides s1 and
// s2. diag is the source pixel in that corner, a1 and a2 the corners on
// the other diagonal, p1 and p2 the sides across from s1 and s2.
func xbrCorner(e, s1, s2, diag, a1, a2, p1, p2 uint32) uint32 {
	if s1 == e || s2 == e {
		return e
	}
	wd1 := yuvDist(e, a1) + yuvDist(e, a2) + 4*yuvDist(s1, s2)
	wd2 := yuvDist(p1, s1) + yuvDist(p2, s2) + 4*yuvDist(e, diag)
	if wd1 >= wd2 {
		return e
	}
	n := s2
	if yuvDist(e, s1) <= yuvDist(e, s2) {
		n = s1
	}
	return mix50(e, n)
}

func yuvDist(p, q uint32) int {
	dr := int(p&0xff) - int(q&0xff)
	dg := int(p>>8&0xff) - int(q>>8&0xff)
	db := int(p>>16&0xff) - int(q>>16&0xff)
	y := 299*dr + 587*dg + 114*db
	u := -169*dr - 331*dg + 500*db
	v := 500*dr - 419*dg - 81*db
	return 48*abs(y) + 7*abs(u) + 6*abs(v)
}

func mix50(p, q uint32) uint32 {
	var out uint32
	for s := 0; s < 32; s += 8 {
		c := ((p>>s)&0xff + (q>>s)&0xff) / 2
		out |= c << s
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
