// Package kernel holds the compute kernels of the presentation pipeline:
// the upscalers that magnify the emulator texture and the filters that
// stylize the upscaled image, plus the galleries that select between them.
package kernel

import (
	"fmt"

	"github.com/user-none/framepipe/gpu"
)

// ComputeKernel is a compute program bound to its sampler and auxiliary
// buffers.
type ComputeKernel struct {
	info    Info
	dev     gpu.Device
	program gpu.Program
	buffers []gpu.Buffer

	// distance is the number of target rows per emulated line, used by
	// the scanline parameters.
	distance int

	configured bool
	applied    Options
	rebuilds   int
}

// New builds the kernel described by info. factor is the upscale factor
// of the pipeline. The returned error wraps gpu.ErrKernelBuild when the
// program is unavailable.
func New(dev gpu.Device, info Info, factor int, opts Options) (*ComputeKernel, error) {
	p, err := dev.NewProgram(info.Program)
	if err != nil {
		return nil, fmt.Errorf("kernel %s: %w", info.ID, err)
	}
	k := &ComputeKernel{
		info:     info,
		dev:      dev,
		program:  p,
		distance: factor,
	}
	if err := k.Configure(opts); err != nil {
		k.Release()
		return nil, err
	}
	return k, nil
}

// ID returns the kernel identifier.
func (k *ComputeKernel) ID() string { return k.info.ID }

// Info returns the kernel description.
func (k *ComputeKernel) Info() Info { return k.info }

// Sampler returns the sampler the kernel reads its input with. The same
// sampler is used when the filtered texture is drawn.
func (k *ComputeKernel) Sampler() gpu.SamplerMode { return k.info.Sampler }

// Apply encodes the kernel reading source and writing target.
func (k *ComputeKernel) Apply(cs gpu.CommandStream, source, target gpu.Texture) {
	cs.Dispatch(gpu.Dispatch{
		Program:      k.program,
		Sampler:      k.info.Sampler,
		Source:       source,
		Target:       target,
		Buffers:      k.buffers,
		Threadgroups: gpu.ThreadgroupsFor(target.Width(), target.Height()),
		Threads:      gpu.ThreadgroupSize,
	})
}

// Configure rebuilds the auxiliary buffers whose controlling parameters
// differ from the last applied options.
func (k *ComputeKernel) Configure(opts Options) error {
	first := !k.configured
	prev := k.applied

	switch k.info.params {
	case paramsBlur:
		if first || opts.BlurRadius != prev.BlurRadius {
			w := BlurWeights(opts.BlurRadius)
			data := append([]float32{float32(len(w))}, w...)
			if err := k.setBuffer(0, data); err != nil {
				return err
			}
		}
	case paramsCRT:
		if first || opts.BloomRadius != prev.BloomRadius ||
			opts.BloomBrightness != prev.BloomBrightness ||
			opts.BloomWeight != prev.BloomWeight {
			v := BloomVector(opts)
			if err := k.setBuffer(0, v[:]); err != nil {
				return err
			}
		}
		if first || opts.ScanlineBrightness != prev.ScanlineBrightness ||
			opts.ScanlineWeight != prev.ScanlineWeight {
			v := ScanlineVector(opts, k.distance)
			if err := k.setBuffer(1, v[:]); err != nil {
				return err
			}
		}
	case paramsScanline:
		if first || opts.ScanlineBrightness != prev.ScanlineBrightness ||
			opts.ScanlineWeight != prev.ScanlineWeight {
			v := ScanlineVector(opts, k.distance)
			if err := k.setBuffer(0, v[:]); err != nil {
				return err
			}
		}
	case paramsDotMask:
		if first || opts.DotMask != prev.DotMask ||
			opts.DotMaskBrightness != prev.DotMaskBrightness {
			if err := k.setBuffer(0, dotMaskParams(opts.DotMask, opts.DotMaskBrightness)); err != nil {
				return err
			}
		}
	}

	k.configured = true
	k.applied = opts
	return nil
}

// setBuffer stores data in buffer slot i, reallocating it when the
// length changes.
func (k *ComputeKernel) setBuffer(i int, data []float32) error {
	for len(k.buffers) <= i {
		k.buffers = append(k.buffers, nil)
	}
	b := k.buffers[i]
	if b == nil || b.Len() != len(data) {
		nb, err := k.dev.NewBuffer(len(data))
		if err != nil {
			return fmt.Errorf("kernel %s: buffer %d: %w", k.info.ID, i, err)
		}
		if b != nil {
			b.Release()
		}
		k.buffers[i] = nb
		b = nb
	}
	if err := b.Write(0, data); err != nil {
		return fmt.Errorf("kernel %s: buffer %d: %w", k.info.ID, i, err)
	}
	k.rebuilds++
	return nil
}

// Release frees the kernel's buffers.
func (k *ComputeKernel) Release() {
	for _, b := range k.buffers {
		if b != nil {
			b.Release()
		}
	}
	k.buffers = nil
}
