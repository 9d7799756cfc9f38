package soft

import (
	"errors"
	"fmt"

	"github.com/user-none/framepipe/gpu"
)

// stream records closures that execute on the device timeline.
type stream struct {
	dev       *Device
	ops       []func()
	handlers  []func()
	presents  []*drawable
	err       error
	open      bool
	committed bool
}

func (s *stream) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *stream) usable() bool {
	if s.committed {
		s.fail(gpu.ErrStreamCommitted)
		return false
	}
	if s.open {
		s.fail(gpu.ErrPassOpen)
		return false
	}
	return true
}

func (s *stream) Dispatch(d gpu.Dispatch) {
	if !s.usable() {
		return
	}
	p, ok := d.Program.(*program)
	if !ok || p == nil {
		s.fail(fmt.Errorf("dispatch: foreign or nil program: %w", gpu.ErrKernelBuild))
		return
	}
	src, ok1 := d.Source.(*texture)
	dst, ok2 := d.Target.(*texture)
	if !ok1 || !ok2 || src.pix == nil || dst.pix == nil {
		s.fail(fmt.Errorf("dispatch %s: invalid source or target texture", p.name))
		return
	}
	if !dst.desc.Usage.Has(gpu.UsageShaderWrite) {
		s.fail(fmt.Errorf("dispatch %s: target %q is not shader-writable", p.name, dst.desc.Label))
		return
	}

	params := make([][]float32, len(d.Buffers))
	bufs := make([]*buffer, len(d.Buffers))
	for i, b := range d.Buffers {
		sb, ok := b.(*buffer)
		if !ok {
			s.fail(fmt.Errorf("dispatch %s: foreign buffer at index %d", p.name, i))
			return
		}
		bufs[i] = sb
	}

	groups := d.Threadgroups
	if groups.Width == 0 || groups.Height == 0 {
		groups = gpu.ThreadgroupsFor(dst.desc.Width, dst.desc.Height)
	}

	k := &kernelCtx{
		src:     src,
		dst:     dst,
		sampler: d.Sampler,
		groups:  groups,
		workers: s.dev.workers,
	}
	s.ops = append(s.ops, func() {
		// Buffer contents are read when the dispatch executes, not when
		// it is encoded.
		for i, b := range bufs {
			params[i] = b.Floats()
		}
		k.params = params
		p.run(k)
	})
}

func (s *stream) BeginRenderPass(desc gpu.RenderPassDescriptor) (gpu.RenderEncoder, error) {
	if !s.usable() {
		return nil, s.err
	}
	color, ok := desc.Color.(*texture)
	if !ok || color.pix == nil {
		return nil, errors.New("render pass: invalid color attachment")
	}
	var depth *texture
	if desc.Depth != nil {
		depth, ok = desc.Depth.(*texture)
		if !ok || depth.depth == nil {
			return nil, errors.New("render pass: invalid depth attachment")
		}
		if depth.desc.Width < color.desc.Width || depth.desc.Height < color.desc.Height {
			return nil, fmt.Errorf("render pass: depth %dx%d smaller than color %dx%d: %w",
				depth.desc.Width, depth.desc.Height, color.desc.Width, color.desc.Height, gpu.ErrOutOfBounds)
		}
	}
	s.open = true
	e := &encoder{stream: s, pass: &renderPass{
		color:      color,
		depth:      depth,
		clearColor: desc.ClearColor,
		clearDepth: desc.ClearDepth,
	}}
	return e, nil
}

func (s *stream) OnCompleted(fn func()) {
	s.handlers = append(s.handlers, fn)
}

func (s *stream) Present(d gpu.Drawable) {
	if sd, ok := d.(*drawable); ok {
		s.presents = append(s.presents, sd)
	}
}

func (s *stream) Commit() error {
	if s.committed {
		return gpu.ErrStreamCommitted
	}
	if s.open {
		return gpu.ErrPassOpen
	}
	if s.err != nil {
		return s.err
	}
	s.committed = true
	return s.dev.submit(s)
}

// execute runs on the timeline goroutine.
func (s *stream) execute() {
	for _, op := range s.ops {
		op()
	}
	for _, d := range s.presents {
		d.surface.present(d)
	}
	for _, fn := range s.handlers {
		fn()
	}
}
