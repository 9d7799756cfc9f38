package ebitengpu

import (
	"errors"
	"fmt"

	"github.com/user-none/framepipe/gpu"
)

// stream records closures and runs them on Commit.
type stream struct {
	ops       []func()
	handlers  []func()
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
	if !ok1 || !ok2 || src.img == nil || dst.img == nil {
		s.fail(fmt.Errorf("dispatch %s: invalid source or target texture", p.name))
		return
	}
	if !dst.desc.Usage.Has(gpu.UsageShaderWrite) {
		s.fail(fmt.Errorf("dispatch %s: target %q is not shader-writable", p.name, dst.desc.Label))
		return
	}
	bufs := make([]*buffer, len(d.Buffers))
	for i, b := range d.Buffers {
		eb, ok := b.(*buffer)
		if !ok {
			s.fail(fmt.Errorf("dispatch %s: foreign buffer at index %d", p.name, i))
			return
		}
		bufs[i] = eb
	}

	sampler := d.Sampler
	s.ops = append(s.ops, func() {
		params := make([][]float32, len(bufs))
		for i, b := range bufs {
			params[i] = b.Floats()
		}
		p.run(src.img, dst.img, sampler, params)
	})
}

func (s *stream) BeginRenderPass(desc gpu.RenderPassDescriptor) (gpu.RenderEncoder, error) {
	if !s.usable() {
		return nil, s.err
	}
	color, ok := desc.Color.(*texture)
	if !ok || color.img == nil {
		return nil, errors.New("render pass: invalid color attachment")
	}
	if desc.Depth != nil {
		depth, ok := desc.Depth.(*texture)
		if !ok || !depth.desc.Format.IsDepth() {
			return nil, errors.New("render pass: invalid depth attachment")
		}
		if depth.desc.Width < color.desc.Width || depth.desc.Height < color.desc.Height {
			return nil, fmt.Errorf("render pass: depth %dx%d smaller than color %dx%d: %w",
				depth.desc.Width, depth.desc.Height, color.desc.Width, color.desc.Height, gpu.ErrOutOfBounds)
		}
	}
	s.open = true
	return &encoder{stream: s, color: color, clearColor: desc.ClearColor}, nil
}

func (s *stream) OnCompleted(fn func()) {
	s.handlers = append(s.handlers, fn)
}

// Present is a no-op: ebiten shows the screen image once Draw returns.
func (s *stream) Present(gpu.Drawable) {}

// Commit hands every recorded command to ebiten and then runs the
// completion handlers. ebiten orders later reads of the same images after
// these draws, so the work counts as complete for the caller.
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
	for _, op := range s.ops {
		op()
	}
	for _, fn := range s.handlers {
		fn()
	}
	return nil
}
