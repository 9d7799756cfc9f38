package kernel

import (
	"errors"
	"fmt"

	"github.com/user-none/framepipe/gpu"
)

// Gallery is an index-addressed table of kernels built once at startup.
// Kernels that fail to build are left out; selecting them resolves to
// the kernel at index 0.
type Gallery struct {
	kind    string
	kernels []*ComputeKernel
	warned  map[int]bool
}

// NewUpscalerGallery builds every upscaler. It fails only if the bypass
// upscaler cannot be built.
func NewUpscalerGallery(dev gpu.Device, factor int) (*Gallery, error) {
	return newGallery(dev, "upscaler", Upscalers, factor, TFTOptions())
}

// NewFilterGallery builds every filter configured with opts. It fails
// only if the bypass filter cannot be built.
func NewFilterGallery(dev gpu.Device, factor int, opts Options) (*Gallery, error) {
	return newGallery(dev, "filter", Filters, factor, opts)
}

func newGallery(dev gpu.Device, kind string, infos []Info, factor int, opts Options) (*Gallery, error) {
	g := &Gallery{
		kind:    kind,
		kernels: make([]*ComputeKernel, len(infos)),
		warned:  make(map[int]bool),
	}
	for i, info := range infos {
		k, err := New(dev, info, factor, opts)
		if err != nil {
			if i == 0 {
				return nil, fmt.Errorf("bypass %s: %w", kind, err)
			}
			gpu.Logger().Warn("kernel unavailable", "kind", kind, "id", info.ID, "err", err)
			continue
		}
		g.kernels[i] = k
	}
	return g, nil
}

// Len returns the number of slots in the gallery.
func (g *Gallery) Len() int { return len(g.kernels) }

// Lookup returns the kernel at index i if it exists and was built.
func (g *Gallery) Lookup(i int) (*ComputeKernel, bool) {
	if i < 0 || i >= len(g.kernels) || g.kernels[i] == nil {
		return nil, false
	}
	return g.kernels[i], true
}

// Current returns the kernel selected by index i, falling back to the
// kernel at index 0 when i is out of range or was not built. Each
// unavailable index is reported once.
func (g *Gallery) Current(i int) *ComputeKernel {
	if k, ok := g.Lookup(i); ok {
		return k
	}
	if !g.warned[i] {
		g.warned[i] = true
		gpu.Logger().Warn("selected kernel unavailable, using bypass", "kind", g.kind, "index", i)
	}
	return g.kernels[0]
}

// Configure applies opts to every built kernel.
func (g *Gallery) Configure(opts Options) error {
	var errs []error
	for _, k := range g.kernels {
		if k == nil {
			continue
		}
		if err := k.Configure(opts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Release frees every kernel.
func (g *Gallery) Release() {
	for _, k := range g.kernels {
		if k != nil {
			k.Release()
		}
	}
}
