package soft

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/user-none/framepipe/gpu"
)

func newRGBA(t *testing.T, d *Device, w, h int, usage gpu.Usage) gpu.Texture {
	t.Helper()
	tex, err := d.NewTexture(gpu.TextureDescriptor{
		Label: "test", Format: gpu.FormatRGBA8, Width: w, Height: h, Usage: usage,
	})
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	return tex
}

func fill(t *testing.T, tex gpu.Texture, fn func(x, y int) [4]uint8) {
	t.Helper()
	w, h := tex.Width(), tex.Height()
	pix := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := fn(x, y)
			copy(pix[(y*w+x)*4:], c[:])
		}
	}
	if err := tex.Replace(image.Rect(0, 0, w, h), pix, w*4); err != nil {
		t.Fatalf("Replace: %v", err)
	}
}

func pixelAt(t *testing.T, tex gpu.Texture, x, y int) [4]uint8 {
	t.Helper()
	b, err := tex.ReadPixels(image.Rect(x, y, x+1, y+1))
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	return [4]uint8{b[0], b[1], b[2], b[3]}
}

// run commits a stream and waits for its completion handler.
func run(t *testing.T, d *Device, encode func(cs gpu.CommandStream)) {
	t.Helper()
	cs, err := d.NewCommandStream()
	if err != nil {
		t.Fatalf("NewCommandStream: %v", err)
	}
	encode(cs)
	done := make(chan struct{})
	cs.OnCompleted(func() { close(done) })
	if err := cs.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not complete")
	}
}

func TestTextureReplaceAndRead(t *testing.T) {
	d := New()
	defer d.Close()

	tex := newRGBA(t, d, 4, 3, gpu.UsageShaderRead)
	fill(t, tex, func(x, y int) [4]uint8 { return [4]uint8{uint8(x), uint8(y), 7, 255} })

	if got := pixelAt(t, tex, 3, 2); got != [4]uint8{3, 2, 7, 255} {
		t.Errorf("pixel (3,2) = %v", got)
	}

	tests := []struct {
		name   string
		region image.Rectangle
		pixels int
		stride int
	}{
		{"outside", image.Rect(2, 2, 6, 3), 16, 16},
		{"empty", image.Rect(1, 1, 1, 1), 0, 0},
		{"short buffer", image.Rect(0, 0, 4, 3), 40, 16},
		{"short stride", image.Rect(0, 0, 4, 1), 16, 8},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tex.Replace(tc.region, make([]byte, tc.pixels), tc.stride)
			if !errors.Is(err, gpu.ErrOutOfBounds) {
				t.Errorf("Replace error = %v, want ErrOutOfBounds", err)
			}
		})
	}
}

func TestNewTextureLimits(t *testing.T) {
	d := New(WithMaxTextureSize(1024))
	defer d.Close()

	tests := []struct {
		name string
		w, h int
		ok   bool
	}{
		{"at limit", 1024, 1024, true},
		{"too wide", 2048, 16, false},
		{"zero", 0, 16, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.NewTexture(gpu.TextureDescriptor{Format: gpu.FormatRGBA8, Width: tc.w, Height: tc.h})
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, gpu.ErrResourceAllocation) {
				t.Errorf("error = %v, want ErrResourceAllocation", err)
			}
		})
	}
}

func TestNewProgram(t *testing.T) {
	d := New(WithFailingPrograms("sepia"))
	defer d.Close()

	for name := range programs {
		_, err := d.NewProgram(name)
		if name == "sepia" {
			if !errors.Is(err, gpu.ErrKernelBuild) {
				t.Errorf("NewProgram(%q) error = %v, want ErrKernelBuild", name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NewProgram(%q): %v", name, err)
		}
	}

	if _, err := d.NewProgram("nonexistent"); !errors.Is(err, gpu.ErrKernelBuild) {
		t.Errorf("NewProgram(nonexistent) error = %v, want ErrKernelBuild", err)
	}
}

func TestCompletionRunsAfterGate(t *testing.T) {
	gate := make(chan struct{})
	d := New(WithExecutionGate(gate))
	defer d.Close()

	cs, err := d.NewCommandStream()
	if err != nil {
		t.Fatalf("NewCommandStream: %v", err)
	}
	done := make(chan struct{})
	cs.OnCompleted(func() { close(done) })
	if err := cs.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	select {
	case <-done:
		t.Fatal("completion ran before the gate opened")
	case <-time.After(50 * time.Millisecond):
	}

	gate <- struct{}{}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("completion did not run after the gate opened")
	}
}

func TestCommitTwice(t *testing.T) {
	d := New()
	defer d.Close()

	cs, _ := d.NewCommandStream()
	if err := cs.Commit(); err != nil {
		t.Fatalf("first Commit: %v", err)
	}
	if err := cs.Commit(); !errors.Is(err, gpu.ErrStreamCommitted) {
		t.Errorf("second Commit error = %v, want ErrStreamCommitted", err)
	}
}

func TestCommitAfterClose(t *testing.T) {
	d := New()
	cs, _ := d.NewCommandStream()
	d.Close()
	if err := cs.Commit(); !errors.Is(err, gpu.ErrDeviceUnavailable) {
		t.Errorf("Commit after Close error = %v, want ErrDeviceUnavailable", err)
	}
	if _, err := d.NewCommandStream(); !errors.Is(err, gpu.ErrDeviceUnavailable) {
		t.Errorf("NewCommandStream after Close error = %v, want ErrDeviceUnavailable", err)
	}
}

func TestBufferWrite(t *testing.T) {
	d := New()
	defer d.Close()

	b, err := d.NewBuffer(4)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	if err := b.Write(1, []float32{1, 2, 3}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got := b.Floats()
	want := []float32{0, 1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Floats()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if err := b.Write(2, []float32{1, 2, 3}); !errors.Is(err, gpu.ErrOutOfBounds) {
		t.Errorf("overflowing Write error = %v, want ErrOutOfBounds", err)
	}
}
