package standalone

import (
	"testing"
	"time"
)

func TestSharedFramebuffer_UpdateAndSnapshot(t *testing.T) {
	sf := NewSharedFramebuffer(256, 224)

	stride := 256 * 4
	height := 192
	pixels := make([]byte, stride*height)
	for i := range pixels {
		pixels[i] = byte(i % 256)
	}

	sf.Update(pixels, 256, height, stride)

	frame := sf.Snapshot()

	if frame.Stride != stride {
		t.Fatalf("stride mismatch: expected %d, got %d", stride, frame.Stride)
	}
	if frame.Width != 256 || frame.Height != height {
		t.Fatalf("size mismatch: expected 256x%d, got %dx%d", height, frame.Width, frame.Height)
	}
	if !frame.Valid() {
		t.Fatal("expected a valid frame")
	}

	for i := 0; i < stride*height; i++ {
		if frame.Pixels[i] != pixels[i] {
			t.Fatalf("pixel mismatch at %d: expected %d, got %d", i, pixels[i], frame.Pixels[i])
		}
	}
}

func TestSharedFramebuffer_SnapshotIsolated(t *testing.T) {
	sf := NewSharedFramebuffer(4, 4)
	pixels := make([]byte, 4*4*4)
	sf.Update(pixels, 4, 4, 16)

	frame := sf.Snapshot()

	for i := range pixels {
		pixels[i] = 0xFF
	}
	sf.Update(pixels, 4, 4, 16)

	for i, b := range frame.Pixels {
		if b != 0 {
			t.Fatalf("snapshot changed by later Update at %d: got 0x%X", i, b)
		}
	}
}

func TestSharedFramebuffer_EmptyIsInvalid(t *testing.T) {
	sf := NewSharedFramebuffer(16, 16)
	if sf.Snapshot().Valid() {
		t.Error("snapshot before the first Update should be invalid")
	}
}

func TestSharedFramebuffer_OversizedUpdateClipped(t *testing.T) {
	sf := NewSharedFramebuffer(2, 2)
	pixels := make([]byte, 64)
	sf.Update(pixels, 4, 4, 16)

	frame := sf.Snapshot()
	if len(frame.Pixels) != 16 {
		t.Errorf("snapshot length = %d, want 16", len(frame.Pixels))
	}
}

// runProducer loops on ctl.Wait until it reports false and closes the
// returned channel on exit.
func runProducer(ctl *HaltControl) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ctl.Wait() {
			time.Sleep(time.Millisecond)
		}
	}()
	return done
}

func waitDone(t *testing.T, done <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("%s did not return", what)
	}
}

func TestSourceHalted(t *testing.T) {
	ctl := NewHaltControl()
	src := NewSource(NewSharedFramebuffer(1, 1), ctl)
	done := runProducer(ctl)

	if src.IsHalted() {
		t.Fatal("expected running source")
	}
	ctl.Halt()
	if !src.IsHalted() {
		t.Fatal("expected halted source after Halt")
	}
	ctl.Resume()
	if src.IsHalted() {
		t.Fatal("expected running source after Resume")
	}

	ctl.Stop()
	waitDone(t, done, "producer")
}

func TestHaltControl_HaltAfterStop(t *testing.T) {
	ctl := NewHaltControl()
	ctl.Stop()

	finished := make(chan struct{})
	go func() {
		ctl.Halt()
		close(finished)
	}()
	waitDone(t, finished, "Halt after Stop")

	if ctl.Halted() {
		t.Error("Halted() = true after Stop, want false")
	}
	if ctl.Wait() {
		t.Error("Wait() = true after Stop, want false")
	}
}

func TestHaltControl_HaltResumeCycles(t *testing.T) {
	ctl := NewHaltControl()
	done := runProducer(ctl)

	for i := 0; i < 3; i++ {
		ctl.Halt()
		if !ctl.Halted() {
			t.Fatalf("cycle %d: expected halted after Halt", i)
		}
		ctl.Resume()
		if ctl.Halted() {
			t.Fatalf("cycle %d: expected running after Resume", i)
		}
	}

	ctl.Stop()
	waitDone(t, done, "producer")
}

func TestHaltControl_Stop(t *testing.T) {
	ctl := NewHaltControl()
	if !ctl.Running() {
		t.Fatal("new control should be running")
	}
	done := runProducer(ctl)

	ctl.Stop()
	waitDone(t, done, "producer")
	if ctl.Running() {
		t.Error("Running() = true after Stop")
	}

	// A second Stop is a no-op.
	ctl.Stop()
}

func TestHaltControl_StopWhileHalted(t *testing.T) {
	ctl := NewHaltControl()
	done := runProducer(ctl)

	ctl.Halt()
	ctl.Stop()
	waitDone(t, done, "producer parked in Wait")
}

func TestHaltControl_StopReleasesPendingHalt(t *testing.T) {
	ctl := NewHaltControl()

	// No producer calls Wait, so Halt can only return through Stop.
	finished := make(chan struct{})
	go func() {
		ctl.Halt()
		close(finished)
	}()
	time.Sleep(10 * time.Millisecond)
	ctl.Stop()
	waitDone(t, finished, "pending Halt")
}

func TestHaltControl_DoubleHalt(t *testing.T) {
	ctl := NewHaltControl()
	done := runProducer(ctl)

	ctl.Halt()
	ctl.Halt()
	if !ctl.Halted() {
		t.Fatal("expected still halted")
	}

	ctl.Stop()
	waitDone(t, done, "producer")
}
