package pipeline

import "sync"

// FrameSlot bounds the number of frames in flight between the draw
// goroutine and the device to one. A frame acquires the slot before it
// touches anything the device may still read, and the device releases it
// once the frame's commands have completed.
type FrameSlot struct {
	ch chan struct{}
}

// NewFrameSlot returns an available slot.
func NewFrameSlot() *FrameSlot {
	return &FrameSlot{ch: make(chan struct{}, 1)}
}

// Acquire blocks until the slot is free and returns the ticket that
// frees it again.
func (s *FrameSlot) Acquire() *Ticket {
	s.ch <- struct{}{}
	return &Ticket{slot: s}
}

// TryAcquire returns a ticket if the slot is free without blocking.
func (s *FrameSlot) TryAcquire() (*Ticket, bool) {
	select {
	case s.ch <- struct{}{}:
		return &Ticket{slot: s}, true
	default:
		return nil, false
	}
}

// Outstanding returns the number of tickets not yet released.
func (s *FrameSlot) Outstanding() int {
	return len(s.ch)
}

// Ticket is one acquisition of a FrameSlot.
type Ticket struct {
	slot *FrameSlot
	once sync.Once
}

// Release frees the slot. Only the first call has an effect, so a
// completion handler and an error path may both call it.
func (t *Ticket) Release() {
	t.once.Do(func() {
		<-t.slot.ch
	})
}
