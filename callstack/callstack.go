// Package callstack reconstructs call frames from stack-pointer movement.
//
// A Tracker is installed as the emulator's stack-pointer hook. Lowering SP
// allocates a frame; raising SP releases every frame whose upper boundary
// is at or below the new SP.
package callstack

import "github.com/sarchlab/gfusx/emu"

// Frame is one stack allocation. Top is the stack pointer before the
// allocation and Bottom the stack pointer after it.
type Frame struct {
	Top    uint32
	Bottom uint32
}

// Size returns the number of bytes the frame covers.
func (f Frame) Size() uint32 {
	return f.Top - f.Bottom
}

// Tracker follows stack-pointer writes.
type Tracker struct {
	frames   []Frame
	maxDepth int
	sp       uint32
}

var _ emu.StackPointerHook = (*Tracker)(nil)

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// SetSP records a stack-pointer change.
func (t *Tracker) SetSP(oldSP, newSP uint32) {
	t.sp = newSP

	switch {
	case newSP < oldSP:
		t.frames = append(t.frames, Frame{Top: oldSP, Bottom: newSP})
		if len(t.frames) > t.maxDepth {
			t.maxDepth = len(t.frames)
		}
	case newSP > oldSP:
		t.release(newSP)
	}
}

// release pops the frames unwound by moving SP up to sp. A frame that is
// only partly unwound shrinks instead.
func (t *Tracker) release(sp uint32) {
	n := len(t.frames)
	for n > 0 && t.frames[n-1].Top <= sp {
		n--
	}
	t.frames = t.frames[:n]

	if n > 0 && t.frames[n-1].Bottom < sp {
		t.frames[n-1].Bottom = sp
	}
}

// Depth returns the number of open frames.
func (t *Tracker) Depth() int {
	return len(t.frames)
}

// MaxDepth returns the deepest nesting seen since the last Reset.
func (t *Tracker) MaxDepth() int {
	return t.maxDepth
}

// SP returns the last stack-pointer value reported.
func (t *Tracker) SP() uint32 {
	return t.sp
}

// Frames returns a copy of the open frames, outermost first.
func (t *Tracker) Frames() []Frame {
	out := make([]Frame, len(t.frames))
	copy(out, t.frames)
	return out
}

// Reset forgets all frames.
func (t *Tracker) Reset() {
	t.frames = t.frames[:0]
	t.maxDepth = 0
	t.sp = 0
}
