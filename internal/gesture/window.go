package gesture

import "fmt"

// Window is a fixed-capacity rolling signal window. It always holds exactly
// capacity elements (zero-filled until the first full load) and advances in
// fixed-size steps, discarding the oldest values. It is exclusively owned by
// the Runner and never shared across goroutines.
type Window struct {
	buf  []float64
	step int
}

// NewWindow creates a zero-filled window. It panics when the arguments
// cannot describe a sliding window; that is a programmer error, not a
// runtime fault.
func NewWindow(capacity, step int) *Window {
	if capacity <= 0 {
		panic(fmt.Sprintf("gesture: window capacity must be positive, got %d", capacity))
	}
	if step <= 0 || step >= capacity {
		panic(fmt.Sprintf("gesture: window step must be in (0, capacity), got step=%d capacity=%d", step, capacity))
	}
	return &Window{
		buf:  make([]float64, capacity),
		step: step,
	}
}

// Capacity returns the fixed element count of the window.
func (w *Window) Capacity() int { return len(w.buf) }

// Step returns the element count consumed by each Slide.
func (w *Window) Step() int { return w.step }

// Load replaces the entire window contents. Used once after the initial
// fill. Panics unless len(values) equals the capacity.
func (w *Window) Load(values []float64) {
	if len(values) != len(w.buf) {
		panic(fmt.Sprintf("gesture: Load requires %d values, got %d", len(w.buf), len(values)))
	}
	copy(w.buf, values)
}

// Slide shifts the window left by step positions, discarding the oldest
// step values, and writes newElems into the vacated trailing positions in
// order. Panics unless len(newElems) equals the step.
func (w *Window) Slide(newElems []float64) {
	if len(newElems) != w.step {
		panic(fmt.Sprintf("gesture: Slide requires %d values, got %d", w.step, len(newElems)))
	}
	copy(w.buf, w.buf[w.step:])
	copy(w.buf[len(w.buf)-w.step:], newElems)
}

// Values returns the window contents, oldest first. The slice is the
// window's backing store and is only valid until the next Load or Slide;
// callers that retain it must copy.
func (w *Window) Values() []float64 { return w.buf }
