package gesture

import "sync"

// Result is a snapshot of the most recent classification.
type Result struct {
	// Index is the winning category index, or NoGesture when no result is
	// standing (never published, or cleared by a consumer).
	Index int

	// Confidence is the winning category score in [0, 1].
	Confidence float64

	// Sequence increments on every publish. Zero means "never published".
	Sequence uint64
}

// None reports whether the snapshot holds no standing result.
func (r Result) None() bool { return r.Index == NoGesture }

// State is the mutually-exclusive, versioned record of the most recent
// classification. It has a single writer (the Runner) and any number of
// readers. All operations copy the composite value under the lock, so a
// reader never observes a torn index/confidence/sequence triple.
type State struct {
	mu  sync.Mutex
	cur Result
}

// NewState returns a State holding no result (sequence 0, index NoGesture).
func NewState() *State {
	return &State{cur: Result{Index: NoGesture}}
}

// Publish overwrites the result with a new index and confidence and
// increments the sequence. It always increments, even when the label and
// confidence repeat: a rapid re-confirmation of the same gesture is new
// information that consumers may rate-limit themselves. Returns the new
// sequence.
func (s *State) Publish(index int, confidence float64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = Result{
		Index:      index,
		Confidence: confidence,
		Sequence:   s.cur.Sequence + 1,
	}
	return s.cur.Sequence
}

// Read returns a snapshot copy of the current result.
func (s *State) Read() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Clear resets the result to "no gesture" without touching the sequence.
// Keeping the sequence means a consumer that already recorded it as seen
// does not re-trigger on the clear, while a consumer that has not yet seen
// it correctly reads "no result" at that sequence.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Index = NoGesture
	s.cur.Confidence = 0
}
