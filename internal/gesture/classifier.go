package gesture

// Sample is a single 3-axis motion reading, in g.
type Sample struct {
	X, Y, Z float64
}

// SampleSource yields motion samples on demand with non-blocking poll
// semantics: Next returns false when no fresh sample is ready yet.
type SampleSource interface {
	Next() (Sample, bool)
}

// Classifier maps a full signal window to per-category scores. The score
// slice is indexed by category and its order is stable across calls.
// Implementations report malformed windows or model runtime errors via the
// error return; they never return a partial score vector alongside an error.
type Classifier interface {
	Classify(window []float64) ([]float64, error)
}

// argmax returns the index and score of the maximum element. Ties break to
// the first-encountered index, so the result is stable for an order-stable
// score vector. Returns NoGesture for an empty slice.
func argmax(scores []float64) (int, float64) {
	best := NoGesture
	var bestScore float64
	for i, s := range scores {
		if best == NoGesture || s > bestScore {
			best = i
			bestScore = s
		}
	}
	return best, bestScore
}
