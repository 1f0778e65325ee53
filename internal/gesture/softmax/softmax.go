// Package softmax implements the built-in window classifier: per-axis
// summary features (mean, standard deviation, RMS) fed through a single
// linear layer with a softmax output. The model weights are trained offline
// and loaded from a JSON file at startup.
package softmax

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	axes            = 3
	featuresPerAxis = 3 // mean, stddev, rms
	featureCount    = axes * featuresPerAxis
)

// Model is an immutable linear softmax classifier. Safe for concurrent use.
type Model struct {
	frameSize int
	labels    []string
	weights   *mat.Dense // classes x featureCount
	bias      *mat.VecDense
}

type modelFile struct {
	FrameSize int         `json:"frame_size"`
	Labels    []string    `json:"labels"`
	Weights   [][]float64 `json:"weights"`
	Bias      []float64   `json:"bias"`
}

// Load reads a model from a JSON file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	var f modelFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse model JSON: %w", err)
	}
	return New(f.FrameSize, f.Labels, f.Weights, f.Bias)
}

// New builds a Model from explicit parameters. weights is classes x 9
// (three features per axis), bias has one entry per class.
func New(frameSize int, labels []string, weights [][]float64, bias []float64) (*Model, error) {
	if frameSize <= 0 || frameSize%axes != 0 {
		return nil, fmt.Errorf("frame_size must be a positive multiple of %d, got %d", axes, frameSize)
	}
	classes := len(labels)
	if classes == 0 {
		return nil, fmt.Errorf("model has no labels")
	}
	if len(weights) != classes {
		return nil, fmt.Errorf("weights has %d rows, want %d (one per label)", len(weights), classes)
	}
	if len(bias) != classes {
		return nil, fmt.Errorf("bias has %d entries, want %d", len(bias), classes)
	}

	w := mat.NewDense(classes, featureCount, nil)
	for i, row := range weights {
		if len(row) != featureCount {
			return nil, fmt.Errorf("weights row %d has %d entries, want %d", i, len(row), featureCount)
		}
		w.SetRow(i, row)
	}

	return &Model{
		frameSize: frameSize,
		labels:    append([]string(nil), labels...),
		weights:   w,
		bias:      mat.NewVecDense(classes, append([]float64(nil), bias...)),
	}, nil
}

// FrameSize returns the required window length in scalar elements.
func (m *Model) FrameSize() int { return m.frameSize }

// Labels returns the category table in model output order.
func (m *Model) Labels() []string { return append([]string(nil), m.labels...) }

// Classify scores a full window. The returned slice is indexed by category,
// sums to 1, and its order matches Labels. A window of the wrong length is a
// classification failure, not a panic: the caller discards the window and
// continues.
func (m *Model) Classify(window []float64) ([]float64, error) {
	if len(window) != m.frameSize {
		return nil, fmt.Errorf("window has %d elements, model requires %d", len(window), m.frameSize)
	}

	fv := mat.NewVecDense(featureCount, features(window))

	classes := len(m.labels)
	logits := mat.NewVecDense(classes, nil)
	logits.MulVec(m.weights, fv)
	logits.AddVec(logits, m.bias)

	// Softmax with max subtraction for numerical stability.
	raw := logits.RawVector().Data
	maxLogit := floats.Max(raw)
	scores := make([]float64, classes)
	for i, v := range raw {
		scores[i] = math.Exp(v - maxLogit)
	}
	total := floats.Sum(scores)
	for i := range scores {
		scores[i] /= total
	}
	return scores, nil
}

// features extracts mean, standard deviation and RMS per axis from the
// interleaved x,y,z window.
func features(window []float64) []float64 {
	out := make([]float64, 0, featureCount)
	samples := len(window) / axes

	axis := make([]float64, samples)
	for a := 0; a < axes; a++ {
		for i := 0; i < samples; i++ {
			axis[i] = window[i*axes+a]
		}

		mean := stat.Mean(axis, nil)
		stddev := stat.StdDev(axis, nil)
		if math.IsNaN(stddev) { // single-sample window
			stddev = 0
		}

		var sumSq float64
		for _, v := range axis {
			sumSq += v * v
		}
		rms := math.Sqrt(sumSq / float64(samples))

		out = append(out, mean, stddev, rms)
	}
	return out
}
