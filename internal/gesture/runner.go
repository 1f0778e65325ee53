package gesture

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/gesture.link/internal/monitoring"
	"github.com/banshee-data/gesture.link/internal/timeutil"
)

// RunnerConfig collects the collaborators and timing of the inference loop.
type RunnerConfig struct {
	Source SampleSource
	Model  Classifier
	State  *State
	Labels Labels

	// WindowSize and WindowStep are in scalar elements and must be
	// multiples of 3 (x, y, z triples), with WindowStep < WindowSize.
	WindowSize int
	WindowStep int

	// SamplePeriod is the poll interval while waiting for fresh samples.
	SamplePeriod time.Duration

	// SettleDelay is slept once before the initial fill so the sensor can
	// stabilise after power-up.
	SettleDelay time.Duration

	// Clock defaults to the real clock when nil.
	Clock timeutil.Clock

	// OnPublish, when set, is invoked after every publish with the newly
	// published result. It runs on the inference goroutine and must not
	// block for long.
	OnPublish func(Result)
}

// Runner drives the produce side of the pipeline: fill the window, then
// slide-classify-publish forever. It owns the window exclusively.
type Runner struct {
	cfg RunnerConfig
	win *Window
}

// NewRunner validates the configuration and creates a Runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Source == nil || cfg.Model == nil || cfg.State == nil {
		return nil, fmt.Errorf("gesture: runner requires a source, model and state")
	}
	if cfg.WindowSize%3 != 0 || cfg.WindowStep%3 != 0 {
		return nil, fmt.Errorf("gesture: window size (%d) and step (%d) must be multiples of 3", cfg.WindowSize, cfg.WindowStep)
	}
	if cfg.WindowStep <= 0 || cfg.WindowStep >= cfg.WindowSize {
		return nil, fmt.Errorf("gesture: window step (%d) must be in (0, %d)", cfg.WindowStep, cfg.WindowSize)
	}
	if cfg.SamplePeriod <= 0 {
		cfg.SamplePeriod = 10 * time.Millisecond
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	return &Runner{
		cfg: cfg,
		win: NewWindow(cfg.WindowSize, cfg.WindowStep),
	}, nil
}

// Run executes the inference loop until the context is cancelled. It has no
// other exit path: transient sample misses are polled through and classifier
// failures discard the window and continue, leaving the previous published
// result standing.
func (r *Runner) Run(ctx context.Context) error {
	if r.cfg.SettleDelay > 0 {
		r.cfg.Clock.Sleep(r.cfg.SettleDelay)
	}

	monitoring.Logf("[Inference] filling initial window (%d elements, step %d)", r.win.Capacity(), r.win.Step())
	initial := make([]float64, r.win.Capacity())
	if err := r.collect(ctx, initial); err != nil {
		return err
	}
	r.win.Load(initial)
	monitoring.Logf("[Inference] initial window ready, starting continuous inference")

	step := make([]float64, r.win.Step())
	for {
		if err := r.collect(ctx, step); err != nil {
			return err
		}
		r.win.Slide(step)

		scores, err := r.cfg.Model.Classify(r.win.Values())
		if err != nil {
			// A single bad window is never fatal; the previous result
			// stays visible with its old sequence.
			monitoring.Logf("[Inference] classifier error: %v (window discarded)", err)
			continue
		}

		index, confidence := argmax(scores)
		seq := r.cfg.State.Publish(index, confidence)
		monitoring.Logf("[Inference] published %s (%.3f) seq=%d", r.cfg.Labels.Name(index), confidence, seq)

		if r.cfg.OnPublish != nil {
			r.cfg.OnPublish(Result{Index: index, Confidence: confidence, Sequence: seq})
		}
	}
}

// collect fills buf with freshly sampled x,y,z triples, polling the source
// and yielding between attempts. It returns only when buf is full or the
// context is cancelled; a stalled sensor stalls the producer without
// deadlocking consumers.
func (r *Runner) collect(ctx context.Context, buf []float64) error {
	i := 0
	for i < len(buf) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s, ok := r.cfg.Source.Next(); ok {
			buf[i] = s.X
			buf[i+1] = s.Y
			buf[i+2] = s.Z
			i += 3
		}
		r.cfg.Clock.Sleep(r.cfg.SamplePeriod)
	}
	return nil
}
