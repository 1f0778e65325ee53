package imu

import (
	"fmt"
	"os"
	"strings"

	"github.com/banshee-data/gesture.link/internal/gesture"
)

// ReplaySource yields a recorded sample trace, for dev mode and tests. With
// loop set it restarts from the beginning when exhausted, simulating a
// sensor that never runs dry.
type ReplaySource struct {
	samples []gesture.Sample
	pos     int
	loop    bool
}

// NewReplaySource creates a source over the given trace.
func NewReplaySource(samples []gesture.Sample, loop bool) *ReplaySource {
	return &ReplaySource{samples: samples, loop: loop}
}

// Next returns the next recorded sample. Every poll succeeds until the
// trace is exhausted (non-looping sources then report false forever).
func (r *ReplaySource) Next() (gesture.Sample, bool) {
	if r.pos >= len(r.samples) {
		if !r.loop || len(r.samples) == 0 {
			return gesture.Sample{}, false
		}
		r.pos = 0
	}
	s := r.samples[r.pos]
	r.pos++
	return s, true
}

// LoadFixture reads a sample trace from a fixtures file: one "x,y,z" line
// per sample, blank lines and #-comments skipped.
func LoadFixture(path string) ([]gesture.Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures file: %w", err)
	}

	var samples []gesture.Sample
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s, err := parseSample(line)
		if err != nil {
			return nil, fmt.Errorf("fixtures line %d: %w", i+1, err)
		}
		samples = append(samples, s)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("fixtures file %s contains no samples", path)
	}
	return samples, nil
}
