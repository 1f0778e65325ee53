package indicator

import (
	"context"
	"time"

	"github.com/banshee-data/gesture.link/internal/gesture"
	"github.com/banshee-data/gesture.link/internal/monitoring"
	"github.com/banshee-data/gesture.link/internal/timeutil"
)

// Consumer polls the shared result at a fixed low frequency and drives the
// indicator. Discrete gestures are shown for a dwell duration, reverted to
// off, and the shared state is cleared (the consume-clear discipline).
// Status labels (idle, unrecognized) are shown continuously and never
// trigger a clear.
type Consumer struct {
	state     *gesture.State
	ind       Indicator
	labels    gesture.Labels
	threshold float64
	dwell     time.Duration
	interval  time.Duration
	clock     timeutil.Clock

	// watermark is the last sequence acted on. Private to this consumer.
	watermark uint64
}

// ConsumerConfig collects the collaborators and policy of the indicator
// loop.
type ConsumerConfig struct {
	State     *gesture.State
	Indicator Indicator
	Labels    gesture.Labels

	// Threshold is the minimum confidence to display a result.
	Threshold float64

	// Dwell is how long a discrete gesture pattern is held.
	Dwell time.Duration

	// Interval is the poll period between reads of the shared state.
	Interval time.Duration

	// Clock defaults to the real clock when nil.
	Clock timeutil.Clock
}

// NewConsumer creates an indicator consumer.
func NewConsumer(cfg ConsumerConfig) *Consumer {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 100 * time.Millisecond
	}
	return &Consumer{
		state:     cfg.State,
		ind:       cfg.Indicator,
		labels:    cfg.Labels,
		threshold: cfg.Threshold,
		dwell:     cfg.Dwell,
		interval:  cfg.Interval,
		clock:     cfg.Clock,
	}
}

// Run polls until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.tick()
		c.clock.Sleep(c.interval)
	}
}

// tick performs one read-and-react cycle. Split out from Run so tests can
// drive the loop tick by tick.
func (c *Consumer) tick() {
	r := c.state.Read()
	if r.Sequence == c.watermark {
		// Nothing new since the last look.
		return
	}
	c.watermark = r.Sequence

	if r.None() || r.Confidence < c.threshold {
		c.set(Off)
		return
	}

	label := c.labels.Name(r.Index)
	pattern, discrete := patternFor(label)

	if !discrete {
		// Continuous status indication: hold the pattern, keep the
		// result standing for the link consumer.
		c.set(pattern)
		return
	}

	// Discrete gesture: pulse for the dwell duration, then consume the
	// result so the same sequence cannot re-trigger even though the
	// producer keeps re-publishing while the gesture continues.
	c.set(pattern)
	c.clock.Sleep(c.dwell)
	c.set(Off)
	c.state.Clear()
}

func (c *Consumer) set(p Pattern) {
	if err := c.ind.SetPattern(p); err != nil {
		monitoring.Logf("[LED] failed to set pattern %s: %v", p, err)
	}
}
