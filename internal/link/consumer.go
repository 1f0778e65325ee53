package link

import (
	"context"
	"time"

	"github.com/banshee-data/gesture.link/internal/gesture"
	"github.com/banshee-data/gesture.link/internal/monitoring"
	"github.com/banshee-data/gesture.link/internal/timeutil"
)

// Consumer polls the shared result while a peer is attached and pushes at
// most one notification per qualifying sequence. With no peer attached it
// idles; the HTTP listener is the advertisement.
type Consumer struct {
	state     *gesture.State
	srv       *Server
	labels    gesture.Labels
	threshold float64
	interval  time.Duration
	clock     timeutil.Clock

	// lastPublished is the watermark of the last sequence sent to the
	// current peer set; reset to 0 whenever a new peer attaches so a
	// fresh peer immediately receives the standing result.
	lastPublished  uint64
	lastGeneration uint64

	onNotify func(Notification, int)
}

// ConsumerConfig collects the collaborators and policy of the link loop.
type ConsumerConfig struct {
	State  *gesture.State
	Server *Server
	Labels gesture.Labels

	// Threshold is the minimum confidence to transmit; configured
	// independently of the indicator's threshold.
	Threshold float64

	// Interval is the poll period between reads of the shared state.
	Interval time.Duration

	// Clock defaults to the real clock when nil.
	Clock timeutil.Clock

	// OnNotify, when set, is invoked after each fan-out with the payload
	// and the number of peers it reached.
	OnNotify func(Notification, int)
}

// NewConsumer creates a link consumer.
func NewConsumer(cfg ConsumerConfig) *Consumer {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 100 * time.Millisecond
	}
	return &Consumer{
		state:     cfg.State,
		srv:       cfg.Server,
		labels:    cfg.Labels,
		threshold: cfg.Threshold,
		interval:  cfg.Interval,
		clock:     cfg.Clock,
		onNotify:  cfg.OnNotify,
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

// tick performs one poll-and-maybe-notify cycle. Split out from Run so
// tests can drive the loop tick by tick.
func (c *Consumer) tick() {
	if c.srv.PeerCount() == 0 {
		// No peer: keep advertising, nothing to push.
		return
	}

	if gen := c.srv.Generation(); gen != c.lastGeneration {
		c.lastGeneration = gen
		c.lastPublished = 0
	}

	r := c.state.Read()
	// A candidate requires: a result has occurred at least once, it was
	// not already sent to the current peer set, it is standing (not
	// cleared), and it clears the transmit threshold.
	if r.Sequence == 0 || r.Sequence == c.lastPublished || r.None() || r.Confidence < c.threshold {
		return
	}

	n := Notification{
		Label:      c.labels.Name(r.Index),
		Confidence: r.Confidence,
		Sequence:   r.Sequence,
	}
	delivered := c.srv.Notify(n)
	c.lastPublished = r.Sequence
	monitoring.Logf("[Link] published %s (%.3f) seq=%d to %d peer(s)", n.Label, n.Confidence, n.Sequence, delivered)

	if c.onNotify != nil {
		c.onNotify(n, delivered)
	}
}
