package link

import (
	"testing"
	"time"

	"github.com/banshee-data/gesture.link/internal/gesture"
	"github.com/banshee-data/gesture.link/internal/monitoring"
	"github.com/banshee-data/gesture.link/internal/timeutil"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

var testLabels = gesture.Labels{"down", "idle", "left", "right", "unknown", "up"}

type capture struct {
	notifications []Notification
}

func newTestConsumer(state *gesture.State, srv *Server) (*Consumer, *capture) {
	cap := &capture{}
	c := NewConsumer(ConsumerConfig{
		State:     state,
		Server:    srv,
		Labels:    testLabels,
		Threshold: 0.55,
		Interval:  100 * time.Millisecond,
		Clock:     timeutil.NewMockClock(time.Now()),
		OnNotify: func(n Notification, peers int) {
			cap.notifications = append(cap.notifications, n)
		},
	})
	return c, cap
}

// attachTestPeer attaches a peer and drains its channel in the background.
func attachTestPeer(t *testing.T, srv *Server) (string, <-chan Notification) {
	t.Helper()
	id, ch := srv.Attach()
	t.Cleanup(func() { srv.Detach(id) })
	return id, ch
}

func TestThresholdGatesNotification(t *testing.T) {
	state := gesture.NewState()
	srv := NewServer("test-device")
	c, cap := newTestConsumer(state, srv)
	_, ch := attachTestPeer(t, srv)

	// Below the 0.55 transmit threshold: nothing is sent.
	state.Publish(testLabels.Index("down"), 0.40) // sequence 7 in spirit
	c.tick()
	if len(cap.notifications) != 0 {
		t.Fatalf("below-threshold result was sent: %+v", cap.notifications)
	}

	// Above threshold: exactly one notification.
	state.Publish(testLabels.Index("down"), 0.70)
	c.tick()
	if len(cap.notifications) != 1 {
		t.Fatalf("got %d notifications, want 1", len(cap.notifications))
	}
	n := <-ch
	if n.Label != "down" || n.Confidence != 0.70 || n.Sequence != 2 {
		t.Errorf("notification = %+v", n)
	}

	// Re-reading the same sequence sends no duplicate.
	c.tick()
	c.tick()
	if len(cap.notifications) != 1 {
		t.Errorf("duplicate sent for unchanged sequence: %+v", cap.notifications)
	}
}

func TestNoPeerNoPublish(t *testing.T) {
	state := gesture.NewState()
	srv := NewServer("test-device")
	c, cap := newTestConsumer(state, srv)

	state.Publish(testLabels.Index("up"), 0.9)
	c.tick()
	if len(cap.notifications) != 0 {
		t.Errorf("published with no peer attached")
	}

	// Once a peer attaches, the standing result goes out.
	attachTestPeer(t, srv)
	c.tick()
	if len(cap.notifications) != 1 {
		t.Errorf("standing result not sent to first peer")
	}
}

func TestNeverPublishedNeverSent(t *testing.T) {
	state := gesture.NewState()
	srv := NewServer("test-device")
	c, cap := newTestConsumer(state, srv)
	attachTestPeer(t, srv)

	c.tick()
	if len(cap.notifications) != 0 {
		t.Errorf("sequence 0 was sent: %+v", cap.notifications)
	}
}

func TestClearedResultNotSent(t *testing.T) {
	state := gesture.NewState()
	srv := NewServer("test-device")
	c, cap := newTestConsumer(state, srv)
	attachTestPeer(t, srv)

	state.Publish(testLabels.Index("up"), 0.9)
	state.Clear() // the indicator consumed it first
	c.tick()
	if len(cap.notifications) != 0 {
		t.Errorf("cleared result was sent: %+v", cap.notifications)
	}
}

func TestReconnectionResetsWatermark(t *testing.T) {
	state := gesture.NewState()
	srv := NewServer("test-device")
	c, cap := newTestConsumer(state, srv)

	firstID, _ := srv.Attach()
	state.Publish(testLabels.Index("right"), 0.8)
	c.tick()
	if len(cap.notifications) != 1 {
		t.Fatalf("first peer did not receive the result")
	}
	srv.Detach(firstID)

	// Same still-qualifying sequence, new peer: sent again.
	attachTestPeer(t, srv)
	c.tick()
	if len(cap.notifications) != 2 {
		t.Fatalf("fresh peer did not receive the standing result")
	}
	if cap.notifications[1].Sequence != cap.notifications[0].Sequence {
		t.Errorf("resent sequence %d, want %d",
			cap.notifications[1].Sequence, cap.notifications[0].Sequence)
	}
}

func TestLinkConsumerNeverClears(t *testing.T) {
	state := gesture.NewState()
	srv := NewServer("test-device")
	c, _ := newTestConsumer(state, srv)
	attachTestPeer(t, srv)

	state.Publish(testLabels.Index("up"), 0.9)
	c.tick()

	if state.Read().None() {
		t.Error("link consumer cleared the shared state")
	}
}
