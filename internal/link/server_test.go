package link

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/gesture.link/internal/db"
	"github.com/banshee-data/gesture.link/internal/gesture"
)

func TestNotifyFansOutToAllPeers(t *testing.T) {
	srv := NewServer("test-device")

	id1, ch1 := srv.Attach()
	defer srv.Detach(id1)
	id2, ch2 := srv.Attach()
	defer srv.Detach(id2)

	if got := srv.PeerCount(); got != 2 {
		t.Fatalf("PeerCount() = %d, want 2", got)
	}

	n := Notification{Label: "up", Confidence: 0.9, Sequence: 4}
	if delivered := srv.Notify(n); delivered != 2 {
		t.Errorf("Notify delivered to %d peers, want 2", delivered)
	}
	if got := <-ch1; got != n {
		t.Errorf("peer 1 got %+v", got)
	}
	if got := <-ch2; got != n {
		t.Errorf("peer 2 got %+v", got)
	}
}

func TestNotifySkipsFullBacklog(t *testing.T) {
	srv := NewServer("test-device")
	id, _ := srv.Attach()
	defer srv.Detach(id)

	for i := 0; i < peerBacklog+3; i++ {
		srv.Notify(Notification{Sequence: uint64(i + 1)})
	}
	if got := srv.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
}

func TestAttachBumpsGeneration(t *testing.T) {
	srv := NewServer("test-device")
	if srv.Generation() != 0 {
		t.Fatalf("fresh server generation = %d", srv.Generation())
	}

	id1, _ := srv.Attach()
	if srv.Generation() != 1 {
		t.Errorf("generation after first attach = %d, want 1", srv.Generation())
	}
	srv.Detach(id1)

	// Detach does not bump; the next attach does.
	if srv.Generation() != 1 {
		t.Errorf("generation after detach = %d, want 1", srv.Generation())
	}
	id2, _ := srv.Attach()
	defer srv.Detach(id2)
	if srv.Generation() != 2 {
		t.Errorf("generation after second attach = %d, want 2", srv.Generation())
	}
}

func TestDetachClosesChannel(t *testing.T) {
	srv := NewServer("test-device")
	id, ch := srv.Attach()
	srv.Detach(id)

	if _, ok := <-ch; ok {
		t.Error("channel still open after Detach")
	}
	// Double detach is harmless.
	srv.Detach(id)
}

func TestServeEventsStreamsNotifications(t *testing.T) {
	srv := NewServer("sse-device")
	ts := httptest.NewServer(http.HandlerFunc(srv.ServeEvents))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)

	// Hello frame opens the stream.
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if !strings.HasPrefix(line, "event: hello") {
		t.Fatalf("first line = %q, want hello event", line)
	}
	data, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read hello data: %v", err)
	}
	if !strings.Contains(data, "sse-device") {
		t.Errorf("hello data = %q, want device name", data)
	}

	// Wait for the handler to register the peer, then notify.
	deadline := time.Now().Add(2 * time.Second)
	for srv.PeerCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("peer never attached")
		}
		time.Sleep(time.Millisecond)
	}
	srv.Notify(Notification{Label: "up", Confidence: 0.9, Sequence: 3})

	var payload string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read notification: %v", err)
		}
		if strings.HasPrefix(line, "data: ") {
			payload = strings.TrimPrefix(strings.TrimSpace(line), "data: ")
			break
		}
	}

	var n Notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		t.Fatalf("unmarshal %q: %v", payload, err)
	}
	if n.Label != "up" || n.Sequence != 3 {
		t.Errorf("notification = %+v", n)
	}
}

func TestServeEventsRejectsPost(t *testing.T) {
	srv := NewServer("sse-device")
	ts := httptest.NewServer(http.HandlerFunc(srv.ServeEvents))
	defer ts.Close()

	resp, err := http.Post(ts.URL, "text/plain", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

type stubStore struct {
	events []db.GestureEvent
	err    error
}

func (s *stubStore) RecentGestures(limit int) ([]db.GestureEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.events) {
		return s.events[:limit], nil
	}
	return s.events, nil
}

func TestStatusEndpoint(t *testing.T) {
	state := gesture.NewState()
	state.Publish(5, 0.87)
	srv := NewServer("status-device")

	mux := http.NewServeMux()
	AttachRoutes(mux, srv, state, testLabels, &stubStore{})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()

	var status struct {
		Device     string  `json:"device"`
		Peers      int     `json:"peers"`
		Sequence   uint64  `json:"sequence"`
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
		Standing   bool    `json:"standing"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Device != "status-device" || status.Label != "up" || status.Sequence != 1 || !status.Standing {
		t.Errorf("status = %+v", status)
	}
}

func TestEventsEndpoint(t *testing.T) {
	store := &stubStore{events: []db.GestureEvent{
		{ID: 2, Label: "left", Confidence: 0.7, Sequence: 2},
		{ID: 1, Label: "up", Confidence: 0.9, Sequence: 1},
	}}

	mux := http.NewServeMux()
	AttachRoutes(mux, NewServer("d"), gesture.NewState(), testLabels, store)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/events?limit=1")
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()

	var events []db.GestureEvent
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 || events[0].Label != "left" {
		t.Errorf("events = %+v", events)
	}

	// Bad limit is a client error.
	resp2, err := http.Get(ts.URL + "/api/events?limit=zero")
	if err != nil {
		t.Fatalf("GET bad limit: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", resp2.StatusCode)
	}
}
