// Package link pushes qualifying classification results to connected peers.
// The device advertises itself over HTTP; a peer attaches by holding an SSE
// stream open and receives one notification per genuinely-new result that
// clears the transmit threshold. The link side never clears the shared
// state: it is a non-destructive observer.
package link

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/gesture.link/internal/monitoring"
)

// Notification is the wire payload for one classification result. The label
// string is resolved at this boundary; everywhere else the category index is
// the key.
type Notification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Sequence   uint64  `json:"sequence"`
}

// peerBacklog bounds undelivered notifications per peer. Gestures arrive at
// human speed; a full backlog means the peer stopped reading.
const peerBacklog = 8

// Server tracks attached peers and fans notifications out to them. All
// methods are safe for concurrent use.
type Server struct {
	name string

	mu         sync.Mutex
	peers      map[string]chan Notification
	generation uint64
	dropped    uint64
}

// NewServer creates a Server advertising under the given device name.
func NewServer(name string) *Server {
	return &Server{
		name:  name,
		peers: make(map[string]chan Notification),
	}
}

// Name returns the advertised device name.
func (s *Server) Name() string { return s.name }

// Attach registers a new peer and returns its id and notification channel.
// Each attach bumps the peer generation, which signals the link consumer to
// reset its watermark so the fresh peer immediately receives the current
// result rather than waiting for the next state change.
func (s *Server) Attach() (string, <-chan Notification) {
	id := uuid.NewString()
	ch := make(chan Notification, peerBacklog)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[id] = ch
	s.generation++
	monitoring.Logf("[Link] peer %s attached (generation %d)", id, s.generation)
	return id, ch
}

// Detach removes a peer and closes its channel.
func (s *Server) Detach(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.peers[id]; ok {
		close(ch)
		delete(s.peers, id)
		monitoring.Logf("[Link] peer %s detached", id)
	}
}

// PeerCount returns the number of attached peers.
func (s *Server) PeerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}

// Generation returns a counter that increments on every attach.
func (s *Server) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Notify fans a notification out to all attached peers without blocking:
// a peer whose backlog is full misses this notification. Returns how many
// peers it was delivered to.
func (s *Server) Notify(n Notification) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	delivered := 0
	for _, ch := range s.peers {
		select {
		case ch <- n:
			delivered++
		default:
			s.dropped++
		}
	}
	return delivered
}

// Dropped returns how many per-peer deliveries were skipped due to full
// backlogs.
func (s *Server) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// ServeEvents is the SSE endpoint a peer holds open. Each notification is
// one `data:` frame of JSON; a hello frame carrying the device name opens
// the stream.
func (s *Server) ServeEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable buffering for nginx

	id, ch := s.Attach()
	defer s.Detach(id)

	fmt.Fprintf(w, "event: hello\ndata: {\"device\":%q}\n\n", s.name)
	flusher.Flush()

	for {
		select {
		case n, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(n)
			if err != nil {
				monitoring.Logf("[Link] failed to marshal notification: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
