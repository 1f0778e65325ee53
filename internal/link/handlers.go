package link

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/banshee-data/gesture.link/internal/db"
	"github.com/banshee-data/gesture.link/internal/gesture"
)

// EventStore is the slice of the event database the HTTP API reads.
type EventStore interface {
	RecentGestures(limit int) ([]db.GestureEvent, error)
}

// AttachRoutes registers the device's HTTP surface on mux: the SSE stream
// peers hold open, a status snapshot, and the recent gesture history.
func AttachRoutes(mux *http.ServeMux, s *Server, state *gesture.State, labels gesture.Labels, store EventStore) {
	mux.HandleFunc("/events", s.ServeEvents)

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		cur := state.Read()
		writeJSON(w, map[string]interface{}{
			"device":     s.Name(),
			"peers":      s.PeerCount(),
			"sequence":   cur.Sequence,
			"label":      labels.Name(cur.Index),
			"confidence": cur.Confidence,
			"standing":   !cur.None(),
		})
	})

	mux.HandleFunc("/api/events", func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		events, err := store.RecentGestures(limit)
		if err != nil {
			http.Error(w, "failed to read events", http.StatusInternalServerError)
			return
		}
		if events == nil {
			events = []db.GestureEvent{}
		}
		writeJSON(w, events)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
