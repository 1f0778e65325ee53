// Command gesture-peer subscribes to a gesture device's event stream and
// runs a shell action for each qualifying gesture. It applies its own
// confidence threshold and a per-gesture cooldown on top of whatever the
// device already filtered, and reconnects automatically when the stream
// drops.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

var (
	deviceURL  = flag.String("device", "http://localhost:8080", "Base URL of the gesture device")
	threshold  = flag.Float64("threshold", 0.70, "Minimum confidence to act on a gesture")
	cooldown   = flag.Duration("cooldown", 2*time.Second, "Minimum interval between actions for the same gesture")
	actionPath = flag.String("actions", "", "Optional JSON file mapping gesture labels to shell commands")
	retryDelay = flag.Duration("retry", 3*time.Second, "Delay before reconnecting after the stream drops")
)

type notification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Sequence   uint64  `json:"sequence"`
}

func loadActions(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read actions file: %w", err)
	}
	actions := make(map[string]string)
	if err := json.Unmarshal(data, &actions); err != nil {
		return nil, fmt.Errorf("failed to parse actions file: %w", err)
	}
	return actions, nil
}

// peer holds the client-side filtering state: the last time each gesture
// fired, so repeated detections inside the cooldown are ignored.
type peer struct {
	threshold float64
	cooldown  time.Duration
	actions   map[string]string
	lastFired map[string]time.Time
}

func (p *peer) handle(n notification) {
	if n.Confidence < p.threshold {
		log.Printf("[Peer] ignoring %s (%.2f below %.2f)", n.Label, n.Confidence, p.threshold)
		return
	}
	if last, ok := p.lastFired[n.Label]; ok && time.Since(last) < p.cooldown {
		log.Printf("[Peer] ignoring %s (cooldown)", n.Label)
		return
	}
	p.lastFired[n.Label] = time.Now()
	log.Printf("[Peer] gesture %s (%.2f, seq %d)", n.Label, n.Confidence, n.Sequence)

	cmd, ok := p.actions[n.Label]
	if !ok {
		return
	}
	out, err := exec.Command("sh", "-c", cmd).CombinedOutput()
	if err != nil {
		log.Printf("[Peer] action for %s failed: %v (%s)", n.Label, err, strings.TrimSpace(string(out)))
	}
}

// stream holds one SSE connection open and dispatches its frames. It
// returns when the connection drops or ctx is cancelled.
func (p *peer) stream(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("device returned %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	var event string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data := strings.TrimPrefix(line, "data: ")
			if event == "hello" {
				var hello struct {
					Device string `json:"device"`
				}
				if err := json.Unmarshal([]byte(data), &hello); err == nil {
					log.Printf("[Peer] connected to %q", hello.Device)
				}
				event = ""
				continue
			}
			var n notification
			if err := json.Unmarshal([]byte(data), &n); err != nil {
				log.Printf("[Peer] bad frame %q: %v", data, err)
				continue
			}
			p.handle(n)
		case line == "":
			event = ""
		}
	}
	return scanner.Err()
}

func main() {
	flag.Parse()

	actions, err := loadActions(*actionPath)
	if err != nil {
		log.Fatalf("failed to load actions: %v", err)
	}

	p := &peer{
		threshold: *threshold,
		cooldown:  *cooldown,
		actions:   actions,
		lastFired: make(map[string]time.Time),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Print("shutting down")
		cancel()
	}()

	url := strings.TrimRight(*deviceURL, "/") + "/events"
	for ctx.Err() == nil {
		if err := p.stream(ctx, url); err != nil && ctx.Err() == nil {
			log.Printf("[Peer] stream dropped: %v, retrying in %s", err, *retryDelay)
		}
		select {
		case <-ctx.Done():
		case <-time.After(*retryDelay):
		}
	}
}
