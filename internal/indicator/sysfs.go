package indicator

import (
	"fmt"
	"os"
	"path/filepath"
)

// SysfsLED drives a three-channel LED through the Linux leds class
// (/sys/class/leds/<name>/brightness). Construction verifies all three
// channels are writable; a missing LED is an initialization failure and the
// process should halt rather than run with a dead indicator.
type SysfsLED struct {
	paths [3]string // red, green, blue brightness files
}

// NewSysfsLED builds a driver over the given leds directory and channel
// names, e.g. NewSysfsLED("/sys/class/leds", "red:status", "green:status",
// "blue:status").
func NewSysfsLED(ledsDir, red, green, blue string) (*SysfsLED, error) {
	l := &SysfsLED{}
	for i, name := range []string{red, green, blue} {
		path := filepath.Join(ledsDir, name, "brightness")
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("LED channel %s unavailable: %w", name, err)
		}
		l.paths[i] = path
	}
	if err := l.SetPattern(Off); err != nil {
		return nil, err
	}
	return l, nil
}

// SetPattern sets the three channels to the pattern's colour.
func (l *SysfsLED) SetPattern(p Pattern) error {
	r, g, b := p.rgb()
	for i, on := range []bool{r, g, b} {
		value := "0"
		if on {
			value = "1"
		}
		if err := os.WriteFile(l.paths[i], []byte(value), 0o644); err != nil {
			return fmt.Errorf("failed to set LED channel: %w", err)
		}
	}
	return nil
}

// Mock records every pattern set on it, for tests and dev mode.
type Mock struct {
	history []Pattern
}

// SetPattern appends to the history.
func (m *Mock) SetPattern(p Pattern) error {
	m.history = append(m.history, p)
	return nil
}

// History returns all patterns set, in order.
func (m *Mock) History() []Pattern {
	out := make([]Pattern, len(m.history))
	copy(out, m.history)
	return out
}

// Current returns the most recent pattern, or Off when none was set.
func (m *Mock) Current() Pattern {
	if len(m.history) == 0 {
		return Off
	}
	return m.history[len(m.history)-1]
}
