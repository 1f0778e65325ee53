// Package config loads the process-wide tuning parameters for the gesture
// pipeline. All values are read once at startup; there is no runtime
// reconfiguration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Tuning represents the root configuration for the gesture daemon. Fields
// omitted from the JSON file retain their defaults, so partial configs are
// safe. The Get* methods provide the fallback values.
type Tuning struct {
	// Category table. Indices are the wire key and must be stable for the
	// lifetime of the process.
	Labels *[]string `json:"labels,omitempty"`

	// Inference window params. Sizes are in scalar elements; each motion
	// sample contributes three (x, y, z).
	WindowSize *int `json:"window_size,omitempty"`
	WindowStep *int `json:"window_step,omitempty"`

	// Sampling params
	SamplePeriod *string `json:"sample_period,omitempty"` // duration string like "10ms"
	SettleDelay  *string `json:"settle_delay,omitempty"`  // delay before first fill

	// Indicator params
	IndicatorThreshold *float64 `json:"indicator_threshold,omitempty"`
	IndicatorInterval  *string  `json:"indicator_interval,omitempty"`
	GestureDwell       *string  `json:"gesture_dwell,omitempty"`

	// Link params
	TransmitThreshold *float64 `json:"transmit_threshold,omitempty"`
	LinkInterval      *string  `json:"link_interval,omitempty"`
	DeviceName        *string  `json:"device_name,omitempty"`
}

// DefaultLabels is the category table of the five-class motion model, in
// model output order.
var DefaultLabels = []string{"down", "idle", "left", "right", "unknown", "up"}

// EmptyTuning returns a Tuning with all fields unset.
func EmptyTuning() *Tuning {
	return &Tuning{}
}

// Load reads a Tuning from a JSON file. The file must have a .json extension
// and parse cleanly; the result is validated before being returned.
func Load(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuning()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Tuning) Validate() error {
	if c.Labels != nil && len(*c.Labels) == 0 {
		return fmt.Errorf("labels must not be empty when set")
	}

	if c.WindowSize != nil && *c.WindowSize <= 0 {
		return fmt.Errorf("window_size must be positive, got %d", *c.WindowSize)
	}
	if c.WindowStep != nil {
		if *c.WindowStep <= 0 {
			return fmt.Errorf("window_step must be positive, got %d", *c.WindowStep)
		}
		if *c.WindowStep%3 != 0 {
			return fmt.Errorf("window_step must be a multiple of 3 (x,y,z triples), got %d", *c.WindowStep)
		}
	}
	if c.WindowSize != nil && c.WindowStep != nil && *c.WindowStep >= *c.WindowSize {
		return fmt.Errorf("window_step (%d) must be smaller than window_size (%d)", *c.WindowStep, *c.WindowSize)
	}

	for name, v := range map[string]*float64{
		"indicator_threshold": c.IndicatorThreshold,
		"transmit_threshold":  c.TransmitThreshold,
	} {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
		}
	}

	for name, v := range map[string]*string{
		"sample_period":      c.SamplePeriod,
		"settle_delay":       c.SettleDelay,
		"indicator_interval": c.IndicatorInterval,
		"gesture_dwell":      c.GestureDwell,
		"link_interval":      c.LinkInterval,
	} {
		if v != nil && *v != "" {
			if _, err := time.ParseDuration(*v); err != nil {
				return fmt.Errorf("invalid %s %q: %w", name, *v, err)
			}
		}
	}

	return nil
}

// GetLabels returns the category table or the default five-class table.
func (c *Tuning) GetLabels() []string {
	if c.Labels == nil {
		return DefaultLabels
	}
	return *c.Labels
}

// GetWindowSize returns window_size or the default (120 samples x 3 axes).
func (c *Tuning) GetWindowSize() int {
	if c.WindowSize == nil {
		return 360
	}
	return *c.WindowSize
}

// GetWindowStep returns window_step or the default (2 samples x 3 axes).
func (c *Tuning) GetWindowStep() int {
	if c.WindowStep == nil {
		return 6
	}
	return *c.WindowStep
}

// GetSamplePeriod returns sample_period or the default.
func (c *Tuning) GetSamplePeriod() time.Duration {
	return c.duration(c.SamplePeriod, 10*time.Millisecond)
}

// GetSettleDelay returns settle_delay or the default.
func (c *Tuning) GetSettleDelay() time.Duration {
	return c.duration(c.SettleDelay, time.Second)
}

// GetIndicatorThreshold returns indicator_threshold or the default.
func (c *Tuning) GetIndicatorThreshold() float64 {
	if c.IndicatorThreshold == nil {
		return 0.65
	}
	return *c.IndicatorThreshold
}

// GetIndicatorInterval returns indicator_interval or the default.
func (c *Tuning) GetIndicatorInterval() time.Duration {
	return c.duration(c.IndicatorInterval, 100*time.Millisecond)
}

// GetGestureDwell returns gesture_dwell or the default.
func (c *Tuning) GetGestureDwell() time.Duration {
	return c.duration(c.GestureDwell, 500*time.Millisecond)
}

// GetTransmitThreshold returns transmit_threshold or the default.
func (c *Tuning) GetTransmitThreshold() float64 {
	if c.TransmitThreshold == nil {
		return 0.55
	}
	return *c.TransmitThreshold
}

// GetLinkInterval returns link_interval or the default.
func (c *Tuning) GetLinkInterval() time.Duration {
	return c.duration(c.LinkInterval, 100*time.Millisecond)
}

// GetDeviceName returns device_name or the default advertised name.
func (c *Tuning) GetDeviceName() string {
	if c.DeviceName == nil {
		return "5ClassForwarder"
	}
	return *c.DeviceName
}

func (c *Tuning) duration(v *string, fallback time.Duration) time.Duration {
	if v == nil || *v == "" {
		return fallback
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fallback
	}
	return d
}
