package imu

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/gesture.link/internal/gesture"
	"github.com/banshee-data/gesture.link/internal/monitoring"
)

// sampleBacklog bounds how many parsed samples can queue between the reader
// goroutine and the inference loop before new readings are dropped. The
// inference loop polls faster than the sensor produces, so the queue only
// fills when the consumer stalls.
const sampleBacklog = 64

// SerialSource adapts a line-oriented serial IMU to gesture.SampleSource.
// A reader goroutine owns the port; Next never blocks.
type SerialSource struct {
	port      Porter
	samples   chan gesture.Sample
	closeOnce sync.Once

	dropped   atomic.Uint64
	malformed atomic.Uint64
}

// NewSerialSource wraps an open port and starts the reader goroutine.
func NewSerialSource(port Porter) *SerialSource {
	s := &SerialSource{
		port:    port,
		samples: make(chan gesture.Sample, sampleBacklog),
	}
	go s.monitor()
	return s
}

// Open opens the serial device at path and returns a running source.
func Open(path string, baudRate int) (*SerialSource, error) {
	port, err := OpenPort(path, baudRate)
	if err != nil {
		return nil, err
	}
	return NewSerialSource(port), nil
}

// Next returns the oldest queued sample, if any. It never blocks: a sensor
// that has produced nothing yet reports false and the caller polls again.
func (s *SerialSource) Next() (gesture.Sample, bool) {
	select {
	case smp, ok := <-s.samples:
		return smp, ok
	default:
		return gesture.Sample{}, false
	}
}

// Close closes the underlying port; the reader goroutine exits on the
// resulting read error.
func (s *SerialSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.port.Close()
	})
	return err
}

// Dropped returns how many samples were discarded because the backlog was
// full.
func (s *SerialSource) Dropped() uint64 { return s.dropped.Load() }

// Malformed returns how many lines failed to parse.
func (s *SerialSource) Malformed() uint64 { return s.malformed.Load() }

// monitor reads lines from the port until it fails (port closed or sensor
// gone) and queues parsed samples without ever blocking on the consumer.
func (s *SerialSource) monitor() {
	defer close(s.samples)

	scan := bufio.NewScanner(s.port)
	for scan.Scan() {
		smp, err := parseSample(scan.Text())
		if err != nil {
			// Firmware consoles interleave boot chatter with data;
			// count and move on rather than treating it as fatal.
			s.malformed.Add(1)
			continue
		}
		select {
		case s.samples <- smp:
		default:
			s.dropped.Add(1)
		}
	}
	if err := scan.Err(); err != nil {
		monitoring.Logf("[IMU] serial read ended: %v", err)
	}
}

// parseSample parses one "x,y,z" line of acceleration values in g.
func parseSample(line string) (gesture.Sample, error) {
	segments := strings.Split(strings.TrimSpace(line), ",")
	if len(segments) != 3 {
		return gesture.Sample{}, fmt.Errorf("invalid sample line %q: expected 3 segments", line)
	}

	var out [3]float64
	for i, seg := range segments {
		v, err := strconv.ParseFloat(strings.TrimSpace(seg), 64)
		if err != nil {
			return gesture.Sample{}, fmt.Errorf("failed to parse axis %d of %q: %w", i, line, err)
		}
		out[i] = v
	}
	return gesture.Sample{X: out[0], Y: out[1], Z: out[2]}, nil
}
