// Package imu reads 3-axis motion samples from a serial-attached IMU. The
// device streams one "x,y,z" line per sample; this package turns that stream
// into the non-blocking poll interface the inference loop consumes.
package imu

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Porter is the minimal interface needed from a serial port. The
// abstraction enables unit testing without real sensor hardware.
type Porter interface {
	io.Reader
	io.Closer
}

// DefaultBaudRate matches the firmware's serial console rate.
const DefaultBaudRate = 115200

// OpenPort opens the serial device at the given path. A failure here is an
// initialization failure: the caller is expected to halt rather than run
// without a sensor.
func OpenPort(path string, baudRate int) (Porter, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	port, err := serial.Open(path, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("failed to open IMU port %s: %w", path, err)
	}
	return port, nil
}
