// Package indicator drives the device's RGB status light from the shared
// classification result. It is the destructive consumer of the pipeline:
// after showing a discrete gesture it clears the shared state so one
// physical pulse fires per published sequence.
package indicator

import "fmt"

// Pattern identifies a display pattern on the RGB indicator.
type Pattern int

const (
	Off Pattern = iota
	Green
	Yellow
	Blue
	Purple
	Red
	White
)

var patternNames = map[Pattern]string{
	Off:    "off",
	Green:  "green",
	Yellow: "yellow",
	Blue:   "blue",
	Purple: "purple",
	Red:    "red",
	White:  "white",
}

func (p Pattern) String() string {
	if s, ok := patternNames[p]; ok {
		return s
	}
	return fmt.Sprintf("pattern(%d)", int(p))
}

// rgb returns the channel bits for a pattern.
func (p Pattern) rgb() (r, g, b bool) {
	switch p {
	case Green:
		return false, true, false
	case Yellow:
		return true, true, false
	case Blue:
		return false, false, true
	case Purple:
		return true, false, true
	case Red:
		return true, false, false
	case White:
		return true, true, true
	default:
		return false, false, false
	}
}

// Indicator is the physical display primitive.
type Indicator interface {
	SetPattern(Pattern) error
}

// gesturePatterns maps discrete gesture labels to their display pattern,
// matching the device's colour scheme: up=green, down=yellow, left=blue,
// right=purple.
var gesturePatterns = map[string]Pattern{
	"up":    Green,
	"down":  Yellow,
	"left":  Blue,
	"right": Purple,
}

// statusPatterns maps continuous status labels: idle=red, unrecognized
// motion=white. These are held, not pulsed.
var statusPatterns = map[string]Pattern{
	"idle":    Red,
	"unknown": White,
}

// patternFor resolves a label to its pattern and whether it is a discrete
// gesture (pulse + clear) as opposed to a continuous status indication.
func patternFor(label string) (p Pattern, discrete bool) {
	if p, ok := gesturePatterns[label]; ok {
		return p, true
	}
	if p, ok := statusPatterns[label]; ok {
		return p, false
	}
	// A label outside the table behaves like unrecognized motion.
	return White, false
}
