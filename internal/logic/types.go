// Package logic contains the pure crossing-detection logic.
// This package has NO external dependencies (no ADC, GPIO, MQTT, OS, or time.Sleep).
// Samples come through the SampleReader interface and time is always injected.
package logic

import (
	"errors"
	"time"
)

// State is the crossing state machine's current state.
type State string

const (
	StateIdle             State = "IDLE"
	StateObstaclePresent  State = "OBSTACLE_PRESENT"
	StateObstacleJustLeft State = "OBSTACLE_JUST_LEFT"
)

// Presence is the classifier's verdict for one tick.
type Presence string

const (
	Absent  Presence = "ABSENT"
	Present Presence = "PRESENT"
)

// PresenceOf converts a detectObstacle result into a Presence symbol.
func PresenceOf(obstacle bool) Presence {
	if obstacle {
		return Present
	}
	return Absent
}

// Output is the state machine's output, a projection of the current state.
type Output string

const (
	NoCrossing Output = "NO_CROSSING"
	Crossing   Output = "CROSSING"
)

// ErrInvalidSamples is returned when a sample count below 1 is requested.
var ErrInvalidSamples = errors.New("sample count must be at least 1")

// Params are the per-call detection parameters.
type Params struct {
	// Number of analog reads averaged per decision
	Samples int
	// Brightness with no obstacle in front of the sensor
	Reference int
	// Fractional drop below Reference that counts as an obstacle, expected in [0,1)
	Margin float64
}

// Threshold returns the brightness below which an obstacle is present.
func (p Params) Threshold() float64 {
	return (1 - p.Margin) * float64(p.Reference)
}

// Classification is the result of one classifier call.
type Classification struct {
	Average   int
	Threshold float64
	Present   bool
}

// Input is one tick's classification handed to the Detector.
type Input struct {
	Present   bool
	Average   int
	Threshold float64
	Time      time.Time
}

// Event is emitted on the tick the state machine outputs Crossing.
type Event struct {
	Timestamp time.Time
	Count     int // crossings since startup, including this one
	Average   int
	Threshold float64

	// Set only when the detector tracks occupancy
	Role      Role
	Occupancy int // after applying this crossing
	Capacity  int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Crossings int
}
