// Package status provides a thread-safe status tracker for the crossing-sensor daemon.
// It is written by the sampling loop and read by HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/crossing-sensor/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	Samples     int
	Reference   int
	Margin      float64
	Source      string
	Channel     int
	PulsePin    int // -1 = disabled
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Role        string // empty = occupancy not tracked
	Capacity    int
}

// Reading is the outcome of the latest tick.
type Reading struct {
	State     logic.State
	Output    logic.Output
	Present   bool
	Average   int
	Threshold float64
	Crossings int
	Occupancy int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Reading
	Ready         bool // at least one tick classified
	ReadErrors    int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Reading:   Reading{State: logic.InitialState(), Output: logic.OutputFor(logic.InitialState())},
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the latest tick. Called from runLoop on every classified tick.
func (t *Tracker) Update(r Reading) {
	t.mu.Lock()
	t.snap.Reading = r
	t.snap.Ready = true
	t.mu.Unlock()
}

// RecordReadError counts a tick lost to a sample read failure.
func (t *Tracker) RecordReadError() {
	t.mu.Lock()
	t.snap.ReadErrors++
	t.mu.Unlock()
}

// SetReference replaces the configured reference, used after calibration.
func (t *Tracker) SetReference(ref int) {
	t.mu.Lock()
	t.snap.Config.Reference = ref
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
