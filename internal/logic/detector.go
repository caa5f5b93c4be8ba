package logic

import "time"

// Detector threads the crossing state through successive ticks and counts
// crossings since startup. Counts are held in memory only.
type Detector struct {
	state         State
	crossings     int
	startTime     time.Time
	lastHeartbeat time.Time

	role          Role
	occupancy     *Occupancy
	lastReport    time.Time
	lastSensorMsg time.Time
}

// NewDetector creates a Detector in the initial state.
// The startTime is used for calculating uptime in heartbeat events.
func NewDetector(startTime time.Time) *Detector {
	return &Detector{
		state:         InitialState(),
		startTime:     startTime,
		lastHeartbeat: startTime,
		lastReport:    startTime,
		lastSensorMsg: startTime,
	}
}

// TrackOccupancy makes every crossing apply role's delta to occ.
func (d *Detector) TrackOccupancy(role Role, occ *Occupancy) {
	d.role = role
	d.occupancy = occ
}

// Process advances the state machine by one tick and returns an event if the
// new state outputs Crossing, nil otherwise.
func (d *Detector) Process(input Input) *Event {
	d.state = NextState(d.state, PresenceOf(input.Present))

	if OutputFor(d.state) != Crossing {
		return nil
	}

	d.crossings++
	event := &Event{
		Timestamp: input.Time,
		Count:     d.crossings,
		Average:   input.Average,
		Threshold: input.Threshold,
	}
	if d.occupancy != nil {
		event.Role = d.role
		event.Occupancy = d.occupancy.Apply(d.role.Delta())
		event.Capacity = d.occupancy.Capacity()
	}
	return event
}

// State returns the current state.
func (d *Detector) State() State {
	return d.state
}

// Output returns the output for the current state.
func (d *Detector) Output() Output {
	return OutputFor(d.state)
}

// Count returns the number of crossings since startup.
func (d *Detector) Count() int {
	return d.crossings
}

// Occupancy returns the tracked occupancy, nil when not tracking.
func (d *Detector) Occupancy() *Occupancy {
	return d.occupancy
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if !due(&d.lastHeartbeat, now, interval) {
		return nil
	}

	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Crossings: d.crossings,
	}
}

// CheckOccupancyReport returns the occupancy to publish if interval has
// elapsed since the last report. Nil when not tracking or interval <= 0.
func (d *Detector) CheckOccupancyReport(now time.Time, interval time.Duration) *OccupancyReport {
	if d.occupancy == nil || !due(&d.lastReport, now, interval) {
		return nil
	}
	return d.report(now)
}

// CheckSensorUpdate is CheckOccupancyReport on its own timer, for the update
// written back to the sensor.
func (d *Detector) CheckSensorUpdate(now time.Time, interval time.Duration) *OccupancyReport {
	if d.occupancy == nil || !due(&d.lastSensorMsg, now, interval) {
		return nil
	}
	return d.report(now)
}

func (d *Detector) report(now time.Time) *OccupancyReport {
	return &OccupancyReport{
		Timestamp: now,
		Role:      d.role,
		Occupancy: d.occupancy.Count(),
		Capacity:  d.occupancy.Capacity(),
	}
}

// due reports whether interval has elapsed since *last, advancing *last if so.
func due(last *time.Time, now time.Time, interval time.Duration) bool {
	if interval <= 0 || now.Sub(*last) < interval {
		return false
	}
	*last = now
	return true
}
