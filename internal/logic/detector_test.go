package logic

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNewDetector(t *testing.T) {
	startTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDetector(startTime)
	if d == nil {
		t.Fatal("NewDetector returned nil")
	}
	if d.State() != StateIdle {
		t.Errorf("expected IDLE, got %s", d.State())
	}
	if d.Output() != NoCrossing {
		t.Errorf("expected NO_CROSSING, got %s", d.Output())
	}
	if d.Count() != 0 {
		t.Errorf("expected count 0, got %d", d.Count())
	}
	if !d.lastHeartbeat.Equal(startTime) {
		t.Errorf("expected lastHeartbeat %v, got %v", startTime, d.lastHeartbeat)
	}
}

func TestDetectorEndToEnd(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDetector(now)

	var states []State
	var outputs []Output
	var events []*Event
	for i, present := range []bool{true, false, false} {
		e := d.Process(Input{Present: present, Average: 50, Threshold: 80, Time: now.Add(time.Duration(i) * 100 * time.Millisecond)})
		states = append(states, d.State())
		outputs = append(outputs, d.Output())
		if e != nil {
			events = append(events, e)
		}
	}

	if diff := cmp.Diff([]State{StateObstaclePresent, StateObstacleJustLeft, StateIdle}, states); diff != "" {
		t.Errorf("states (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Output{NoCrossing, Crossing, NoCrossing}, outputs); diff != "" {
		t.Errorf("outputs (-want +got):\n%s", diff)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 crossing event, got %d", len(events))
	}
	if events[0].Count != 1 {
		t.Errorf("expected count 1, got %d", events[0].Count)
	}
	if !events[0].Timestamp.Equal(now.Add(100 * time.Millisecond)) {
		t.Errorf("unexpected timestamp: %v", events[0].Timestamp)
	}
}

func TestDetectorEventCarriesReading(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDetector(now)

	d.Process(Input{Present: true, Average: 40, Threshold: 80, Time: now})
	e := d.Process(Input{Present: false, Average: 95, Threshold: 80, Time: now})
	if e == nil {
		t.Fatal("expected crossing event")
	}
	if e.Average != 95 || e.Threshold != 80 {
		t.Errorf("unexpected reading on event: avg=%d threshold=%v", e.Average, e.Threshold)
	}
}

func TestDetectorNoEventsWhileIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDetector(now)

	for i := 0; i < 10; i++ {
		if e := d.Process(Input{Present: false, Time: now}); e != nil {
			t.Errorf("iteration %d: unexpected event %+v", i, e)
		}
	}
	if d.Count() != 0 {
		t.Errorf("expected count 0, got %d", d.Count())
	}
}

func TestDetectorCountsCycles(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDetector(now)

	// Three obstacles; the third arrives on the second one's confirmation tick.
	seq := []bool{true, true, false, false, true, false, true, true, false, false, false}
	var counts []int
	for _, p := range seq {
		if e := d.Process(Input{Present: p, Time: now}); e != nil {
			counts = append(counts, e.Count)
		}
	}

	if diff := cmp.Diff([]int{1, 2, 3}, counts); diff != "" {
		t.Errorf("counts (-want +got):\n%s", diff)
	}
	if d.Count() != 3 {
		t.Errorf("Count: got %d, want 3", d.Count())
	}
}

func TestHeartbeatDisabled(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDetector(start)

	if hb := d.CheckHeartbeat(start.Add(time.Hour), 0); hb != nil {
		t.Error("expected nil heartbeat when interval is 0")
	}
	if hb := d.CheckHeartbeat(start.Add(time.Hour), -time.Second); hb != nil {
		t.Error("expected nil heartbeat when interval is negative")
	}
}

func TestHeartbeatInterval(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDetector(start)

	d.Process(Input{Present: true, Time: start})
	d.Process(Input{Present: false, Time: start})

	if hb := d.CheckHeartbeat(start.Add(14*time.Minute), 15*time.Minute); hb != nil {
		t.Error("expected no heartbeat before interval")
	}

	hb := d.CheckHeartbeat(start.Add(15*time.Minute), 15*time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat at interval")
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", hb.Uptime)
	}
	if hb.Crossings != 1 {
		t.Errorf("Crossings: got %d, want 1", hb.Crossings)
	}

	// Next heartbeat measured from the last one
	if hb := d.CheckHeartbeat(start.Add(20*time.Minute), 15*time.Minute); hb != nil {
		t.Error("expected no heartbeat 5m after previous")
	}
	if hb := d.CheckHeartbeat(start.Add(30*time.Minute), 15*time.Minute); hb == nil {
		t.Error("expected heartbeat 15m after previous")
	}
}
