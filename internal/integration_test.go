package internal

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sweeney/crossing-sensor/internal/adc"
	"github.com/sweeney/crossing-sensor/internal/gpio"
	"github.com/sweeney/crossing-sensor/internal/logic"
	"github.com/sweeney/crossing-sensor/internal/mqtt"
	"github.com/sweeney/crossing-sensor/internal/status"
	"github.com/sweeney/crossing-sensor/internal/web"
)

// tick is one pass of the driving loop, mirroring cmd/crossing-sensor's runLoop.
func tick(t *testing.T, c *logic.Classifier, p logic.Params, d *logic.Detector, pulse gpio.Signal, pub mqtt.Publisher, now time.Time) {
	t.Helper()
	res, err := c.Classify(p)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	event := d.Process(logic.Input{Present: res.Present, Average: res.Average, Threshold: res.Threshold, Time: now})
	if err := pulse.Set(d.Output() == logic.Crossing); err != nil {
		t.Fatalf("pulse: %v", err)
	}
	if event != nil {
		if err := pub.Publish(*event); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
}

// TestIntegrationSingleCrossing walks present, absent, absent through the full
// chain and expects exactly one crossing pulse.
func TestIntegrationSingleCrossing(t *testing.T) {
	// 3 samples per tick: tick averages 75, 85, 85 against threshold 80.
	reader := adc.NewFakeReader(70, 75, 80, 85, 85, 85, 90, 80, 85)
	params := logic.Params{Samples: 3, Reference: 100, Margin: 0.2}
	classifier := logic.NewClassifier(reader)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	detector := logic.NewDetector(start)
	pulse := gpio.NewFakeSignal()
	pub := mqtt.NewFakePublisher()

	var states []logic.State
	var outputs []logic.Output
	for i := 0; i < 3; i++ {
		tick(t, classifier, params, detector, pulse, pub, start.Add(time.Duration(i)*100*time.Millisecond))
		states = append(states, detector.State())
		outputs = append(outputs, detector.Output())
	}

	wantStates := []logic.State{logic.StateObstaclePresent, logic.StateObstacleJustLeft, logic.StateIdle}
	if diff := cmp.Diff(wantStates, states); diff != "" {
		t.Errorf("states (-want +got):\n%s", diff)
	}
	wantOutputs := []logic.Output{logic.NoCrossing, logic.Crossing, logic.NoCrossing}
	if diff := cmp.Diff(wantOutputs, outputs); diff != "" {
		t.Errorf("outputs (-want +got):\n%s", diff)
	}
	if reader.Reads != 9 {
		t.Errorf("expected 9 analog reads, got %d", reader.Reads)
	}

	if len(pub.Events) != 1 {
		t.Fatalf("expected 1 published crossing, got %d", len(pub.Events))
	}
	var payload mqtt.Payload
	if err := json.Unmarshal(pub.Payloads[0], &payload); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if payload.Crossing.Count != 1 || payload.Crossing.Average != 85 || payload.Crossing.Threshold != 80 {
		t.Errorf("unexpected payload: %+v", payload.Crossing)
	}
	if payload.Crossing.Timestamp != "2026-01-01T12:00:00Z" {
		t.Errorf("unexpected timestamp: %s", payload.Crossing.Timestamp)
	}

	if diff := cmp.Diff([]bool{false, true, false}, pulse.Values); diff != "" {
		t.Errorf("pulse writes (-want +got):\n%s", diff)
	}
}

// TestIntegrationCalibratedReference calibrates from ambient light, then
// detects a shadow relative to it.
func TestIntegrationCalibratedReference(t *testing.T) {
	ambient := []int{610, 590, 600, 600}
	reader := adc.NewFakeReader(append(ambient, 450, 600, 600)...)
	classifier := logic.NewClassifier(reader)

	ref, err := classifier.Calibrate(len(ambient))
	if err != nil {
		t.Fatalf("calibrate: %v", err)
	}
	if ref != 600 {
		t.Fatalf("reference: got %d, want 600", ref)
	}

	params := logic.Params{Samples: 1, Reference: ref, Margin: 0.1}
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	detector := logic.NewDetector(start)
	pub := mqtt.NewFakePublisher()
	for i := 0; i < 3; i++ {
		tick(t, classifier, params, detector, gpio.NopSignal{}, pub, start)
	}

	if len(pub.Events) != 1 {
		t.Errorf("expected 1 crossing, got %d", len(pub.Events))
	}
}

// TestIntegrationStatusEndpoint checks that tracker updates from the loop are
// visible through the HTTP status endpoint.
func TestIntegrationStatusEndpoint(t *testing.T) {
	reader := adc.NewFakeReader(10, 100)
	params := logic.Params{Samples: 1, Reference: 100, Margin: 0.2}
	classifier := logic.NewClassifier(reader)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	detector := logic.NewDetector(start)
	tracker := status.NewTracker(start, status.Config{Samples: 1, Reference: 100, Margin: 0.2})
	pub := mqtt.NewFakePublisher()

	for i := 0; i < 2; i++ {
		tick(t, classifier, params, detector, gpio.NopSignal{}, pub, start)
		tracker.Update(status.Reading{
			State:     detector.State(),
			Output:    detector.Output(),
			Crossings: detector.Count(),
		})
	}

	srv := web.New(":0", tracker)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/index.json", nil))

	var sj status.StatusJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.State != "OBSTACLE_JUST_LEFT" || sj.Status.Output != "CROSSING" || sj.Status.Crossings != 1 {
		t.Errorf("unexpected status: state=%s output=%s crossings=%d", sj.Status.State, sj.Status.Output, sj.Status.Crossings)
	}
}
