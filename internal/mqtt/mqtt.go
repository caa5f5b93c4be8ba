// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/crossing-sensor/internal/logic"
)

// Topic is the MQTT topic for crossing events.
const Topic = "sensor/crossing/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "sensor/crossing/system"

// TopicOccupancy carries the retained occupancy feed.
const TopicOccupancy = "sensor/crossing/occupancy"

// EventCrossing is the event name carried by crossing payloads.
const EventCrossing = "CROSSING"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a crossing event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// PublishOccupancy sends the current occupancy to the retained feed.
	PublishOccupancy(report logic.OccupancyReport) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT", "RECONNECTED"
	Reason     string // e.g., "SIGTERM", "MQTT_DISCONNECT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool
}

// Payload is the MQTT message payload for a crossing.
type Payload struct {
	Crossing CrossingPayload `json:"crossing"`
}

// CrossingPayload contains the crossing details.
type CrossingPayload struct {
	Timestamp string  `json:"timestamp"`
	Event     string  `json:"event"`
	Count     int     `json:"count"`
	Average   int     `json:"average"`
	Threshold float64 `json:"threshold"`
	Role      string  `json:"role,omitempty"`
	Occupancy *int    `json:"occupancy,omitempty"`
	Capacity  *int    `json:"capacity,omitempty"`
}

// FormatPayload creates the JSON payload for a crossing event.
// Occupancy fields are present only when the event carries a role.
func FormatPayload(event logic.Event) ([]byte, error) {
	p := CrossingPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     EventCrossing,
		Count:     event.Count,
		Average:   event.Average,
		Threshold: event.Threshold,
	}
	if event.Role != logic.RoleNone {
		p.Role = string(event.Role)
		p.Occupancy = &event.Occupancy
		p.Capacity = &event.Capacity
	}
	return json.Marshal(Payload{Crossing: p})
}

// OccupancyPayload is the retained occupancy feed message.
type OccupancyPayload struct {
	Occupancy OccupancyInner `json:"occupancy"`
}

// OccupancyInner contains the occupancy details.
type OccupancyInner struct {
	Timestamp string `json:"timestamp"`
	Role      string `json:"role"`
	Count     int    `json:"count"`
	Capacity  int    `json:"capacity"`
}

// FormatOccupancyPayload creates the JSON payload for an occupancy report.
func FormatOccupancyPayload(report logic.OccupancyReport) ([]byte, error) {
	return json.Marshal(OccupancyPayload{
		Occupancy: OccupancyInner{
			Timestamp: report.Timestamp.UTC().Format(time.RFC3339),
			Role:      string(report.Role),
			Count:     report.Occupancy,
			Capacity:  report.Capacity,
		},
	})
}

// SystemPayload is the payload for simple system events (LWT, RECONNECTED)
// that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
