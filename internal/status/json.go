package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	State         string     `json:"state"`
	Output        string     `json:"output"`
	Present       bool       `json:"present"`
	Average       int        `json:"average"`
	Threshold     float64    `json:"threshold"`
	Crossings     int        `json:"crossings"`
	Occupancy     *Occupancy `json:"occupancy,omitempty"`
	ReadErrors    int        `json:"read_errors"`
	Ready         bool       `json:"ready"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// Occupancy reports the occupancy count when a role is configured.
type Occupancy struct {
	Role     string `json:"role"`
	Count    int    `json:"count"`
	Capacity int    `json:"capacity"`
	Full     bool   `json:"full"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64   `json:"poll_ms"`
	Samples     int     `json:"samples"`
	Reference   int     `json:"reference"`
	Margin      float64 `json:"margin"`
	Source      string  `json:"source"`
	Channel     int     `json:"channel"`
	PulsePin    int     `json:"pulse_pin"`
	HeartbeatMs int64   `json:"heartbeat_ms"`
	Broker      string  `json:"broker"`
	HTTPAddr    string  `json:"http_addr"`
	Role        string  `json:"role,omitempty"`
	Capacity    int     `json:"capacity,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		State:         string(snap.State),
		Output:        string(snap.Output),
		Present:       snap.Present,
		Average:       snap.Average,
		Threshold:     snap.Threshold,
		Crossings:     snap.Crossings,
		ReadErrors:    snap.ReadErrors,
		Ready:         snap.Ready,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			Samples:     snap.Config.Samples,
			Reference:   snap.Config.Reference,
			Margin:      snap.Config.Margin,
			Source:      snap.Config.Source,
			Channel:     snap.Config.Channel,
			PulsePin:    snap.Config.PulsePin,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Role:        snap.Config.Role,
			Capacity:    snap.Config.Capacity,
		},
	}
	if snap.Config.Role != "" {
		inner.Occupancy = &Occupancy{
			Role:     snap.Config.Role,
			Count:    snap.Occupancy,
			Capacity: snap.Config.Capacity,
			Full:     snap.Occupancy >= snap.Config.Capacity,
		}
	}
	return inner
}

// FormatJSON returns the indented JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the compact JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
