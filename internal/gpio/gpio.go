// Package gpio drives the crossing pulse output with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Signal drives a single digital output line.
type Signal interface {
	// Set drives the line active (high) or inactive (low).
	Set(active bool) error

	// Close releases GPIO resources.
	Close() error
}

// DefaultPinPulse is the BCM pin pulsed for one tick on every crossing.
const DefaultPinPulse = 17

// NopSignal discards all writes. Used when the pulse output is disabled.
type NopSignal struct{}

// Set does nothing.
func (NopSignal) Set(bool) error { return nil }

// Close does nothing.
func (NopSignal) Close() error { return nil }
