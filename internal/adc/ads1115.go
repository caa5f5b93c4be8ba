//go:build linux

package adc

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

// ADS1115Reader reads a single-ended channel of an ADS1115 over I2C.
type ADS1115Reader struct {
	bus     i2c.BusCloser
	pin     ads1x15.PinADC
	channel int
}

var ads1115Channels = [...]ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// NewADS1115Reader opens the ADS1115 at the default address on bus (empty for
// the first bus) and configures channel for single-ended reads.
func NewADS1115Reader(bus string, channel int) (*ADS1115Reader, error) {
	if channel < 0 || channel >= len(ads1115Channels) {
		return nil, fmt.Errorf("ads1115 has channels 0-3, got %d", channel)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	b, err := i2creg.Open(bus)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", bus, err)
	}

	dev, err := ads1x15.NewADS1115(b, &ads1x15.DefaultOpts)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("init ads1115: %w", err)
	}

	// Photoresistor divider on a 3.3V rail.
	pin, err := dev.PinForChannel(ads1115Channels[channel], 3300*physic.MilliVolt, 860*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("configure ads1115 channel %d: %w", channel, err)
	}

	return &ADS1115Reader{bus: b, pin: pin, channel: channel}, nil
}

// Read performs one conversion and returns the raw value.
func (r *ADS1115Reader) Read() (int, error) {
	s, err := r.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("read ads1115 channel %d: %w", r.channel, err)
	}
	return int(s.Raw), nil
}

// Channel returns the ADS1115 input channel.
func (r *ADS1115Reader) Channel() int {
	return r.channel
}

// Close halts the converter and releases the bus.
func (r *ADS1115Reader) Close() error {
	var errs []error
	if r.pin != nil {
		if err := r.pin.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt ads1115: %w", err))
		}
	}
	if r.bus != nil {
		if err := r.bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close i2c bus: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
