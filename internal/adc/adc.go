// Package adc provides analog brightness sampling with hardware abstraction.
// Real sources are a Linux IIO sysfs channel, a microcontroller streaming
// readings over a serial port, and an ADS1115 on the I2C bus.
// The fake implementation allows testing without hardware.
package adc

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff"
)

// Reader reads raw analog samples from one fixed channel.
type Reader interface {
	// Read returns one raw sample. Blocks for the hardware conversion.
	Read() (int, error)

	// Channel returns the channel fixed at construction.
	Channel() int

	// Close releases hardware resources.
	Close() error
}

// UpdateWriter is implemented by sources that accept occupancy updates back
// from the daemon. Only the serial source does.
type UpdateWriter interface {
	WriteUpdate(occupancy, capacity int) error
}

// Source names a kind of analog sample source.
type Source string

const (
	SourceIIO     Source = "iio"
	SourceSerial  Source = "serial"
	SourceADS1115 Source = "ads1115"
)

// Defaults
const (
	DefaultChannel   = 0
	DefaultIIODevice = "iio:device0"
	DefaultBaudRate  = 9600
)

// Config selects and parameterises a sample source.
type Config struct {
	Source     Source
	Channel    int
	IIODevice  string // SourceIIO
	SerialPort string // SourceSerial
	BaudRate   int    // SourceSerial
	I2CBus     string // SourceADS1115, empty for the first bus
}

// Validate checks the config without touching hardware.
func (c Config) Validate() error {
	if c.Channel < 0 {
		return fmt.Errorf("invalid channel %d", c.Channel)
	}
	switch c.Source {
	case SourceIIO:
		if c.IIODevice == "" {
			return errors.New("iio source requires a device name")
		}
	case SourceSerial:
		if c.SerialPort == "" {
			return errors.New("serial source requires a port")
		}
		if c.BaudRate <= 0 {
			return fmt.Errorf("invalid baud rate %d", c.BaudRate)
		}
	case SourceADS1115:
		if c.Channel > 3 {
			return fmt.Errorf("ads1115 has channels 0-3, got %d", c.Channel)
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}
	return nil
}

// Open opens the configured source. If the hardware is not there yet, it keeps
// retrying with exponential backoff for up to maxWait (0 disables retries).
func Open(cfg Config, maxWait time.Duration) (Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var b backoff.BackOff = &backoff.StopBackOff{}
	if maxWait > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.MaxElapsedTime = maxWait
		b = eb
	}

	r, err := retryOpen(func() (Reader, error) { return openSource(cfg) }, b)
	if err != nil {
		return nil, fmt.Errorf("open %s source: %w", cfg.Source, err)
	}
	return r, nil
}

func retryOpen(open func() (Reader, error), b backoff.BackOff) (Reader, error) {
	var r Reader
	op := func() error {
		var err error
		r, err = open()
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Printf("adc: open failed, retrying in %v: %v", wait.Round(time.Millisecond), err)
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}
	return r, nil
}

func openSource(cfg Config) (Reader, error) {
	switch cfg.Source {
	case SourceIIO:
		return NewIIOReader(cfg.IIODevice, cfg.Channel)
	case SourceSerial:
		return NewSerialReader(cfg.SerialPort, cfg.BaudRate, cfg.Channel)
	case SourceADS1115:
		return NewADS1115Reader(cfg.I2CBus, cfg.Channel)
	}
	return nil, fmt.Errorf("unknown source %q", cfg.Source)
}
