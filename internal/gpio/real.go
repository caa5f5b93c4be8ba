//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealSignal drives an output line using Linux GPIO character device.
type RealSignal struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	pin  int
}

// NewRealSignal requests pin on gpiochip0 as an output, initially low.
func NewRealSignal(pin int) (*RealSignal, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request pulse pin %d: %w", pin, err)
	}

	return &RealSignal{chip: chip, line: line, pin: pin}, nil
}

// Set drives the line high when active, low otherwise.
func (s *RealSignal) Set(active bool) error {
	v := 0
	if active {
		v = 1
	}
	if err := s.line.SetValue(v); err != nil {
		return fmt.Errorf("set pulse pin %d: %w", s.pin, err)
	}
	return nil
}

// Close drives the line low and returns it to input with pull-down
// (the Pi boot default) before releasing it.
func (s *RealSignal) Close() error {
	var errs []error

	if s.line != nil {
		if err := s.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear pulse pin: %w", err))
		}
		if err := s.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pulse pin: %w", err))
		}
		if err := s.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pulse pin: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
