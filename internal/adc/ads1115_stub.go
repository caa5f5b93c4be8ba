//go:build !linux

package adc

import "errors"

// ADS1115Reader is not available on non-Linux platforms.
type ADS1115Reader struct{}

// NewADS1115Reader returns an error on non-Linux platforms.
func NewADS1115Reader(bus string, channel int) (*ADS1115Reader, error) {
	return nil, errors.New("adc: ads1115 not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (r *ADS1115Reader) Read() (int, error) {
	return 0, errors.New("adc: not supported")
}

// Channel is not implemented on non-Linux platforms.
func (r *ADS1115Reader) Channel() int {
	return 0
}

// Close is not implemented on non-Linux platforms.
func (r *ADS1115Reader) Close() error {
	return nil
}
