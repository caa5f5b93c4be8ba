package adc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const sysfsIIO = "/sys/bus/iio/devices"

// IIOReader reads a Linux industrial I/O ADC channel through sysfs.
type IIOReader struct {
	path    string
	channel int
}

// NewIIOReader opens channel of the named IIO device (e.g. "iio:device0").
func NewIIOReader(device string, channel int) (*IIOReader, error) {
	return newIIOReader(sysfsIIO, device, channel)
}

func newIIOReader(root, device string, channel int) (*IIOReader, error) {
	path := filepath.Join(root, device, fmt.Sprintf("in_voltage%d_raw", channel))
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("iio channel %d on %s: %w", channel, device, err)
	}
	return &IIOReader{path: path, channel: channel}, nil
}

// Read returns the raw conversion value.
func (r *IIOReader) Read() (int, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", r.path, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", r.path, err)
	}
	return v, nil
}

// Channel returns the IIO voltage channel index.
func (r *IIOReader) Channel() int {
	return r.channel
}

// Close is a no-op; each read opens the sysfs file.
func (r *IIOReader) Close() error {
	return nil
}
