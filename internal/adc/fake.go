package adc

import "errors"

// FakeReader is a test double that returns scripted analog samples.
type FakeReader struct {
	// Samples contains scripted raw values to return.
	// Each call to Read() consumes the next sample.
	Samples []int

	// ChannelID is returned by Channel()
	ChannelID int

	// index tracks current position in Samples
	index int

	// Reads counts calls to Read()
	Reads int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error

	// Updates records WriteUpdate calls as {occupancy, capacity}
	Updates [][2]int

	// UpdateError, if set, will be returned by WriteUpdate()
	UpdateError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...int) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (int, error) {
	f.Reads++
	if f.ReadError != nil {
		return 0, f.ReadError
	}

	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Channel returns the configured channel.
func (f *FakeReader) Channel() int {
	return f.ChannelID
}

// WriteUpdate records the occupancy update.
func (f *FakeReader) WriteUpdate(occupancy, capacity int) error {
	if f.UpdateError != nil {
		return f.UpdateError
	}
	f.Updates = append(f.Updates, [2]int{occupancy, capacity})
	return nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Reads = 0
	f.Closed = false
	f.Updates = nil
}
