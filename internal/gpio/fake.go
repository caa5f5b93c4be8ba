package gpio

// FakeSignal is a test double that records every value written.
type FakeSignal struct {
	// Values contains every value passed to Set, in order.
	Values []bool

	// SetError, if set, will be returned by Set()
	SetError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeSignal creates a FakeSignal.
func NewFakeSignal() *FakeSignal {
	return &FakeSignal{}
}

// Set records the value.
func (f *FakeSignal) Set(active bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Values = append(f.Values, active)
	return nil
}

// Active reports the last value written (false if none).
func (f *FakeSignal) Active() bool {
	if len(f.Values) == 0 {
		return false
	}
	return f.Values[len(f.Values)-1]
}

// Pulses counts inactive-to-active edges.
func (f *FakeSignal) Pulses() int {
	n := 0
	prev := false
	for _, v := range f.Values {
		if v && !prev {
			n++
		}
		prev = v
	}
	return n
}

// Close marks the signal as closed.
func (f *FakeSignal) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded values.
func (f *FakeSignal) Reset() {
	f.Values = nil
	f.SetError = nil
	f.Closed = false
}
