package adc

import (
	"errors"
	"testing"
)

func TestFakeReaderRead(t *testing.T) {
	f := NewFakeReader(100, 200, 300)

	for i, want := range []int{100, 200, 300, 300} {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("read %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("read %d: got %d, want %d", i, got, want)
		}
	}
	if f.Reads != 4 {
		t.Errorf("Reads: got %d, want 4", f.Reads)
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader()

	if _, err := f.Read(); err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader(1)
	f.ReadError = errors.New("simulated error")

	_, err := f.Read()
	if err == nil || err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeReaderCloseAndReset(t *testing.T) {
	f := NewFakeReader(10, 20)
	f.ChannelID = 2

	f.Read()
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	f.Reset()
	if f.Closed || f.Reads != 0 {
		t.Error("Reset should clear Closed and Reads")
	}
	if v, _ := f.Read(); v != 10 {
		t.Errorf("after reset: got %d, want 10", v)
	}
	if f.Channel() != 2 {
		t.Errorf("Channel: got %d, want 2", f.Channel())
	}
}

func TestFakeReaderWriteUpdate(t *testing.T) {
	f := NewFakeReader(1)
	var w UpdateWriter = f

	if err := w.WriteUpdate(2, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.UpdateError = errors.New("port gone")
	if err := w.WriteUpdate(3, 10); err == nil {
		t.Error("expected UpdateError")
	}
	if len(f.Updates) != 1 || f.Updates[0] != [2]int{2, 10} {
		t.Errorf("Updates = %v", f.Updates)
	}
}
