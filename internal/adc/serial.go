package adc

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"
)

// A microcontroller on the serial port streams one reading per line as
// "<channel>,<value>", e.g. "0,512".
const (
	serialReadTimeout = 2 * time.Second
	maxSkippedLines   = 64
)

var errReadTimeout = errors.New("serial read timeout")

// SerialReader reads samples streamed by a microcontroller over a serial port.
// Lines for other channels are skipped.
type SerialReader struct {
	port    io.ReadCloser
	w       io.Writer // nil when the port is read-only
	scanner *bufio.Scanner
	channel int
}

// NewSerialReader opens path at baud (8N1) and reads channel from it.
func NewSerialReader(path string, baud, channel int) (*SerialReader, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
	}

	return newSerialReader(timeoutPort{port}, channel), nil
}

func newSerialReader(port io.ReadCloser, channel int) *SerialReader {
	w, _ := port.(io.Writer)
	return &SerialReader{
		port:    port,
		w:       w,
		scanner: bufio.NewScanner(port),
		channel: channel,
	}
}

// Read returns the next sample for the reader's channel.
func (r *SerialReader) Read() (int, error) {
	skipped := 0
	for r.scanner.Scan() {
		ch, v, err := parseSampleLine(r.scanner.Text())
		if err != nil || ch != r.channel {
			skipped++
			if skipped >= maxSkippedLines {
				return 0, fmt.Errorf("no sample for channel %d in %d lines", r.channel, skipped)
			}
			continue
		}
		return v, nil
	}

	err := r.scanner.Err()
	// A stopped scanner cannot resume, start over on the next call.
	r.scanner = bufio.NewScanner(r.port)
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return 0, fmt.Errorf("read serial: %w", err)
}

// Channel returns the channel filtered from the stream.
func (r *SerialReader) Channel() int {
	return r.channel
}

// Update packet sent back to the microcontroller:
// 0xFFFF header, occupancy and capacity as big-endian uint16, one feedback byte.
const (
	updateHeader = 0xFFFF
	// The microcontroller shows no forecast hint for this value.
	FeedbackUnavailable byte = 4
)

// WriteUpdate sends the current occupancy and capacity to the microcontroller
// so it can display them.
func (r *SerialReader) WriteUpdate(occupancy, capacity int) error {
	if r.w == nil {
		return errors.New("serial port is not writable")
	}
	if occupancy < 0 || occupancy >= updateHeader || capacity < 0 || capacity >= updateHeader {
		return fmt.Errorf("update out of range: occupancy=%d capacity=%d", occupancy, capacity)
	}
	if _, err := r.w.Write(updatePacket(occupancy, capacity, FeedbackUnavailable)); err != nil {
		return fmt.Errorf("write update: %w", err)
	}
	return nil
}

func updatePacket(occupancy, capacity int, feedback byte) []byte {
	pkt := make([]byte, 7)
	binary.BigEndian.PutUint16(pkt[0:], updateHeader)
	binary.BigEndian.PutUint16(pkt[2:], uint16(occupancy))
	binary.BigEndian.PutUint16(pkt[4:], uint16(capacity))
	pkt[6] = feedback
	return pkt
}

// Close closes the serial port.
func (r *SerialReader) Close() error {
	return r.port.Close()
}

func parseSampleLine(line string) (channel, value int, err error) {
	chStr, valStr, ok := strings.Cut(strings.TrimSpace(line), ",")
	if !ok {
		return 0, 0, fmt.Errorf("malformed sample line %q", line)
	}
	channel, err = strconv.Atoi(strings.TrimSpace(chStr))
	if err != nil {
		return 0, 0, fmt.Errorf("malformed channel in %q: %w", line, err)
	}
	value, err = strconv.Atoi(strings.TrimSpace(valStr))
	if err != nil {
		return 0, 0, fmt.Errorf("malformed value in %q: %w", line, err)
	}
	return channel, value, nil
}

// timeoutPort turns go.bug.st/serial's (0, nil) read timeout into an error
// so bufio.Scanner stops instead of spinning.
type timeoutPort struct {
	serial.Port
}

func (p timeoutPort) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if n == 0 && err == nil {
		return 0, errReadTimeout
	}
	return n, err
}
