// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mcu90640

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Connection is the byte channel a Transport runs over: a serial port,
// a websocket bridge, a recording, or a test double.
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// readTimeoutSetter is implemented by connections that support bounded reads
type readTimeoutSetter interface {
	SetReadTimeout(t time.Duration) error
}

// Transport exchanges commands and frames with the module.
// It owns the underlying connection for its whole lifetime.
type Transport struct {
	conn        Connection
	readTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// Open opens the serial device at the given baud rate
func Open(devicePath string, baudRate int) (*Transport, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(devicePath, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open serial port %s: %w", ErrChannelUnavailable, devicePath, err)
	}

	return NewTransport(port), nil
}

// NewTransport wraps an already open connection
func NewTransport(conn Connection) *Transport {
	return &Transport{conn: conn}
}

// SetReadTimeout bounds each read on the connection.
// With a non-zero timeout a frame that stops arriving part way through is
// returned truncated by ReadFrame instead of blocking forever.
// Zero restores fully blocking reads.
func (t *Transport) SetReadTimeout(d time.Duration) error {
	if s, ok := t.conn.(readTimeoutSetter); ok {
		timeout := d
		if d == 0 {
			timeout = serial.NoTimeout
		}
		if err := s.SetReadTimeout(timeout); err != nil {
			return fmt.Errorf("failed to set read timeout: %w", err)
		}
	}
	t.readTimeout = d
	return nil
}

// SendCommand writes a command packet without waiting for a reply
func (t *Transport) SendCommand(cmd Command) error {
	if t.isClosed() {
		return ErrClosed
	}
	if _, err := cmd.WriteTo(t.conn); err != nil {
		return fmt.Errorf("failed to send %s: %w", FormatOpcode(cmd), err)
	}
	return nil
}

// Query sends a command and reads exactly responseLen bytes of reply
func (t *Transport) Query(cmd Command, responseLen int) ([]byte, error) {
	if err := t.SendCommand(cmd); err != nil {
		return nil, err
	}
	return t.ReadExact(responseLen)
}

// ReadExact blocks until exactly n bytes have been read.
// A channel error or closure before that yields ErrShortRead.
func (t *Transport) ReadExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := io.ReadFull(t.conn, buf)
	if err != nil {
		return buf[:got], fmt.Errorf("%w: got %d of %d bytes: %w", ErrShortRead, got, n, err)
	}
	return buf, nil
}

// ReadFrame reads one raw frame.
// Without a read timeout this is ReadExact(FrameSize). With one, a frame
// interrupted by a timeout is returned as is, shorter than FrameSize, and
// is left for Decode to reject.
func (t *Transport) ReadFrame() ([]byte, error) {
	return t.readFrame(make([]byte, FrameSize), 0)
}

// SyncFrame discards bytes up to the next frame header and reads the frame
// it starts. skipped counts the bytes discarded before the header. The
// frame is read as ReadFrame does, so it may still come back truncated.
func (t *Transport) SyncFrame() (raw []byte, skipped int, err error) {
	b := make([]byte, 1)
	matched := 0
	for matched < 2 {
		n, err := t.conn.Read(b)
		if err != nil {
			return nil, skipped, fmt.Errorf("%w: searching for frame header: %w", ErrShortRead, err)
		}
		if n == 0 {
			if t.isClosed() {
				return nil, skipped, fmt.Errorf("%w: %w", ErrShortRead, ErrClosed)
			}
			continue
		}

		switch {
		case b[0] == FrameMagic:
			matched++
		case matched == 1:
			skipped += 2
			matched = 0
		default:
			skipped++
		}
	}

	buf := make([]byte, FrameSize)
	buf[0], buf[1] = FrameMagic, FrameMagic
	raw, err = t.readFrame(buf, 2)
	return raw, skipped, err
}

// readFrame fills buf from offset got
func (t *Transport) readFrame(buf []byte, got int) ([]byte, error) {
	if t.readTimeout == 0 {
		n, err := io.ReadFull(t.conn, buf[got:])
		got += n
		if err != nil {
			return buf[:got], fmt.Errorf("%w: got %d of %d bytes: %w", ErrShortRead, got, len(buf), err)
		}
		return buf, nil
	}

	for got < len(buf) {
		n, err := t.conn.Read(buf[got:])
		got += n
		if err != nil {
			return buf[:got], fmt.Errorf("%w: got %d of %d bytes: %w", ErrShortRead, got, len(buf), err)
		}
		if n == 0 {
			// Timed out
			if got > 0 {
				return buf[:got], nil
			}
			if t.isClosed() {
				return nil, fmt.Errorf("%w: %w", ErrShortRead, ErrClosed)
			}
		}
	}
	return buf, nil
}

// Close releases the connection. Closing twice is a no-op.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close()
}

func (t *Transport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
