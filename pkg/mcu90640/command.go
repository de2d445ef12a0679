// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mcu90640

import (
	"fmt"
	"io"
)

// Command is a single 4-byte command packet: header, opcode, payload, checksum.
// The header and checksum are derived, so only opcode and payload are stored.
type Command struct {
	Opcode  uint8
	Payload uint8
}

// NewCommand creates a command with the given opcode and payload byte
func NewCommand(opcode, payload uint8) Command {
	return Command{Opcode: opcode, Payload: payload}
}

// Checksum returns the checksum byte sent with the command
func (c Command) Checksum() uint8 {
	return Checksum([]byte{CommandHeader, c.Opcode, c.Payload})
}

// Bytes returns the wire form of the command
func (c Command) Bytes() []byte {
	return []byte{CommandHeader, c.Opcode, c.Payload, c.Checksum()}
}

// WriteTo writes the encoded command to w
func (c Command) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Bytes())
	return int64(n), err
}

// String implements fmt.Stringer
func (c Command) String() string {
	return FormatCommand(c)
}

// ParseCommand decodes a wire-format command packet.
// The header and checksum must match.
func ParseCommand(b []byte) (Command, error) {
	if len(b) != CommandSize {
		return Command{}, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedCommand, len(b), CommandSize)
	}
	if b[0] != CommandHeader {
		return Command{}, fmt.Errorf("%w: header 0x%02X, want 0x%02X", ErrMalformedCommand, b[0], CommandHeader)
	}

	c := Command{Opcode: b[1], Payload: b[2]}
	if sum := c.Checksum(); sum != b[3] {
		return Command{}, fmt.Errorf("%w: checksum mismatch: expected 0x%02X, got 0x%02X", ErrMalformedCommand, sum, b[3])
	}
	return c, nil
}

// Command builder functions for the module's fixed command set.

// NewEmissivityQuery creates the emissivity query (0x55).
// The module answers with EmissivityResponseSize bytes.
func NewEmissivityQuery() Command {
	return NewCommand(OpEmissivity, PayloadEmissivityQuery)
}

// NewFrameRateCommand creates the command selecting the 8 Hz frame rate (0x25)
func NewFrameRateCommand() Command {
	return NewCommand(OpFrameRate, PayloadFrameRate8Hz)
}

// NewStartStream creates the command that starts continuous frame output (0x35)
func NewStartStream() Command {
	return NewCommand(OpStream, PayloadStreamStart)
}

// NewStopStream creates the command that stops continuous frame output (0x35)
func NewStopStream() Command {
	return NewCommand(OpStream, PayloadStreamStop)
}

// NewBaudRateCommand creates the command switching the module's UART speed (0x15).
// Only FastBaudRate is supported.
func NewBaudRateCommand(baudRate int) (Command, error) {
	switch baudRate {
	case FastBaudRate:
		return NewCommand(OpBaudRate, PayloadBaud460800), nil
	default:
		return Command{}, fmt.Errorf("%w: %d", ErrUnsupportedBaudRate, baudRate)
	}
}
