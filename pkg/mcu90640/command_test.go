// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mcu90640

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// ============================================================
// Checksum Tests
// ============================================================

func TestChecksum_Empty(t *testing.T) {
	if sum := Checksum(nil); sum != 0 {
		t.Errorf("Checksum of empty data should be 0, got 0x%02X", sum)
	}
}

func TestChecksum_Wraps(t *testing.T) {
	if sum := Checksum([]byte{0xFF, 0x02}); sum != 0x01 {
		t.Errorf("Checksum should wrap modulo 256: expected 0x01, got 0x%02X", sum)
	}
}

// ============================================================
// Command Encoding Tests
// ============================================================

func TestCommand_KnownPackets(t *testing.T) {
	tests := []struct {
		name     string
		cmd      Command
		expected []byte
	}{
		{"emissivity query", NewEmissivityQuery(), []byte{0xA5, 0x55, 0x01, 0xFB}},
		{"frame rate 8 Hz", NewFrameRateCommand(), []byte{0xA5, 0x25, 0x04, 0xCE}},
		{"start stream", NewStartStream(), []byte{0xA5, 0x35, 0x02, 0xDC}},
		{"stop stream", NewStopStream(), []byte{0xA5, 0x35, 0x01, 0xDB}},
		{"baud 460800", mustBaud(t, FastBaudRate), []byte{0xA5, 0x15, 0x03, 0xBD}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cmd.Bytes()
			if !bytes.Equal(got, tt.expected) {
				t.Errorf("Wire bytes mismatch: expected [% X], got [% X]", tt.expected, got)
			}
		})
	}
}

func TestCommand_ChecksumInvariant(t *testing.T) {
	for op := 0; op < 256; op++ {
		for payload := 0; payload < 256; payload += 17 {
			b := NewCommand(uint8(op), uint8(payload)).Bytes()
			if b[3] != uint8(int(b[0])+int(b[1])+int(b[2])) {
				t.Fatalf("Checksum invariant broken for [% X]", b)
			}
		}
	}
}

func TestCommand_WriteTo(t *testing.T) {
	var buf bytes.Buffer
	n, err := NewStartStream().WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != CommandSize {
		t.Errorf("Expected %d bytes written, got %d", CommandSize, n)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0xA5, 0x35, 0x02, 0xDC}) {
		t.Errorf("Unexpected bytes written: [% X]", buf.Bytes())
	}
}

func TestNewBaudRateCommand_Unsupported(t *testing.T) {
	for _, baud := range []int{9600, DefaultBaudRate, 921600} {
		if _, err := NewBaudRateCommand(baud); !errors.Is(err, ErrUnsupportedBaudRate) {
			t.Errorf("Baud %d: expected ErrUnsupportedBaudRate, got %v", baud, err)
		}
	}
}

// ============================================================
// Command Parsing Tests
// ============================================================

func TestParseCommand_RoundTrip(t *testing.T) {
	// Commands written to a loopback channel must read back identical
	conn := newMockConn()
	tr := NewTransport(conn)
	cmds := []Command{NewEmissivityQuery(), NewFrameRateCommand(), NewStartStream(), NewStopStream()}
	for _, c := range cmds {
		if err := tr.SendCommand(c); err != nil {
			t.Fatalf("SendCommand failed: %v", err)
		}
	}

	wire := conn.written()
	if len(wire) != len(cmds)*CommandSize {
		t.Fatalf("Expected %d bytes on the wire, got %d", len(cmds)*CommandSize, len(wire))
	}
	for i, want := range cmds {
		got, err := ParseCommand(wire[i*CommandSize : (i+1)*CommandSize])
		if err != nil {
			t.Fatalf("ParseCommand failed: %v", err)
		}
		if got != want {
			t.Errorf("Command %d mismatch: expected %v, got %v", i, want, got)
		}
	}
}

func TestParseCommand_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"too short", []byte{0xA5, 0x35, 0x02}},
		{"too long", []byte{0xA5, 0x35, 0x02, 0xDC, 0x00}},
		{"bad header", []byte{0x5A, 0x35, 0x02, 0xDC}},
		{"bad checksum", []byte{0xA5, 0x35, 0x02, 0xDD}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCommand(tt.data); !errors.Is(err, ErrMalformedCommand) {
				t.Errorf("Expected ErrMalformedCommand, got %v", err)
			}
		})
	}
}

// ============================================================
// Formatter Tests
// ============================================================

func TestFormatOpcode(t *testing.T) {
	tests := []struct {
		cmd      Command
		expected string
	}{
		{NewEmissivityQuery(), "QUERY_EMISSIVITY"},
		{NewFrameRateCommand(), "SET_FRAME_RATE_8HZ"},
		{NewStartStream(), "START_STREAM"},
		{NewStopStream(), "STOP_STREAM"},
		{NewCommand(OpBaudRate, PayloadBaud460800), "SET_BAUD_460800"},
		{NewCommand(OpStream, 0x09), "STREAM"},
		{NewCommand(0x99, 0x00), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := FormatOpcode(tt.cmd); got != tt.expected {
			t.Errorf("FormatOpcode(%02X/%02X): expected %q, got %q", tt.cmd.Opcode, tt.cmd.Payload, tt.expected, got)
		}
	}
}

func TestCommand_String(t *testing.T) {
	s := NewStopStream().String()
	if !strings.Contains(s, "STOP_STREAM") || !strings.Contains(s, "A5 35 01 DB") {
		t.Errorf("Unexpected command string: %q", s)
	}
}

func mustBaud(t *testing.T, baud int) Command {
	t.Helper()
	c, err := NewBaudRateCommand(baud)
	if err != nil {
		t.Fatalf("NewBaudRateCommand(%d) failed: %v", baud, err)
	}
	return c
}
