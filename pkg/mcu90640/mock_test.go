// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mcu90640

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"
	"time"
)

// ============================================================
// Test Helpers
// ============================================================

// mockConn is an in-memory Connection. Reads drain rx, writes append to tx.
// With timeoutMode set, an empty rx makes Read return (0, nil) like a serial
// port whose read timeout expired.
type mockConn struct {
	mu          sync.Mutex
	rx          bytes.Buffer
	tx          bytes.Buffer
	closed      bool
	closeCount  int
	timeoutMode bool
	timeout     time.Duration
	readErr     error
	writeErr    error
}

func newMockConn(rx ...[]byte) *mockConn {
	m := &mockConn{}
	for _, b := range rx {
		m.rx.Write(b)
	}
	return m
}

func (m *mockConn) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.readErr != nil {
		return 0, m.readErr
	}
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	if m.rx.Len() == 0 {
		if m.timeoutMode {
			return 0, nil
		}
		return 0, io.EOF
	}
	return m.rx.Read(p)
}

func (m *mockConn) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return 0, m.writeErr
	}
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	return m.tx.Write(p)
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.closeCount++
	return nil
}

func (m *mockConn) SetReadTimeout(d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = d
	m.timeoutMode = d > 0
	return nil
}

func (m *mockConn) written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.tx.Bytes()...)
}

// buildFrame creates a raw frame with a valid header, every pixel set to
// pixel centi-degrees, and the given ambient value.
func buildFrame(pixel int16, ambient uint16) []byte {
	raw := make([]byte, FrameSize)
	raw[0], raw[1] = FrameMagic, FrameMagic
	for i := 0; i < PixelCount; i++ {
		binary.LittleEndian.PutUint16(raw[samplesOffset+2*i:], uint16(pixel))
	}
	binary.LittleEndian.PutUint16(raw[ambientOffset:], ambient)
	return raw
}

// setPixel overwrites one pixel of a raw frame
func setPixel(raw []byte, index int, v int16) {
	binary.LittleEndian.PutUint16(raw[samplesOffset+2*index:], uint16(v))
}
