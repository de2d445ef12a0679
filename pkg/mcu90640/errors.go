// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mcu90640

import "errors"

var (
	// ErrChannelUnavailable is returned when the serial device cannot be opened.
	ErrChannelUnavailable = errors.New("channel unavailable")
	// ErrShortRead is returned when the channel fails or closes before the
	// requested number of bytes arrived.
	ErrShortRead = errors.New("short read")
	// ErrMalformedFrame is returned by Decode for frames that do not have
	// the fixed frame size. It is recoverable: the caller should skip the
	// frame and read the next one.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrMalformedCommand is returned when parsing bytes that are not a
	// valid command packet.
	ErrMalformedCommand = errors.New("malformed command")
	// ErrUnsupportedBaudRate is returned for baud rates the module cannot
	// be switched to.
	ErrUnsupportedBaudRate = errors.New("unsupported baud rate")
	// ErrClosed is returned when using a transport after Close.
	ErrClosed = errors.New("transport closed")
)
