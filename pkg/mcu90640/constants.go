// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package mcu90640 implements the serial protocol spoken by GY-MCU90640
// thermal camera modules.
//
// The module wraps a 32x24 MLX90640 array behind a small micro-controller
// that accepts fixed 4-byte commands and, once streaming, emits one
// 1544-byte frame per measurement cycle. This package provides command
// encoding, the serial transport, frame decoding and the per-frame
// normalization used to map temperatures onto an 8-bit color index.
package mcu90640

import "time"

// Command framing
const (
	CommandHeader = 0xA5
	CommandSize   = 4
)

// Opcodes
const (
	OpBaudRate   = 0x15
	OpFrameRate  = 0x25
	OpStream     = 0x35
	OpEmissivity = 0x55
)

// Payload values for the known command set
const (
	PayloadEmissivityQuery = 0x01
	PayloadFrameRate8Hz    = 0x04
	PayloadStreamStart     = 0x02
	PayloadStreamStop      = 0x01
	PayloadBaud460800      = 0x03
)

// Frame geometry
const (
	Rows       = 24
	Cols       = 32
	PixelCount = Rows * Cols

	FrameSize       = 1544
	FrameHeaderSize = 4

	samplesOffset = FrameHeaderSize
	ambientOffset = samplesOffset + PixelCount*2 // 1540
)

// FrameMagic is the byte repeated twice at the start of every frame
const FrameMagic = 0x5A

// EmissivityResponseSize is the length of the reply to an emissivity query
const EmissivityResponseSize = 4

// Link settings
const (
	DefaultBaudRate = 115200
	FastBaudRate    = 460800
	FrameRateHz     = 8
)

// SettleDelay is how long the module needs between configuration commands
const SettleDelay = 100 * time.Millisecond

// Sensor operating ranges in degrees Celsius
const (
	MinObjectTemp  = -40.0
	MaxObjectTemp  = 300.0
	MinAmbientTemp = -40.0
	MaxAmbientTemp = 125.0
)
