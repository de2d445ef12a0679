// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mcu90640

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Samples holds one frame's pixel temperatures in centi-degrees Celsius,
// row-major, Rows x Cols.
type Samples [PixelCount]int16

// Frame is a decoded thermal frame
type Frame struct {
	// Ambient is the sensor's ambient temperature in degrees Celsius
	Ambient float64
	Samples Samples
	// Min and Max are the extrema of Samples in centi-degrees
	Min int16
	Max int16
}

// Decode parses a raw frame.
// Frames that are not exactly FrameSize bytes fail with ErrMalformedFrame.
func Decode(raw []byte) (*Frame, error) {
	if len(raw) != FrameSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedFrame, len(raw), FrameSize)
	}

	f := &Frame{
		Ambient: float64(binary.LittleEndian.Uint16(raw[ambientOffset:])) / 100,
		Min:     math.MaxInt16,
		Max:     math.MinInt16,
	}

	for i := range f.Samples {
		off := samplesOffset + 2*i
		v := int16(binary.LittleEndian.Uint16(raw[off : off+2]))
		f.Samples[i] = v
		if v < f.Min {
			f.Min = v
		}
		if v > f.Max {
			f.Max = v
		}
	}

	return f, nil
}

// HasHeader reports whether raw starts with the frame header
func HasHeader(raw []byte) bool {
	return len(raw) >= 2 && raw[0] == FrameMagic && raw[1] == FrameMagic
}

// MinC returns the coldest pixel in degrees Celsius
func (f *Frame) MinC() float64 {
	return float64(f.Min) / 100
}

// MaxC returns the hottest pixel in degrees Celsius
func (f *Frame) MaxC() float64 {
	return float64(f.Max) / 100
}

// Sample returns the raw centi-degree value at row, col
func (f *Frame) Sample(row, col int) int16 {
	return f.Samples[row*Cols+col]
}

// Temperature returns the temperature at row, col in degrees Celsius
func (f *Frame) Temperature(row, col int) float64 {
	return float64(f.Sample(row, col)) / 100
}

// Grid returns all pixel temperatures in degrees Celsius
func (f *Frame) Grid() [Rows][Cols]float64 {
	var g [Rows][Cols]float64
	for i, v := range f.Samples {
		g[i/Cols][i%Cols] = float64(v) / 100
	}
	return g
}

// Temperatures returns all pixel temperatures in degrees Celsius, row-major
func (f *Frame) Temperatures() []float64 {
	out := make([]float64, PixelCount)
	for i, v := range f.Samples {
		out[i] = float64(v) / 100
	}
	return out
}
