// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mcu90640

import (
	"image"
	"math"
)

// DegenerateLevel is written to every pixel when a frame has no dynamic
// range (all samples equal), so a uniform scene renders as mid-scale.
const DegenerateLevel = 128

// Normalize maps centi-degree samples onto 0..255 using the range
// [tMinDeg, tMaxDeg] in degrees Celsius. The result is Cols wide and
// Rows high. Values outside the range are clamped.
func Normalize(s *Samples, tMinDeg, tMaxDeg float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, Cols, Rows))

	span := tMaxDeg - tMinDeg
	if span == 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		for i := range img.Pix {
			img.Pix[i] = DegenerateLevel
		}
		return img
	}

	for i, v := range s {
		deg := float64(v) / 100
		img.Pix[i] = quantize((deg - tMinDeg) * 255 / span)
	}
	return img
}

// Normalize maps the frame onto 0..255 using its own extrema
func (f *Frame) Normalize() *image.Gray {
	return Normalize(&f.Samples, f.MinC(), f.MaxC())
}

// quantize rounds to the nearest level and clamps to [0, 255]
func quantize(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
