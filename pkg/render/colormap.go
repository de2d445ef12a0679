// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package render turns normalized thermal frames into viewable images:
// false-color mapping, upscaling, mirroring and the statistics overlay.
package render

import (
	"image"
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// jet is the 256-entry Jet lookup table (blue, cyan, yellow, red)
var jet = buildJet()

func buildJet() [256]colorful.Color {
	var lut [256]colorful.Color
	for i := range lut {
		v := float64(i) / 255
		lut[i] = colorful.Color{
			R: jetChannel(v, 3),
			G: jetChannel(v, 2),
			B: jetChannel(v, 1),
		}.Clamped()
	}
	return lut
}

func jetChannel(v, center float64) float64 {
	return 1.5 - math.Abs(4*v-center)
}

// Jet returns the false color for a normalized level
func Jet(level uint8) colorful.Color {
	return jet[level]
}

// JetRGBA returns the false color for a normalized level as an opaque RGBA
func JetRGBA(level uint8) color.RGBA {
	r, g, b := jet[level].RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}

// Colorize maps every level of gray through the Jet colormap.
// When mirror is set the image is flipped left to right.
func Colorize(gray *image.Gray, mirror bool) *image.RGBA {
	b := gray.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dx := x
			if mirror {
				dx = b.Dx() - 1 - x
			}
			out.SetRGBA(dx, y, JetRGBA(gray.GrayAt(b.Min.X+x, b.Min.Y+y).Y))
		}
	}
	return out
}
