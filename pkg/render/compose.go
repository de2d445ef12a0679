// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package render

import (
	"image"
	"image/color"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Default output size of the composed image
const (
	DefaultWidth  = 1024
	DefaultHeight = 768
)

// Overlay text at DefaultHeight: baseline origin in pixels and size in
// points. Both scale with the output height.
const (
	overlayX    = 5
	overlayY    = 50
	OverlaySize = 22
)

var (
	boldOnce sync.Once
	bold     *opentype.Font
)

// overlayFace returns the bold overlay face for an image h pixels tall.
// Falls back to the fixed 7x13 face if the font cannot be loaded.
func overlayFace(h int) font.Face {
	boldOnce.Do(func() {
		f, err := opentype.Parse(gobold.TTF)
		if err != nil {
			glog.Warningf("failed to parse overlay font: %v", err)
			return
		}
		bold = f
	})
	if bold == nil {
		return basicfont.Face7x13
	}

	face, err := opentype.NewFace(bold, &opentype.FaceOptions{
		Size:    float64(OverlaySize) * float64(h) / DefaultHeight,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		glog.Warningf("failed to size overlay font: %v", err)
		return basicfont.Face7x13
	}
	return face
}

// Options controls Compose
type Options struct {
	Width  int
	Height int
	Mirror bool
	// Overlay is drawn in black near the top left. Empty draws nothing.
	Overlay string
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// Compose colorizes a normalized frame, scales it up with Catmull-Rom
// interpolation and draws the overlay text.
func Compose(gray *image.Gray, opts Options) *image.RGBA {
	src := Colorize(gray, opts.Mirror)

	w, h := opts.size()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	if opts.Overlay != "" {
		face := overlayFace(h)
		defer face.Close()
		DrawText(dst, opts.Overlay, fixed.P(overlayX, overlayY*h/DefaultHeight), color.Black, face)
	}
	return dst
}

// DrawText draws a single line of text with its baseline at dot
func DrawText(dst draw.Image, text string, dot fixed.Point26_6, c color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  dot,
	}
	d.DrawString(text)
}
