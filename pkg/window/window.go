// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build opencv

package window

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/Thermoquad/thermoview/pkg/pipeline"
)

// Window is a pipeline.Display backed by an OpenCV highgui window
type Window struct {
	win *gocv.Window
	key int
}

// New opens a window with the given title
func New(title string) *Window {
	return &Window{win: gocv.NewWindow(title), key: -1}
}

// Render implements pipeline.Display. The view must carry a composed image.
func (w *Window) Render(v *pipeline.View) error {
	if v.Image == nil {
		return fmt.Errorf("no composed image for frame %d", v.Sequence)
	}

	mat, err := gocv.ImageToMatRGB(v.Image)
	if err != nil {
		return fmt.Errorf("failed to convert frame: %w", err)
	}
	defer mat.Close()

	w.win.IMShow(mat)
	w.key = w.win.WaitKey(1)
	return nil
}

// PollKey implements pipeline.Display.
// A window closed by the user reads as the quit key.
func (w *Window) PollKey() (rune, bool) {
	if !w.win.IsOpen() {
		return pipeline.KeyQuit, true
	}
	key := w.key
	w.key = -1
	if key < 0 {
		return 0, false
	}
	return rune(key & 0xFF), true
}

// Close implements pipeline.Display
func (w *Window) Close() error {
	return w.win.Close()
}
