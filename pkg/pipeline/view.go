// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package pipeline runs the acquisition loop: start streaming, then read,
// decode, normalize and hand every frame to a display and to observers
// until the context is cancelled.
package pipeline

import (
	"errors"
	"image"
	"time"

	"github.com/Thermoquad/thermoview/pkg/mcu90640"
)

// ErrStop may be returned by an Observer to end the loop cleanly
var ErrStop = errors.New("stop requested")

// View is everything known about one decoded frame
type View struct {
	Sequence  uint64
	Timestamp time.Time
	Raw       []byte
	Frame     *mcu90640.Frame
	Anomalies []mcu90640.ValidationError

	// Gray is the frame normalized to 0..255, Cols x Rows
	Gray *image.Gray
	// Image is the composed false-color image; nil unless Config.Compose is set
	Image *image.RGBA

	// FPS is the instantaneous rate, from the time since the previous frame
	FPS   float64
	Stats *mcu90640.Statistics
}

// Display is the rendering boundary of the loop
type Display interface {
	Render(v *View) error
	// PollKey returns the key pressed since the last poll, if any
	PollKey() (rune, bool)
	Close() error
}

// Observer receives every decoded frame after it has been displayed
type Observer interface {
	ObserveFrame(v *View) error
}

// SnapshotObserver is notified after a snapshot has been written
type SnapshotObserver interface {
	ObserveSnapshot(path string, jpeg []byte, v *View) error
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(v *View) error

// ObserveFrame implements Observer
func (f ObserverFunc) ObserveFrame(v *View) error {
	return f(v)
}
