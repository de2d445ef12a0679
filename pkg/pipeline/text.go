// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pipeline

import (
	"fmt"
	"io"

	"github.com/Thermoquad/thermoview/pkg/mcu90640"
)

// TextDisplay writes one summary line per frame and never reports keys
type TextDisplay struct {
	W io.Writer
	// ShowRaw adds a hex dump of every frame
	ShowRaw bool
	// ShowAnomalies adds a line per anomaly
	ShowAnomalies bool
}

// Render implements Display
func (d *TextDisplay) Render(v *View) error {
	if _, err := io.WriteString(d.W, mcu90640.FormatFrame(v.Frame, v.Timestamp)); err != nil {
		return err
	}
	if d.ShowAnomalies {
		for _, a := range v.Anomalies {
			if _, err := fmt.Fprintf(d.W, "  ⚠ %s\n", a.Message); err != nil {
				return err
			}
		}
	}
	if d.ShowRaw {
		if _, err := io.WriteString(d.W, mcu90640.FormatHexDump(v.Raw)); err != nil {
			return err
		}
	}
	return nil
}

// PollKey implements Display
func (d *TextDisplay) PollKey() (rune, bool) {
	return 0, false
}

// Close implements Display
func (d *TextDisplay) Close() error {
	return nil
}
