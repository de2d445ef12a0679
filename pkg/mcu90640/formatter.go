// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mcu90640

import (
	"fmt"
	"strings"
	"time"
)

// FormatOpcode returns the human-readable name for a command
func FormatOpcode(c Command) string {
	switch c {
	case NewEmissivityQuery():
		return "QUERY_EMISSIVITY"
	case NewFrameRateCommand():
		return "SET_FRAME_RATE_8HZ"
	case NewStartStream():
		return "START_STREAM"
	case NewStopStream():
		return "STOP_STREAM"
	case Command{Opcode: OpBaudRate, Payload: PayloadBaud460800}:
		return "SET_BAUD_460800"
	}

	switch c.Opcode {
	case OpBaudRate:
		return "SET_BAUD"
	case OpFrameRate:
		return "SET_FRAME_RATE"
	case OpStream:
		return "STREAM"
	case OpEmissivity:
		return "EMISSIVITY"
	default:
		return "UNKNOWN"
	}
}

// FormatCommand formats a command with its wire bytes
func FormatCommand(c Command) string {
	return fmt.Sprintf("%s (0x%02X/0x%02X) [% X]", FormatOpcode(c), c.Opcode, c.Payload, c.Bytes())
}

// FormatOverlay returns the summary line drawn over the rendered image
func FormatOverlay(f *Frame, fps float64) string {
	return fmt.Sprintf("Tambient = %+.1f Tmin = %+.1f Tmax = %+.1f FPS = %.2f",
		f.Ambient, f.MinC(), f.MaxC(), fps)
}

// FormatFrame formats a decoded frame as a one-line log entry
func FormatFrame(f *Frame, ts time.Time) string {
	return fmt.Sprintf("[%s] FRAME ambient=%+.2f°C min=%+.2f°C max=%+.2f°C span=%.2f°C\n",
		ts.Format("15:04:05.000"), f.Ambient, f.MinC(), f.MaxC(), f.MaxC()-f.MinC())
}

// FormatHexDump formats raw bytes, 16 per line
func FormatHexDump(raw []byte) string {
	var b strings.Builder
	b.WriteString("  Raw: ")
	for i, v := range raw {
		if i > 0 && i%16 == 0 {
			b.WriteString("\n       ")
		}
		fmt.Fprintf(&b, "%02X ", v)
	}
	b.WriteString("\n")
	return b.String()
}

// FormatEmissivity formats an emissivity value as a percentage
func FormatEmissivity(e float64) string {
	return fmt.Sprintf("%.2f (%.0f%%)", e, e*100)
}
