// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mcu90640

import "fmt"

// AnomalyType represents different kinds of frame anomalies
type AnomalyType int

const (
	AnomalyBadHeader AnomalyType = iota
	AnomalyPixelRange
	AnomalyAmbientRange
)

// ValidationError represents a suspicious but decodable frame.
// Anomalies never cause a frame to be dropped; they are reported and counted.
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateFrame checks a decoded frame and the raw bytes it came from.
// Returns a slice of anomalies (empty if the frame looks sane).
func ValidateFrame(raw []byte, f *Frame) []ValidationError {
	errors := []ValidationError{}

	if len(raw) >= 2 && !HasHeader(raw) {
		errors = append(errors, ValidationError{
			Type:    AnomalyBadHeader,
			Message: fmt.Sprintf("Unexpected frame header 0x%02X%02X (want 0x%02X%02X)", raw[0], raw[1], FrameMagic, FrameMagic),
			Details: map[string]interface{}{"header": []byte{raw[0], raw[1]}},
		})
	}

	if f == nil {
		return errors
	}

	if f.MinC() < MinObjectTemp || f.MaxC() > MaxObjectTemp {
		errors = append(errors, ValidationError{
			Type: AnomalyPixelRange,
			Message: fmt.Sprintf("Pixel temperature out of range (min=%.2f°C, max=%.2f°C, valid: %.0f to %.0f°C)",
				f.MinC(), f.MaxC(), MinObjectTemp, MaxObjectTemp),
			Details: map[string]interface{}{"min": f.MinC(), "max": f.MaxC()},
		})
	}

	if f.Ambient < MinAmbientTemp || f.Ambient > MaxAmbientTemp {
		errors = append(errors, ValidationError{
			Type: AnomalyAmbientRange,
			Message: fmt.Sprintf("Ambient temperature out of range (%.2f°C, valid: %.0f to %.0f°C)",
				f.Ambient, MinAmbientTemp, MaxAmbientTemp),
			Details: map[string]interface{}{"value": f.Ambient},
		})
	}

	return errors
}
