// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mcu90640

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Statistics tracks frame counts and rates for a stream
type Statistics struct {
	StartTime     time.Time
	LastFrameTime time.Time

	// Counters
	TotalFrames     uint64
	ValidFrames     uint64
	MalformedFrames uint64
	ReadErrors      uint64
	AnomalousFrames uint64
	BadHeaders      uint64
	PixelRange      uint64
	AmbientRange    uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec

	now func() time.Time
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	return newStatisticsWithClock(time.Now)
}

func newStatisticsWithClock(now func() time.Time) *Statistics {
	start := now()
	return &Statistics{
		StartTime:     start,
		LastFrameTime: start,
		now:           now,
	}
}

// Update records the outcome of one read: a decoded frame, or the error
// that prevented decoding, plus any anomalies found by ValidateFrame.
func (s *Statistics) Update(frame *Frame, decodeErr error, anomalies []ValidationError) {
	s.TotalFrames++

	if decodeErr != nil {
		if errors.Is(decodeErr, ErrMalformedFrame) {
			s.MalformedFrames++
		} else {
			s.ReadErrors++
		}
		return
	}

	if len(anomalies) > 0 {
		s.AnomalousFrames++
		for _, a := range anomalies {
			switch a.Type {
			case AnomalyBadHeader:
				s.BadHeaders++
			case AnomalyPixelRange:
				s.PixelRange++
			case AnomalyAmbientRange:
				s.AmbientRange++
			}
		}
	} else if frame != nil {
		s.ValidFrames++
	}

	s.LastFrameTime = s.now()
}

// Errors returns the number of frames that could not be used
func (s *Statistics) Errors() uint64 {
	return s.MalformedFrames + s.ReadErrors
}

// CalculateRates calculates frame and error rates since StartTime
func (s *Statistics) CalculateRates() {
	elapsed := s.now().Sub(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames-s.Errors()) / elapsed
		s.ErrorRate = float64(s.Errors()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, malformedPercent, anomalousPercent float64
	if s.TotalFrames > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(s.TotalFrames)
		malformedPercent = float64(s.MalformedFrames) * 100.0 / float64(s.TotalFrames)
		anomalousPercent = float64(s.AnomalousFrames) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := s.now().Sub(s.StartTime)

	var b strings.Builder
	fmt.Fprintf(&b, "=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	fmt.Fprintf(&b, "Total Frames:    %8d\n", s.TotalFrames)
	fmt.Fprintf(&b, "Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)

	if s.MalformedFrames > 0 {
		fmt.Fprintf(&b, "Malformed:       %8d (%.1f%%)\n", s.MalformedFrames, malformedPercent)
	}
	if s.ReadErrors > 0 {
		fmt.Fprintf(&b, "Read Errors:     %8d\n", s.ReadErrors)
	}
	if s.AnomalousFrames > 0 {
		fmt.Fprintf(&b, "Anomalous:       %8d (%.1f%%)\n", s.AnomalousFrames, anomalousPercent)
		if s.BadHeaders > 0 {
			fmt.Fprintf(&b, "  Bad Header:       %5d\n", s.BadHeaders)
		}
		if s.PixelRange > 0 {
			fmt.Fprintf(&b, "  Pixel Range:      %5d\n", s.PixelRange)
		}
		if s.AmbientRange > 0 {
			fmt.Fprintf(&b, "  Ambient Range:    %5d\n", s.AmbientRange)
		}
	}

	fmt.Fprintf(&b, "Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	fmt.Fprintf(&b, "Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	b.WriteString("================================\n")

	return b.String()
}
