// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mcu90640

import (
	"fmt"
	"time"
)

// StartStreaming selects the 8 Hz frame rate and starts continuous output.
// settle is the pause between the two commands; use SettleDelay for hardware.
func StartStreaming(t *Transport, settle time.Duration) error {
	if err := t.SendCommand(NewFrameRateCommand()); err != nil {
		return err
	}
	time.Sleep(settle)
	return t.SendCommand(NewStartStream())
}

// StopStreaming stops continuous frame output
func StopStreaming(t *Transport) error {
	return t.SendCommand(NewStopStream())
}

// QueryEmissivity asks the module for its configured emissivity (0..1)
func QueryEmissivity(t *Transport) (float64, error) {
	resp, err := t.Query(NewEmissivityQuery(), EmissivityResponseSize)
	if err != nil {
		return 0, fmt.Errorf("failed to query emissivity: %w", err)
	}
	return float64(resp[2]) / 100, nil
}

// SwitchBaudRate tells a module listening at DefaultBaudRate to move to
// baudRate, then reopens the device at the new speed.
func SwitchBaudRate(devicePath string, baudRate int) (*Transport, error) {
	cmd, err := NewBaudRateCommand(baudRate)
	if err != nil {
		return nil, err
	}

	t, err := Open(devicePath, DefaultBaudRate)
	if err != nil {
		return nil, err
	}
	time.Sleep(SettleDelay)
	if err := t.SendCommand(cmd); err != nil {
		t.Close()
		return nil, err
	}
	time.Sleep(SettleDelay)
	t.Close()

	return Open(devicePath, baudRate)
}
