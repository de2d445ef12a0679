// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Thermoview - GY-MCU90640 Thermal Camera Viewer
//
// A CLI tool for streaming frames from GY-MCU90640 thermal camera modules
// and showing them as false-color images.

package main

import (
	"os"

	"github.com/golang/glog"

	"github.com/Thermoquad/thermoview/cmd"
)

func main() {
	err := cmd.Execute()
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
