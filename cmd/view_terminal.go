// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build !opencv

package cmd

import (
	"github.com/golang/glog"
	"github.com/spf13/cobra"
)

// runView falls back to the terminal viewer in builds without OpenCV
func runView(cmd *cobra.Command, args []string) error {
	glog.Infof("built without OpenCV, using the terminal viewer")
	return runTUI(cmd, args)
}
