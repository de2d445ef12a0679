// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build opencv

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/thermoview/pkg/mcu90640"
	"github.com/Thermoquad/thermoview/pkg/pipeline"
	"github.com/Thermoquad/thermoview/pkg/window"
)

func runView(cmd *cobra.Command, args []string) error {
	t, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}

	fmt.Printf("Thermoview - Viewer\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Snapshots: %s\n", outputDir)
	fmt.Printf("Press 's' to save, 'm' to mirror, 'q' or Ctrl+C to exit\n\n")

	p := pipeline.New(t, window.New("Thermoview"), pipeline.Config{
		Compose:   true,
		Mirror:    mirror,
		Width:     viewWidth,
		Height:    viewHeight,
		OutputDir: outputDir,
		Settle:    mcu90640.SettleDelay,
	})

	return runPipeline(p)
}
