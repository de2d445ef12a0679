// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/thermoview/pkg/mcu90640"
	"github.com/Thermoquad/thermoview/pkg/pipeline"
)

var rawLogHex bool

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display a frame log in human-readable format",
	Long: `Continuously decode frames and print one line per frame as they arrive,
with the timestamp, ambient temperature and the temperature span of the frame.

Use --hex to also dump the raw bytes of every frame.

Supports serial, WebSocket and replay connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().BoolVar(&rawLogHex, "hex", false, "Dump raw frame bytes")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	t, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}

	fmt.Printf("Thermoview - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	display := &pipeline.TextDisplay{W: os.Stdout, ShowRaw: rawLogHex, ShowAnomalies: true}
	p := pipeline.New(t, display, pipeline.Config{Settle: mcu90640.SettleDelay})
	return runPipeline(p)
}
