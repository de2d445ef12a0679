// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/thermoview/pkg/mcu90640"
)

var emissivityCmd = &cobra.Command{
	Use:   "emissivity",
	Short: "Query the module's configured emissivity",
	Long: `Send the emissivity query (A5 55 01 FB) and print the module's reply.

The module must not be streaming; run 'thermoview stop' first if a previous
session left it running.`,
	RunE: runEmissivity,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop continuous frame output",
	Long: `Send the stop command (A5 35 01 DB) to the module.

Useful after a session was killed without shutting the stream down.`,
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(emissivityCmd)
	rootCmd.AddCommand(stopCmd)
}

func runEmissivity(cmd *cobra.Command, args []string) error {
	t, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer t.Close()

	glog.V(1).Infof("querying emissivity on %s: %s", connInfo, mcu90640.FormatCommand(mcu90640.NewEmissivityQuery()))

	e, err := mcu90640.QueryEmissivity(t)
	if err != nil {
		return err
	}
	fmt.Println(mcu90640.FormatEmissivity(e))
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	t, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer t.Close()

	if err := mcu90640.StopStreaming(t); err != nil {
		return err
	}
	fmt.Printf("Sent %s to %s\n", mcu90640.FormatCommand(mcu90640.NewStopStream()), connInfo)
	return nil
}
