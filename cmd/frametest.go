// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/thermoview/pkg/mcu90640"
)

var (
	frameTestTimeout int
)

var frameTestCmd = &cobra.Command{
	Use:   "frame_test",
	Short: "Test connection by waiting for a valid frame",
	Long: `Start streaming and wait for one valid frame until timeout.

This command connects to a serial port, WebSocket bridge or recording, sends
the frame rate and start commands, and waits for a complete 1544 byte frame
that decodes and validates. Bytes before the first frame header are skipped,
and frames with anomalies are reported and skipped.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error`,
	RunE: runFrameTest,
}

func init() {
	rootCmd.AddCommand(frameTestCmd)
	frameTestCmd.Flags().IntVar(&frameTestTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runFrameTest(cmd *cobra.Command, args []string) error {
	t, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("Thermoview - Frame Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", frameTestTimeout)
	fmt.Printf("Waiting for valid frame...\n\n")

	if err := mcu90640.StartStreaming(t, mcu90640.SettleDelay); err != nil {
		t.Close()
		fmt.Fprintf(os.Stderr, "Start error: %v\n", err)
		os.Exit(2)
	}

	frameChan := make(chan *mcu90640.Frame, 1)
	errChan := make(chan error, 1)

	go func() {
		rejected := 0
		for {
			raw, skipped, err := t.SyncFrame()
			if err != nil {
				errChan <- err
				return
			}
			if skipped > 0 {
				fmt.Printf("(skipped %d bytes before a frame header)\n", skipped)
			}

			frame, err := mcu90640.Decode(raw)
			if err != nil {
				rejected++
				continue
			}
			if anomalies := mcu90640.ValidateFrame(raw, frame); len(anomalies) > 0 {
				for _, a := range anomalies {
					fmt.Printf("(skipped frame: %s)\n", a.Message)
				}
				rejected++
				continue
			}

			if rejected > 0 {
				fmt.Printf("(skipped %d frames before a valid one)\n", rejected)
			}
			frameChan <- frame
			return
		}
	}()

	code := 0
	select {
	case frame := <-frameChan:
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Size: %d bytes\n", mcu90640.FrameSize)
		fmt.Printf("  Ambient: %+.2f°C\n", frame.Ambient)
		fmt.Printf("  Min: %+.2f°C\n", frame.MinC())
		fmt.Printf("  Max: %+.2f°C\n", frame.MaxC())

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		code = 2

	case <-time.After(time.Duration(frameTestTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", frameTestTimeout)
		code = 1
	}

	stopStream(t)
	glog.Flush()
	os.Exit(code)
	return nil
}
