// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/thermoview/pkg/mcu90640"
)

var linkTestCmd = &cobra.Command{
	Use:   "link_test",
	Short: "Test raw stream throughput and stability",
	Long: `Start streaming and count raw bytes without decoding frames.

This command logs every chunk received and reports the throughput and the
frame rate it implies (one frame is 1544 bytes). Useful for debugging baud
rate and WebSocket bridge stability issues.

Exit codes:
  0 - Test completed normally
  1 - Test failed
  2 - Connection error`,
	RunE: runLinkTest,
}

var (
	linkTestDuration int
	linkTestQuiet    bool
)

func init() {
	rootCmd.AddCommand(linkTestCmd)
	linkTestCmd.Flags().IntVar(&linkTestDuration, "duration", 30, "Test duration in seconds")
	linkTestCmd.Flags().BoolVar(&linkTestQuiet, "quiet", false, "Do not log each chunk")
}

func runLinkTest(cmd *cobra.Command, args []string) error {
	t, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("Stream Link Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Duration: %d seconds\n\n", linkTestDuration)

	if err := mcu90640.StartStreaming(t, mcu90640.SettleDelay); err != nil {
		t.Close()
		fmt.Fprintf(os.Stderr, "Start error: %v\n", err)
		os.Exit(2)
	}

	readChan := make(chan int, 100)
	errChan := make(chan error, 1)

	go func() {
		for {
			data, err := t.ReadExact(256)
			if err != nil {
				errChan <- err
				return
			}
			readChan <- len(data)
		}
	}()

	startTime := time.Now()
	endTime := startTime.Add(time.Duration(linkTestDuration) * time.Second)
	bytesReceived := 0
	chunksReceived := 0
	failed := false

loop:
	for time.Now().Before(endTime) {
		select {
		case n := <-readChan:
			bytesReceived += n
			chunksReceived++
			if !linkTestQuiet {
				fmt.Printf("[%s] Received %d bytes (%d total)\n",
					time.Now().Format("15:04:05.000"), n, bytesReceived)
			}

		case err := <-errChan:
			fmt.Printf("\n[%s] Connection error: %v\n",
				time.Now().Format("15:04:05.000"), err)
			failed = true
			break loop

		case <-time.After(1 * time.Second):
			remaining := time.Until(endTime).Seconds()
			fmt.Printf("[%s] No data... (%.0fs remaining)\n",
				time.Now().Format("15:04:05.000"), remaining)
		}
	}

	elapsed := time.Since(startTime)
	stopStream(t)

	rate := float64(bytesReceived) / elapsed.Seconds()
	fmt.Printf("\n--- Test Results ---\n")
	fmt.Printf("Duration: %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Chunks received: %d\n", chunksReceived)
	fmt.Printf("Bytes received: %d\n", bytesReceived)
	fmt.Printf("Throughput: %.0f bytes/s (%.2f frames/s)\n", rate, rate/mcu90640.FrameSize)

	if failed {
		fmt.Printf("Result: FAILED (connection error)\n")
		os.Exit(1)
	}
	fmt.Printf("Result: PASSED (connection stable)\n")
	return nil
}
