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

var (
	pingTimeout int
	pingCount   int
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test the link by repeating the emissivity query",
	Long: `Send emissivity queries to the module and wait for each reply.

The emissivity query is the only command the module answers, so it doubles as
a round trip test for serial links and WebSocket bridges.

This is useful for verifying:
  - The connection is established
  - HTTP Basic authentication works (WebSocket only)
  - Commands reach the module and replies come back

The module must not be streaming.

Exit codes:
  0 - All pings successful
  1 - One or more pings failed/timed out
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 5, "Timeout in seconds for each ping")
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
}

func runPing(cmd *cobra.Command, args []string) error {
	t, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer t.Close()

	fmt.Printf("Thermoview - Ping Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds per ping\n", pingTimeout)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	successCount := 0
	failCount := 0

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		type reply struct {
			e   float64
			err error
		}
		replyChan := make(chan reply, 1)

		startTime := time.Now()
		go func() {
			e, err := mcu90640.QueryEmissivity(t)
			replyChan <- reply{e, err}
		}()

		select {
		case r := <-replyChan:
			if r.err != nil {
				fmt.Printf("FAILED: %v\n", r.err)
				failCount++
				break
			}
			rtt := time.Since(startTime)
			fmt.Printf("reply from module, emissivity=%.2f, rtt=%v\n", r.e, rtt.Round(time.Millisecond))
			successCount++

		case <-time.After(time.Duration(pingTimeout) * time.Second):
			// The pending read cannot be abandoned; later replies would be misaligned
			fmt.Printf("TIMEOUT (no response in %ds)\n", pingTimeout)
			failCount += pingCount - i + 1
			i = pingCount
		}

		if i < pingCount {
			time.Sleep(mcu90640.SettleDelay)
		}
	}

	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d responses received, %.0f%% packet loss\n",
		pingCount, successCount, float64(failCount)/float64(pingCount)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}
