// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

var portsUSBOnly bool

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Long: `List the serial ports on this machine with their USB details.

GY-MCU90640 modules are usually attached through a USB serial adapter
(CH340, CP210x or FTDI); pass the port name to --port.

Exit codes:
  0 - At least one port found
  1 - No ports found
  2 - Enumeration error`,
	RunE: runPorts,
}

func init() {
	rootCmd.AddCommand(portsCmd)
	portsCmd.Flags().BoolVar(&portsUSBOnly, "usb", false, "Only list USB serial adapters")
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Enumeration error: %v\n", err)
		os.Exit(2)
	}

	found := 0
	for _, port := range ports {
		if portsUSBOnly && !port.IsUSB {
			continue
		}
		found++
		if port.IsUSB {
			fmt.Printf("%s\tUSB %s:%s", port.Name, port.VID, port.PID)
			if port.Product != "" {
				fmt.Printf("\t%s", port.Product)
			}
			if port.SerialNumber != "" {
				fmt.Printf("\tserial=%s", port.SerialNumber)
			}
			fmt.Println()
		} else {
			fmt.Println(port.Name)
		}
	}

	if found == 0 {
		fmt.Fprintf(os.Stderr, "No serial ports found\n")
		os.Exit(1)
	}
	return nil
}
