// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"flag"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/thermoview/pkg/mcu90640"
)

var (
	// Serial connection flags
	portName   string
	baudRate   int
	sensorBaud int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Replay
	replayPath string
	replayLoop bool

	// Output
	outputDir string
	mirror    bool
	mqttURL   string
)

var rootCmd = &cobra.Command{
	Use:   "thermoview",
	Short: "GY-MCU90640 Thermal Camera Viewer",
	Long: `Thermoview - A CLI tool for streaming, viewing and recording frames from
GY-MCU90640 thermal camera modules.

Each 32x24 frame is decoded to temperatures, mapped onto a false-color image
scaled to the extremes of that frame, and shown with the ambient, minimum and
maximum temperature. Press 's' in the viewer to save the displayed frame.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200] [--sensor-baud 460800]
  WebSocket: --url ws://host/path [--username user]
  Replay:    --replay capture.cbor

The serial port may also be given in the THERMOVIEW_PORT environment variable.
For WebSocket authentication, the password is read from the THERMOVIEW_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version: "1.0.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if portName == "" {
			portName = os.Getenv("THERMOVIEW_PORT")
		}
		// glog flags are registered on flag.CommandLine and bound through
		// pflag; mark the Go flag set parsed so glog accepts log calls.
		return flag.CommandLine.Parse(nil)
	},
	RunE: runView,
}

func init() {
	// glog writes to stderr unless told otherwise
	flag.Set("logtostderr", "true")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", mcu90640.DefaultBaudRate, "Baud rate (serial only)")
	rootCmd.PersistentFlags().IntVar(&sensorBaud, "sensor-baud", 0, "Switch the module to this baud rate before streaming (460800 only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Replay flags
	rootCmd.PersistentFlags().StringVar(&replayPath, "replay", "", "Play back a recording instead of opening a device")
	rootCmd.PersistentFlags().BoolVar(&replayLoop, "replay-loop", false, "Restart the recording when it ends")

	// Output flags
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", ".", "Directory for snapshots")
	rootCmd.PersistentFlags().BoolVar(&mirror, "mirror", true, "Mirror the image left to right")
	rootCmd.PersistentFlags().StringVar(&mqttURL, "mqtt", "", "Publish frames to an MQTT broker (mqtt://host:1883/topic-prefix)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
