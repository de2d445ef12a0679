// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"flag"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/thermoview/pkg/mcu90640"
	"github.com/Thermoquad/thermoview/pkg/pipeline"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
	readTimeout   time.Duration
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Detect and count malformed and anomalous frames",
	Long: `Track frame errors and anomalous values with statistics.

This command validates each frame and detects:
  - Malformed frames (wrong length, usually a frame cut short by --read-timeout)
  - Frames whose header is not 0x5A5A (the stream is resynchronised to the
    next header after either kind)
  - Pixel temperatures outside the sensor range (-40 to 300°C)
  - Ambient temperatures outside the module range (-40 to 125°C)
  - Statistics and trends (frame rate, error rate, success rate)

By default, only anomalies are displayed. Use --show-all to display valid frames too.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all frames (not just anomalies)")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
	monitorCmd.Flags().DurationVar(&readTimeout, "read-timeout", 0, "Return incomplete frames after this long without data (0 blocks)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if useTUI {
		flag.Set("logtostderr", "false")
	}

	t, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	if err := t.SetReadTimeout(readTimeout); err != nil {
		t.Close()
		return err
	}

	if useTUI {
		return runMonitorTUI(t, connInfo)
	}
	return runMonitorText(t, connInfo)
}

// runMonitorTUI runs the monitor in TUI mode
func runMonitorTUI(t *mcu90640.Transport, connInfo string) error {
	loopKeys := make(chan rune, 4)
	m := newThermalModel(connInfo, mirror, loopKeys)
	m.showImage = false
	m.showAll = showAll
	program := tea.NewProgram(m)

	display := &teaDisplay{program: program, keys: loopKeys}
	p := pipeline.New(t, display, pipeline.Config{
		Mirror:    mirror,
		OutputDir: outputDir,
		Settle:    mcu90640.SettleDelay,
	})
	p.AddSnapshotObserver(display)

	return runWithProgram(program, p)
}

// runMonitorText runs the monitor in text mode
func runMonitorText(t *mcu90640.Transport, connInfo string) error {
	fmt.Printf("Thermoview - Frame Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All frames\n")
	} else {
		fmt.Printf("Mode: Anomalies only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	p := pipeline.New(t, nil, pipeline.Config{Settle: mcu90640.SettleDelay})
	p.AddObserver(&monitorPrinter{
		interval: time.Duration(statsInterval) * time.Second,
		last:     time.Now(),
	})

	err := runPipeline(p)
	fmt.Println()
	fmt.Print(p.Stats().String())
	return err
}

// monitorPrinter prints anomalies as they arrive and statistics periodically
type monitorPrinter struct {
	interval time.Duration
	last     time.Time
	skipped  uint64
}

func (m *monitorPrinter) ObserveFrame(v *pipeline.View) error {
	if n := v.Stats.MalformedFrames; n > m.skipped {
		printMalformed(v.Timestamp, n-m.skipped)
		m.skipped = n
	}

	if len(v.Anomalies) > 0 {
		printAnomalies(v)
	} else if showAll {
		fmt.Print(mcu90640.FormatFrame(v.Frame, v.Timestamp))
	}

	if m.interval > 0 && v.Timestamp.Sub(m.last) >= m.interval {
		m.last = v.Timestamp
		fmt.Println()
		fmt.Print(v.Stats.String())
		fmt.Println()
	}
	return nil
}

// printMalformed reports frames skipped since the previous good frame
func printMalformed(ts time.Time, n uint64) {
	fmt.Printf("[%s] \033[1;31mMALFORMED:\033[0m %d frame(s) skipped\n", ts.Format("15:04:05.000"), n)
	fmt.Printf("  >>> DECODE FAILED <<<\n\n")
}

// printAnomalies prints the anomalies found in a frame
func printAnomalies(v *pipeline.View) {
	timestamp := v.Timestamp.Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;33mANOMALY:\033[0m frame %d\n", timestamp, v.Sequence)

	for i, a := range v.Anomalies {
		switch a.Type {
		case mcu90640.AnomalyBadHeader:
			fmt.Printf("  Issue %d: \033[1;31m%s\033[0m\n", i+1, a.Message)
			if header, ok := a.Details["header"].([]byte); ok {
				fmt.Printf("    Header: [% X]\n", header)
			}

		case mcu90640.AnomalyPixelRange:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, a.Message)
			if lo, ok := a.Details["min"].(float64); ok {
				if hi, ok := a.Details["max"].(float64); ok {
					fmt.Printf("    Pixels: %.2f to %.2f°C\n", lo, hi)
				}
			}

		case mcu90640.AnomalyAmbientRange:
			fmt.Printf("  Issue %d: \033[1;33m%s\033[0m\n", i+1, a.Message)
			if temp, ok := a.Details["value"].(float64); ok {
				fmt.Printf("    Ambient=%.1f°C\n", temp)
			}

		default:
			fmt.Printf("  Issue %d: %s\n", i+1, a.Message)
		}
	}
	fmt.Printf("  Ambient: %+.2f°C, Min: %+.2f°C, Max: %+.2f°C\n\n", v.Frame.Ambient, v.Frame.MinC(), v.Frame.MaxC())
}
