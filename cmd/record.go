// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/thermoview/pkg/mcu90640"
	"github.com/Thermoquad/thermoview/pkg/pipeline"
	"github.com/Thermoquad/thermoview/pkg/recording"
)

var (
	recordOutput string
	recordCount  int
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record raw frames to a file for replay",
	Long: `Stream frames and append each decoded frame to a CBOR recording.

Every record holds the capture time and the raw 1544 byte frame. Recordings
can be played back with --replay on any command.

Recording stops after --count frames, or on Ctrl+C when --count is 0.`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVar(&recordOutput, "output", "", "Recording file (default capture_<date>_<time>.cbor)")
	recordCmd.Flags().IntVarP(&recordCount, "count", "n", 0, "Stop after this many frames (0 records until interrupted)")
}

// recorder appends every frame to a recording
type recorder struct {
	w     *recording.Writer
	limit int
	err   error
}

func (r *recorder) ObserveFrame(v *pipeline.View) error {
	if err := r.w.WriteFrame(v.Timestamp, v.Raw); err != nil {
		r.err = err
		return pipeline.ErrStop
	}
	if r.w.Count()%100 == 0 {
		glog.V(1).Infof("recorded %d frames", r.w.Count())
	}
	if r.limit > 0 && r.w.Count() >= r.limit {
		return pipeline.ErrStop
	}
	return nil
}

func runRecord(cmd *cobra.Command, args []string) error {
	path := recordOutput
	if path == "" {
		path = time.Now().Format("capture_2006-01-02_15-04-05.cbor")
	}

	w, err := recording.Create(path)
	if err != nil {
		return err
	}

	t, connInfo, err := OpenConnection()
	if err != nil {
		w.Close()
		return err
	}

	fmt.Printf("Thermoview - Recorder\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Output: %s\n", path)
	fmt.Printf("Press Ctrl+C to stop\n\n")

	p := pipeline.New(t, nil, pipeline.Config{Settle: mcu90640.SettleDelay})
	rec := &recorder{w: w, limit: recordCount}
	p.AddObserver(rec)

	runErr := runPipeline(p)
	if runErr == nil {
		runErr = rec.err
	}
	closeErr := w.Close()
	fmt.Printf("Recorded %d frames to %s\n", w.Count(), path)
	if runErr != nil {
		return runErr
	}
	return closeErr
}
