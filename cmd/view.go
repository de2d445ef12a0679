// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/thermoview/pkg/pipeline"
	"github.com/Thermoquad/thermoview/pkg/publish"
	"github.com/Thermoquad/thermoview/pkg/render"
)

var (
	viewWidth  int
	viewHeight int
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show the live false-color image in a window",
	Long: `Stream frames from the module and show them in an OpenCV window.

Every frame is scaled to its own minimum and maximum temperature, colored with
the Jet colormap and upscaled. The overlay shows the ambient, minimum and
maximum temperature and the frame rate.

Keys (window focused):
  s      save the displayed image as pic_<date>_<time>.jpg in --output-dir
  m      toggle mirroring
  q/Esc  quit

This is the default command. The window needs OpenCV 4 and a build with
'-tags opencv'; other builds show the terminal viewer (see 'tui') instead.`,
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
	for _, c := range []*cobra.Command{rootCmd, viewCmd} {
		c.Flags().IntVar(&viewWidth, "width", render.DefaultWidth, "Window image width")
		c.Flags().IntVar(&viewHeight, "height", render.DefaultHeight, "Window image height")
	}
}

// attachPublisher adds the MQTT publisher to p when --mqtt is set.
// The returned function disconnects it.
func attachPublisher(p *pipeline.Pipeline) (func(), error) {
	if mqttURL == "" {
		return func() {}, nil
	}
	pub, err := publish.Connect(mqttURL)
	if err != nil {
		return nil, err
	}
	p.AddObserver(pub)
	return pub.Close, nil
}

// runPipeline attaches the optional publisher and runs p until interrupted
func runPipeline(p *pipeline.Pipeline) error {
	closePublisher, err := attachPublisher(p)
	if err != nil {
		return err
	}
	defer closePublisher()

	ctx, stop := signalContext(context.Background())
	defer stop()

	err = p.Run(ctx)
	return finishRun(ctx.Err() != nil, err)
}

// finishRun turns the end of a run into the command's result
func finishRun(cancelled bool, err error) error {
	if cancelled {
		fmt.Println(" Stopped")
		return nil
	}
	if err != nil && replayPath != "" && errors.Is(err, io.EOF) {
		fmt.Println("End of recording")
		return nil
	}
	if err != nil {
		glog.Errorf("stream failed: %v", err)
	}
	return err
}
