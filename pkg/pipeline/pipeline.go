// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/Thermoquad/thermoview/pkg/mcu90640"
	"github.com/Thermoquad/thermoview/pkg/render"
	"github.com/Thermoquad/thermoview/pkg/snapshot"
)

// Keys handled by the loop
const (
	KeySnapshot = 's'
	KeyMirror   = 'm'
	KeyQuit     = 'q'
	KeyEscape   = 27
)

// Config controls a Pipeline
type Config struct {
	// Compose renders View.Image for every frame
	Compose bool
	// Mirror flips the image left to right. KeyMirror toggles it.
	Mirror bool
	Width  int
	Height int

	// OutputDir receives snapshots
	OutputDir string

	// Settle is the pause between selecting the frame rate and starting
	// the stream
	Settle time.Duration

	// Now overrides the clock, for tests
	Now func() time.Time
}

// Pipeline owns a Transport for the lifetime of Run
type Pipeline struct {
	transport *mcu90640.Transport
	display   Display
	cfg       Config

	observers []Observer
	snapshots []SnapshotObserver
	stats     *mcu90640.Statistics

	sequence  uint64
	lastFrame time.Time

	shutdownOnce sync.Once
}

// New creates a pipeline. display may be nil for headless operation.
func New(t *mcu90640.Transport, display Display, cfg Config) *Pipeline {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{
		transport: t,
		display:   display,
		cfg:       cfg,
		stats:     mcu90640.NewStatistics(),
	}
}

// AddObserver registers an observer. Observers that also implement
// SnapshotObserver are told about saved snapshots.
func (p *Pipeline) AddObserver(o Observer) {
	p.observers = append(p.observers, o)
	if s, ok := o.(SnapshotObserver); ok {
		p.snapshots = append(p.snapshots, s)
	}
}

// AddSnapshotObserver registers an observer for saved snapshots only
func (p *Pipeline) AddSnapshotObserver(s SnapshotObserver) {
	p.snapshots = append(p.snapshots, s)
}

// Stats returns the running statistics
func (p *Pipeline) Stats() *mcu90640.Statistics {
	return p.stats
}

// Run starts streaming and processes frames until ctx is cancelled, an
// observer returns ErrStop, or the quit key is pressed; all of these return
// nil. A channel error stops the stream and is returned.
//
// Cancelling ctx stops the stream and closes the transport from another
// goroutine, which unblocks a pending read.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.display != nil {
		defer func() {
			if err := p.display.Close(); err != nil {
				glog.Warningf("failed to close display: %v", err)
			}
		}()
	}
	defer p.shutdown()

	stop := context.AfterFunc(ctx, p.shutdown)
	defer stop()

	if err := mcu90640.StartStreaming(p.transport, p.cfg.Settle); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to start streaming: %w", err)
	}
	glog.Infof("streaming started")

	resync := false
	for {
		if ctx.Err() != nil {
			return nil
		}

		raw, err := p.read(resync)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.stats.Update(nil, err, nil)
			return fmt.Errorf("failed to read frame: %w", err)
		}

		v, err := p.process(raw)
		if err != nil {
			glog.Warningf("skipping frame: %v", err)
			resync = true
			continue
		}
		resync = false

		if p.display != nil {
			if err := p.display.Render(v); err != nil {
				return fmt.Errorf("failed to render frame: %w", err)
			}
		}

		for _, o := range p.observers {
			if err := o.ObserveFrame(v); err != nil {
				if errors.Is(err, ErrStop) {
					return nil
				}
				glog.Warningf("observer failed: %v", err)
			}
		}

		if p.display == nil {
			continue
		}
		if key, ok := p.display.PollKey(); ok {
			switch key {
			case KeySnapshot:
				if _, err := p.Snapshot(v); err != nil {
					glog.Errorf("%v", err)
				}
			case KeyMirror:
				p.cfg.Mirror = !p.cfg.Mirror
				glog.V(1).Infof("mirror %v", p.cfg.Mirror)
			case KeyQuit, KeyEscape:
				return nil
			}
		}
	}
}

// read returns the next raw frame. After a bad frame the stream is
// searched for the next frame header first.
func (p *Pipeline) read(resync bool) ([]byte, error) {
	if !resync {
		return p.transport.ReadFrame()
	}
	raw, skipped, err := p.transport.SyncFrame()
	if skipped > 0 {
		glog.Warningf("resynchronised after %d bytes", skipped)
	}
	return raw, err
}

// process decodes and normalizes one raw frame. A frame of the right
// length without the header is out of step with the stream and fails
// like a short one.
func (p *Pipeline) process(raw []byte) (*View, error) {
	now := p.cfg.Now()

	f, err := mcu90640.Decode(raw)
	if err == nil && !mcu90640.HasHeader(raw) {
		f, err = nil, fmt.Errorf("%w: header [% X], stream out of step", mcu90640.ErrMalformedFrame, raw[:2])
	}
	if err != nil {
		p.stats.Update(nil, err, nil)
		return nil, err
	}

	anomalies := mcu90640.ValidateFrame(raw, f)
	for _, a := range anomalies {
		glog.V(1).Infof("frame %d: %s", p.sequence+1, a.Message)
	}
	p.stats.Update(f, nil, anomalies)

	var fps float64
	if !p.lastFrame.IsZero() {
		if dt := now.Sub(p.lastFrame).Seconds(); dt > 0 {
			fps = 1 / dt
		}
	}
	p.lastFrame = now
	p.sequence++

	v := &View{
		Sequence:  p.sequence,
		Timestamp: now,
		Raw:       raw,
		Frame:     f,
		Anomalies: anomalies,
		Gray:      f.Normalize(),
		FPS:       fps,
		Stats:     p.stats,
	}
	if p.cfg.Compose {
		v.Image = p.compose(v)
	}

	if glog.V(2) {
		glog.Infof("frame %d: ambient=%.2f min=%.2f max=%.2f fps=%.2f", v.Sequence, f.Ambient, f.MinC(), f.MaxC(), fps)
	}
	return v, nil
}

func (p *Pipeline) compose(v *View) *image.RGBA {
	return render.Compose(v.Gray, render.Options{
		Width:   p.cfg.Width,
		Height:  p.cfg.Height,
		Mirror:  p.cfg.Mirror,
		Overlay: mcu90640.FormatOverlay(v.Frame, v.FPS),
	})
}

// Snapshot saves the view's composed image to the output directory and
// notifies snapshot observers. Returns the path written.
func (p *Pipeline) Snapshot(v *View) (string, error) {
	if v.Image == nil {
		v.Image = p.compose(v)
	}

	data, err := snapshot.Encode(v.Image)
	if err != nil {
		return "", err
	}
	path, err := snapshot.SaveBytes(data, p.cfg.OutputDir, v.Timestamp)
	if err != nil {
		return "", err
	}
	glog.Infof("saved %s", path)

	for _, s := range p.snapshots {
		if err := s.ObserveSnapshot(path, data, v); err != nil {
			glog.Warningf("snapshot observer failed: %v", err)
		}
	}
	return path, nil
}

// shutdown stops the stream and closes the transport, once
func (p *Pipeline) shutdown() {
	p.shutdownOnce.Do(func() {
		if err := mcu90640.StopStreaming(p.transport); err != nil {
			glog.V(1).Infof("stop command not sent: %v", err)
		}
		if err := p.transport.Close(); err != nil {
			glog.Warningf("failed to close transport: %v", err)
		}
		glog.Infof("streaming stopped")
	})
}
