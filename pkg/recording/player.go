// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package recording

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/Thermoquad/thermoview/pkg/mcu90640"
)

// PlayerOptions controls playback
type PlayerOptions struct {
	// Loop restarts from the first record after the last one
	Loop bool
	// Fast disables pacing by recorded timestamps
	Fast bool
}

// Player replays a recording as a module connection.
// Reads return the recorded frame bytes, paced by the recorded timestamps.
// Commands written to it are logged and discarded.
type Player struct {
	f    *os.File
	r    *Reader
	opts PlayerOptions

	pending  []byte
	lastTime int64

	done      chan struct{}
	closeOnce sync.Once
}

// OpenPlayer opens a recording for playback
func OpenPlayer(path string, opts PlayerOptions) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open recording %s: %w", mcu90640.ErrChannelUnavailable, path, err)
	}
	return &Player{
		f:    f,
		r:    NewReader(bufio.NewReader(f)),
		opts: opts,
		done: make(chan struct{}),
	}, nil
}

// Read implements io.Reader
func (p *Player) Read(b []byte) (int, error) {
	if len(p.pending) == 0 {
		if err := p.next(); err != nil {
			return 0, err
		}
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *Player) next() error {
	select {
	case <-p.done:
		return io.ErrClosedPipe
	default:
	}

	rec, err := p.r.Next()
	if err == io.EOF && p.opts.Loop {
		if _, serr := p.f.Seek(0, io.SeekStart); serr != nil {
			return fmt.Errorf("failed to rewind recording: %w", serr)
		}
		p.r = NewReader(bufio.NewReader(p.f))
		p.lastTime = 0
		rec, err = p.r.Next()
	}
	if err != nil {
		return err
	}

	if !p.opts.Fast && p.lastTime != 0 {
		if d := time.Duration(rec.Time - p.lastTime); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-timer.C:
			case <-p.done:
				timer.Stop()
				return io.ErrClosedPipe
			}
		}
	}
	p.lastTime = rec.Time
	p.pending = rec.Raw
	return nil
}

// Write implements io.Writer. Commands are accepted and dropped.
func (p *Player) Write(b []byte) (int, error) {
	select {
	case <-p.done:
		return 0, io.ErrClosedPipe
	default:
	}
	if cmd, err := mcu90640.ParseCommand(b); err == nil {
		glog.V(1).Infof("replay: ignoring %s", cmd)
	}
	return len(b), nil
}

// Close implements io.Closer. It unblocks a Read waiting on pacing.
func (p *Player) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		err = p.f.Close()
	})
	return err
}
