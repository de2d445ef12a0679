// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pipeline

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/thermoview/pkg/mcu90640"
)

// scriptedConn returns one chunk per Read. An empty chunk is a read
// timeout. Once the script runs out, Read blocks until Close.
type scriptedConn struct {
	mu     sync.Mutex
	chunks [][]byte
	tx     bytes.Buffer
	err    error
	closed chan struct{}
	once   sync.Once
}

func newScriptedConn(chunks ...[]byte) *scriptedConn {
	return &scriptedConn{chunks: chunks, closed: make(chan struct{})}
}

func (c *scriptedConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	if len(c.chunks) == 0 {
		err := c.err
		c.mu.Unlock()
		if err != nil {
			return 0, err
		}
		<-c.closed
		return 0, io.ErrClosedPipe
	}
	chunk := c.chunks[0]
	n := copy(p, chunk)
	if n < len(chunk) {
		c.chunks[0] = chunk[n:]
	} else {
		c.chunks = c.chunks[1:]
	}
	c.mu.Unlock()
	return n, nil
}

func (c *scriptedConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
		return 0, io.ErrClosedPipe
	default:
	}
	return c.tx.Write(p)
}

func (c *scriptedConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *scriptedConn) SetReadTimeout(time.Duration) error {
	return nil
}

func (c *scriptedConn) written() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.tx.Bytes()...)
}

// fakeDisplay records rendered views and replays scripted keys
type fakeDisplay struct {
	views    []*View
	keys     []rune
	closed   bool
	onRender func(v *View)
}

func (d *fakeDisplay) Render(v *View) error {
	d.views = append(d.views, v)
	if d.onRender != nil {
		d.onRender(v)
	}
	return nil
}

func (d *fakeDisplay) PollKey() (rune, bool) {
	if len(d.keys) == 0 {
		return 0, false
	}
	k := d.keys[0]
	d.keys = d.keys[1:]
	return k, k != 0
}

func (d *fakeDisplay) Close() error {
	d.closed = true
	return nil
}

func frame(pixel int16, ambient uint16) []byte {
	raw := make([]byte, mcu90640.FrameSize)
	raw[0], raw[1] = mcu90640.FrameMagic, mcu90640.FrameMagic
	for i := 0; i < mcu90640.PixelCount; i++ {
		binary.LittleEndian.PutUint16(raw[mcu90640.FrameHeaderSize+2*i:], uint16(pixel))
	}
	binary.LittleEndian.PutUint16(raw[1540:], ambient)
	return raw
}

var (
	startupBytes = []byte{0xA5, 0x25, 0x04, 0xCE, 0xA5, 0x35, 0x02, 0xDC}
	stopBytes    = []byte{0xA5, 0x35, 0x01, 0xDB}
)

func newTimedTransport(t *testing.T, conn *scriptedConn) *mcu90640.Transport {
	t.Helper()
	tr := mcu90640.NewTransport(conn)
	require.NoError(t, tr.SetReadTimeout(10*time.Millisecond))
	return tr
}

func TestRun_SkipsMalformedFrame(t *testing.T) {
	good := frame(2500, 2300)
	good[4], good[5] = 0x10, 0x27 // first pixel 100.00
	conn := newScriptedConn(make([]byte, 1000), []byte{}, good)
	tr := newTimedTransport(t, conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	display := &fakeDisplay{onRender: func(*View) { cancel() }}

	p := New(tr, display, Config{})
	require.NoError(t, p.Run(ctx))

	require.Len(t, display.views, 1)
	v := display.views[0]
	assert.Equal(t, uint64(1), v.Sequence)
	assert.Equal(t, 23.0, v.Frame.Ambient)
	assert.Equal(t, 100.0, v.Frame.MaxC())
	assert.Equal(t, uint8(255), v.Gray.Pix[0])

	stats := p.Stats()
	assert.Equal(t, uint64(2), stats.TotalFrames)
	assert.Equal(t, uint64(1), stats.MalformedFrames)
	assert.Equal(t, uint64(1), stats.ValidFrames)

	assert.True(t, display.closed)
	assert.Equal(t, append(append([]byte{}, startupBytes...), stopBytes...), conn.written())
}

func TestRun_ResyncAfterLateTail(t *testing.T) {
	a := frame(2000, 3000)
	b := frame(3000, 3000)
	// The tail of a arrives after the read timeout cut it short
	conn := newScriptedConn(a[:1000], []byte{}, a[1000:], b)
	tr := newTimedTransport(t, conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	display := &fakeDisplay{onRender: func(*View) { cancel() }}

	p := New(tr, display, Config{})
	require.NoError(t, p.Run(ctx))

	require.Len(t, display.views, 1)
	v := display.views[0]
	assert.True(t, mcu90640.HasHeader(v.Raw))
	assert.Equal(t, 30.0, v.Frame.MinC())
	assert.Equal(t, 30.0, v.Frame.MaxC())
	assert.Empty(t, v.Anomalies)
	assert.Equal(t, uint64(1), p.Stats().MalformedFrames)
}

func TestRun_ResyncAfterLostByte(t *testing.T) {
	a := frame(2000, 2300)
	b := frame(3000, 2300)
	c := frame(4000, 2300)
	d := frame(5000, 2300)
	// a loses its last trailer byte on a blocking link, so the next read
	// starts one byte into b
	conn := newScriptedConn(a[:mcu90640.FrameSize-1], b, c, d)
	tr := mcu90640.NewTransport(conn)

	var seen []float64
	p := New(tr, nil, Config{})
	p.AddObserver(ObserverFunc(func(v *View) error {
		require.True(t, mcu90640.HasHeader(v.Raw))
		seen = append(seen, v.Frame.MinC())
		if len(seen) == 2 {
			return ErrStop
		}
		return nil
	}))

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []float64{20, 50}, seen)
	assert.Equal(t, uint64(1), p.Stats().MalformedFrames)
}

func TestRun_UniformFrameIsDegenerate(t *testing.T) {
	conn := newScriptedConn(frame(2345, 2300))
	tr := newTimedTransport(t, conn)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	display := &fakeDisplay{onRender: func(*View) { cancel() }}

	require.NoError(t, New(tr, display, Config{Compose: true, Width: 64, Height: 48}).Run(ctx))

	require.Len(t, display.views, 1)
	for _, px := range display.views[0].Gray.Pix {
		require.Equal(t, uint8(mcu90640.DegenerateLevel), px)
	}
	require.NotNil(t, display.views[0].Image)
	assert.Equal(t, 64, display.views[0].Image.Bounds().Dx())
}

func TestRun_CancelUnblocksRead(t *testing.T) {
	conn := newScriptedConn()
	tr := mcu90640.NewTransport(conn)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(tr, &fakeDisplay{}, Config{}).Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.True(t, bytes.HasSuffix(conn.written(), stopBytes))
}

func TestRun_ReadErrorIsFatal(t *testing.T) {
	conn := newScriptedConn(frame(2500, 2300))
	conn.err = io.ErrUnexpectedEOF
	tr := mcu90640.NewTransport(conn)

	display := &fakeDisplay{}
	err := New(tr, display, Config{}).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, mcu90640.ErrShortRead))
	assert.Len(t, display.views, 1)
	assert.True(t, display.closed)
	assert.True(t, bytes.HasSuffix(conn.written(), stopBytes))
}

func TestRun_ObserverStop(t *testing.T) {
	conn := newScriptedConn(frame(2000, 2300), frame(2100, 2300), frame(2200, 2300))
	tr := mcu90640.NewTransport(conn)

	var seen []float64
	p := New(tr, nil, Config{})
	p.AddObserver(ObserverFunc(func(v *View) error {
		seen = append(seen, v.Frame.MinC())
		if len(seen) == 2 {
			return ErrStop
		}
		return nil
	}))

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []float64{20, 21}, seen)
}

func TestRun_ObserverErrorNotFatal(t *testing.T) {
	conn := newScriptedConn(frame(2000, 2300), frame(2100, 2300))
	tr := mcu90640.NewTransport(conn)

	calls := 0
	p := New(tr, nil, Config{})
	p.AddObserver(ObserverFunc(func(v *View) error {
		calls++
		if calls == 2 {
			return ErrStop
		}
		return errors.New("broker unavailable")
	}))

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, 2, calls)
}

type recordingSnapshots struct {
	paths []string
	sizes []int
}

func (r *recordingSnapshots) ObserveSnapshot(path string, jpeg []byte, v *View) error {
	r.paths = append(r.paths, path)
	r.sizes = append(r.sizes, len(jpeg))
	return nil
}

func TestRun_SnapshotKey(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, time.June, 1, 12, 30, 45, 0, time.Local)

	conn := newScriptedConn(frame(2000, 2300), frame(2100, 2300))
	tr := mcu90640.NewTransport(conn)
	display := &fakeDisplay{keys: []rune{KeySnapshot, KeyQuit}}
	snaps := &recordingSnapshots{}

	p := New(tr, display, Config{OutputDir: dir, Width: 64, Height: 48, Now: func() time.Time { return now }})
	p.AddSnapshotObserver(snaps)
	require.NoError(t, p.Run(context.Background()))

	want := filepath.Join(dir, "pic_2024-06-01_12-30-45.jpg")
	require.Equal(t, []string{want}, snaps.paths)
	info, err := os.Stat(want)
	require.NoError(t, err)
	assert.Equal(t, int64(snaps.sizes[0]), info.Size())
	assert.Len(t, display.views, 2)
}

func TestRun_MirrorKeyAppliesToSnapshot(t *testing.T) {
	dir := t.TempDir()
	hotLeft := frame(2000, 2300)
	binary.LittleEndian.PutUint16(hotLeft[mcu90640.FrameHeaderSize:], 3000)

	conn := newScriptedConn(hotLeft, hotLeft, hotLeft)
	tr := mcu90640.NewTransport(conn)
	display := &fakeDisplay{keys: []rune{KeyMirror, KeySnapshot, KeyQuit}}
	snaps := &recordingSnapshots{}

	p := New(tr, display, Config{Compose: true, Width: 64, Height: 48, OutputDir: dir})
	p.AddSnapshotObserver(snaps)
	require.NoError(t, p.Run(context.Background()))

	require.Len(t, display.views, 3)
	before := display.views[0].Image.RGBAAt(0, 0)
	after := display.views[1].Image.RGBAAt(0, 0)
	assert.Greater(t, before.R, before.B, "hot pixel starts at the left")
	assert.Greater(t, after.B, after.R, "hot pixel moves right after the toggle")

	// The snapshot taken after the toggle is the mirrored image on screen
	require.Len(t, snaps.paths, 1)
	f, err := os.Open(snaps.paths[0])
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	r, _, b, _ := img.At(0, 0).RGBA()
	assert.Greater(t, b, r)
}

func TestRun_FPS(t *testing.T) {
	base := time.Unix(1000, 0)
	times := []time.Time{base, base.Add(125 * time.Millisecond)}
	i := 0
	clock := func() time.Time {
		ts := times[i]
		if i < len(times)-1 {
			i++
		}
		return ts
	}

	conn := newScriptedConn(frame(2000, 2300), frame(2100, 2300))
	tr := mcu90640.NewTransport(conn)
	var fps []float64
	p := New(tr, nil, Config{Now: clock})
	p.AddObserver(ObserverFunc(func(v *View) error {
		fps = append(fps, v.FPS)
		if len(fps) == 2 {
			return ErrStop
		}
		return nil
	}))

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []float64{0, 8}, fps)
}

func TestTextDisplay(t *testing.T) {
	f, err := mcu90640.Decode(frame(2500, 2300))
	require.NoError(t, err)

	var buf bytes.Buffer
	d := &TextDisplay{W: &buf, ShowAnomalies: true}
	v := &View{
		Frame:     f,
		Timestamp: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		Anomalies: []mcu90640.ValidationError{{Message: "ambient odd"}},
	}
	require.NoError(t, d.Render(v))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[08:00:00.000] FRAME"))
	assert.Contains(t, out, "ambient odd")
	_, ok := d.PollKey()
	assert.False(t, ok)
}
