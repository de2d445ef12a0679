// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package recording stores raw frames as a CBOR sequence and plays them
// back as if they came from a live module.
package recording

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Record is one captured frame
type Record struct {
	// Time is the capture time in Unix nanoseconds
	Time int64  `cbor:"1,keyasint"`
	Raw  []byte `cbor:"2,keyasint"`
}

// Timestamp returns the capture time
func (r Record) Timestamp() time.Time {
	return time.Unix(0, r.Time)
}

// Writer appends records to a file
type Writer struct {
	f     *os.File
	buf   *bufio.Writer
	enc   *cbor.Encoder
	count int
}

// Create creates or truncates path for writing
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording %s: %w", path, err)
	}
	buf := bufio.NewWriter(f)
	return &Writer{f: f, buf: buf, enc: cbor.NewEncoder(buf)}, nil
}

// WriteFrame appends a raw frame captured at ts
func (w *Writer) WriteFrame(ts time.Time, raw []byte) error {
	if err := w.enc.Encode(Record{Time: ts.UnixNano(), Raw: raw}); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of records written
func (w *Writer) Count() int {
	return w.count
}

// Close flushes and closes the file
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("failed to flush recording: %w", err)
	}
	return w.f.Close()
}

// Reader decodes records in order
type Reader struct {
	dec *cbor.Decoder
}

// NewReader reads records from r
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF after the last one
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("failed to decode record: %w", err)
	}
	return rec, nil
}

// ReadAll reads every record in a file
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording %s: %w", path, err)
	}
	defer f.Close()

	var out []Record
	r := NewReader(bufio.NewReader(f))
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
