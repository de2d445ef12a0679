// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package snapshot saves displayed frames as JPEG files
package snapshot

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
)

// Quality is the JPEG quality used for snapshots
const Quality = 95

// FileName returns the snapshot file name for the given local time
func FileName(now time.Time) string {
	return "pic_" + now.Format("2006-01-02_15-04-05") + ".jpg"
}

// Encode returns img as JPEG bytes
func Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes img into dir and returns the path written.
// A snapshot taken in the same second as a previous one replaces it.
func Save(img image.Image, dir string, now time.Time) (string, error) {
	data, err := Encode(img)
	if err != nil {
		return "", err
	}
	return SaveBytes(data, dir, now)
}

// SaveBytes writes already encoded JPEG data into dir
func SaveBytes(data []byte, dir string, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}

	glog.V(1).Infof("snapshot saved: %s (%d bytes)", path, len(data))
	return path, nil
}
