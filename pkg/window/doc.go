// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package window shows composed frames in a native OpenCV window.
// All methods must be called from the goroutine that created the window.
//
// It needs cgo and OpenCV 4, so it is only built with the opencv build tag.
package window
