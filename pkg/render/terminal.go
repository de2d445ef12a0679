// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package render

import (
	"image"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Cell is the text drawn for one pixel; two columns keep the aspect close to square
const Cell = "  "

var (
	cellStyles     [256]lipgloss.Style
	cellStylesOnce sync.Once
)

func cellStyle(level uint8) lipgloss.Style {
	cellStylesOnce.Do(func() {
		for i := range cellStyles {
			cellStyles[i] = lipgloss.NewStyle().Background(lipgloss.Color(jet[i].Hex()))
		}
	})
	return cellStyles[level]
}

// Terminal renders a normalized frame as rows of colored cells
func Terminal(gray *image.Gray, mirror bool) string {
	b := gray.Bounds()
	var sb strings.Builder

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for i := 0; i < b.Dx(); i++ {
			x := b.Min.X + i
			if mirror {
				x = b.Max.X - 1 - i
			}
			sb.WriteString(cellStyle(gray.GrayAt(x, y).Y).Render(Cell))
		}
		if y < b.Max.Y-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Legend renders the colormap as a single bar of the given width
func Legend(width int) string {
	if width <= 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < width; i++ {
		level := uint8(0)
		if width > 1 {
			level = uint8(i * 255 / (width - 1))
		}
		sb.WriteString(cellStyle(level).Render(" "))
	}
	return sb.String()
}
