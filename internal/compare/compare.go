// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compare produces the display text for a finished conversion: human
// readable file sizes, the original-versus-converted size comparison, and the
// status label for each conversion state.
package compare

import (
	"strconv"
	"strings"

	"github.com/pdiddy/pdf2word/pkg/types"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders n bytes using 1024-based units with at most two
// decimals, e.g. 1536 -> "1.5 KB". Sizes beyond GB stay in GB.
func FormatSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	v, i := float64(n), 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return s + " " + sizeUnits[i]
}

// Direction says how the converted size relates to the original.
type Direction string

const (
	Larger  Direction = "larger"
	Smaller Direction = "smaller"
	Same    Direction = "same"
)

// Comparison is the rendered outcome of comparing two descriptors.
type Comparison struct {
	Direction Direction
	Message   string
	Original  string
	Converted string
}

// Compare reports whether the converted file grew, shrank, or kept its size.
func Compare(original, converted types.FileDescriptor) Comparison {
	c := Comparison{
		Original:  FormatSize(original.Size),
		Converted: FormatSize(converted.Size),
	}
	switch {
	case converted.Size > original.Size:
		c.Direction = Larger
		c.Message = "The Word document is larger than the original PDF"
	case converted.Size < original.Size:
		c.Direction = Smaller
		c.Message = "The Word document is smaller than the original PDF"
	default:
		c.Direction = Same
		c.Message = "The files are the same size"
	}
	return c
}

// StatusText is the progress reporter's label for a state.
func StatusText(s types.ConversionState) string {
	switch s {
	case types.StateProcessing:
		return "Converting your PDF to Word document..."
	case types.StateCompleted:
		return "Conversion completed successfully!"
	case types.StateError:
		return "Conversion failed. Please try again."
	default:
		return "Choose a PDF file to convert to Word format"
	}
}
