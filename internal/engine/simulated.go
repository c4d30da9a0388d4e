// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/pdiddy/pdf2word/pkg/types"
)

// Growth bounds of the fabricated output: converted size is the original
// size times a ratio drawn uniformly from [MinGrowth, MaxGrowth).
const (
	MinGrowth = 1.1
	MaxGrowth = 1.4
)

// Simulated fabricates a plausible converted descriptor without reading
// the document.
type Simulated struct {
	rand    Rand
	maxSize int64
}

// NewSimulated returns a simulated engine. A positive maxSize makes inputs
// larger than it fail; zero accepts any size.
func NewSimulated(r Rand, maxSize int64) *Simulated {
	if r == nil {
		r = DefaultRand
	}
	return &Simulated{rand: r, maxSize: maxSize}
}

func (s *Simulated) Name() string { return string(types.EngineSimulated) }

// Convert returns {DocxName(name), floor(size*ratio)}.
func (s *Simulated) Convert(ctx context.Context, src Source) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if s.maxSize > 0 && src.Descriptor.Size > s.maxSize {
		return Result{}, fmt.Errorf("%s is %d bytes, above the %d byte limit",
			src.Descriptor.Name, src.Descriptor.Size, s.maxSize)
	}

	return Result{
		Descriptor: types.FileDescriptor{
			Name: DocxName(src.Descriptor.Name),
			Size: int64(math.Floor(float64(src.Descriptor.Size) * s.ratio())),
		},
	}, nil
}

func (s *Simulated) ratio() float64 {
	r := MinGrowth + s.rand.Float64()*(MaxGrowth-MinGrowth)
	if r >= MaxGrowth {
		// Float rounding can land exactly on the open upper bound.
		r = math.Nextafter(MaxGrowth, 0)
	}
	return r
}
