// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"

	"github.com/pdiddy/pdf2word/internal/inspect"
)

// Validating rejects documents the inspector cannot read before handing
// them to the wrapped engine, and reports their page count.
type Validating struct {
	next      Engine
	inspector inspect.Inspector
}

// NewValidating wraps next.
func NewValidating(next Engine, i inspect.Inspector) *Validating {
	return &Validating{next: next, inspector: i}
}

func (v *Validating) Name() string { return v.next.Name() + "+validate" }

func (v *Validating) Convert(ctx context.Context, src Source) (Result, error) {
	info, err := v.inspector.Inspect(src.Content)
	if err != nil {
		return Result{}, fmt.Errorf("%s is not a readable PDF: %w", src.Descriptor.Name, err)
	}

	res, err := v.next.Convert(ctx, src)
	if err != nil {
		return Result{}, err
	}
	if res.Pages == 0 {
		res.Pages = info.Pages
	}
	return res, nil
}
