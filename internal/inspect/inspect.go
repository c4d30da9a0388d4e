// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package inspect reads uploaded PDF bytes with pdfcpu to confirm they parse
// and to report basic document facts.
package inspect

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrEmpty is returned for zero-length input.
var ErrEmpty = errors.New("empty document")

// Info holds the facts read from a PDF.
type Info struct {
	Version string `json:"version"`
	Pages   int    `json:"pages"`
}

// Inspector checks PDF content. Implementations must be safe for concurrent use.
type Inspector interface {
	Inspect(content []byte) (Info, error)
}

// PDFCPU inspects documents with pdfcpu in relaxed validation mode.
type PDFCPU struct{}

// Inspect parses content, validates the cross-reference table, and counts pages.
func (PDFCPU) Inspect(content []byte) (Info, error) {
	if len(content) == 0 {
		return Info{}, ErrEmpty
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(content), conf)
	if err != nil {
		return Info{}, fmt.Errorf("parsing PDF: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return Info{}, fmt.Errorf("validating PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return Info{}, fmt.Errorf("counting pages: %w", err)
	}

	info := Info{Pages: ctx.PageCount}
	if ctx.HeaderVersion != nil {
		info.Version = ctx.HeaderVersion.String()
	}
	return info, nil
}
