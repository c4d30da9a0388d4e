// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine defines the conversion capability the session orchestrator
// delegates to, and its backends: a simulated converter that fabricates the
// result, a container backend that runs a real converter image, and a
// validating wrapper that rejects documents pdfcpu cannot read.
package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdf2word/internal/container"
	"github.com/pdiddy/pdf2word/internal/inspect"
	"github.com/pdiddy/pdf2word/pkg/types"
)

// Source is the document handed to an engine.
type Source struct {
	Descriptor types.FileDescriptor

	// Content holds the uploaded bytes. Engines that do not read the
	// document accept nil.
	Content []byte
}

// Result is what an engine produced.
type Result struct {
	Descriptor types.FileDescriptor

	// Content is the converted document, or nil when the engine only
	// fabricated a descriptor.
	Content []byte

	// Pages is the page count of the source when known.
	Pages int
}

// Engine converts a PDF into a Word document.
type Engine interface {
	// Name identifies the backend in logs and history records.
	Name() string

	// Convert returns the converted descriptor and optional content.
	// It must return promptly once ctx is cancelled.
	Convert(ctx context.Context, src Source) (Result, error)
}

// Rand is the source of uniform values in [0,1).
type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// DefaultRand draws from the shared math/rand/v2 source and is safe for
// concurrent use.
var DefaultRand Rand = globalRand{}

// DocxName maps a PDF file name to its Word counterpart: "report.pdf"
// becomes "report.docx". The ".pdf" extension is matched case-insensitively;
// names with any other extension keep it and gain ".docx".
func DocxName(name string) string {
	if ext := filepath.Ext(name); strings.EqualFold(ext, ".pdf") {
		name = strings.TrimSuffix(name, ext)
	}
	return name + ".docx"
}

// New builds the engine selected by cfg. Validation wraps the backend when
// cfg.Validate is set.
func New(ctx context.Context, cfg types.ConversionConfig) (Engine, error) {
	var e Engine
	switch cfg.Engine {
	case types.EngineSimulated, "":
		e = NewSimulated(DefaultRand, cfg.MaxSize)
	case types.EngineContainer:
		rt, err := container.DetectRuntime()
		if err != nil {
			return nil, err
		}
		c, err := NewContainer(ctx, rt, cfg.Image)
		if err != nil {
			return nil, err
		}
		e = c
	default:
		return nil, fmt.Errorf("unknown conversion engine %q: use %s or %s",
			cfg.Engine, types.EngineSimulated, types.EngineContainer)
	}

	if cfg.Validate {
		e = NewValidating(e, inspect.PDFCPU{})
	}
	return e, nil
}
