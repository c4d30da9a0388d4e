// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package artifact builds the downloadable Word document for a finished
// conversion.
package artifact

import (
	"bytes"
	"fmt"
	"path/filepath"
	"text/template"
	"time"

	"github.com/pdiddy/pdf2word/internal/compare"
	"github.com/pdiddy/pdf2word/internal/engine"
	"github.com/pdiddy/pdf2word/pkg/types"
)

// MediaTypeDOCX is the media type of a Word document.
const MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Artifact is a file ready to hand to the user.
type Artifact struct {
	Name      string
	MediaType string
	Body      []byte
}

// Input carries everything a download is built from.
type Input struct {
	Original  types.FileDescriptor
	Converted types.FileDescriptor

	// Content is the engine's converted document. When nil the body is the
	// placeholder payload.
	Content []byte

	// Pages is the source page count when an inspector reported it.
	Pages int

	// CreatedAt is stamped into the placeholder payload.
	CreatedAt time.Time
}

var placeholder = template.Must(template.New("placeholder").
	Funcs(template.FuncMap{"size": compare.FormatSize}).
	Parse(`Converted Document
==================

Source file:    {{.Original.Name}} ({{size .Original.Size}}, {{.Original.Size}} bytes)
Converted file: {{.Converted.Name}} ({{size .Converted.Size}}, {{.Converted.Size}} bytes)
{{- if .Pages}}
Pages:          {{.Pages}}
{{- end}}
Generated:      {{.CreatedAt.UTC.Format "2006-01-02T15:04:05Z07:00"}}

This file stands in for the Word document produced from {{.Original.Name}}.
Review both documents side by side to confirm that formatting, fonts, and
layout were preserved.
`))

// FileName returns the download name for original. It follows the same
// mapping as the converted descriptor, applied to the base name.
func FileName(original string) string {
	return engine.DocxName(filepath.Base(original))
}

// Build renders the artifact for in.
func Build(in Input) (Artifact, error) {
	a := Artifact{
		Name:      FileName(in.Original.Name),
		MediaType: MediaTypeDOCX,
	}
	if in.Content != nil {
		a.Body = in.Content
		return a, nil
	}

	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	var buf bytes.Buffer
	if err := placeholder.Execute(&buf, in); err != nil {
		return Artifact{}, fmt.Errorf("rendering placeholder document: %w", err)
	}
	a.Body = buf.Bytes()
	return a, nil
}
