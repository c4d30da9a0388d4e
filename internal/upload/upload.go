// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package upload is the file input surface: it decides whether a selected
// or dropped file is accepted as a PDF and reads it from a multipart form.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// MediaTypePDF is the only media type accepted from a drop.
const MediaTypePDF = "application/pdf"

// Origin says how the user supplied the file.
type Origin string

const (
	// OriginPicker is the file chooser, filtered to .pdf.
	OriginPicker Origin = "picker"
	// OriginDrop is drag and drop.
	OriginDrop Origin = "drop"
)

var (
	// ErrNotPDF means the file was not accepted. Callers ignore it silently.
	ErrNotPDF = errors.New("file is not a PDF")

	// ErrNoFile means the form carried no file.
	ErrNoFile = errors.New("no file selected")
)

// File describes a candidate upload.
type File struct {
	Name      string
	MediaType string
	Size      int64
}

// Verdict is the outcome of an accepted file.
type Verdict struct {
	// OverSoftLimit flags files above the advisory limit. They are still accepted.
	OverSoftLimit bool
}

// Accept checks f against the rules for its origin. Drops must report the
// PDF media type; picked files pass on a .pdf extension or the PDF media type.
func Accept(f File, origin Origin, softLimit int64) (Verdict, error) {
	isPDFType := baseMediaType(f.MediaType) == MediaTypePDF

	switch origin {
	case OriginDrop:
		if !isPDFType {
			return Verdict{}, fmt.Errorf("%w: dropped %q reported %q", ErrNotPDF, f.Name, f.MediaType)
		}
	case OriginPicker, "":
		if !isPDFType && !strings.EqualFold(filepath.Ext(f.Name), ".pdf") {
			return Verdict{}, fmt.Errorf("%w: %q", ErrNotPDF, f.Name)
		}
	default:
		return Verdict{}, fmt.Errorf("unknown upload origin %q", origin)
	}

	return Verdict{OverSoftLimit: softLimit > 0 && f.Size > softLimit}, nil
}

func baseMediaType(v string) string {
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(v))
	}
	return mt
}

// Upload is a file read from a request.
type Upload struct {
	File    File
	Origin  Origin
	Content []byte
}

// ReadForm reads the "file" part and the "source" field of a multipart
// request. Only the first file is used. maxBytes bounds the whole body.
func ReadForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return Upload{}, fmt.Errorf("reading upload: %w", err)
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		return Upload{}, ErrNoFile
	}
	fh := files[0]

	f, err := fh.Open()
	if err != nil {
		return Upload{}, fmt.Errorf("opening %s: %w", fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return Upload{}, fmt.Errorf("reading %s: %w", fh.Filename, err)
	}

	return Upload{
		File: File{
			Name:      filepath.Base(fh.Filename),
			MediaType: fh.Header.Get("Content-Type"),
			Size:      int64(len(content)),
		},
		Origin:  Origin(r.FormValue("source")),
		Content: content,
	}, nil
}
