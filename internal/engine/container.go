// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/pdf2word/internal/container"
	"github.com/pdiddy/pdf2word/pkg/types"
)

// Container converts PDFs by piping them through a converter image that
// reads a PDF on stdin and writes a DOCX on stdout.
type Container struct {
	runtime container.Runtime
	image   string
}

// NewContainer verifies that image exists in rt before returning.
func NewContainer(ctx context.Context, rt container.Runtime, image string) (*Container, error) {
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("converter image not available in %s: %w", rt.Name(), err)
	}
	return &Container{runtime: rt, image: image}, nil
}

func (c *Container) Name() string { return string(types.EngineContainer) }

func (c *Container) Convert(ctx context.Context, src Source) (Result, error) {
	if len(src.Content) == 0 {
		return Result{}, errors.New("container engine needs the document content")
	}

	var out bytes.Buffer
	if err := c.runtime.Run(ctx, c.image, bytes.NewReader(src.Content), &out); err != nil {
		return Result{}, fmt.Errorf("converting %s: %w", src.Descriptor.Name, err)
	}
	if out.Len() == 0 {
		return Result{}, fmt.Errorf("%s produced empty output for %s", c.image, src.Descriptor.Name)
	}

	return Result{
		Descriptor: types.FileDescriptor{
			Name: DocxName(src.Descriptor.Name),
			Size: int64(out.Len()),
		},
		Content: out.Bytes(),
	}, nil
}
