// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes the filtered history to dir/export.yaml and returns the path.
func (s *Store) ExportYAML(ctx context.Context, opts ListOptions) (string, error) {
	return s.export(ctx, opts, "export.yaml", yaml.Marshal)
}

// ExportJSON writes the filtered history to dir/export.json and returns the path.
func (s *Store) ExportJSON(ctx context.Context, opts ListOptions) (string, error) {
	return s.export(ctx, opts, "export.json", func(v any) ([]byte, error) {
		return json.MarshalIndent(v, "", "  ")
	})
}

func (s *Store) export(ctx context.Context, opts ListOptions, name string, marshal func(any) ([]byte, error)) (string, error) {
	if opts.Limit == 0 {
		opts.Limit = -1
	}
	records, err := s.List(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("querying for export: %w", err)
	}

	data, err := marshal(records)
	if err != nil {
		return "", fmt.Errorf("marshaling %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
