// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/kgriffin/doctrine-engine/pkg/types"
)

// ExportEntry holds one task's public fields for export. Embeddings are
// omitted.
type ExportEntry struct {
	Name            string   `json:"name" yaml:"name"`
	Definition      string   `json:"definition" yaml:"definition"`
	PageNumber      string   `json:"page_number" yaml:"page_number"`
	SourceReference string   `json:"source_reference" yaml:"source_reference"`
	RelatedFigures  []string `json:"related_figures" yaml:"related_figures"`
	ImagePath       string   `json:"image_path,omitempty" yaml:"image_path,omitempty"`
}

// ExportYAML writes all task records to dataDir/index/export.yaml.
func (s *Store) ExportYAML(ctx context.Context) error {
	records, err := s.All(ctx)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(records))
	for i, r := range records {
		entries[i] = exportEntry(r)
	}

	path := filepath.Join(s.dataDir, indexDir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func exportEntry(r types.TaskRecord) ExportEntry {
	return ExportEntry{
		Name:            r.Name,
		Definition:      r.Definition,
		PageNumber:      r.PageNumber,
		SourceReference: r.SourceReference,
		RelatedFigures:  r.RelatedFigures,
		ImagePath:       r.ImagePath,
	}
}
