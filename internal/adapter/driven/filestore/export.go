package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
	"github.com/ericfisherdev/cursorswitch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ExportWriter = Exporter{}

// Exporter writes export documents to arbitrary paths.
type Exporter struct{}

// WriteExport writes export to path, creating parent directories as needed
// and replacing any existing file.
func (Exporter) WriteExport(_ context.Context, path string, export model.Export) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	return writeJSON(path, export)
}
