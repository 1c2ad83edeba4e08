package writer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-scripts/tcas/internal/report"
)

// JSONWriter writes the report bundle as indented JSON.
type JSONWriter struct {
	fileWriter
}

// NewJSON creates a JSONWriter placing files under outputDir.
func NewJSON(outputDir, base string, opts ...Option) (*JSONWriter, error) {
	fw, err := newFileWriter(outputDir, base, opts)
	if err != nil {
		return nil, err
	}
	return &JSONWriter{fileWriter: fw}, nil
}

// Write encodes b to a new timestamped file.
func (w *JSONWriter) Write(b report.Bundle) (string, error) {
	path := w.path("json")

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(b); err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	return path, nil
}
