package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-scripts/tcas/internal/report"
)

// fileWriter holds what every sink needs to place a timestamped report file.
type fileWriter struct {
	outputDir string
	base      string
	now       func() time.Time
}

// Option configures a writer.
type Option func(*fileWriter)

// WithClock overrides the time used for file names.
func WithClock(now func() time.Time) Option {
	return func(w *fileWriter) {
		w.now = now
	}
}

func newFileWriter(outputDir, base string, opts []Option) (fileWriter, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fileWriter{}, fmt.Errorf("failed to create output directory: %w", err)
	}
	w := fileWriter{outputDir: outputDir, base: sanitizeFilename(base), now: time.Now}
	for _, opt := range opts {
		opt(&w)
	}
	return w, nil
}

// path returns the output path for a file with extension ext.
func (w fileWriter) path(ext string) string {
	return filepath.Join(w.outputDir, report.Filename(w.base, ext, w.now()))
}

// sanitizeFilename replaces characters that are unsafe in file names
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "report"
	}

	unsafe := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", " "}
	for _, char := range unsafe {
		name = strings.ReplaceAll(name, char, "_")
	}

	return name
}
