package writer

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/go-scripts/tcas/internal/report"
)

const defaultSheet = "Sheet1"

// ErrDuplicateSheet is returned when two report sheets share a name.
var ErrDuplicateSheet = errors.New("sheet name already used")

// XLSXWriter writes one worksheet per report sheet.
type XLSXWriter struct {
	fileWriter
}

// NewXLSX creates an XLSXWriter placing files under outputDir.
func NewXLSX(outputDir, base string, opts ...Option) (*XLSXWriter, error) {
	fw, err := newFileWriter(outputDir, base, opts)
	if err != nil {
		return nil, err
	}
	return &XLSXWriter{fileWriter: fw}, nil
}

// Write saves b as a new timestamped workbook.
func (w *XLSXWriter) Write(b report.Bundle) (string, error) {
	if len(b.Sheets) == 0 {
		return "", fmt.Errorf("report has no sheets")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range b.Sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet.Name); err != nil {
				return "", fmt.Errorf("rename sheet %q: %w", sheet.Name, err)
			}
		} else {
			// NewSheet hands back an existing sheet, which would mix two categories.
			if idx, err := f.GetSheetIndex(sheet.Name); err != nil {
				return "", fmt.Errorf("add sheet %q: %w", sheet.Name, err)
			} else if idx >= 0 {
				return "", fmt.Errorf("add sheet %q: %w", sheet.Name, ErrDuplicateSheet)
			}
			if _, err := f.NewSheet(sheet.Name); err != nil {
				return "", fmt.Errorf("add sheet %q: %w", sheet.Name, err)
			}
		}

		if err := writeSheet(f, sheet); err != nil {
			return "", fmt.Errorf("write sheet %q: %w", sheet.Name, err)
		}
	}

	path := w.path("xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return path, nil
}

func writeSheet(f *excelize.File, sheet report.Sheet) error {
	headers := make([]any, len(report.Columns))
	for i, col := range report.Columns {
		headers[i] = col.Header

		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet.Name, name, name, col.Width); err != nil {
			return err
		}
	}
	if err := f.SetSheetRow(sheet.Name, "A1", &headers); err != nil {
		return err
	}

	for i, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row.Values()
		if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
			return err
		}
	}
	return nil
}
