// Package report shapes program records into sheets and summary statistics.
package report

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/go-scripts/tcas/pkg/common"
)

const (
	// Unspecified is shown for any field that could not be extracted.
	Unspecified = "ไม่ระบุ"
	// CombinedSheet holds every record.
	CombinedSheet = "รวมทั้งหมด"
)

// Column is one report column with its display width.
type Column struct {
	Header string
	Width  float64
}

// Columns lists the report columns in output order.
var Columns = []Column{
	{Header: "ชื่อหลักสูตร", Width: 50},
	{Header: "มหาวิทยาลัย", Width: 35},
	{Header: "วิทยาเขต", Width: 20},
	{Header: "ค่าใช้จ่าย (บาท/ภาค)", Width: 15},
	{Header: "ค่าใช้จ่าย (ข้อความเต็ม)", Width: 25},
	{Header: "URL", Width: 60},
	{Header: "ประเภทหลักสูตร", Width: 25},
}

// Row is a record converted for display.
type Row struct {
	Title       string `json:"title"`
	Institution string `json:"institution"`
	Campus      string `json:"campus"`
	Tuition     int    `json:"tuition"`
	TuitionText string `json:"tuition_text"`
	URL         string `json:"url"`
	Category    string `json:"category"`
}

// Values returns the row cells in column order.
func (r Row) Values() []any {
	return []any{r.Title, r.Institution, r.Campus, r.Tuition, r.TuitionText, r.URL, r.Category}
}

// Sheet is a named group of rows.
type Sheet struct {
	Name string `json:"name"`
	Rows []Row  `json:"rows"`
}

// CategoryStats summarizes one category.
type CategoryStats struct {
	Category    string `json:"category"`
	Count       int    `json:"count"`
	WithTuition int    `json:"with_tuition"`
	Min         int    `json:"min,omitempty"`
	Max         int    `json:"max,omitempty"`
}

// Stats summarizes the whole run. Min, Max and Mean consider only known amounts.
type Stats struct {
	Total          int             `json:"total"`
	WithTuition    int             `json:"with_tuition"`
	WithoutTuition int             `json:"without_tuition"`
	Min            int             `json:"min,omitempty"`
	Max            int             `json:"max,omitempty"`
	Mean           float64         `json:"mean,omitempty"`
	Categories     []CategoryStats `json:"categories"`
	Uncategorized  int             `json:"uncategorized,omitempty"`
}

// Bundle is everything a sink needs to write one report.
type Bundle struct {
	Sheets []Sheet `json:"sheets"`
	Stats  Stats   `json:"stats"`
}

// Sink persists a bundle and returns where it was written.
type Sink interface {
	Write(b Bundle) (string, error)
}

// Build partitions records by the configured categories, sorts the combined view by category
// then tuition, and computes statistics. Records whose category is not configured only appear
// in the combined sheet.
func Build(records []common.ProgramRecord, configs []common.SearchTermConfig) Bundle {
	index := make(map[string]int, len(configs))
	parts := make([][]common.ProgramRecord, len(configs))
	for i, cfg := range configs {
		if _, ok := index[cfg.Term]; !ok {
			index[cfg.Term] = i
		}
	}

	var unknown []common.ProgramRecord
	for _, rec := range records {
		i, ok := index[rec.Category]
		if !ok {
			unknown = append(unknown, rec)
			continue
		}
		parts[i] = append(parts[i], rec)
	}

	combined := make([]common.ProgramRecord, 0, len(records))
	for _, p := range parts {
		combined = append(combined, p...)
	}
	combined = append(combined, unknown...)
	SortRecords(combined)

	b := Bundle{
		Sheets: []Sheet{{Name: CombinedSheet, Rows: toRows(combined)}},
		Stats:  summarize(combined),
	}
	b.Stats.Uncategorized = len(unknown)

	for i, cfg := range configs {
		if index[cfg.Term] != i {
			continue
		}
		b.Stats.Categories = append(b.Stats.Categories, categoryStats(cfg.Term, parts[i]))
		if len(parts[i]) == 0 {
			continue
		}
		b.Sheets = append(b.Sheets, Sheet{Name: SheetName(cfg), Rows: toRows(parts[i])})
	}

	return b
}

// SortRecords stable-sorts records by category, then by tuition amount ascending.
func SortRecords(records []common.ProgramRecord) {
	slices.SortStableFunc(records, func(a, b common.ProgramRecord) int {
		return cmp.Or(
			cmp.Compare(a.Category, b.Category),
			cmp.Compare(a.Tuition.Amount, b.Tuition.Amount),
		)
	})
}

// SheetName returns the sheet title for a category.
func SheetName(cfg common.SearchTermConfig) string {
	if cfg.Sheet != "" {
		return cfg.Sheet
	}
	return cfg.Term
}

// ToRow converts a record for display.
func ToRow(rec common.ProgramRecord) Row {
	return Row{
		Title:       rec.Title,
		Institution: orUnspecified(rec.Institution),
		Campus:      orUnspecified(rec.Campus),
		Tuition:     rec.Tuition.Amount,
		TuitionText: TuitionText(rec.Tuition),
		URL:         rec.URL,
		Category:    rec.Category,
	}
}

var printer = message.NewPrinter(language.English)

// TuitionText renders a tuition value, e.g. "25,000 บาท/ภาค".
func TuitionText(t common.Tuition) string {
	switch {
	case t.Known():
		return printer.Sprintf("%d บาท/ภาค", t.Amount)
	case t.Reference != "":
		return "ดูที่: " + t.Reference
	default:
		return Unspecified
	}
}

// FormatBaht groups thousands, e.g. 25000 -> "25,000".
func FormatBaht(n int) string {
	return printer.Sprintf("%d", n)
}

// Filename builds a timestamped output file name.
func Filename(base, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", base, now.Format("20060102_150405"), ext)
}

func toRows(records []common.ProgramRecord) []Row {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = ToRow(rec)
	}
	return rows
}

func orUnspecified(s string) string {
	if s == "" {
		return Unspecified
	}
	return s
}

func summarize(records []common.ProgramRecord) Stats {
	s := Stats{Total: len(records)}
	sum := 0
	for _, rec := range records {
		amount := rec.Tuition.Amount
		if amount <= 0 {
			continue
		}
		if s.WithTuition == 0 || amount < s.Min {
			s.Min = amount
		}
		if amount > s.Max {
			s.Max = amount
		}
		s.WithTuition++
		sum += amount
	}
	s.WithoutTuition = s.Total - s.WithTuition
	if s.WithTuition > 0 {
		s.Mean = float64(sum) / float64(s.WithTuition)
	}
	return s
}

func categoryStats(category string, records []common.ProgramRecord) CategoryStats {
	all := summarize(records)
	return CategoryStats{
		Category:    category,
		Count:       all.Total,
		WithTuition: all.WithTuition,
		Min:         all.Min,
		Max:         all.Max,
	}
}
