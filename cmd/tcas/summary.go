package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/go-scripts/tcas/internal/report"
)

// printSummary renders run statistics as two tables.
func printSummary(w io.Writer, b report.Bundle) {
	s := b.Stats

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("สรุปผลการดึงข้อมูล")
	t.AppendRow(table.Row{"หลักสูตรทั้งหมด", s.Total})
	t.AppendRow(table.Row{"มีข้อมูลค่าใช้จ่าย", s.WithTuition})
	t.AppendRow(table.Row{"ไม่มีข้อมูลค่าใช้จ่าย", s.WithoutTuition})
	if s.WithTuition > 0 {
		t.AppendSeparator()
		t.AppendRow(table.Row{"ต่ำสุด", report.FormatBaht(s.Min) + " บาท"})
		t.AppendRow(table.Row{"สูงสุด", report.FormatBaht(s.Max) + " บาท"})
		t.AppendRow(table.Row{"เฉลี่ย", report.FormatBaht(int(s.Mean+0.5)) + " บาท"})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(s.Categories) == 0 {
		return
	}

	c := table.NewWriter()
	c.SetOutputMirror(w)
	c.AppendHeader(table.Row{"ประเภทหลักสูตร", "จำนวน", "มีค่าใช้จ่าย", "ช่วงค่าใช้จ่าย (บาท)"})
	for _, cat := range s.Categories {
		span := report.Unspecified
		if cat.WithTuition > 0 {
			span = fmt.Sprintf("%s - %s", report.FormatBaht(cat.Min), report.FormatBaht(cat.Max))
		}
		c.AppendRow(table.Row{cat.Category, cat.Count, cat.WithTuition, span})
	}
	c.SetStyle(table.StyleRounded)
	c.Render()
}
