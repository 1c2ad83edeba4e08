package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/tcas/internal/config"
	"github.com/go-scripts/tcas/internal/report"
	"github.com/go-scripts/tcas/internal/writer"
	"github.com/go-scripts/tcas/pkg/common"
)

func TestCLIApply(t *testing.T) {
	cfg := config.Default()
	CLI{}.apply(&cfg)
	assert.Equal(t, config.Default(), cfg)

	CLI{
		BaseURL:     "http://localhost:8080",
		OutputDir:   "out",
		Format:      []string{"json"},
		ShowBrowser: true,
		Static:      true,
		LogLevel:    "debug",
		Limit:       7,
	}.apply(&cfg)

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, []string{"json"}, cfg.Output.Formats)
	assert.False(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.Static)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 7, cfg.Limit)
}

func sampleBundle() report.Bundle {
	cfg := config.Default()
	return report.Build([]common.ProgramRecord{
		{
			Title:       "วิศวกรรมศาสตรบัณฑิต สาขาวิชาวิศวกรรมคอมพิวเตอร์",
			Institution: "มหาวิทยาลัยเกษตรศาสตร์",
			Campus:      "กำแพงแสน",
			Tuition:     common.Tuition{Amount: 25000},
			URL:         "https://course.mytcas.com/programs/1",
			Category:    cfg.Searches[0].Term,
		},
		{
			Title:    "วิศวกรรมศาสตรบัณฑิต สาขาวิชาวิศวกรรมปัญญาประดิษฐ์",
			URL:      "https://course.mytcas.com/programs/2",
			Category: cfg.Searches[1].Term,
		},
	}, cfg.Searches)
}

func TestNewSinks(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()

	fixed := writer.WithClock(func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) })
	sinks, err := newSinks(cfg, fixed)
	require.NoError(t, err)
	require.Len(t, sinks, 2)

	var paths []string
	for _, s := range sinks {
		path, err := s.Write(sampleBundle())
		require.NoError(t, err)
		paths = append(paths, filepath.Base(path))
	}
	assert.Equal(t, []string{
		"TCAS_วิศวกรรม_แยกประเภท_20250102_030405.xlsx",
		"TCAS_วิศวกรรม_แยกประเภท_20250102_030405.json",
	}, paths)

	cfg.Output.Formats = []string{"csv"}
	_, err = newSinks(cfg)
	assert.Error(t, err)
}

func TestWriteReports(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()
	cfg.Output.Formats = []string{config.FormatJSON}

	require.NoError(t, writeReports(cfg, sampleBundle(), log.New(io.Discard)))

	entries, err := os.ReadDir(cfg.Output.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, sampleBundle())

	out := buf.String()
	assert.Contains(t, out, "หลักสูตรทั้งหมด")
	assert.Contains(t, out, "25,000 บาท")
	assert.Contains(t, out, "25,000 - 25,000")
	assert.Contains(t, out, report.Unspecified)
}
