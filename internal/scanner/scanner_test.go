package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"trendscan/internal/config"
)

func writeSeries(t *testing.T, dir, name string, values []float64) string {
	t.Helper()
	content := "close\n"
	for _, v := range values {
		content += fmt.Sprintf("%v\n", v)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Scanner.Workers = 2
	cfg.Breakdown.MinSegmentLength = 2
	cfg.Breakdown.ExtremumPeriod = 2
	cfg.Breakdown.ExtremumCloseness = 1
	cfg.Detector.Period = 2
	cfg.Detector.Closeness = 1
	return cfg
}

func TestAnalyzeFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSeries(t, dir, "rising.csv", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	s := New(testConfig())
	report, err := s.AnalyzeFile(path)
	if err != nil {
		t.Fatalf("AnalyzeFile returned error: %v", err)
	}

	if report.Length != 10 {
		t.Errorf("Expected length 10, got %d", report.Length)
	}
	if report.Overall.String() != "strong up" {
		t.Errorf("Expected strong up, got %v", report.Overall)
	}
	if len(report.Segments) != 1 {
		t.Errorf("Expected 1 segment, got %v", report.Segments)
	}
	if len(report.Peaks) == 0 || len(report.Valleys) == 0 {
		t.Errorf("Expected extrema in report, got peaks=%v valleys=%v", report.Peaks, report.Valleys)
	}
}

func TestScanCollectsSortedReports(t *testing.T) {
	dir := t.TempDir()
	b := writeSeries(t, dir, "b.csv", []float64{1, 2, 3, 4, 5, 6, 7, 8})
	a := writeSeries(t, dir, "a.csv", []float64{8, 7, 6, 5, 4, 3, 2, 1})

	s := New(testConfig())
	result, err := s.Scan(context.Background(), []string{b, a})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	if result.RunID == "" {
		t.Error("Expected a run ID")
	}
	if result.TotalFiles != 2 || result.Analyzed != 2 {
		t.Errorf("Expected 2 files analyzed, got total=%d analyzed=%d", result.TotalFiles, result.Analyzed)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", result.Errors)
	}
	if len(result.Reports) != 2 || result.Reports[0].File != a || result.Reports[1].File != b {
		t.Errorf("Expected reports sorted by file, got %v", result.Reports)
	}
}

func TestScanRecordsPerFileErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeSeries(t, dir, "good.csv", []float64{1, 2, 3, 4, 5, 6, 7, 8})
	bad := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("close\nnot-a-number\n"), 0o644); err != nil {
		t.Fatalf("writing bad file: %v", err)
	}

	s := New(testConfig())
	result, err := s.Scan(context.Background(), []string{good, bad})
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	if result.Analyzed != 1 {
		t.Errorf("Expected 1 analyzed, got %d", result.Analyzed)
	}
	if len(result.Errors) != 1 || result.Errors[0].File != bad {
		t.Errorf("Expected one error for %s, got %v", bad, result.Errors)
	}
}

func TestScanReportsProgress(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeSeries(t, dir, "one.csv", []float64{1, 2, 3, 4, 5, 6}),
		writeSeries(t, dir, "two.csv", []float64{6, 5, 4, 3, 2, 1}),
	}

	cfg := testConfig()
	cfg.Scanner.Workers = 1
	s := New(cfg)

	var calls int
	var last int
	s.SetProgressCallback(func(done, total int) {
		calls++
		last = done
		if total != 2 {
			t.Errorf("Expected total 2, got %d", total)
		}
	})

	if _, err := s.Scan(context.Background(), files); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if calls != 2 || last != 2 {
		t.Errorf("Expected 2 progress calls ending at 2, got calls=%d last=%d", calls, last)
	}
}

func TestScanEmptyFileList(t *testing.T) {
	s := New(testConfig())
	result, err := s.Scan(context.Background(), nil)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if result.TotalFiles != 0 || result.Analyzed != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
}
