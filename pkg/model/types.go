package model

import (
	"time"

	"trendscan/pkg/trend"
)

// SeriesReport is the complete trend analysis for one price series.
type SeriesReport struct {
	File     string                `json:"file"`
	Length   int                   `json:"length"`
	Overall  trend.TrendCategory   `json:"overall_trend"`
	Fit      trend.LinearFit       `json:"overall_fit"`
	Peaks    []trend.ExtremumPoint `json:"peaks,omitempty"`
	Valleys  []trend.ExtremumPoint `json:"valleys,omitempty"`
	Segments []trend.TrendSegment  `json:"segments"`
}

// ScanError records a file that could not be analyzed during a batch scan.
type ScanError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// ScanResult is the final output of a batch scan.
type ScanResult struct {
	RunID      string         `json:"run_id"`
	TotalFiles int            `json:"total_files"`
	Analyzed   int            `json:"analyzed"`
	Reports    []SeriesReport `json:"reports"`
	Errors     []ScanError    `json:"errors,omitempty"`
	ScanTime   time.Duration  `json:"scan_time"`
}
