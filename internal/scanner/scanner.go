package scanner

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"trendscan/internal/config"
	"trendscan/internal/ratelimit"
	"trendscan/internal/series"
	"trendscan/pkg/model"
	"trendscan/pkg/trend"
)

// ProgressCallback is called with progress updates
type ProgressCallback func(done, total int)

// Scanner analyzes many price-series files in parallel
type Scanner struct {
	cfg          *config.Config
	limiter      *ratelimit.Limiter
	progressFunc ProgressCallback
}

// New creates a new scanner from a validated configuration
func New(cfg *config.Config) *Scanner {
	return &Scanner{
		cfg:     cfg,
		limiter: ratelimit.New("scan", cfg.Scanner.Throttle),
	}
}

// SetProgressCallback sets the progress callback function
func (s *Scanner) SetProgressCallback(fn ProgressCallback) {
	s.progressFunc = fn
}

// AnalyzeFile runs the full trend analysis on a single CSV file.
func (s *Scanner) AnalyzeFile(path string) (*model.SeriesReport, error) {
	prices, err := series.Load(path, s.seriesOptions())
	if err != nil {
		return nil, err
	}

	report := &model.SeriesReport{
		File:   path,
		Length: len(prices),
	}

	report.Fit, err = trend.Fit(prices, 0, len(prices)-1)
	if err != nil {
		return nil, err
	}
	report.Overall, err = trend.OverallTrend(prices)
	if err != nil {
		return nil, err
	}

	// Extrema and segmentation need enough points for the configured
	// windows; a short but readable series still gets an overall trend.
	det := s.cfg.Detector
	if len(prices) > det.Period {
		report.Peaks, err = trend.Peaks(prices, det.Period, det.Closeness)
		if err != nil {
			return nil, err
		}
		report.Valleys, err = trend.Valleys(prices, det.Period, det.Closeness)
		if err != nil {
			return nil, err
		}
	}

	tc := s.cfg.TrendConfig()
	if err := tc.Validate(len(prices)); err == nil {
		report.Segments, err = trend.BreakDownTrends(prices, tc)
		if err != nil {
			return nil, err
		}
	}
	return report, nil
}

// Scan analyzes all files with a worker pool and collects the results
// sorted by file name.
func (s *Scanner) Scan(ctx context.Context, files []string) (*model.ScanResult, error) {
	startTime := time.Now()
	result := &model.ScanResult{
		RunID:      uuid.NewString(),
		TotalFiles: len(files),
		Reports:    []model.SeriesReport{},
	}
	if len(files) == 0 {
		result.ScanTime = time.Since(startTime)
		return result, nil
	}

	if s.cfg.Scanner.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Scanner.Timeout)
		defer cancel()
	}

	jobChan := make(chan string, len(files))
	reportChan := make(chan *model.SeriesReport, len(files))
	errChan := make(chan model.ScanError, len(files))

	for _, f := range files {
		jobChan <- f
	}
	close(jobChan)

	var doneCount int64

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Scanner.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range jobChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if err := s.limiter.Wait(ctx); err != nil {
					return
				}

				report, err := s.AnalyzeFile(file)
				if err != nil {
					errChan <- model.ScanError{File: file, Error: err.Error()}
				} else {
					reportChan <- report
				}

				count := atomic.AddInt64(&doneCount, 1)
				if s.progressFunc != nil {
					s.progressFunc(int(count), len(files))
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(reportChan)
		close(errChan)
	}()

	for report := range reportChan {
		result.Reports = append(result.Reports, *report)
	}
	for scanErr := range errChan {
		result.Errors = append(result.Errors, scanErr)
	}

	// Worker completion order is nondeterministic; sort for stable output.
	sort.Slice(result.Reports, func(i, j int) bool {
		return result.Reports[i].File < result.Reports[j].File
	})
	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].File < result.Errors[j].File
	})

	result.Analyzed = len(result.Reports)
	result.ScanTime = time.Since(startTime)
	return result, nil
}

func (s *Scanner) seriesOptions() series.Options {
	opts := series.Options{Column: s.cfg.Input.Column}
	if d := []rune(s.cfg.Input.Delimiter); len(d) == 1 {
		opts.Delimiter = d[0]
	}
	return opts
}
