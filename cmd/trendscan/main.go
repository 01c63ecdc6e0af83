package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"trendscan/internal/config"
	"trendscan/internal/scanner"
	"trendscan/pkg/model"
)

var (
	cfgFile      string
	workers      int
	throttle     float64
	minSegment   int
	qualityFloor float64
	maxOutliers  int
	period       int
	closeness    int
	column       string
	format       string
	verbose      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trendscan [files or directories]",
		Short: "Trend decomposition for price series",
		Long: `Trendscan decomposes CSV price series into directional trend segments.

For each series it detects peaks and valleys, fits the overall trend line,
and breaks the chart down into contiguous up/down/sideways segments.

Examples:
  trendscan prices.csv
  trendscan --quality-floor 0.8 --min-segment 5 data/
  trendscan --format json data/*.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: run,
	}

	// Flags
	rootCmd.Flags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "number of parallel workers")
	rootCmd.Flags().Float64Var(&throttle, "throttle", 0, "max analyses per second (0 = unlimited)")
	rootCmd.Flags().IntVar(&minSegment, "min-segment", 0, "minimum trend segment span")
	rootCmd.Flags().Float64Var(&qualityFloor, "quality-floor", -1, "minimum r-squared before a segment closes")
	rootCmd.Flags().IntVar(&maxOutliers, "max-outliers", -1, "off-trend points tolerated per segment")
	rootCmd.Flags().IntVar(&period, "period", 0, "extremum look-around window")
	rootCmd.Flags().IntVar(&closeness, "closeness", -1, "minimum index distance between extrema")
	rootCmd.Flags().StringVar(&column, "column", "", "CSV price column (name or index)")
	rootCmd.Flags().StringVar(&format, "format", "table", "output format: table, json")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "show detailed output")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Override config with CLI flags
	if workers > 0 {
		cfg.Scanner.Workers = workers
	}
	if cmd.Flags().Changed("throttle") {
		cfg.Scanner.Throttle = throttle
	}
	if minSegment > 0 {
		cfg.Breakdown.MinSegmentLength = minSegment
	}
	if cmd.Flags().Changed("quality-floor") {
		cfg.Breakdown.QualityFloor = qualityFloor
	}
	if cmd.Flags().Changed("max-outliers") {
		cfg.Breakdown.MaxOutliers = maxOutliers
	}
	if period > 0 {
		cfg.Breakdown.ExtremumPeriod = period
		cfg.Detector.Period = period
	}
	if cmd.Flags().Changed("closeness") {
		cfg.Breakdown.ExtremumCloseness = closeness
		cfg.Detector.Closeness = closeness
	}
	if column != "" {
		cfg.Input.Column = column
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no CSV files found")
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted. Stopping scan...")
		cancel()
	}()

	s := scanner.New(cfg)

	// Single file: detailed report without the batch machinery.
	if len(files) == 1 {
		report, err := s.AnalyzeFile(files[0])
		if err != nil {
			return fmt.Errorf("analyzing %s: %w", files[0], err)
		}
		if format == "json" {
			return outputJSON(report)
		}
		outputReportDetail(report)
		return nil
	}

	fmt.Printf("Analyzing %d series...\n\n", len(files))

	// Setup progress bar
	bar := progressbar.NewOptions(len(files),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Analyzing"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	s.SetProgressCallback(func(done, total int) {
		bar.Set(done)
	})

	result, err := s.Scan(ctx, files)
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	bar.Finish()
	fmt.Println()

	if format == "json" {
		return outputJSON(result)
	}
	return outputScanTable(result)
}

// collectFiles expands directories into the CSV files they contain.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
				files = append(files, filepath.Join(arg, e.Name()))
			}
		}
	}
	return files, nil
}

func outputScanTable(result *model.ScanResult) error {
	fmt.Printf("Analyzed %d of %d series (run %s):\n\n", result.Analyzed, result.TotalFiles, result.RunID)

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"File", "Len", "Overall", "Slope", "R²", "Segments", "Peaks", "Valleys"}),
	)

	for _, r := range result.Reports {
		table.Append([]string{
			filepath.Base(r.File),
			fmt.Sprintf("%d", r.Length),
			r.Overall.String(),
			fmt.Sprintf("%.4f", r.Fit.Slope),
			fmt.Sprintf("%.2f", r.Fit.RSquared),
			fmt.Sprintf("%d", len(r.Segments)),
			fmt.Sprintf("%d", len(r.Peaks)),
			fmt.Sprintf("%d", len(r.Valleys)),
		})
	}

	table.Render()

	if len(result.Errors) > 0 {
		fmt.Printf("\n%d series failed:\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  %s: %s\n", filepath.Base(e.File), e.Error)
		}
	}

	// Print segment details for the first few reports
	if verbose {
		fmt.Println("\n--- Segment Details ---")
		count := 0
		for _, r := range result.Reports {
			if count >= 5 {
				break
			}
			fmt.Printf("\n[%s]\n", filepath.Base(r.File))
			printSegments(&r)
			count++
		}
	}

	fmt.Printf("\nScanned %d series in %s\n", result.TotalFiles, result.ScanTime.Round(time.Millisecond))
	return nil
}

func outputReportDetail(r *model.SeriesReport) {
	fmt.Printf("[%s] %d points, overall trend: %s (slope %.4f, r² %.3f)\n\n",
		filepath.Base(r.File), r.Length, r.Overall, r.Fit.Slope, r.Fit.RSquared)

	printSegments(r)

	if verbose {
		fmt.Printf("\nPeaks (%d):\n", len(r.Peaks))
		for _, p := range r.Peaks {
			fmt.Printf("  #%d  %.4f\n", p.Index, p.Value)
		}
		fmt.Printf("Valleys (%d):\n", len(r.Valleys))
		for _, v := range r.Valleys {
			fmt.Printf("  #%d  %.4f\n", v.Index, v.Value)
		}
	} else {
		fmt.Printf("\n%d peaks, %d valleys\n", len(r.Peaks), len(r.Valleys))
	}
}

func printSegments(r *model.SeriesReport) {
	if len(r.Segments) == 0 {
		fmt.Println("No segments (series too short for the configured breakdown)")
		return
	}

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Start", "End", "Category", "Slope", "Intercept", "R²"}),
	)
	for _, seg := range r.Segments {
		table.Append([]string{
			fmt.Sprintf("%d", seg.StartIndex),
			fmt.Sprintf("%d", seg.EndIndex),
			seg.Category.String(),
			fmt.Sprintf("%.4f", seg.Fit.Slope),
			fmt.Sprintf("%.4f", seg.Fit.Intercept),
			fmt.Sprintf("%.3f", seg.Fit.RSquared),
		})
	}
	table.Render()
}

func outputJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
