package trend

import (
	"fmt"
	"sort"
)

// TrendSegment is one directional run of a decomposed price series. Across
// a full breakdown the segments are contiguous and exhaustive: each segment
// ends where the next one starts, together they cover [0, len-1], and
// StartIndex < EndIndex always holds.
type TrendSegment struct {
	StartIndex int           `json:"start_index"`
	EndIndex   int           `json:"end_index"`
	Category   TrendCategory `json:"category"`
	Fit        LinearFit     `json:"fit"`
}

// BreakdownConfig bounds the segmentation search. Construct it once per
// call; Validate checks all fields as a unit before any scanning starts.
type BreakdownConfig struct {
	// MinSegmentLength is the lower bound on an emitted segment's index
	// span (EndIndex - StartIndex). The final tail segment may be shorter.
	MinSegmentLength int
	// QualityFloor is the minimum acceptable r-squared before a segment
	// closes early. In [0, 1].
	QualityFloor float64
	// MaxOutliers is how many off-trend points a segment tolerates, where
	// off-trend means an absolute residual beyond residualToleranceRMSE
	// times the fit's RMSE.
	MaxOutliers int
	// ExtremumPeriod and ExtremumCloseness drive the extremum detector run
	// that seeds the candidate segment boundaries.
	ExtremumPeriod    int
	ExtremumCloseness int
}

// DefaultBreakdownConfig returns a mid-sensitivity configuration suitable
// for daily close series.
func DefaultBreakdownConfig() BreakdownConfig {
	return BreakdownConfig{
		MinSegmentLength:  3,
		QualityFloor:      0.5,
		MaxOutliers:       1,
		ExtremumPeriod:    5,
		ExtremumCloseness: 2,
	}
}

// Validate checks the configuration against a series of seriesLen points.
func (c BreakdownConfig) Validate(seriesLen int) error {
	if c.MinSegmentLength < 1 {
		return fmt.Errorf("min segment length %d: %w", c.MinSegmentLength, ErrInvalidConfig)
	}
	if c.MinSegmentLength >= seriesLen {
		return fmt.Errorf("min segment length %d with %d prices: %w", c.MinSegmentLength, seriesLen, ErrInvalidConfig)
	}
	if c.QualityFloor < 0 || c.QualityFloor > 1 {
		return fmt.Errorf("quality floor %v: %w", c.QualityFloor, ErrInvalidConfig)
	}
	if c.MaxOutliers < 0 {
		return fmt.Errorf("max outliers %d: %w", c.MaxOutliers, ErrInvalidConfig)
	}
	if c.ExtremumPeriod <= 0 || c.ExtremumPeriod >= seriesLen {
		return fmt.Errorf("extremum period %d with %d prices: %w", c.ExtremumPeriod, seriesLen, ErrInvalidPeriod)
	}
	if c.ExtremumCloseness < 0 {
		return fmt.Errorf("extremum closeness %d: %w", c.ExtremumCloseness, ErrInvalidConfig)
	}
	return nil
}

// BreakDownTrends partitions prices into contiguous directional segments
// covering [0, len-1].
//
// Candidate boundaries are seeded by the extremum detector. From index 0
// the current segment greedily absorbs candidates while the tentative fit
// stays acceptable: r-squared at or above the quality floor and at most
// MaxOutliers points beyond the residual tolerance. The first rejection
// closes the segment at the last candidate that still passed and starts
// the next one there. A rejection that would close a segment shorter than
// MinSegmentLength instead keeps extending until the minimum span is
// reached before re-evaluating, so a rejected point right next to the
// segment start can never produce a degenerate segment. The remainder
// after the last boundary is always emitted, classified Sideways when its
// fit falls below the quality floor.
//
// Every segment's category and fit are recomputed from its final closed
// range. Within a valid configuration the scan is total: it cannot fail
// once validation passes, and equal inputs produce equal output.
func BreakDownTrends(prices []float64, cfg BreakdownConfig) ([]TrendSegment, error) {
	n := len(prices)
	if n == 0 {
		return nil, fmt.Errorf("breaking down trends: %w", ErrEmptyInput)
	}
	if err := cfg.Validate(n); err != nil {
		return nil, fmt.Errorf("breaking down trends: %w", err)
	}

	cands := candidateBoundaries(prices, cfg)

	var segs []TrendSegment
	start := 0
	lastGood := -1

	for i := 0; i < len(cands); {
		c := cands[i]
		if c <= start {
			i++
			continue
		}
		if acceptable(prices, start, c, cfg) {
			lastGood = c
			i++
			continue
		}

		// Rejected. Too short to close anywhere: absorb the candidate and
		// keep extending up to the minimum span.
		if c-start < cfg.MinSegmentLength {
			i++
			continue
		}
		// Close at the last boundary that passed, then re-evaluate this
		// candidate against the new segment.
		if lastGood > start && lastGood-start >= cfg.MinSegmentLength {
			segs = append(segs, closeSegment(prices, start, lastGood))
			start = lastGood
			lastGood = -1
			continue
		}
		// No usable accepted boundary: close at the rejecting candidate,
		// which is the earliest cut satisfying the minimum span. The series
		// end is left to the tail rule below.
		if c < n-1 {
			segs = append(segs, closeSegment(prices, start, c))
			start = c
			lastGood = -1
		}
		i++
	}

	// Tail: whatever remains runs to the end regardless of fit quality.
	if start < n-1 {
		fit := fitRange(prices, start, n-1)
		cat := Sideways
		if fit.RSquared >= cfg.QualityFloor {
			cat = Classify(fit, n-1-start, valueRange(prices, start, n-1))
		}
		segs = append(segs, TrendSegment{StartIndex: start, EndIndex: n - 1, Category: cat, Fit: fit})
	}
	return segs, nil
}

// candidateBoundaries merges peak and valley indices into one sorted,
// deduplicated list of cut candidates, with the series end appended so the
// greedy walk always evaluates the full remainder. Seeding from extrema
// bounds the search instead of enumerating every possible boundary.
func candidateBoundaries(prices []float64, cfg BreakdownConfig) []int {
	n := len(prices)
	// Config is already validated, so the detector cannot fail here.
	peaks, _ := findExtrema(prices, cfg.ExtremumPeriod, cfg.ExtremumCloseness, Peak)
	valleys, _ := findExtrema(prices, cfg.ExtremumPeriod, cfg.ExtremumCloseness, Valley)

	seen := make(map[int]bool, len(peaks)+len(valleys))
	cands := make([]int, 0, len(peaks)+len(valleys)+1)
	for _, p := range peaks {
		if p.Index > 0 && p.Index < n-1 && !seen[p.Index] {
			seen[p.Index] = true
			cands = append(cands, p.Index)
		}
	}
	for _, v := range valleys {
		if v.Index > 0 && v.Index < n-1 && !seen[v.Index] {
			seen[v.Index] = true
			cands = append(cands, v.Index)
		}
	}
	sort.Ints(cands)
	return append(cands, n-1)
}

// acceptable reports whether the tentative segment [start, end] passes the
// quality bar: r-squared at or above the floor and at most MaxOutliers
// points beyond the residual tolerance.
func acceptable(prices []float64, start, end int, cfg BreakdownConfig) bool {
	fit := fitRange(prices, start, end)
	if fit.RSquared < cfg.QualityFloor {
		return false
	}
	tol := residualToleranceRMSE * rmse(prices, start, end, fit)
	outliers := 0
	for i := start; i <= end; i++ {
		resid := prices[i] - (fit.Intercept + fit.Slope*float64(i-start))
		if resid < 0 {
			resid = -resid
		}
		if resid > tol {
			outliers++
		}
	}
	return outliers <= cfg.MaxOutliers
}

func closeSegment(prices []float64, start, end int) TrendSegment {
	fit := fitRange(prices, start, end)
	return TrendSegment{
		StartIndex: start,
		EndIndex:   end,
		Category:   Classify(fit, end-start, valueRange(prices, start, end)),
		Fit:        fit,
	}
}
