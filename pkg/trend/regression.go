package trend

import (
	"fmt"
	"math"
)

// TrendCategory classifies the direction of a fitted trend line.
type TrendCategory int

const (
	Sideways TrendCategory = iota
	Up
	StrongUp
	Down
	StrongDown
)

func (c TrendCategory) String() string {
	switch c {
	case StrongUp:
		return "strong up"
	case Up:
		return "up"
	case Down:
		return "down"
	case StrongDown:
		return "strong down"
	default:
		return "sideways"
	}
}

// MarshalText renders the category name in JSON output.
func (c TrendCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Classification thresholds on the normalized slope, the single place where
// bucket tuning happens. The slope is normalized as slope*span/valueRange:
// the fraction of the observed price range the fitted line traverses over
// the segment, which is invariant under positive scaling and constant
// offset of the prices. A perfectly monotone segment normalizes to +/-1.
const (
	strongSlopeThreshold = 0.75
	slopeThreshold       = 0.25
)

// residualToleranceRMSE is the outlier cutoff used during segmentation: a
// point counts as an outlier when its absolute residual from the fitted
// line exceeds this multiple of the fit's RMSE.
const residualToleranceRMSE = 2.0

// LinearFit is an ordinary least squares line over an index range, with
// index as the independent variable (0-based within the range).
type LinearFit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
}

// Fit computes the least squares line over values[start..end] inclusive.
// A single-point range yields slope 0, intercept equal to the value, and
// RSquared 1, not an error. A range whose values are all identical also
// yields RSquared 1 (zero residual over zero variance).
func Fit(values []float64, start, end int) (LinearFit, error) {
	if len(values) == 0 {
		return LinearFit{}, fmt.Errorf("fitting trend line: %w", ErrEmptyInput)
	}
	if start < 0 || end >= len(values) || start > end {
		return LinearFit{}, fmt.Errorf("fitting trend line: range [%d,%d] in %d values: %w",
			start, end, len(values), ErrInvalidPeriod)
	}
	return fitRange(values, start, end), nil
}

// fitRange is Fit without validation, for internal callers with known-good
// bounds.
func fitRange(values []float64, start, end int) LinearFit {
	m := end - start + 1
	if m == 1 {
		return LinearFit{Slope: 0, Intercept: values[start], RSquared: 1}
	}
	xs := make([]float64, m)
	for i := range xs {
		xs[i] = float64(i)
	}
	return fitLine(xs, values[start:end+1])
}

// fitLine is the shared OLS kernel over explicit (x, y) pairs. Used with
// 0-based indices by fitRange and with absolute extremum indices by
// PeakTrend and ValleyTrend.
func fitLine(xs, ys []float64) LinearFit {
	n := len(ys)
	if n == 0 {
		return LinearFit{}
	}
	if n == 1 {
		return LinearFit{Slope: 0, Intercept: ys[0], RSquared: 1}
	}

	var meanX, meanY float64
	for i := 0; i < n; i++ {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var num, den float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		num += dx * (ys[i] - meanY)
		den += dx * dx
	}

	fit := LinearFit{}
	if den > 0 {
		fit.Slope = num / den
	}
	fit.Intercept = meanY - fit.Slope*meanX

	var ssRes, ssTot float64
	for i := 0; i < n; i++ {
		resid := ys[i] - (fit.Intercept + fit.Slope*xs[i])
		total := ys[i] - meanY
		ssRes += resid * resid
		ssTot += total * total
	}
	if ssTot <= 1e-12 {
		// All values identical: zero residual over zero variance is a
		// perfect fit, not 0/0.
		fit.RSquared = 1
		return fit
	}
	fit.RSquared = 1 - ssRes/ssTot
	if fit.RSquared < 0 {
		fit.RSquared = 0
	} else if fit.RSquared > 1 {
		fit.RSquared = 1
	}
	return fit
}

// rmse returns the root mean square error of the fit over values[start..end].
func rmse(values []float64, start, end int, fit LinearFit) float64 {
	m := end - start + 1
	var ssRes float64
	for i := 0; i < m; i++ {
		resid := values[start+i] - (fit.Intercept + fit.Slope*float64(i))
		ssRes += resid * resid
	}
	return math.Sqrt(ssRes / float64(m))
}

// Classify buckets a fitted slope into a trend category. span is the index
// distance covered by the fit (end-start) and valueRange the max-min of the
// fitted values; both feed the scale-invariant normalization described at
// the threshold constants. A zero span or zero range is Sideways.
// Classify is a pure function of its arguments.
func Classify(fit LinearFit, span int, valueRange float64) TrendCategory {
	if span <= 0 || valueRange <= 0 {
		return Sideways
	}
	norm := fit.Slope * float64(span) / valueRange
	switch {
	case norm >= strongSlopeThreshold:
		return StrongUp
	case norm >= slopeThreshold:
		return Up
	case norm <= -strongSlopeThreshold:
		return StrongDown
	case norm <= -slopeThreshold:
		return Down
	default:
		return Sideways
	}
}

// OverallTrend fits a line to the whole series and classifies it.
func OverallTrend(prices []float64) (TrendCategory, error) {
	if len(prices) == 0 {
		return Sideways, fmt.Errorf("overall trend: %w", ErrEmptyInput)
	}
	fit := fitRange(prices, 0, len(prices)-1)
	return Classify(fit, len(prices)-1, valueRange(prices, 0, len(prices)-1)), nil
}

// PeakTrend fits a line through the detected peaks only, using the peaks'
// absolute series indices as the independent variable. Useful as a
// resistance-line estimate.
func PeakTrend(prices []float64, period int) (LinearFit, error) {
	pts, err := Peaks(prices, period, 1)
	if err != nil {
		return LinearFit{}, fmt.Errorf("peak trend: %w", err)
	}
	return fitExtrema(pts), nil
}

// ValleyTrend fits a line through the detected valleys only. Useful as a
// support-line estimate.
func ValleyTrend(prices []float64, period int) (LinearFit, error) {
	pts, err := Valleys(prices, period, 1)
	if err != nil {
		return LinearFit{}, fmt.Errorf("valley trend: %w", err)
	}
	return fitExtrema(pts), nil
}

func fitExtrema(pts []ExtremumPoint) LinearFit {
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i] = float64(p.Index)
		ys[i] = p.Value
	}
	return fitLine(xs, ys)
}

func valueRange(values []float64, start, end int) float64 {
	lo, hi := values[start], values[start]
	for i := start + 1; i <= end; i++ {
		if values[i] < lo {
			lo = values[i]
		}
		if values[i] > hi {
			hi = values[i]
		}
	}
	return hi - lo
}
