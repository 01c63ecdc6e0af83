package trend

import "fmt"

// Kind distinguishes local maxima from local minima.
type Kind int

const (
	Peak Kind = iota
	Valley
)

func (k Kind) String() string {
	if k == Peak {
		return "peak"
	}
	return "valley"
}

// MarshalText renders the kind as "peak" or "valley" in JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ExtremumPoint is a local maximum or minimum of a price series.
type ExtremumPoint struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
	Kind  Kind    `json:"kind"`
}

// Peaks finds all local maxima of prices.
//
// Index i is a candidate when prices[i] is the maximum over the window
// [i-period, i+period], clipped to the series bounds so that boundary
// indices stay eligible. Candidates are scanned left to right; a candidate
// within closeness index-distance of the previously accepted peak replaces
// it when its value is higher, and is discarded otherwise (ties keep the
// earlier index).
func Peaks(prices []float64, period, closeness int) ([]ExtremumPoint, error) {
	return findExtrema(prices, period, closeness, Peak)
}

// Valleys finds all local minima of prices. Same window, scan, and merge
// rules as Peaks with the comparison inverted.
func Valleys(prices []float64, period, closeness int) ([]ExtremumPoint, error) {
	return findExtrema(prices, period, closeness, Valley)
}

func findExtrema(prices []float64, period, closeness int, kind Kind) ([]ExtremumPoint, error) {
	n := len(prices)
	if n == 0 {
		return nil, fmt.Errorf("finding extrema: %w", ErrEmptyInput)
	}
	if period <= 0 || period >= n {
		return nil, fmt.Errorf("finding extrema: period %d with %d prices: %w", period, n, ErrInvalidPeriod)
	}
	if closeness < 0 {
		return nil, fmt.Errorf("finding extrema: closeness %d: %w", closeness, ErrInvalidConfig)
	}

	var out []ExtremumPoint
	for i := 0; i < n; i++ {
		lo := i - period
		if lo < 0 {
			lo = 0
		}
		hi := i + period
		if hi > n-1 {
			hi = n - 1
		}
		if !isWindowExtreme(prices, i, lo, hi, kind) {
			continue
		}

		cand := ExtremumPoint{Index: i, Value: prices[i], Kind: kind}
		if len(out) > 0 {
			last := &out[len(out)-1]
			if cand.Index-last.Index <= closeness {
				// Too close to the previous extremum of the same kind:
				// keep whichever value is more extreme, earlier index on ties.
				if moreExtreme(cand.Value, last.Value, kind) {
					*last = cand
				}
				continue
			}
		}
		out = append(out, cand)
	}
	return out, nil
}

// isWindowExtreme reports whether prices[i] is the max (peak) or min
// (valley) over prices[lo..hi].
func isWindowExtreme(prices []float64, i, lo, hi int, kind Kind) bool {
	for j := lo; j <= hi; j++ {
		if j == i {
			continue
		}
		if kind == Peak && prices[j] > prices[i] {
			return false
		}
		if kind == Valley && prices[j] < prices[i] {
			return false
		}
	}
	return true
}

func moreExtreme(a, b float64, kind Kind) bool {
	if kind == Peak {
		return a > b
	}
	return a < b
}
