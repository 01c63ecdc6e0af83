package trend

import (
	"errors"
	"reflect"
	"testing"
)

func TestPeaksConcreteSeries(t *testing.T) {
	prices := []float64{1, 2, 3, 2, 1, 2, 3, 4, 5, 4, 3}

	got, err := Peaks(prices, 1, 1)
	if err != nil {
		t.Fatalf("Peaks returned error: %v", err)
	}

	want := []ExtremumPoint{
		{Index: 2, Value: 3, Kind: Peak},
		{Index: 8, Value: 5, Kind: Peak},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected peaks %v, got %v", want, got)
	}
}

func TestValleysConcreteSeries(t *testing.T) {
	prices := []float64{1, 2, 3, 2, 1, 2, 3, 4, 5, 4, 3}

	got, err := Valleys(prices, 1, 1)
	if err != nil {
		t.Fatalf("Valleys returned error: %v", err)
	}

	// Boundary indices stay candidates under the clipped window: index 0 is
	// the minimum of [0,1] and index 4 of [3,5]. They sit farther apart
	// than the closeness threshold, so both are kept.
	want := []ExtremumPoint{
		{Index: 0, Value: 1, Kind: Valley},
		{Index: 4, Value: 1, Kind: Valley},
		{Index: 10, Value: 3, Kind: Valley},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected valleys %v, got %v", want, got)
	}
}

func TestPeaksClosenessMerge(t *testing.T) {
	tests := []struct {
		name      string
		prices    []float64
		period    int
		closeness int
		want      []ExtremumPoint
	}{
		{
			name:      "higher later peak replaces earlier",
			prices:    []float64{1, 5, 1, 6, 1, 0.5, 0.25},
			period:    1,
			closeness: 2,
			want:      []ExtremumPoint{{Index: 3, Value: 6, Kind: Peak}},
		},
		{
			name:      "lower later peak discarded",
			prices:    []float64{1, 6, 1, 5, 1, 0.5, 0.25},
			period:    1,
			closeness: 2,
			want:      []ExtremumPoint{{Index: 1, Value: 6, Kind: Peak}},
		},
		{
			name:      "tie keeps earlier index",
			prices:    []float64{1, 6, 1, 6, 1, 0.5, 0.25},
			period:    1,
			closeness: 2,
			want:      []ExtremumPoint{{Index: 1, Value: 6, Kind: Peak}},
		},
		{
			name:      "beyond closeness both kept",
			prices:    []float64{1, 6, 1, 1, 6, 1, 0.25},
			period:    1,
			closeness: 2,
			want: []ExtremumPoint{
				{Index: 1, Value: 6, Kind: Peak},
				{Index: 4, Value: 6, Kind: Peak},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Peaks(tt.prices, tt.period, tt.closeness)
			if err != nil {
				t.Fatalf("Peaks returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestExtremaMonotoneSeries(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5, 6, 7, 8}

	peaks, err := Peaks(prices, 2, 1)
	if err != nil {
		t.Fatalf("Peaks returned error: %v", err)
	}
	if len(peaks) != 1 || peaks[0].Index != 7 {
		t.Errorf("Expected single peak at last index, got %v", peaks)
	}

	valleys, err := Valleys(prices, 2, 1)
	if err != nil {
		t.Fatalf("Valleys returned error: %v", err)
	}
	if len(valleys) != 1 || valleys[0].Index != 0 {
		t.Errorf("Expected single valley at first index, got %v", valleys)
	}
}

func TestExtremaSpacingInvariant(t *testing.T) {
	// Choppy but deterministic series; indices must be strictly increasing
	// and same-kind extrema never within the closeness threshold.
	prices := []float64{3, 7, 2, 9, 4, 4, 8, 1, 6, 6, 2, 10, 3, 5, 0, 7, 7, 1, 4, 9}

	for _, closeness := range []int{0, 1, 2, 3} {
		pts, err := Peaks(prices, 2, closeness)
		if err != nil {
			t.Fatalf("Peaks(closeness=%d) returned error: %v", closeness, err)
		}
		for i := 1; i < len(pts); i++ {
			if pts[i].Index <= pts[i-1].Index {
				t.Errorf("closeness=%d: indices not strictly increasing: %v", closeness, pts)
			}
			if pts[i].Index-pts[i-1].Index <= closeness {
				t.Errorf("closeness=%d: peaks %d and %d too close", closeness, pts[i-1].Index, pts[i].Index)
			}
		}
	}
}

func TestExtremaValidation(t *testing.T) {
	tests := []struct {
		name    string
		prices  []float64
		period  int
		wantErr error
	}{
		{name: "empty series", prices: nil, period: 1, wantErr: ErrEmptyInput},
		{name: "zero period", prices: []float64{1, 2, 3}, period: 0, wantErr: ErrInvalidPeriod},
		{name: "period equals length", prices: []float64{1, 2, 3}, period: 3, wantErr: ErrInvalidPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Peaks(tt.prices, tt.period, 1); !errors.Is(err, tt.wantErr) {
				t.Errorf("Peaks: expected %v, got %v", tt.wantErr, err)
			}
			if _, err := Valleys(tt.prices, tt.period, 1); !errors.Is(err, tt.wantErr) {
				t.Errorf("Valleys: expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
