package common

import (
	"math"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic numeric helpers shared by the analysis packages, using gonum where it covers the job

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// Max returns the largest value in data, or -Inf for an empty slice
func Max(data []float64) float64 {
	if len(data) == 0 {
		return math.Inf(-1)
	}
	return floats.Max(data)
}

// SumOfSquares returns Σ x²
func SumOfSquares(data []float64) float64 {
	return floats.Dot(data, data)
}

// AllFinite reports whether data contains no NaN or ±Inf values
func AllFinite(data []float64) bool {
	if floats.HasNaN(data) {
		return false
	}
	for _, v := range data {
		if math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Clamp constrains a value to a range
func Clamp[T constraints.Ordered](value, lo, hi T) T {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// DecimationFactor returns the stride that brings n samples under limit:
// n/limit + 1 when n exceeds limit, 1 otherwise.
func DecimationFactor(n, limit int) int {
	if limit <= 0 || n <= limit {
		return 1
	}
	return n/limit + 1
}

// Decimate keeps every factor-th sample starting at index 0.
// No low-pass filter is applied first, so content above the new Nyquist
// frequency aliases into the passband.
func Decimate(signal []float64, factor int) []float64 {
	if factor <= 1 {
		return signal
	}

	// ceil(len/factor) samples
	out := make([]float64, 0, (len(signal)+factor-1)/factor)
	for i := 0; i < len(signal); i += factor {
		out = append(out, signal[i])
	}
	return out
}

// FindPeaks returns indices of local maxima whose value is at least minHeight.
// Flat-topped peaks report the (lower) middle index of the plateau. The first
// and last samples are never peaks. Indices are in ascending order.
func FindPeaks(data []float64, minHeight float64) []int {
	var peaks []int

	last := len(data) - 1
	i := 1
	for i < last {
		if data[i-1] < data[i] {
			ahead := i + 1
			for ahead < last && data[ahead] == data[i] {
				ahead++
			}

			if data[ahead] < data[i] {
				mid := (i + ahead - 1) / 2
				if data[mid] >= minHeight {
					peaks = append(peaks, mid)
				}
				i = ahead
			}
		}
		i++
	}

	return peaks
}
