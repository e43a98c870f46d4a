package harmonic

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-tab/algorithms/common"
)

var ErrNonFiniteSpectrum = errors.New("spectrum contains NaN or Inf")

// SpectralPeak represents a detected spectral peak
type SpectralPeak struct {
	Frequency float64 // Peak frequency in Hz
	Magnitude float64 // Peak value in the spectrum's own units
	BinIndex  int     // Original FFT bin index
}

// SpectralPeaks picks the dominant local maxima of a single spectrum
type SpectralPeaks struct {
	relativeHeight float64 // fraction of the spectrum maximum a peak must reach
	minFrequency   float64 // peaks at or below this frequency are dropped
	maxPeaks       int
}

// NewSpectralPeaks creates a new spectral peaks analyzer
func NewSpectralPeaks(relativeHeight, minFrequency float64, maxPeaks int) *SpectralPeaks {
	return &SpectralPeaks{
		relativeHeight: relativeHeight,
		minFrequency:   minFrequency,
		maxPeaks:       maxPeaks,
	}
}

// DetectPeaks returns up to maxPeaks local maxima of spectrum reaching
// relativeHeight * max(spectrum), in ascending frequency order.
//
// The cut to maxPeaks is positional (lowest bins first, not loudest), and it
// happens before the minimum-frequency filter, so a low rumble peak can use up
// a slot and then be discarded.
func (sp *SpectralPeaks) DetectPeaks(spectrum, frequencies []float64) ([]SpectralPeak, error) {
	if len(spectrum) != len(frequencies) {
		return nil, fmt.Errorf("spectrum has %d bins but %d frequencies", len(spectrum), len(frequencies))
	}
	if !common.AllFinite(spectrum) {
		return nil, ErrNonFiniteSpectrum
	}

	peak := common.Max(spectrum)
	if peak <= 0 {
		return []SpectralPeak{}, nil
	}

	indices := common.FindPeaks(spectrum, peak*sp.relativeHeight)
	if sp.maxPeaks > 0 && len(indices) > sp.maxPeaks {
		indices = indices[:sp.maxPeaks]
	}

	peaks := make([]SpectralPeak, 0, len(indices))
	for _, idx := range indices {
		if frequencies[idx] <= sp.minFrequency {
			continue
		}
		peaks = append(peaks, SpectralPeak{
			Frequency: frequencies[idx],
			Magnitude: spectrum[idx],
			BinIndex:  idx,
		})
	}

	return peaks, nil
}

// DominantFrequency returns the frequency of the largest bin, or 0 when the
// spectrum has no positive value.
func DominantFrequency(spectrum, frequencies []float64) float64 {
	best := -1
	for i, v := range spectrum {
		if best < 0 || v > spectrum[best] {
			best = i
		}
	}
	if best < 0 || best >= len(frequencies) || spectrum[best] <= 0 {
		return 0
	}
	return frequencies[best]
}
