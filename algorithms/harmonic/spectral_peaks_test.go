package harmonic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freqAxis(n int, step float64) []float64 {
	f := make([]float64, n)
	for i := range f {
		f[i] = float64(i) * step
	}
	return f
}

func TestDetectPeaksThresholdAndOrder(t *testing.T) {
	spectrum := []float64{0, 0, 10, 0, 2, 0, 6, 0, 100, 0}
	sp := NewSpectralPeaks(0.3, 80, 3)

	peaks, err := sp.DetectPeaks(spectrum, freqAxis(10, 50))
	require.NoError(t, err)

	// 10 and 2 are under 30% of 100
	require.Len(t, peaks, 1)
	assert.Equal(t, 8, peaks[0].BinIndex)
	assert.Equal(t, 400.0, peaks[0].Frequency)
}

func TestDetectPeaksFirstThreeArePositional(t *testing.T) {
	spectrum := []float64{0, 50, 0, 60, 0, 70, 0, 100, 0}
	sp := NewSpectralPeaks(0.3, 0, 3)

	peaks, err := sp.DetectPeaks(spectrum, freqAxis(9, 100))
	require.NoError(t, err)

	require.Len(t, peaks, 3)
	assert.Equal(t, []int{1, 3, 5}, []int{peaks[0].BinIndex, peaks[1].BinIndex, peaks[2].BinIndex})
}

func TestDetectPeaksLowFrequencyFilterAfterCut(t *testing.T) {
	// bin 1 (40 Hz) takes a slot, then is dropped
	spectrum := []float64{0, 90, 0, 80, 0, 70, 0, 100, 0}
	sp := NewSpectralPeaks(0.3, 80, 3)

	peaks, err := sp.DetectPeaks(spectrum, freqAxis(9, 40))
	require.NoError(t, err)

	require.Len(t, peaks, 2)
	assert.Equal(t, 120.0, peaks[0].Frequency)
	assert.Equal(t, 200.0, peaks[1].Frequency)
}

func TestDetectPeaksSilent(t *testing.T) {
	sp := NewSpectralPeaks(0.3, 80, 3)

	peaks, err := sp.DetectPeaks(make([]float64, 16), freqAxis(16, 100))
	require.NoError(t, err)
	assert.Empty(t, peaks)
}

func TestDetectPeaksErrors(t *testing.T) {
	sp := NewSpectralPeaks(0.3, 80, 3)

	_, err := sp.DetectPeaks([]float64{1, 2}, []float64{0})
	assert.Error(t, err)

	_, err = sp.DetectPeaks([]float64{0, math.NaN(), 0}, freqAxis(3, 100))
	assert.ErrorIs(t, err, ErrNonFiniteSpectrum)
}

func TestDominantFrequency(t *testing.T) {
	assert.Equal(t, 200.0, DominantFrequency([]float64{1, 3, 9, 2}, freqAxis(4, 100)))
	assert.Equal(t, 0.0, DominantFrequency([]float64{0, 0}, freqAxis(2, 100)))
	assert.Equal(t, 0.0, DominantFrequency(nil, nil))
}
