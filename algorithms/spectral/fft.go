package spectral

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the FFT of a real signal using mjibson/go-dsp.
// The full complex spectrum (len(x) bins) is returned.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// mjibson/go-dsp handles all sizes, including non-power-of-2
	return fft.FFTReal(x)
}

// RealFrequencies returns the centre frequency of each one-sided bin:
// i * sampleRate / n for i in [0, n/2].
func RealFrequencies(n, sampleRate int) []float64 {
	if n <= 0 {
		return []float64{}
	}

	freqs := make([]float64, n/2+1)
	for i := range freqs {
		freqs[i] = float64(i) * float64(sampleRate) / float64(n)
	}
	return freqs
}
