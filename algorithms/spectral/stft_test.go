package spectral

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-tab/algorithms/windowing"
	"github.com/RyanBlaney/sonido-tab/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logging.SetGlobalLogger(&logging.NoOpLogger{})
}

func sine(freq float64, sampleRate, n int, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func argmax(data []float64) int {
	best := 0
	for i, v := range data {
		if v > data[best] {
			best = i
		}
	}
	return best
}

func TestComputeEmptySignal(t *testing.T) {
	_, err := NewSTFT(nil).Compute(nil, 44100)

	var analysisErr *AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.True(t, errors.Is(err, ErrEmptySignal))
}

func TestComputeInvalidSampleRate(t *testing.T) {
	_, err := NewSTFT(nil).Compute([]float64{1, 2, 3}, 0)
	assert.ErrorIs(t, err, ErrInvalidSampleRate)
}

func TestComputeShape(t *testing.T) {
	spec, err := NewSTFT(nil).Compute(sine(440, 44100, 44100, 10000), 44100)
	require.NoError(t, err)
	require.NoError(t, spec.Validate())

	assert.Equal(t, 2048, spec.WindowSize)
	assert.Equal(t, 512, spec.Overlap)
	assert.Equal(t, 1536, spec.HopSize)
	assert.Len(t, spec.Frequencies, 1025)
	assert.Len(t, spec.Times, 28)

	assert.Equal(t, 0.0, spec.Frequencies[0])
	assert.InDelta(t, 22050.0, spec.Frequencies[1024], 1e-9)
	assert.InDelta(t, 1024.0/44100, spec.Times[0], 1e-12)
	assert.InDelta(t, (1024.0+1536)/44100, spec.Times[1], 1e-12)
}

func TestComputeFindsSineBin(t *testing.T) {
	spec, err := NewSTFT(nil).Compute(sine(440, 44100, 44100, 10000), 44100)
	require.NoError(t, err)

	col, err := spec.Column(5)
	require.NoError(t, err)
	// 440 / (44100/2048) = 20.4
	assert.Equal(t, 20, argmax(col))
}

func TestComputeShortSignalCapsWindow(t *testing.T) {
	spec, err := NewSTFT(nil).Compute([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 8000)
	require.NoError(t, err)

	assert.Equal(t, 10, spec.WindowSize)
	assert.Equal(t, 2, spec.Overlap)
	assert.Len(t, spec.Times, 1)
	assert.Len(t, spec.Frequencies, 6)
}

func TestComputeIsDeterministic(t *testing.T) {
	signal := sine(330, 22050, 50000, 3000)

	a, err := NewSTFT(nil).Compute(signal, 22050)
	require.NoError(t, err)
	b, err := NewSTFT(&SpectrogramConfig{MaxWindowSize: 2048, OverlapDivisor: 4, Detrend: true, Workers: 1}).Compute(signal, 22050)
	require.NoError(t, err)

	assert.Equal(t, a.Values, b.Values)
	assert.Equal(t, a.Times, b.Times)
}

func TestDensityRelatesToMagnitude(t *testing.T) {
	signal := sine(1000, 8000, 4096, 1)

	density, err := NewSTFT(DefaultSpectrogramConfig()).Compute(signal, 8000)
	require.NoError(t, err)

	magCfg := DefaultSpectrogramConfig()
	magCfg.Scaling = ScalingMagnitude
	magnitude, err := NewSTFT(magCfg).Compute(signal, 8000)
	require.NoError(t, err)

	var windowEnergy float64
	for i := range 2048 {
		w := 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/2048)
		windowEnergy += w * w
	}

	bin := 256 // 1000 Hz
	m := magnitude.Values[bin][0]
	assert.InDelta(t, 2*m*m/(8000*windowEnergy), density.Values[bin][0], 1e-9)

	// DC and Nyquist are not doubled
	m = magnitude.Values[1024][0]
	assert.InDelta(t, m*m/(8000*windowEnergy), density.Values[1024][0], 1e-9)
}

func TestValidateRejectsRaggedGrid(t *testing.T) {
	spec := &Spectrogram{
		Frequencies: []float64{0, 10},
		Times:       []float64{0, 1},
		Values:      [][]float64{{1, 2}, {3}},
	}
	err := spec.Validate()
	assert.ErrorIs(t, err, ErrMalformed)

	var nilSpec *Spectrogram
	assert.ErrorIs(t, nilSpec.Validate(), ErrMalformed)
}

func TestColumnOutOfRange(t *testing.T) {
	spec := &Spectrogram{Frequencies: []float64{0}, Times: []float64{0}, Values: [][]float64{{1}}}
	_, err := spec.Column(1)
	assert.Error(t, err)
}

func TestScalingText(t *testing.T) {
	var cfg SpectrogramConfig
	require.NoError(t, json.Unmarshal([]byte(`{"scaling":"magnitude"}`), &cfg))
	assert.Equal(t, ScalingMagnitude, cfg.Scaling)

	_, err := ParseScaling("loudness")
	assert.Error(t, err)
}

func TestComputeWindowChoice(t *testing.T) {
	signal := sine(440, 44100, 8192, 1000)

	cfg := DefaultSpectrogramConfig()
	cfg.Window = windowing.TypeBlackmanHarris
	spec, err := NewSTFT(cfg).Compute(signal, 44100)
	require.NoError(t, err)

	col, err := spec.Column(0)
	require.NoError(t, err)
	assert.Equal(t, 20, argmax(col))

	hamming, err := NewSTFT(nil).Compute(signal, 44100)
	require.NoError(t, err)
	assert.NotEqual(t, hamming.Values[20][0], spec.Values[20][0])

	cfg.Window = "gaussian"
	_, err = NewSTFT(cfg).Compute(signal, 44100)
	assert.ErrorIs(t, err, ErrInvalidWindow)
}
