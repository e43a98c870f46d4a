package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-tab/algorithms/spectral"
	"github.com/RyanBlaney/sonido-tab/algorithms/windowing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1_000_000, cfg.Decoder.MaxSamples)
	assert.Equal(t, 2048, cfg.Spectrogram.MaxWindowSize)
	assert.Equal(t, 4, cfg.Spectrogram.OverlapDivisor)
	assert.Equal(t, 0.3, cfg.Detector.RelativeHeight)
	assert.Equal(t, 3, cfg.Detector.MaxPeaksPerFrame)
	assert.Equal(t, 80.0, cfg.Detector.MinFrequency)
	assert.Equal(t, ":3001", cfg.Server.Addr)
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"spectrogram": {"max_window_size": 4096, "overlap_divisor": 2, "scaling": "magnitude", "window": "hann"},
		"detector": {"min_frequency": 60},
		"log_level": "debug"
	}`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 4096, cfg.Spectrogram.MaxWindowSize)
	assert.Equal(t, spectral.ScalingMagnitude, cfg.Spectrogram.Scaling)
	assert.Equal(t, windowing.TypeHann, cfg.Spectrogram.Window)
	assert.Equal(t, 60.0, cfg.Detector.MinFrequency)
	assert.Equal(t, 0.3, cfg.Detector.RelativeHeight)
	assert.Equal(t, 1024*1024, cfg.Decoder.ChunkFrames)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFileNullSectionFallsBack(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, `{"decoder": null}`))
	require.NoError(t, err)
	assert.Equal(t, 1_000_000, cfg.Decoder.MaxSamples)
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	_, err := LoadFile(writeConfig(t, `{"detector": {"relative_height": 1.5}}`))
	assert.Error(t, err)

	_, err = LoadFile(writeConfig(t, `{"spectrogram": {"overlap_divisor": 1}}`))
	assert.Error(t, err)

	_, err = LoadFile(writeConfig(t, `{"spectrogram": {"window": "gaussian"}}`))
	assert.Error(t, err)

	_, err = LoadFile(writeConfig(t, `{not json`))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
