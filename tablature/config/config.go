package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/RyanBlaney/sonido-tab/algorithms/spectral"
	"github.com/RyanBlaney/sonido-tab/algorithms/windowing"
	"github.com/RyanBlaney/sonido-tab/transcode"
)

// DetectorConfig configures per-frame note detection
type DetectorConfig struct {
	StepSeconds      float64 `json:"step_seconds"`        // scan roughly this often
	RelativeHeight   float64 `json:"relative_height"`     // peak must reach this fraction of the frame maximum
	MaxPeaksPerFrame int     `json:"max_peaks_per_frame"` // lowest-frequency peaks kept per frame
	MinFrequency     float64 `json:"min_frequency"`       // Hz; peaks at or below are dropped
}

// DefaultDetectorConfig scans every ~100 ms and keeps up to three peaks above 80 Hz
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		StepSeconds:      0.1,
		RelativeHeight:   0.3,
		MaxPeaksPerFrame: 3,
		MinFrequency:     80,
	}
}

// ServerConfig configures the upload server
type ServerConfig struct {
	Addr           string   `json:"addr"`
	UploadDir      string   `json:"upload_dir"`
	MaxUploadBytes int64    `json:"max_upload_bytes"`
	TimeoutSeconds int      `json:"timeout_seconds"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// DefaultServerConfig listens on port 3001 and allows 50 MiB uploads with a 5 minute limit
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:           ":3001",
		UploadDir:      "uploads",
		MaxUploadBytes: 50 * 1024 * 1024,
		TimeoutSeconds: 300,
		AllowedOrigins: []string{"*"},
	}
}

// Config holds configuration for the whole audio-to-tab pipeline
type Config struct {
	Decoder     *transcode.DecoderConfig    `json:"decoder"`
	Spectrogram *spectral.SpectrogramConfig `json:"spectrogram"`
	Detector    *DetectorConfig             `json:"detector"`
	Server      *ServerConfig               `json:"server"`
	LogLevel    string                      `json:"log_level"`
}

// DefaultConfig returns the default pipeline configuration
func DefaultConfig() *Config {
	return &Config{
		Decoder:     transcode.DefaultDecoderConfig(),
		Spectrogram: spectral.DefaultSpectrogramConfig(),
		Detector:    DefaultDetectorConfig(),
		Server:      DefaultServerConfig(),
		LogLevel:    "info",
	}
}

// LoadFile reads a JSON config file on top of the defaults. Sections or
// fields missing from the file keep their default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	// an explicit null section falls back to defaults
	defaults := DefaultConfig()
	if cfg.Decoder == nil {
		cfg.Decoder = defaults.Decoder
	}
	if cfg.Spectrogram == nil {
		cfg.Spectrogram = defaults.Spectrogram
	}
	if cfg.Detector == nil {
		cfg.Detector = defaults.Detector
	}
	if cfg.Server == nil {
		cfg.Server = defaults.Server
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Decoder.ChunkFrames <= 0 {
		return fmt.Errorf("decoder.chunk_frames must be positive: %d", c.Decoder.ChunkFrames)
	}
	if c.Decoder.MaxSamples < 0 {
		return fmt.Errorf("decoder.max_samples must not be negative: %d", c.Decoder.MaxSamples)
	}
	if c.Spectrogram.MaxWindowSize <= 0 {
		return fmt.Errorf("spectrogram.max_window_size must be positive: %d", c.Spectrogram.MaxWindowSize)
	}
	if c.Spectrogram.OverlapDivisor < 0 || c.Spectrogram.OverlapDivisor == 1 {
		return fmt.Errorf("spectrogram.overlap_divisor must be 0 or at least 2: %d", c.Spectrogram.OverlapDivisor)
	}
	if w := c.Spectrogram.Window; w != "" && !slices.Contains(windowing.Types(), w) {
		return fmt.Errorf("spectrogram.window %q is not one of %v", w, windowing.Types())
	}
	if c.Detector.StepSeconds < 0 {
		return fmt.Errorf("detector.step_seconds must not be negative: %v", c.Detector.StepSeconds)
	}
	if c.Detector.RelativeHeight < 0 || c.Detector.RelativeHeight > 1 {
		return fmt.Errorf("detector.relative_height must be within [0, 1]: %v", c.Detector.RelativeHeight)
	}
	if c.Detector.MaxPeaksPerFrame <= 0 {
		return fmt.Errorf("detector.max_peaks_per_frame must be positive: %d", c.Detector.MaxPeaksPerFrame)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive: %d", c.Server.MaxUploadBytes)
	}
	if c.Server.TimeoutSeconds <= 0 {
		return fmt.Errorf("server.timeout_seconds must be positive: %d", c.Server.TimeoutSeconds)
	}
	return nil
}
