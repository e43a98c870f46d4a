// Package tablature turns a recording into note events and the fretboard
// positions that play them. A run loads the audio, computes its spectrogram,
// picks per-frame peaks, names them and looks each distinct note up once.
package tablature

import (
	"context"
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-tab/algorithms/spectral"
	"github.com/RyanBlaney/sonido-tab/fretboard"
	"github.com/RyanBlaney/sonido-tab/logging"
	"github.com/RyanBlaney/sonido-tab/tablature/config"
	"github.com/RyanBlaney/sonido-tab/transcode"
)

// Pipeline runs loader, spectrogram, detector and assembler in order.
// It holds no per-run state, so one Pipeline may serve concurrent runs.
type Pipeline struct {
	config   *config.Config
	decoder  *transcode.Decoder
	stft     *spectral.STFT
	detector *NoteDetector
	mapper   Mapper
	logger   logging.Logger
}

// NewPipeline creates a pipeline; nil selects DefaultConfig
func NewPipeline(cfg *config.Config) *Pipeline {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	return &Pipeline{
		config:   cfg,
		decoder:  transcode.NewDecoder(cfg.Decoder),
		stft:     spectral.NewSTFT(cfg.Spectrogram),
		detector: NewNoteDetector(cfg.Detector),
		mapper:   fretboard.Standard,
		logger: logging.WithFields(logging.Fields{
			"component": "tablature_pipeline",
		}),
	}
}

// WithMapper replaces the fretboard used for position lookups
func (p *Pipeline) WithMapper(mapper Mapper) *Pipeline {
	cp := *p
	cp.mapper = mapper
	return &cp
}

// Config returns the pipeline configuration
func (p *Pipeline) Config() *config.Config {
	return p.config
}

// Run processes the WAV file at path. The error is a *transcode.LoadError
// when the file could not be loaded, a *spectral.AnalysisError when the
// spectrogram could not be computed, or the context's error.
func (p *Pipeline) Run(ctx context.Context, path string) (*Result, error) {
	logger := p.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "Run",
		"filename": path,
	})

	buf, err := p.decoder.DecodeFile(ctx, path)
	if err != nil {
		logger.Error(err, "Failed to load audio", logging.Fields{"status": Classify(err).String()})
		return nil, err
	}

	return p.Analyze(ctx, buf)
}

// Analyze runs everything after loading on an already decoded buffer.
// A buffer with no samples yields an empty, successful result.
func (p *Pipeline) Analyze(ctx context.Context, buf *transcode.AudioBuffer) (*Result, error) {
	start := time.Now()

	if buf == nil {
		return nil, fmt.Errorf("audio buffer cannot be nil")
	}

	logger := p.logger.WithContext(ctx).WithFields(logging.Fields{
		"function":    "Analyze",
		"sample_rate": buf.SampleRate,
		"samples":     len(buf.Samples),
	})

	res := emptyResult()
	res.Stats = &RunStats{
		SampleRate:       buf.SampleRate,
		SourceSamples:    buf.SourceSamples,
		Samples:          len(buf.Samples),
		DecimationFactor: buf.DecimationFactor,
	}

	if len(buf.Samples) == 0 {
		logger.Info("No samples to analyze")
		res.Stats.ProcessingTime = time.Since(start)
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	spec, err := p.stft.Compute(buf.Samples, buf.SampleRate)
	if err != nil {
		logger.Error(err, "Failed to compute spectrogram")
		return nil, err
	}
	res.Stats.Frames = len(spec.Times)
	res.Stats.WindowSize = spec.WindowSize

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	det := p.detector.Detect(spec, buf.SampleRate)
	res.Stats.Step = det.Step
	res.Stats.FramesScanned = det.FramesScanned
	res.Stats.SilentFrames = det.SilentFrames
	res.SkippedFrames = skippedFrames(det.Skipped)
	if det.Err != nil {
		res.DetectionError = det.Err.Error()
	}

	assembler := NewResultAssembler(p.mapper)
	res.Timing = det.Events
	res.Notes = assembler.Assemble(det.Events)
	res.Stats.ProcessingTime = time.Since(start)

	logger.Info("Analysis completed", logging.Fields{
		"events":          len(res.Timing),
		"distinct_notes":  res.Notes.Len(),
		"skipped_frames":  len(res.SkippedFrames),
		"processing_time": res.Stats.ProcessingTime,
	})

	return res, nil
}

// Dominant loads path and returns the strongest frequency of every
// frame that carries any energy.
func (p *Pipeline) Dominant(ctx context.Context, path string) ([]float64, error) {
	buf, err := p.decoder.DecodeFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(buf.Samples) == 0 {
		return []float64{}, nil
	}

	spec, err := p.stft.Compute(buf.Samples, buf.SampleRate)
	if err != nil {
		return nil, err
	}
	return DominantPitches(spec)
}
