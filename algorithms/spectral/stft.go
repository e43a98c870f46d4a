package spectral

import (
	"fmt"
	"math/cmplx"
	"runtime"
	"sync"

	"github.com/RyanBlaney/sonido-tab/algorithms/common"
	"github.com/RyanBlaney/sonido-tab/algorithms/windowing"
	"github.com/RyanBlaney/sonido-tab/logging"
)

// Scaling selects what each spectrogram cell holds
type Scaling int

const (
	// ScalingDensity is the one-sided power spectral density, |X|²/(fs·Σw²),
	// with every bin except DC and Nyquist doubled.
	ScalingDensity Scaling = iota
	// ScalingMagnitude is the raw FFT magnitude |X|.
	ScalingMagnitude
)

func (s Scaling) String() string {
	switch s {
	case ScalingDensity:
		return "density"
	case ScalingMagnitude:
		return "magnitude"
	default:
		return "unknown"
	}
}

func (s Scaling) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Scaling) UnmarshalText(text []byte) error {
	parsed, err := ParseScaling(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseScaling converts "density" or "magnitude" to a Scaling
func ParseScaling(name string) (Scaling, error) {
	switch name {
	case "density", "psd", "":
		return ScalingDensity, nil
	case "magnitude":
		return ScalingMagnitude, nil
	default:
		return ScalingDensity, fmt.Errorf("unknown spectrogram scaling: %q", name)
	}
}

// SpectrogramConfig holds the STFT parameters
type SpectrogramConfig struct {
	MaxWindowSize  int            `json:"max_window_size"` // nperseg = min(MaxWindowSize, len(signal))
	OverlapDivisor int            `json:"overlap_divisor"` // noverlap = nperseg / OverlapDivisor
	Window         windowing.Type `json:"window"`          // periodic form of this window
	Scaling        Scaling        `json:"scaling"`
	Detrend        bool           `json:"detrend"` // subtract each frame's mean before windowing
	Workers        int            `json:"workers"` // 0 picks a count from runtime.NumCPU
}

// DefaultSpectrogramConfig returns the 2048-sample, quarter-overlap Hamming setup
func DefaultSpectrogramConfig() *SpectrogramConfig {
	return &SpectrogramConfig{
		MaxWindowSize:  2048,
		OverlapDivisor: 4,
		Window:         windowing.TypeHamming,
		Scaling:        ScalingDensity,
		Detrend:        true,
		Workers:        0,
	}
}

// Spectrogram is a frequency x time grid of spectral values
type Spectrogram struct {
	Frequencies []float64   `json:"frequencies"` // bin centres in Hz, ascending
	Times       []float64   `json:"times"`       // frame centres in seconds, ascending
	Values      [][]float64 `json:"-"`           // [frequency bin][time frame]
	SampleRate  int         `json:"sample_rate"`
	WindowSize  int         `json:"window_size"`
	Overlap     int         `json:"overlap"`
	HopSize     int         `json:"hop_size"`
	Scaling     Scaling     `json:"scaling"`
}

// Validate checks the shape invariants
func (s *Spectrogram) Validate() error {
	if s == nil {
		return analysisErr("validate", fmt.Errorf("%w: nil spectrogram", ErrMalformed))
	}
	if len(s.Values) != len(s.Frequencies) {
		return analysisErr("validate", fmt.Errorf("%w: %d rows for %d frequency bins",
			ErrMalformed, len(s.Values), len(s.Frequencies)))
	}
	for i, row := range s.Values {
		if len(row) != len(s.Times) {
			return analysisErr("validate", fmt.Errorf("%w: row %d has %d columns, expected %d",
				ErrMalformed, i, len(row), len(s.Times)))
		}
	}
	return nil
}

// Column copies out the spectrum of a single time frame
func (s *Spectrogram) Column(frame int) ([]float64, error) {
	if frame < 0 || frame >= len(s.Times) {
		return nil, fmt.Errorf("frame %d out of range [0, %d)", frame, len(s.Times))
	}

	col := make([]float64, len(s.Frequencies))
	for bin := range col {
		col[bin] = s.Values[bin][frame]
	}
	return col, nil
}

// STFT provides Short-Time Fourier Transform functionality
type STFT struct {
	fft    *FFT
	config *SpectrogramConfig
	logger logging.Logger
}

// NewSTFT creates a new STFT calculator
func NewSTFT(config *SpectrogramConfig) *STFT {
	if config == nil {
		config = DefaultSpectrogramConfig()
	}
	return &STFT{
		fft:    NewFFT(),
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "spectrogram_engine",
		}),
	}
}

// WindowParams returns nperseg and noverlap for a signal of n samples
func (s *STFT) WindowParams(n int) (windowSize, overlap int) {
	windowSize = min(s.config.MaxWindowSize, n)
	if s.config.OverlapDivisor > 0 {
		overlap = windowSize / s.config.OverlapDivisor
	}
	return windowSize, overlap
}

// Compute builds the spectrogram of signal sampled at sampleRate
func (s *STFT) Compute(signal []float64, sampleRate int) (*Spectrogram, error) {
	if len(signal) == 0 {
		return nil, analysisErr("compute", ErrEmptySignal)
	}
	if sampleRate <= 0 {
		return nil, analysisErr("compute", fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate))
	}

	windowSize, overlap := s.WindowParams(len(signal))
	if windowSize <= 0 {
		return nil, analysisErr("compute", fmt.Errorf("%w: window size %d", ErrInvalidWindow, windowSize))
	}
	hopSize := windowSize - overlap
	if hopSize <= 0 {
		return nil, analysisErr("compute", fmt.Errorf("%w: overlap %d >= window size %d",
			ErrInvalidWindow, overlap, windowSize))
	}

	numFrames := (len(signal) - overlap) / hopSize
	if numFrames <= 0 {
		return nil, analysisErr("compute", fmt.Errorf("%w: signal too short for window", ErrInvalidWindow))
	}

	windowType := s.config.Window
	if windowType == "" {
		windowType = windowing.TypeHamming
	}
	window, err := windowing.New(windowType, windowSize, false)
	if err != nil {
		return nil, analysisErr("compute", fmt.Errorf("%w: %v", ErrInvalidWindow, err))
	}
	frames, err := s.computeFrames(signal, windowSize, hopSize, numFrames, window)
	if err != nil {
		return nil, analysisErr("stft", err)
	}

	freqBins := windowSize/2 + 1
	scale := 1.0
	if s.config.Scaling == ScalingDensity {
		scale = 1.0 / (float64(sampleRate) * common.SumOfSquares(window.GetCoefficients()))
	}

	values := make([][]float64, freqBins)
	for bin := range values {
		values[bin] = make([]float64, numFrames)
	}

	for frame, spectrum := range frames {
		for bin := range freqBins {
			v := spectrum[bin]
			if s.config.Scaling == ScalingDensity {
				v = v * v * scale
				if bin > 0 && !(windowSize%2 == 0 && bin == freqBins-1) {
					v *= 2
				}
			}
			values[bin][frame] = v
		}
	}

	times := make([]float64, numFrames)
	for frame := range times {
		times[frame] = (float64(windowSize)/2 + float64(frame*hopSize)) / float64(sampleRate)
	}

	s.logger.Debug("Spectrogram computed", logging.Fields{
		"samples":     len(signal),
		"window_size": windowSize,
		"overlap":     overlap,
		"frames":      numFrames,
		"freq_bins":   freqBins,
		"window":      windowType,
		"scaling":     s.config.Scaling.String(),
	})

	return &Spectrogram{
		Frequencies: RealFrequencies(windowSize, sampleRate),
		Times:       times,
		Values:      values,
		SampleRate:  sampleRate,
		WindowSize:  windowSize,
		Overlap:     overlap,
		HopSize:     hopSize,
		Scaling:     s.config.Scaling,
	}, nil
}

// computeFrames returns the one-sided FFT magnitude of every frame, frame-major.
// Frames are spread across workers; each result lands at its own index so the
// output does not depend on scheduling.
func (s *STFT) computeFrames(signal []float64, windowSize, hopSize, numFrames int, window *windowing.Window) ([][]float64, error) {
	freqBins := windowSize/2 + 1
	magnitude := make([][]float64, numFrames)
	for i := range numFrames {
		magnitude[i] = make([]float64, freqBins)
	}

	numWorkers := s.workerCount(numFrames)
	jobs := make(chan int, numFrames)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Reuse frame buffer for this worker
			frameBuffer := make([]float64, windowSize)

			for frameIdx := range jobs {
				startIdx := frameIdx * hopSize
				copy(frameBuffer, signal[startIdx:startIdx+windowSize])

				if s.config.Detrend {
					mean := common.Mean(frameBuffer)
					for i := range frameBuffer {
						frameBuffer[i] -= mean
					}
				}

				if err := window.ApplyInPlace(frameBuffer); err != nil {
					errOnce.Do(func() { firstErr = fmt.Errorf("frame %d: %w", frameIdx, err) })
					continue
				}

				fftResult := s.fft.Compute(frameBuffer)
				for i := range freqBins {
					magnitude[frameIdx][i] = cmplx.Abs(fftResult[i])
				}
			}
		}()
	}

	for frameIdx := range numFrames {
		jobs <- frameIdx
	}
	close(jobs)

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return magnitude, nil
}

// workerCount determines the number of workers based on workload
func (s *STFT) workerCount(numFrames int) int {
	if s.config.Workers > 0 {
		return min(s.config.Workers, numFrames)
	}

	numCPU := runtime.NumCPU()

	// For small workloads, don't over-parallelize
	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}

	// For medium workloads, use most CPUs
	if numFrames < 1000 {
		return min(numCPU, 8)
	}

	return numCPU
}
