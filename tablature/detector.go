package tablature

import (
	"fmt"

	"github.com/RyanBlaney/sonido-tab/algorithms/harmonic"
	"github.com/RyanBlaney/sonido-tab/algorithms/spectral"
	"github.com/RyanBlaney/sonido-tab/algorithms/tonal"
	"github.com/RyanBlaney/sonido-tab/logging"
	"github.com/RyanBlaney/sonido-tab/tablature/config"
)

// NoteEvent is one detected note and the time span it was heard in
type NoteEvent struct {
	Note  string  `json:"note"`
	Start float64 `json:"start"` // seconds
	End   float64 `json:"end"`   // seconds, >= Start
}

// Detection is the outcome of a detection pass. A zero Detection (Ran ==
// false) means no pass has happened; a pass that could not read the
// spectrogram has Ran == true, no events and a non-nil Err.
type Detection struct {
	Events        []NoteEvent  `json:"events"`
	Skipped       []FrameError `json:"-"`
	Step          int          `json:"step"`
	FramesScanned int          `json:"frames_scanned"`
	SilentFrames  int          `json:"silent_frames"`
	Ran           bool         `json:"-"`
	Err           error        `json:"-"`
}

// NoteDetector walks a spectrogram in fixed strides and turns the dominant
// peaks of each inspected frame into note events
type NoteDetector struct {
	config *config.DetectorConfig
	peaks  *harmonic.SpectralPeaks
	logger logging.Logger
}

// NewNoteDetector creates a detector
func NewNoteDetector(cfg *config.DetectorConfig) *NoteDetector {
	if cfg == nil {
		cfg = config.DefaultDetectorConfig()
	}
	return &NoteDetector{
		config: cfg,
		peaks:  harmonic.NewSpectralPeaks(cfg.RelativeHeight, cfg.MinFrequency, cfg.MaxPeaksPerFrame),
		logger: logging.WithFields(logging.Fields{
			"component": "note_detector",
		}),
	}
}

// Step returns the frame stride: int(StepSeconds * sampleRate / windowSize), at least 1
func (d *NoteDetector) Step(sampleRate, windowSize int) int {
	if windowSize <= 0 {
		return 1
	}
	return max(1, int(d.config.StepSeconds*float64(sampleRate)/float64(windowSize)))
}

// Detect scans spec, which was computed from audio at sampleRate.
// It never returns a partial failure as an error: bad frames are recorded in
// Skipped and the scan goes on.
func (d *NoteDetector) Detect(spec *spectral.Spectrogram, sampleRate int) *Detection {
	det := &Detection{Events: []NoteEvent{}, Ran: true}

	if err := spec.Validate(); err != nil {
		det.Err = err
		d.logger.Error(err, "Cannot detect notes")
		return det
	}
	if sampleRate <= 0 || spec.WindowSize <= 0 {
		det.Err = &spectral.AnalysisError{
			Op:  "detect",
			Err: fmt.Errorf("%w: sample rate %d, window size %d", spectral.ErrMalformed, sampleRate, spec.WindowSize),
		}
		d.logger.Error(det.Err, "Cannot detect notes")
		return det
	}

	det.Step = d.Step(sampleRate, spec.WindowSize)
	last := len(spec.Times) - 1

	logger := d.logger.WithFields(logging.Fields{
		"function": "Detect",
		"frames":   len(spec.Times),
		"step":     det.Step,
	})
	logger.Debug("Starting note detection")

	for i := 0; i <= last; i += det.Step {
		det.FramesScanned++

		events, silent, err := d.scanFrame(spec, i, min(i+det.Step, last))
		if err != nil {
			frameErr := FrameError{Frame: i, Time: spec.Times[i], Err: err}
			det.Skipped = append(det.Skipped, frameErr)
			logger.Warn("Skipping frame", logging.Fields{"frame": i, "reason": err.Error()})
			continue
		}
		if silent {
			det.SilentFrames++
			continue
		}
		det.Events = append(det.Events, events...)
	}

	logger.Debug("Note detection completed", logging.Fields{
		"events":  len(det.Events),
		"skipped": len(det.Skipped),
		"silent":  det.SilentFrames,
	})

	return det
}

// scanFrame inspects the single spectrogram column at frame. The events it
// produces span from that frame's time to the time of endFrame.
//
// Only one column is read. Averaging the columns between frame and endFrame
// would use all the audio in the stride, but would change which peaks win.
func (d *NoteDetector) scanFrame(spec *spectral.Spectrogram, frame, endFrame int) (events []NoteEvent, silent bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			events, silent, err = nil, false, fmt.Errorf("panic: %v", r)
		}
	}()

	column, err := spec.Column(frame)
	if err != nil {
		return nil, false, err
	}

	peaks, err := d.peaks.DetectPeaks(column, spec.Frequencies)
	if err != nil {
		return nil, false, err
	}
	if len(peaks) == 0 && !hasSignal(column) {
		return nil, true, nil
	}

	start, end := spec.Times[frame], spec.Times[endFrame]
	for _, p := range peaks {
		events = append(events, NoteEvent{
			Note:  tonal.FreqToNote(p.Frequency),
			Start: start,
			End:   end,
		})
	}
	return events, false, nil
}

func hasSignal(column []float64) bool {
	for _, v := range column {
		if v > 0 {
			return true
		}
	}
	return false
}

// DominantPitches returns, for every frame, the frequency of the strongest
// bin, skipping frames whose strongest bin is at 0 Hz or carries no energy.
func DominantPitches(spec *spectral.Spectrogram) ([]float64, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	pitches := []float64{}
	for frame := range spec.Times {
		column, err := spec.Column(frame)
		if err != nil {
			return nil, err
		}
		if f := harmonic.DominantFrequency(column, spec.Frequencies); f > 0 {
			pitches = append(pitches, f)
		}
	}
	return pitches, nil
}
