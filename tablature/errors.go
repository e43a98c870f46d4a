package tablature

import (
	"context"
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-tab/algorithms/spectral"
	"github.com/RyanBlaney/sonido-tab/transcode"
)

// FrameError is a failure confined to one spectrogram frame. The frame is
// skipped; it never fails the run.
type FrameError struct {
	Frame int
	Time  float64
	Err   error
}

func (e FrameError) Error() string {
	return fmt.Sprintf("frame %d (%.3fs): %v", e.Frame, e.Time, e.Err)
}

func (e FrameError) Unwrap() error {
	return e.Err
}

// Status is the outcome category of a pipeline run
type Status int

const (
	StatusOK Status = iota
	// StatusNoInput means the input file does not exist
	StatusNoInput
	// StatusLoadFailed means the input exists but could not be decoded
	StatusLoadFailed
	// StatusAnalysisFailed means the audio loaded but spectral analysis failed
	StatusAnalysisFailed
	// StatusCancelled means the caller's context ended the run
	StatusCancelled
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoInput:
		return "no_input"
	case StatusLoadFailed:
		return "load_failed"
	case StatusAnalysisFailed:
		return "analysis_failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Classify maps an error returned by Pipeline.Run to a Status
func Classify(err error) Status {
	if err == nil {
		return StatusOK
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return StatusCancelled
	}

	var loadErr *transcode.LoadError
	if errors.As(err, &loadErr) {
		if errors.Is(err, transcode.ErrFileNotFound) {
			return StatusNoInput
		}
		return StatusLoadFailed
	}

	var analysisErr *spectral.AnalysisError
	if errors.As(err, &analysisErr) {
		return StatusAnalysisFailed
	}

	return StatusUnknown
}
