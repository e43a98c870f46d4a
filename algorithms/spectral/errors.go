package spectral

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySignal       = errors.New("empty signal")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrInvalidWindow     = errors.New("invalid window configuration")
	ErrMalformed         = errors.New("malformed spectrogram")
)

// AnalysisError reports a failure to compute or read a spectrogram.
// It always aborts the analysis that produced it.
type AnalysisError struct {
	Op  string
	Err error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("spectral analysis failed (%s): %v", e.Op, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func analysisErr(op string, err error) error {
	return &AnalysisError{Op: op, Err: err}
}
