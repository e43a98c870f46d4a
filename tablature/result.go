package tablature

import (
	"fmt"
	"time"
)

// SkippedFrame records a frame dropped during detection
type SkippedFrame struct {
	Frame  int     `json:"frame"`
	Time   float64 `json:"time"`
	Reason string  `json:"reason"`
}

// RunStats describes what a pipeline run processed
type RunStats struct {
	SampleRate       int           `json:"sample_rate"`
	SourceSamples    int           `json:"source_samples"`
	Samples          int           `json:"samples"`
	DecimationFactor int           `json:"decimation_factor"`
	Frames           int           `json:"frames"`
	WindowSize       int           `json:"window_size"`
	Step             int           `json:"step"`
	FramesScanned    int           `json:"frames_scanned"`
	SilentFrames     int           `json:"silent_frames"`
	ProcessingTime   time.Duration `json:"processing_time"`
}

// Result is the output of one pipeline run.
//
// A successful run has Error == nil, Status == StatusOK and zero or more
// events. A failed run has an empty Notes and Timing alongside Error; the two
// are never mixed. DetectionError is set when the spectrogram could not be
// scanned at all: the run still succeeds with zero notes.
type Result struct {
	Notes          *NoteMap       `json:"notes"`
	Timing         []NoteEvent    `json:"timing"`
	Error          *string        `json:"error"`
	Status         Status         `json:"status"`
	DetectionError string         `json:"detection_error,omitempty"`
	SkippedFrames  []SkippedFrame `json:"skipped_frames,omitempty"`
	Stats          *RunStats      `json:"stats,omitempty"`
}

func emptyResult() *Result {
	return &Result{
		Notes:  newNoteMap(),
		Timing: []NoteEvent{},
		Status: StatusOK,
	}
}

// ErrorResult wraps a failed run in the same shape as a successful one
func ErrorResult(err error) *Result {
	res := emptyResult()
	if err == nil {
		return res
	}
	msg := err.Error()
	res.Error = &msg
	res.Status = Classify(err)
	return res
}

// OK reports whether the run succeeded
func (r *Result) OK() bool {
	return r != nil && r.Error == nil
}

// MarshalText writes the status name
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name written by MarshalText
func (s *Status) UnmarshalText(text []byte) error {
	for candidate := StatusOK; candidate <= StatusUnknown; candidate++ {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

func skippedFrames(errs []FrameError) []SkippedFrame {
	if len(errs) == 0 {
		return nil
	}
	out := make([]SkippedFrame, len(errs))
	for i, fe := range errs {
		out[i] = SkippedFrame{Frame: fe.Frame, Time: fe.Time, Reason: fe.Err.Error()}
	}
	return out
}
