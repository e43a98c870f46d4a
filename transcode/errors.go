package transcode

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotFound      = errors.New("audio file not found")
	ErrUnreadable        = errors.New("audio file unreadable")
	ErrMalformedAudio    = errors.New("malformed audio data")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// LoadError is returned for any failure to turn a file into an AudioBuffer.
// Kind is one of the Err* sentinels above; Err is the underlying cause.
type LoadError struct {
	Path string
	Kind error
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As
func (e *LoadError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// IsNotFound reports whether err means the input file does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound)
}

func loadErr(path string, kind, cause error) *LoadError {
	return &LoadError{Path: path, Kind: kind, Err: cause}
}
