package windowing

import (
	"fmt"
	"math"
)

// Type names a window function
type Type string

const (
	TypeHamming        Type = "hamming"
	TypeHann           Type = "hann"
	TypeBlackman       Type = "blackman"
	TypeBlackmanHarris Type = "blackman-harris"
	TypeBartlett       Type = "bartlett"
	TypeRectangular    Type = "rectangular"
)

// generalised cosine-sum coefficients: a0 - a1 cos(x) + a2 cos(2x) - a3 cos(3x) ...
var cosineTerms = map[Type][]float64{
	TypeHamming:        {0.54, 0.46},
	TypeHann:           {0.5, 0.5},
	TypeBlackman:       {0.42, 0.5, 0.08},
	TypeBlackmanHarris: {0.35875, 0.48829, 0.14128, 0.01168},
}

// Types lists the supported window functions
func Types() []Type {
	return []Type{TypeHamming, TypeHann, TypeBlackman, TypeBlackmanHarris, TypeBartlett, TypeRectangular}
}

// Window holds precomputed window coefficients
type Window struct {
	kind         Type
	size         int
	symmetric    bool
	coefficients []float64
}

// New creates a window of the given type. Spectral analysis wants the
// periodic form (symmetric=false); filter design wants the symmetric one.
func New(kind Type, size int, symmetric bool) (*Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive: %d", size)
	}

	w := &Window{kind: kind, size: size, symmetric: symmetric}
	switch kind {
	case TypeBartlett:
		w.coefficients = bartlett(size, symmetric)
	case TypeRectangular:
		w.coefficients = make([]float64, size)
		for i := range w.coefficients {
			w.coefficients[i] = 1
		}
	default:
		terms, ok := cosineTerms[kind]
		if !ok {
			return nil, fmt.Errorf("unknown window type %q", kind)
		}
		w.coefficients = cosineSum(terms, size, symmetric)
	}
	return w, nil
}

// NewHamming creates a Hamming window
func NewHamming(size int, symmetric bool) *Window {
	w, err := New(TypeHamming, max(size, 1), symmetric)
	if err != nil {
		panic(err)
	}
	return w
}

func cosineSum(terms []float64, size int, symmetric bool) []float64 {
	coeffs := make([]float64, size)
	if size == 1 {
		coeffs[0] = 1
		return coeffs
	}

	denominator := float64(size)
	if symmetric {
		denominator = float64(size - 1)
	}

	for i := range size {
		arg := 2 * math.Pi * float64(i) / denominator
		sign := 1.0
		for k, a := range terms {
			coeffs[i] += sign * a * math.Cos(float64(k)*arg)
			sign = -sign
		}
	}
	return coeffs
}

// bartlett is the triangle that is zero at both ends. The periodic form is
// the symmetric window one sample longer with the last sample dropped.
func bartlett(size int, symmetric bool) []float64 {
	if size == 1 {
		return []float64{1}
	}

	n := size
	if !symmetric {
		n = size + 1
	}

	coeffs := make([]float64, size)
	half := float64(n-1) / 2
	for i := range size {
		coeffs[i] = 1 - math.Abs((float64(i)-half)/half)
	}
	return coeffs
}

// ApplyInPlace applies the window to a signal in-place
func (w *Window) ApplyInPlace(signal []float64) error {
	if len(signal) != w.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), w.size)
	}

	for i := range w.size {
		signal[i] *= w.coefficients[i]
	}

	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (w *Window) GetCoefficients() []float64 {
	coeffs := make([]float64, len(w.coefficients))
	copy(coeffs, w.coefficients)
	return coeffs
}

// GetSize returns the window size
func (w *Window) GetSize() int {
	return w.size
}

// GetType returns the window type
func (w *Window) GetType() Type {
	return w.kind
}
