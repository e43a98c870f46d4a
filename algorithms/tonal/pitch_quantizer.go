package tonal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// A4 is the equal-temperament reference pitch
	A4 = 440.0
)

// C0 sits 4.75 octaves (57 semitones) below A4
var C0 = A4 * math.Pow(2, -4.75)

// PitchClassNames are the twelve sharp-spelled pitch classes starting at C
var PitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Note is a quantized equal-temperament pitch
type Note struct {
	PitchClass int     `json:"pitch_class"` // 0=C ... 11=B
	Octave     int     `json:"octave"`
	Cents      float64 `json:"cents"` // deviation of the input frequency, -50..+50
}

// Name returns the pitch class followed by the octave, e.g. "A4"
func (n Note) Name() string {
	return PitchClassNames[n.PitchClass] + strconv.Itoa(n.Octave)
}

// Semitone returns the number of semitones above C0
func (n Note) Semitone() int {
	return n.Octave*12 + n.PitchClass
}

// QuantizeFrequency maps freq to the nearest semitone above or below C0.
// freq must be positive. Exact half-semitone ties round to the even semitone.
func QuantizeFrequency(freq float64) Note {
	exact := 12 * math.Log2(freq/C0)
	h := int(math.RoundToEven(exact))

	return Note{
		PitchClass: floorMod(h, 12),
		Octave:     floorDiv(h, 12),
		Cents:      100 * (exact - float64(h)),
	}
}

// FreqToNote returns the note name nearest to freq, e.g. 440 -> "A4"
func FreqToNote(freq float64) string {
	return QuantizeFrequency(freq).Name()
}

// NoteFromSemitone builds the note h semitones above C0
func NoteFromSemitone(h int) Note {
	return Note{PitchClass: floorMod(h, 12), Octave: floorDiv(h, 12)}
}

// ParseNote parses names like "A4", "C#3" or "E-1"
func ParseNote(name string) (Note, error) {
	for pc := len(PitchClassNames) - 1; pc >= 0; pc-- {
		prefix := PitchClassNames[pc]
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		// sharps are checked first because the loop runs from B down to C
		octave, err := strconv.Atoi(name[len(prefix):])
		if err != nil {
			return Note{}, fmt.Errorf("invalid octave in note %q: %w", name, err)
		}
		return Note{PitchClass: pc, Octave: octave}, nil
	}
	return Note{}, fmt.Errorf("invalid note name %q", name)
}

// Frequency returns the equal-temperament frequency of the note, ignoring Cents
func (n Note) Frequency() float64 {
	return C0 * math.Pow(2, float64(n.Semitone())/12)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
