package tonal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreqToNoteReferencePitches(t *testing.T) {
	assert.Equal(t, "A4", FreqToNote(440.0))
	assert.Equal(t, "C4", FreqToNote(261.63))
	assert.Equal(t, "A5", FreqToNote(880.0))
	assert.Equal(t, "E2", FreqToNote(82.41))
	assert.Equal(t, "E6", FreqToNote(1318.5))
}

func TestFreqToNoteBinCentre(t *testing.T) {
	// 20 * 44100 / 2048, the bin a 440 Hz tone lands in
	assert.Equal(t, "A4", FreqToNote(430.6640625))
}

func TestFreqToNoteOctaveDoubling(t *testing.T) {
	for _, f := range []float64{55, 98.3, 146.83, 203.1, 311.13, 440, 523.25, 987.77} {
		lo := QuantizeFrequency(f)
		hi := QuantizeFrequency(2 * f)

		assert.Equal(t, lo.Octave+1, hi.Octave, "freq %v", f)
		assert.Equal(t, lo.PitchClass, hi.PitchClass, "freq %v", f)
	}
}

func TestQuantizeBelowC0UsesFlooredOctave(t *testing.T) {
	n := QuantizeFrequency(10)
	assert.Equal(t, -1, n.Octave)
	assert.Equal(t, 3, n.PitchClass)
	assert.Equal(t, "D#-1", n.Name())
}

func TestQuantizeCents(t *testing.T) {
	n := QuantizeFrequency(445)
	assert.Equal(t, "A4", n.Name())
	assert.InDelta(t, 19.56, n.Cents, 0.01)
}

func TestParseNote(t *testing.T) {
	n, err := ParseNote("C#3")
	require.NoError(t, err)
	assert.Equal(t, Note{PitchClass: 1, Octave: 3}, n)

	n, err = ParseNote("E-1")
	require.NoError(t, err)
	assert.Equal(t, -1, n.Octave)

	_, err = ParseNote("Z9")
	assert.Error(t, err)
	_, err = ParseNote("A")
	assert.Error(t, err)
}

func TestNoteFromSemitoneRoundTrip(t *testing.T) {
	for h := -14; h < 100; h++ {
		n := NoteFromSemitone(h)
		assert.Equal(t, h, n.Semitone())

		parsed, err := ParseNote(n.Name())
		require.NoError(t, err)
		assert.Equal(t, n, parsed)
	}
}

func TestNoteFrequency(t *testing.T) {
	n, err := ParseNote("A4")
	require.NoError(t, err)
	assert.InDelta(t, 440.0, n.Frequency(), 1e-9)
}
