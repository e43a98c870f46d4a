// Package fretboard maps note names to playable (string, fret) positions on a
// fretted instrument. The standard six-string table is built once at package
// initialisation and never modified, so it is safe to share between goroutines.
package fretboard

import (
	"fmt"

	"github.com/RyanBlaney/sonido-tab/algorithms/tonal"
)

// DefaultFrets is the highest fret in the standard layout
const DefaultFrets = 12

// Position is one way to play a note
type Position struct {
	String string `json:"string"`
	Fret   int    `json:"fret"`
}

// Tuning describes one string: its label, a one-letter symbol for diagrams,
// and the note of the open string
type Tuning struct {
	Label  string `json:"label"`
	Symbol string `json:"symbol"`
	Open   string `json:"open"`
}

// StandardTuning is E A D G B E, lowest string first
var StandardTuning = []Tuning{
	{Label: "Low-E", Symbol: "E", Open: "E2"},
	{Label: "A", Symbol: "A", Open: "A2"},
	{Label: "D", Symbol: "D", Open: "D3"},
	{Label: "G", Symbol: "G", Open: "G3"},
	{Label: "B", Symbol: "B", Open: "B3"},
	{Label: "High-e", Symbol: "e", Open: "E4"},
}

type guitarString struct {
	tuning Tuning
	notes  []string // notes[fret]
	frets  map[string]int
}

// Fretboard is an immutable note lookup table
type Fretboard struct {
	strings []guitarString
	frets   int
}

// Standard is the six-string, twelve-fret table in standard tuning
var Standard = MustNew(StandardTuning, DefaultFrets)

// New builds a table for the given strings (declaration order is kept) with
// frets 0..frets on each.
func New(tunings []Tuning, frets int) (*Fretboard, error) {
	if len(tunings) == 0 {
		return nil, fmt.Errorf("fretboard needs at least one string")
	}
	if frets < 0 {
		return nil, fmt.Errorf("fret count must not be negative: %d", frets)
	}

	fb := &Fretboard{frets: frets, strings: make([]guitarString, 0, len(tunings))}
	seen := make(map[string]bool, len(tunings))

	for _, t := range tunings {
		if seen[t.Label] {
			return nil, fmt.Errorf("duplicate string label %q", t.Label)
		}
		seen[t.Label] = true

		open, err := tonal.ParseNote(t.Open)
		if err != nil {
			return nil, fmt.Errorf("string %q: %w", t.Label, err)
		}

		gs := guitarString{
			tuning: t,
			notes:  make([]string, frets+1),
			frets:  make(map[string]int, frets+1),
		}
		for fret := 0; fret <= frets; fret++ {
			name := tonal.NoteFromSemitone(open.Semitone() + fret).Name()
			gs.notes[fret] = name
			gs.frets[name] = fret
		}
		fb.strings = append(fb.strings, gs)
	}

	return fb, nil
}

// MustNew is New that panics on error, for package-level tables
func MustNew(tunings []Tuning, frets int) *Fretboard {
	fb, err := New(tunings, frets)
	if err != nil {
		panic(err)
	}
	return fb
}

// Positions returns every (string, fret) that sounds note, in string
// declaration order. An unknown or out-of-range note yields an empty slice.
func (f *Fretboard) Positions(note string) []Position {
	positions := []Position{}
	for _, gs := range f.strings {
		if fret, ok := gs.frets[note]; ok {
			positions = append(positions, Position{String: gs.tuning.Label, Fret: fret})
		}
	}
	return positions
}

// Frets returns the highest fret
func (f *Fretboard) Frets() int {
	return f.frets
}

// Tunings returns a copy of the string definitions in declaration order
func (f *Fretboard) Tunings() []Tuning {
	out := make([]Tuning, len(f.strings))
	for i, gs := range f.strings {
		out[i] = gs.tuning
	}
	return out
}

// StringNotes returns the notes of the labelled string from the open string up
func (f *Fretboard) StringNotes(label string) ([]string, bool) {
	for _, gs := range f.strings {
		if gs.tuning.Label == label {
			notes := make([]string, len(gs.notes))
			copy(notes, gs.notes)
			return notes, true
		}
	}
	return nil, false
}

// Positions looks note up on the standard fretboard
func Positions(note string) []Position {
	return Standard.Positions(note)
}
