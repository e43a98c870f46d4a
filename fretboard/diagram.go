package fretboard

import (
	"fmt"
	"io"
	"strings"
)

// Grid marks the active positions on a strings x frets grid. Rows run from
// the highest string to the lowest, the way a fretboard diagram is read.
func (f *Fretboard) Grid(active []Position) [][]bool {
	rowOf := make(map[string]int, len(f.strings))
	grid := make([][]bool, len(f.strings))
	for i := range f.strings {
		row := len(f.strings) - 1 - i
		rowOf[f.strings[i].tuning.Label] = row
		grid[row] = make([]bool, f.frets+1)
	}

	for _, p := range active {
		row, ok := rowOf[p.String]
		if !ok || p.Fret < 0 || p.Fret > f.frets {
			continue
		}
		grid[row][p.Fret] = true
	}
	return grid
}

// Render writes a text diagram of the active positions, one line per string:
//
//	e |-o-|---|...
func (f *Fretboard) Render(w io.Writer, active []Position) error {
	grid := f.Grid(active)
	for row, frets := range grid {
		symbol := f.strings[len(f.strings)-1-row].tuning.Symbol

		var b strings.Builder
		fmt.Fprintf(&b, "%-2s|", symbol)
		for _, on := range frets {
			if on {
				b.WriteString("-o-|")
			} else {
				b.WriteString("---|")
			}
		}
		b.WriteByte('\n')

		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}
