package tablature

import (
	"bytes"
	"encoding/json"

	"github.com/RyanBlaney/sonido-tab/fretboard"
)

// Mapper looks up the fretboard positions of a note name
type Mapper interface {
	Positions(note string) []fretboard.Position
}

// NoteMap pairs each distinct detected note with its fretboard positions.
// Order holds the note names in first-seen order; it drives JSON output.
type NoteMap struct {
	Order     []string
	Positions map[string][]fretboard.Position
}

func newNoteMap() *NoteMap {
	return &NoteMap{
		Order:     []string{},
		Positions: make(map[string][]fretboard.Position),
	}
}

// Len returns the number of distinct notes
func (m *NoteMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Order)
}

// Get returns the positions of note and whether note was detected
func (m *NoteMap) Get(note string) ([]fretboard.Position, bool) {
	if m == nil {
		return nil, false
	}
	p, ok := m.Positions[note]
	return p, ok
}

// MarshalJSON writes an object keyed by note name, in first-seen order
func (m *NoteMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if m != nil {
		for i, note := range m.Order {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(note)
			if err != nil {
				return nil, err
			}
			value, err := json.Marshal(m.Positions[note])
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(value)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keyed by note name. Go maps do not keep
// insertion order, so Order is rebuilt from the token stream.
func (m *NoteMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = *newNoteMap()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		note, _ := tok.(string)

		var positions []fretboard.Position
		if err := dec.Decode(&positions); err != nil {
			return err
		}
		if _, seen := m.Positions[note]; !seen {
			m.Order = append(m.Order, note)
		}
		m.Positions[note] = positions
	}
	_, err := dec.Token()
	return err
}

// ResultAssembler builds NoteMaps, asking the Mapper at most once per note
// name for its whole lifetime. It is not safe for concurrent use; the
// pipeline creates one per run.
type ResultAssembler struct {
	mapper  Mapper
	cache   map[string][]fretboard.Position
	lookups int
}

// NewResultAssembler creates an assembler over mapper; nil selects the
// standard six-string table.
func NewResultAssembler(mapper Mapper) *ResultAssembler {
	if mapper == nil {
		mapper = fretboard.Standard
	}
	return &ResultAssembler{
		mapper: mapper,
		cache:  make(map[string][]fretboard.Position),
	}
}

// Lookup returns the cached positions of note, asking the Mapper on a miss
func (a *ResultAssembler) Lookup(note string) []fretboard.Position {
	if positions, ok := a.cache[note]; ok {
		return positions
	}
	positions := a.mapper.Positions(note)
	if positions == nil {
		positions = []fretboard.Position{}
	}
	a.cache[note] = positions
	a.lookups++
	return positions
}

// Lookups is the number of times the Mapper has been called
func (a *ResultAssembler) Lookups() int {
	return a.lookups
}

// Assemble collects the distinct note names of events in first-seen order
func (a *ResultAssembler) Assemble(events []NoteEvent) *NoteMap {
	notes := newNoteMap()
	for _, ev := range events {
		if _, seen := notes.Positions[ev.Note]; seen {
			continue
		}
		notes.Order = append(notes.Order, ev.Note)
		notes.Positions[ev.Note] = a.Lookup(ev.Note)
	}
	return notes
}
