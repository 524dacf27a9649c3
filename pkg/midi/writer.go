// Package midi encodes note sequences as standard MIDI files (format 1,
// a single track, 64 ticks per quarter note).
package midi

import (
	"encoding/binary"

	"github.com/rotisserie/eris"
)

// Division is the number of ticks per quarter note used by all files this
// package writes.
const Division = 64

const (
	noteOn   = 0x90
	noteOff  = 0x80
	velocity = 64
)

// Note is a single key press: Key is the MIDI key number, Start and
// Duration are in ticks.
type Note struct {
	Key      int
	Start    int
	Duration int
}

// appendVarint appends v in the variable-length quantity encoding used for
// MIDI delta times: 7 bits per byte, high bit set on all but the last byte.
func appendVarint(dst []byte, v int) []byte {
	if v < 0x80 {
		return append(dst, byte(v))
	}

	suffix := []byte{byte(v % 0x80)}
	for value := v / 0x80; value > 0; value /= 0x80 {
		suffix = append([]byte{byte(value%0x80) | 0x80}, suffix...)
	}

	return append(dst, suffix...)
}

// Encode renders the given notes as a complete MIDI file. Notes must be
// ordered by start time and may not overlap; each note emits a note-on
// delayed by the gap since the previous note's end, followed by its
// note-off.
func Encode(notes []Note) ([]byte, error) {
	body := make([]byte, 0, len(notes)*8)

	prevEnd := -1
	for _, note := range notes {
		if note.Key < 0 || note.Key > 127 {
			return nil, eris.Errorf("MIDI key %d is out of range", note.Key)
		}

		delta := 0
		if prevEnd >= 0 {
			delta = note.Start - prevEnd
			if delta < 0 {
				return nil, eris.Errorf("note at tick %d overlaps the previous note", note.Start)
			}
		}

		body = appendVarint(body, delta)
		body = append(body, noteOn, byte(note.Key), velocity)
		body = appendVarint(body, note.Duration)
		body = append(body, noteOff, byte(note.Key), velocity)

		prevEnd = note.Start + note.Duration
	}

	result := make([]byte, 0, len(body)+22)
	result = append(result, 'M', 'T', 'h', 'd', 0, 0, 0, 6)
	result = binary.BigEndian.AppendUint16(result, 1) // format
	result = binary.BigEndian.AppendUint16(result, 1) // track count
	result = binary.BigEndian.AppendUint16(result, Division)
	result = append(result, 'M', 'T', 'r', 'k')
	result = binary.BigEndian.AppendUint32(result, uint32(len(body)))
	result = append(result, body...)

	return result, nil
}
