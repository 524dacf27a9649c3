package musixtex

import (
	"regexp"
	"strconv"

	"github.com/rotisserie/eris"
)

// Pitch is a single MusixTeX pitch letter. The staff positions map to the
// letters A-N (below the bass staff) and a-z.
type Pitch byte

func (p Pitch) String() string {
	return string(rune(p))
}

// PitchFromNumber converts a numeric staff position to its pitch letter.
// Position 0 is 'e', positions below -4 continue downwards from 'N'.
func PitchFromNumber(num int) (Pitch, error) {
	switch {
	case num > -5 && num < 22:
		return Pitch('e' + num), nil
	case num < -4:
		return Pitch('N' + num + 5), nil
	}
	return 0, eris.Errorf("cannot convert number %d to pitch", num)
}

var numberRe = regexp.MustCompile(`^-?\d+$`)

// parsePitch interprets a note command argument as either a numeric staff
// position or a pitch letter.
func parsePitch(s string) (Pitch, error) {
	if numberRe.MatchString(s) {
		num, err := strconv.Atoi(s)
		if err != nil {
			return 0, eris.Wrapf(err, "invalid pitch number %s", s)
		}
		return PitchFromNumber(num)
	}

	if len(s) != 1 {
		return 0, eris.Errorf("invalid pitch letter %q", s)
	}
	return Pitch(s[0]), nil
}

// midiKeys maps pitch letters to MIDI key numbers (middle C is 'j').
var midiKeys = map[Pitch]int{
	'A': 21, 'B': 23, 'C': 24, 'D': 26,
	'E': 28, 'F': 29, 'G': 31, 'H': 33, 'I': 35, 'J': 36, 'K': 38,
	'L': 40, 'M': 41, 'N': 43, 'a': 45, 'b': 47, 'c': 48, 'd': 50,
	'e': 52, 'f': 53, 'g': 55, 'h': 57, 'i': 59, 'j': 60, 'k': 62,
	'l': 64, 'm': 65, 'n': 67, 'o': 69, 'p': 71, 'q': 72, 'r': 74,
	's': 76, 't': 77, 'u': 79, 'v': 81, 'w': 83, 'x': 84, 'y': 86,
	'z': 88,
}

// Accidentals tracks which pitches are currently sharped, flatted or
// explicitly naturalized.
type Accidentals struct {
	Sharps   []Pitch
	Flats    []Pitch
	Naturals []Pitch
}

func mergeAccidentals(global, local Accidentals) Accidentals {
	merged := Accidentals{
		Sharps:   make([]Pitch, 0, len(global.Sharps)+len(local.Sharps)),
		Flats:    make([]Pitch, 0, len(global.Flats)+len(local.Flats)),
		Naturals: local.Naturals,
	}
	merged.Sharps = append(merged.Sharps, global.Sharps...)
	merged.Sharps = append(merged.Sharps, local.Sharps...)
	merged.Flats = append(merged.Flats, global.Flats...)
	merged.Flats = append(merged.Flats, local.Flats...)
	return merged
}

func containsPitch(list []Pitch, p Pitch) bool {
	for _, item := range list {
		if item == p {
			return true
		}
	}
	return false
}

// sharpOrder and flatOrder are the pitches affected by key signatures, in
// the order they appear as the signature grows.
var (
	sharpOrder = []Pitch{'m', 'j', 'n', 'k', 'h', 'l', 'i'}
	flatOrder  = []Pitch{'i', 'l', 'h', 'k', 'g', 'j', 'f'}
)

// signatureAccidentals returns the global accidentals implied by a key
// signature: positive values add sharps, negative values add flats.
func signatureAccidentals(signature int) Accidentals {
	switch {
	case signature > 0:
		if signature > len(sharpOrder) {
			signature = len(sharpOrder)
		}
		return Accidentals{Sharps: sharpOrder[:signature]}
	case signature < 0:
		count := -signature
		if count > len(flatOrder) {
			count = len(flatOrder)
		}
		return Accidentals{Flats: flatOrder[:count]}
	}
	return Accidentals{}
}

// Note is a single note event with its effective accidentals.
type Note struct {
	Pitch       Pitch
	Start       int
	Duration    int
	Accidentals Accidentals
}

// MidiKey resolves the note to a MIDI key number. Explicit naturals take
// precedence over the signature and any local accidentals.
func (n Note) MidiKey() (int, error) {
	base, ok := midiKeys[n.Pitch]
	if !ok {
		return 0, eris.Errorf("pitch %s has no MIDI mapping", n.Pitch)
	}

	switch {
	case containsPitch(n.Accidentals.Naturals, n.Pitch):
	case containsPitch(n.Accidentals.Sharps, n.Pitch):
		base++
	case containsPitch(n.Accidentals.Flats, n.Pitch):
		base--
	}
	return base, nil
}
