package musixtex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPitchFromNumber(t *testing.T) {
	cases := []struct {
		num      int
		expected Pitch
	}{
		{0, 'e'},
		{5, 'j'},
		{21, 'z'},
		{-4, 'a'},
		{-5, 'N'},
		{-18, 'A'},
	}

	for _, item := range cases {
		pitch, err := PitchFromNumber(item.num)
		require.NoError(t, err, "number %d", item.num)
		assert.Equal(t, item.expected, pitch, "number %d", item.num)
	}

	_, err := PitchFromNumber(22)
	assert.Error(t, err)
}

func TestParsePitch(t *testing.T) {
	pitch, err := parsePitch("j")
	require.NoError(t, err)
	assert.Equal(t, Pitch('j'), pitch)

	pitch, err = parsePitch("-5")
	require.NoError(t, err)
	assert.Equal(t, Pitch('N'), pitch)

	_, err = parsePitch("jk")
	assert.Error(t, err)
}

func TestMidiKeyAccidentals(t *testing.T) {
	note := Note{Pitch: 'j', Accidentals: Accidentals{}}
	key, err := note.MidiKey()
	require.NoError(t, err)
	assert.Equal(t, 60, key)

	note.Accidentals.Sharps = []Pitch{'j'}
	key, err = note.MidiKey()
	require.NoError(t, err)
	assert.Equal(t, 61, key)

	note.Accidentals.Flats = []Pitch{'j'}
	key, err = note.MidiKey()
	require.NoError(t, err)
	assert.Equal(t, 61, key, "sharps take precedence over flats")

	note.Accidentals.Sharps = nil
	key, err = note.MidiKey()
	require.NoError(t, err)
	assert.Equal(t, 59, key)

	// an explicit natural overrides the signature
	note.Accidentals.Naturals = []Pitch{'j'}
	key, err = note.MidiKey()
	require.NoError(t, err)
	assert.Equal(t, 60, key)
}

func TestMidiKeyUnknownPitch(t *testing.T) {
	note := Note{Pitch: '+'}
	_, err := note.MidiKey()
	assert.Error(t, err)
}

func TestSignatureAccidentals(t *testing.T) {
	assert.Empty(t, signatureAccidentals(0).Sharps)
	assert.Empty(t, signatureAccidentals(0).Flats)

	two := signatureAccidentals(2)
	assert.Equal(t, []Pitch{'m', 'j'}, two.Sharps)
	assert.Empty(t, two.Flats)

	flat := signatureAccidentals(-3)
	assert.Equal(t, []Pitch{'i', 'l', 'h'}, flat.Flats)
	assert.Empty(t, flat.Sharps)
}
